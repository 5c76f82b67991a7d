package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// InitLogger initializes the structured logger based on environment configuration
func InitLogger() {
	logLevel := getLogLevel()
	logFormat := getLogFormat()

	var handler slog.Handler

	handlerOpts := &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: true, // Include file and line number
	}

	switch logFormat {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, handlerOpts)
	default:
		handler = slog.NewTextHandler(os.Stdout, handlerOpts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Info("logger initialized",
		"level", logLevel.String(),
		"format", logFormat,
	)
}

// getLogLevel reads the LOG_LEVEL environment variable and returns the corresponding slog.Level
func getLogLevel() slog.Level {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getLogFormat reads the LOG_FORMAT environment variable and returns the format
func getLogFormat() string {
	format := strings.ToLower(os.Getenv("LOG_FORMAT"))
	switch format {
	case "json":
		return "json"
	case "text", "":
		return "text"
	default:
		return "text"
	}
}

// Writer adapts printf-style library loggers such as gorm's onto slog.
// Every line is logged at Level with a "component" attribute.
type Writer struct {
	Logger    *slog.Logger
	Component string
	Level     slog.Level
}

// NewWriter returns a Writer logging through the default slog logger.
func NewWriter(component string, level slog.Level) *Writer {
	return &Writer{Component: component, Level: level}
}

func (w *Writer) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

// Printf implements the gorm logger.Writer interface.
func (w *Writer) Printf(format string, args ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))
	w.logger().Log(context.Background(), w.Level, msg, "component", w.Component)
}

