// Package migrations holds the embedded schema changelog, one goose
// directory per supported database.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed sqlite/*.sql postgres/*.sql
var changelog embed.FS

// ForDatabase returns the changelog for the named database ("sqlite" or "postgres").
func ForDatabase(name string) (fs.FS, error) {
	if _, err := fs.Stat(changelog, name); err != nil {
		return nil, fmt.Errorf("no changelog for database %q: %w", name, err)
	}
	return fs.Sub(changelog, name)
}
