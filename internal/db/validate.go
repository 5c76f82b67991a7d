package db

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// SchemaMismatchError reports a mapped table or column missing from the database.
type SchemaMismatchError struct {
	Table  string
	Column string // empty when the whole table is missing
}

func (e *SchemaMismatchError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("schema validation: missing table [%s]", e.Table)
	}
	return fmt.Sprintf("schema validation: missing column [%s] in table [%s]", e.Column, e.Table)
}

// validateSchema checks that every model's table and mapped columns exist.
// All mismatches are reported together.
func validateSchema(db *gorm.DB, models []any) error {
	migrator := db.Migrator()
	var errs []error

	for _, model := range models {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			errs = append(errs, fmt.Errorf("failed to parse model %T: %w", model, err))
			continue
		}
		table := stmt.Schema.Table

		if !migrator.HasTable(model) {
			errs = append(errs, &SchemaMismatchError{Table: table})
			continue
		}

		for _, column := range stmt.Schema.DBNames {
			if !migrator.HasColumn(model, column) {
				errs = append(errs, &SchemaMismatchError{Table: table, Column: column})
			}
		}
	}

	return errors.Join(errs...)
}

func applySchemaAction(db *gorm.DB, action string, models []any) error {
	switch action {
	case SchemaActionValidate:
		return validateSchema(db, models)
	case SchemaActionUpdate:
		if len(models) == 0 {
			return nil
		}
		if err := db.AutoMigrate(models...); err != nil {
			return fmt.Errorf("failed to update schema: %w", err)
		}
		return nil
	case SchemaActionNone:
		return nil
	default:
		return fmt.Errorf("unknown %s %q", PropertySchemaAction, action)
	}
}
