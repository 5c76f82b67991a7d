package manufacturer

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/m0rjc/OrmTestKit/internal/db"
)

// cacheRegion is the second-level cache region for manufacturers.
const cacheRegion = "manufacturers"

// Create inserts a manufacturer and fills in its generated ID
func Create(ctx context.Context, f *db.SessionFactory, m *db.Manufacturer) error {
	return f.Session(ctx).Create(m).Error
}

// FindByID loads a manufacturer, reading through the second-level cache.
// Returns nil if not found
func FindByID(ctx context.Context, f *db.SessionFactory, id int64) (*db.Manufacturer, error) {
	var record db.Manufacturer
	hit, err := f.Cache().Get(ctx, cacheRegion, id, &record)
	if err != nil {
		slog.Warn("manufacturer cache read failed", "id", id, "error", err)
	}
	if hit {
		return &record, nil
	}

	err = f.Session(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	// Rows read inside a transaction may still be rolled back.
	if db.InTransaction(ctx) {
		return &record, nil
	}
	if err := f.Cache().Put(ctx, cacheRegion, id, &record); err != nil {
		slog.Warn("manufacturer cache write failed", "id", id, "error", err)
	}
	return &record, nil
}

// FindAll returns all manufacturers ordered by name
func FindAll(ctx context.Context, f *db.SessionFactory) ([]db.Manufacturer, error) {
	var records []db.Manufacturer
	err := f.Session(ctx).Order("name").Order("id").Find(&records).Error
	return records, err
}

// Update saves name and country and evicts the cached copy
func Update(ctx context.Context, f *db.SessionFactory, m *db.Manufacturer) error {
	updates := map[string]interface{}{
		"name":    m.Name,
		"country": m.Country,
	}
	if err := f.Session(ctx).Model(&db.Manufacturer{}).
		Where("id = ?", m.ID).
		Updates(updates).Error; err != nil {
		return err
	}
	return f.Cache().Evict(ctx, cacheRegion, m.ID)
}

// Delete removes a manufacturer and, through the foreign key, its cars.
// Deleting a missing manufacturer is not an error.
func Delete(ctx context.Context, f *db.SessionFactory, id int64) error {
	if err := f.Session(ctx).Where("id = ?", id).Delete(&db.Manufacturer{}).Error; err != nil {
		return err
	}
	return f.Cache().Evict(ctx, cacheRegion, id)
}
