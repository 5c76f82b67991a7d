package car

import (
	"context"
	"errors"

	"github.com/m0rjc/OrmTestKit/internal/db"
	"gorm.io/gorm"
)

// Create inserts a car. The manufacturer must already exist.
func Create(ctx context.Context, f *db.SessionFactory, car *db.Car) error {
	return f.Session(ctx).Omit("Manufacturer").Create(car).Error
}

// FindByID loads a car with its manufacturer preloaded
// Returns nil if not found
func FindByID(ctx context.Context, f *db.SessionFactory, id int64) (*db.Car, error) {
	var record db.Car
	err := f.Session(ctx).Preload("Manufacturer").Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// FindByManufacturer returns the cars of one manufacturer ordered by model
func FindByManufacturer(ctx context.Context, f *db.SessionFactory, manufacturerID int64) ([]db.Car, error) {
	var records []db.Car
	err := f.Session(ctx).
		Where("manufacturer_id = ?", manufacturerID).
		Order("model").
		Find(&records).Error
	return records, err
}

// Delete removes a car
func Delete(ctx context.Context, f *db.SessionFactory, id int64) error {
	return f.Session(ctx).Where("id = ?", id).Delete(&db.Car{}).Error
}
