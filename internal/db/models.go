package db

import (
	"time"
)

// CatalogPackage is the model package holding the catalog entities.
const CatalogPackage = "catalog"

func init() {
	RegisterPackage(CatalogPackage, &Manufacturer{}, &Car{})
}

// Manufacturer is a car maker.
type Manufacturer struct {
	ID int64 `gorm:"primaryKey;column:id;autoIncrement" json:"id"`

	Name string `gorm:"column:name;type:varchar(255);not null" json:"name"`

	// Country of registration. Optional.
	Country *string `gorm:"column:country;type:varchar(255)" json:"country,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

func (Manufacturer) TableName() string {
	return "manufacturers"
}

// Car is a model produced by a Manufacturer. Cars are deleted with their manufacturer.
type Car struct {
	ID int64 `gorm:"primaryKey;column:id;autoIncrement" json:"id"`

	Model string `gorm:"column:model;type:varchar(255);not null" json:"model"`

	ManufacturerID int64 `gorm:"column:manufacturer_id;not null;index:idx_cars_manufacturer_id" json:"manufacturerId"`

	// Manufacturer is only populated when preloaded.
	Manufacturer *Manufacturer `gorm:"foreignKey:ManufacturerID;constraint:OnDelete:CASCADE" json:"manufacturer,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;not null" json:"createdAt"`
}

func (Car) TableName() string {
	return "cars"
}
