package db

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/m0rjc/OrmTestKit/internal/config"
	"github.com/m0rjc/OrmTestKit/internal/metrics"
)

// Garage is mapped but has no changeset.
type Garage struct {
	ID   int64  `gorm:"primaryKey"`
	Name string `gorm:"not null"`
}

// ManufacturerWithNickname maps a column the changelog never created.
type ManufacturerWithNickname struct {
	ID       int64  `gorm:"primaryKey;column:id"`
	Name     string `gorm:"column:name"`
	Nickname string `gorm:"column:nickname"`
}

func (ManufacturerWithNickname) TableName() string {
	return "manufacturers"
}

func TestBuildSessionFactory_RequiresMigratedDataSource(t *testing.T) {
	ds, err := NewSQLiteDataSourceProvider().Open(context.Background())
	require.NoError(t, err)
	defer ds.Close()

	_, err = NewConfiguration().AddAnnotatedModel(&Manufacturer{}).BuildSessionFactory(ds)
	assert.ErrorIs(t, err, ErrNotMigrated)

	_, err = NewConfiguration().BuildSessionFactory(nil)
	assert.ErrorIs(t, err, ErrNotMigrated)
}

func TestBuildSessionFactory_ValidatesMappedModels(t *testing.T) {
	ds := migratedDataSource(t)

	factory, err := NewConfiguration().
		AddProperties(Properties{PropertyDialect: "sqlite", PropertySchemaAction: SchemaActionValidate}).
		AddAnnotatedModel(&Manufacturer{}).
		AddAnnotatedModel(&Car{}).
		BuildSessionFactory(ds)

	require.NoError(t, err)
	assert.Len(t, factory.Models(), 2)
	assert.Same(t, ds, factory.DataSource())
}

func TestBuildSessionFactory_ValidationReportsEveryMismatch(t *testing.T) {
	ds := migratedDataSource(t)
	before := testutil.ToFloat64(metrics.SchemaValidationFailures)

	_, err := NewConfiguration().
		AddAnnotatedModel(&Garage{}).
		AddAnnotatedModel(&ManufacturerWithNickname{}).
		BuildSessionFactory(ds)

	require.Error(t, err)
	var mismatch *SchemaMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Contains(t, err.Error(), "missing table [garages]")
	assert.Contains(t, err.Error(), "missing column [nickname] in table [manufacturers]")
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.SchemaValidationFailures)-before)
}

func TestBuildSessionFactory_UpdateCreatesMissingTables(t *testing.T) {
	ds := migratedDataSource(t)

	factory, err := NewConfiguration().
		AddProperties(Properties{PropertySchemaAction: SchemaActionUpdate}).
		AddAnnotatedModel(&Garage{}).
		BuildSessionFactory(ds)
	require.NoError(t, err)

	assert.True(t, factory.Session(context.Background()).Migrator().HasTable(&Garage{}))
}

func TestBuildSessionFactory_NoneSkipsSchemaChecks(t *testing.T) {
	ds := migratedDataSource(t)

	_, err := NewConfiguration().
		AddProperties(Properties{PropertySchemaAction: SchemaActionNone}).
		AddAnnotatedModel(&Garage{}).
		BuildSessionFactory(ds)

	assert.NoError(t, err)
}

func TestBuildSessionFactory_RejectsUnknownSchemaAction(t *testing.T) {
	ds := migratedDataSource(t)

	_, err := NewConfiguration().
		AddProperties(Properties{PropertySchemaAction: "create-drop"}).
		BuildSessionFactory(ds)

	assert.ErrorContains(t, err, "create-drop")
}

func TestBuildSessionFactory_AcceptsEveryConfiguredSchemaAction(t *testing.T) {
	for _, action := range config.SchemaActions {
		t.Run(action, func(t *testing.T) {
			ds := migratedDataSource(t)

			factory, err := NewConfiguration().
				AddProperties(Properties{PropertySchemaAction: action}).
				BuildSessionFactory(ds)

			require.NoError(t, err)
			assert.Equal(t, action, factory.Properties()[PropertySchemaAction])
		})
	}
}

func TestBuildSessionFactory_RejectsDialectMismatch(t *testing.T) {
	ds := migratedDataSource(t)

	_, err := NewConfiguration().
		AddProperties(Properties{PropertyDialect: "postgres"}).
		BuildSessionFactory(ds)

	assert.ErrorIs(t, err, ErrDialectMismatch)
}

func TestBuildSessionFactory_ScansPackages(t *testing.T) {
	ds := migratedDataSource(t)

	factory, err := NewConfiguration().
		AddAnnotatedModel(&Manufacturer{}).
		AddPackage(CatalogPackage).
		BuildSessionFactory(ds)
	require.NoError(t, err)

	// Manufacturer is listed explicitly and by the package; it is mapped once.
	models := factory.Models()
	require.Len(t, models, 2)
	assert.IsType(t, &Manufacturer{}, models[0])
	assert.IsType(t, &Car{}, models[1])
}

func TestBuildSessionFactory_UnknownPackage(t *testing.T) {
	ds := migratedDataSource(t)

	_, err := NewConfiguration().AddPackage("no.such.package").BuildSessionFactory(ds)

	assert.ErrorIs(t, err, ErrUnknownPackage)
}

func TestBuildSessionFactory_AppliesProperties(t *testing.T) {
	ds := migratedDataSource(t)

	factory, err := NewConfiguration().
		AddProperties(Properties{PropertyShowSQL: "false"}).
		AddProperties(Properties{PropertyShowSQL: "true"}).
		BuildSessionFactory(ds)
	require.NoError(t, err)

	props := factory.Properties()
	assert.True(t, props.GetBool(PropertyShowSQL, false))

	props[PropertyShowSQL] = "false"
	assert.True(t, factory.Properties().GetBool(PropertyShowSQL, false), "Properties must return a copy")
}

func TestSessionFactory_RoundTrip(t *testing.T) {
	ds := migratedDataSource(t)
	factory, err := NewConfiguration().AddPackage(CatalogPackage).BuildSessionFactory(ds)
	require.NoError(t, err)
	ctx := context.Background()

	m := &Manufacturer{Name: "Skoda"}
	require.NoError(t, factory.Session(ctx).Create(m).Error)
	assert.NotZero(t, m.ID)

	err = factory.Transaction(ctx, func(_ context.Context, tx *gorm.DB) error {
		return tx.Create(&Car{Model: "Octavia", ManufacturerID: m.ID}).Error
	})
	require.NoError(t, err)

	var loaded Car
	require.NoError(t, factory.Session(ctx).Preload("Manufacturer").First(&loaded).Error)
	assert.Equal(t, "Octavia", loaded.Model)
	require.NotNil(t, loaded.Manufacturer)
	assert.Equal(t, "Skoda", loaded.Manufacturer.Name)
}

func TestSessionFactory_TransactionRollsBack(t *testing.T) {
	ds := migratedDataSource(t)
	factory, err := NewConfiguration().AddPackage(CatalogPackage).BuildSessionFactory(ds)
	require.NoError(t, err)
	ctx := context.Background()

	boom := errors.New("boom")
	err = factory.Transaction(ctx, func(_ context.Context, tx *gorm.DB) error {
		if err := tx.Create(&Manufacturer{Name: "Skoda"}).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, factory.Session(ctx).Model(&Manufacturer{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSessionFactory_Close(t *testing.T) {
	ds := migratedDataSource(t)
	factory, err := NewConfiguration().AddPackage(CatalogPackage).BuildSessionFactory(ds)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, factory.Close())
	require.NoError(t, factory.Close())
	assert.True(t, factory.IsClosed())

	err = factory.Session(ctx).Create(&Manufacturer{Name: "Skoda"}).Error
	assert.ErrorIs(t, err, ErrSessionFactoryClosed)

	err = factory.Transaction(ctx, func(_ context.Context, tx *gorm.DB) error { return nil })
	assert.ErrorIs(t, err, ErrSessionFactoryClosed)
}

func TestSessionFactory_NoCacheByDefault(t *testing.T) {
	ds := migratedDataSource(t)
	factory, err := NewConfiguration().BuildSessionFactory(ds)
	require.NoError(t, err)
	ctx := context.Background()

	require.NotNil(t, factory.Cache())
	require.NoError(t, factory.Cache().Put(ctx, "manufacturers", 1, &Manufacturer{Name: "Skoda"}))

	var m Manufacturer
	hit, err := factory.Cache().Get(ctx, "manufacturers", 1, &m)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestPackageModels(t *testing.T) {
	RegisterPackage("test.garages", &Garage{})

	models, err := PackageModels("test.garages")
	require.NoError(t, err)
	assert.Len(t, models, 1)
	assert.Contains(t, PackageNames(), CatalogPackage)
	assert.Contains(t, PackageNames(), "test.garages")

	_, err = PackageModels("missing")
	assert.ErrorIs(t, err, ErrUnknownPackage)
}
