package lookups

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/enums"
)

func setupLookupsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	for _, stmt := range []string{
		`CREATE TABLE deal_statuses (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  sequence INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE shipment_types (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  factor NUMERIC NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE constants (
  id TEXT PRIMARY KEY,
  weight_factor NUMERIC NOT NULL DEFAULT 1,
  max_weight REAL NOT NULL DEFAULT 30,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE countries (
  id TEXT PRIMARY KEY,
  country TEXT NOT NULL,
  capital TEXT,
  code TEXT NOT NULL UNIQUE,
  phone_code TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE account_providers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`,
	} {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return db
}

func TestRepository_DealStatuses(t *testing.T) {
	db := setupLookupsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seed := []models.DealStatus{
		{ID: uuid.New(), Code: enums.DealStatusAgreement, Name: "Agreement", Sequence: 3},
		{ID: uuid.New(), Code: enums.DealStatusWaiting, Name: "Waiting", Sequence: 1},
		{ID: uuid.New(), Code: enums.DealStatusAccepted, Name: "Accepted", Sequence: 2},
	}
	require.NoError(t, db.Create(&seed).Error)

	statuses, err := repo.ListDealStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	assert.Equal(t, enums.DealStatusWaiting, statuses[0].Code)
	assert.Equal(t, enums.DealStatusAgreement, statuses[2].Code)

	waiting, err := repo.FindDealStatusByCode(ctx, enums.DealStatusWaiting)
	require.NoError(t, err)
	assert.Equal(t, "Waiting", waiting.Name)

	_, err = repo.FindDealStatusByCode(ctx, enums.DealStatusCode("missing"))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_ShipmentTypes(t *testing.T) {
	db := setupLookupsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.CreateShipmentType(ctx, &models.ShipmentType{
		ID:     uuid.New(),
		Name:   "electronics",
		Factor: decimal.RequireFromString("1.5"),
	})
	require.NoError(t, err)

	byID, err := repo.FindShipmentTypeByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "electronics", byID.Name)

	byName, err := repo.FindShipmentTypeByName(ctx, "electronics")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)

	_, err = repo.CreateShipmentType(ctx, &models.ShipmentType{
		ID:     uuid.New(),
		Name:   "electronics",
		Factor: decimal.RequireFromString("2"),
	})
	require.Error(t, err)
}

func TestRepository_Constants_NewestRowWins(t *testing.T) {
	db := setupLookupsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Exec(
		`INSERT INTO constants (id, weight_factor, max_weight, created_at, updated_at)
		 VALUES (?, '1.0', 30, '2024-01-01 00:00:00', '2024-01-01 00:00:00'),
		        (?, '2.5', 40, '2025-01-01 00:00:00', '2025-01-01 00:00:00')`,
		uuid.NewString(), uuid.NewString(),
	).Error)

	current, err := repo.CurrentConstants(ctx)
	require.NoError(t, err)
	assert.True(t, current.WeightFactor.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, 40.0, current.MaxWeight)
}
