package transactions

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
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
)

func setupTransactionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE transactions (
  id TEXT PRIMARY KEY,
  from_account TEXT,
  to_account TEXT,
  fees NUMERIC,
  net_amount NUMERIC,
  details TEXT,
  deal_id TEXT,
  provider_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)

	require.NoError(t, db.Exec(`CREATE TABLE account_providers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)

	return db
}

type stubDealFinder struct {
	known map[uuid.UUID]struct{}
}

func (s *stubDealFinder) FindByID(_ context.Context, id uuid.UUID) (*models.Deal, error) {
	if _, ok := s.known[id]; ok {
		return &models.Deal{ID: id}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newTransactionsService(t *testing.T, db *gorm.DB, knownDeals ...uuid.UUID) Service {
	t.Helper()
	finder := &stubDealFinder{known: make(map[uuid.UUID]struct{})}
	for _, id := range knownDeals {
		finder.known[id] = struct{}{}
	}
	svc, err := NewService(NewRepository(db), finder)
	require.NoError(t, err)
	return svc
}

func TestCreate_RoundTripsThroughGet(t *testing.T) {
	db := setupTransactionsTestDB(t)
	dealID := uuid.New()
	svc := newTransactionsService(t, db, dealID)
	ctx := context.Background()

	from := "acct-1"
	to := "acct-2"
	fees := decimal.NewFromFloat(1.25)
	net := decimal.NewFromFloat(48.75)

	created, err := svc.Create(ctx, CreateInput{
		FromAccount: &from,
		ToAccount:   &to,
		Fees:        &fees,
		NetAmount:   &net,
		DealID:      &dealID,
	})
	require.NoError(t, err)

	loaded, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.FromAccount)
	assert.Equal(t, "acct-1", *loaded.FromAccount)
	require.NotNil(t, loaded.NetAmount)
	assert.True(t, loaded.NetAmount.Equal(net))
	require.NotNil(t, loaded.DealID)
	assert.Equal(t, dealID, *loaded.DealID)
}

func TestCreate_RejectsPreAssignedID(t *testing.T) {
	db := setupTransactionsTestDB(t)
	svc := newTransactionsService(t, db)

	preset := uuid.New()
	_, err := svc.Create(context.Background(), CreateInput{ID: &preset})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestCreate_UnknownDeal(t *testing.T) {
	db := setupTransactionsTestDB(t)
	svc := newTransactionsService(t, db)

	dealID := uuid.New()
	_, err := svc.Create(context.Background(), CreateInput{DealID: &dealID})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestPartialUpdate_TouchesOnlyProvidedFields(t *testing.T) {
	db := setupTransactionsTestDB(t)
	svc := newTransactionsService(t, db)
	ctx := context.Background()

	from := "acct-1"
	created, err := svc.Create(ctx, CreateInput{FromAccount: &from})
	require.NoError(t, err)

	to := "acct-9"
	updated, err := svc.PartialUpdate(ctx, created.ID, UpdateInput{ToAccount: &to})
	require.NoError(t, err)
	require.NotNil(t, updated.ToAccount)
	assert.Equal(t, "acct-9", *updated.ToAccount)
	require.NotNil(t, updated.FromAccount)
	assert.Equal(t, "acct-1", *updated.FromAccount)
}

func TestDelete_NotFound(t *testing.T) {
	db := setupTransactionsTestDB(t)
	svc := newTransactionsService(t, db)

	err := svc.Delete(context.Background(), uuid.New())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestListByDeal(t *testing.T) {
	db := setupTransactionsTestDB(t)
	dealID := uuid.New()
	svc := newTransactionsService(t, db, dealID)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{DealID: &dealID})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{})
	require.NoError(t, err)

	rows, err := svc.ListByDeal(ctx, dealID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
