package shipments

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/internal/deals"
	"github.com/closurehq/laser-backend/internal/pricing"
	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/enums"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
	"github.com/closurehq/laser-backend/pkg/logger"
	"github.com/closurehq/laser-backend/pkg/outbox"
)

func setupShipmentsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE deal_statuses (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  sequence INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)

	require.NoError(t, db.Exec(`CREATE TABLE deals (
  id TEXT PRIMARY KEY,
  total_price NUMERIC,
  is_cashed BOOLEAN NOT NULL DEFAULT 0,
  from_account TEXT,
  to_account TEXT,
  full_weight REAL NOT NULL DEFAULT 0,
  available_weight REAL NOT NULL DEFAULT 0,
  arrival_date DATETIME,
  expected_date DATETIME,
  details TEXT,
  status_id TEXT NOT NULL,
  owner_id TEXT,
  deliver_id TEXT,
  trip_id TEXT,
  version INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)

	require.NoError(t, db.Exec(`CREATE TABLE shipments (
  id TEXT PRIMARY KEY,
  weight REAL NOT NULL,
  cost NUMERIC,
  price NUMERIC,
  url TEXT,
  img_url TEXT,
  description TEXT,
  details TEXT,
  type_id TEXT,
  from_id TEXT,
  to_id TEXT,
  deal_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)

	require.NoError(t, db.Exec(`CREATE TABLE locations (
  id TEXT PRIMARY KEY,
  country TEXT NOT NULL,
  city TEXT NOT NULL,
  airport TEXT NOT NULL UNIQUE,
  details TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)

	waiting := models.DealStatus{ID: uuid.New(), Code: enums.DealStatusWaiting, Name: "waiting", Sequence: 1}
	require.NoError(t, db.Create(&waiting).Error)

	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type recordingEmitter struct {
	events []outbox.DomainEvent
}

func (e *recordingEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	e.events = append(e.events, event)
	return nil
}

type stubPricing struct {
	price  decimal.Decimal
	quoted int
	err    error
}

func (s *stubPricing) Quote(_ context.Context, weight float64, _ uuid.UUID) (*pricing.QuoteResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.quoted++
	return &pricing.QuoteResult{Price: s.price, Weight: weight}, nil
}

func newTestService(t *testing.T, db *gorm.DB, quotes *stubPricing) (Service, *recordingEmitter) {
	t.Helper()
	emitter := &recordingEmitter{}
	svc, err := NewService(
		gormTxRunner{db: db},
		NewRepository(db),
		deals.NewRepository(db),
		quotes,
		emitter,
		logger.New(logger.Options{ServiceName: "shipments-test", Output: io.Discard}),
	)
	require.NoError(t, err)
	return svc, emitter
}

func TestCreateBatch_CreatesWaitingDealAroundShipments(t *testing.T) {
	db := setupShipmentsTestDB(t)
	quotes := &stubPricing{price: decimal.NewFromInt(30)}
	svc, emitter := newTestService(t, db, quotes)
	ctx := context.Background()

	actorApp := uuid.New()
	typeID := uuid.New()
	priced := decimal.NewFromInt(12)
	expected := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	result, err := svc.CreateBatch(ctx, CreateBatchInput{
		Shipments: []ShipmentInput{
			{Weight: 10, TypeID: &typeID},              // price quoted
			{Weight: 15, TypeID: &typeID, Price: &priced}, // price kept
		},
		ExpectedDate:       expected,
		ActorUserID:        uuid.New(),
		ActorApplicationID: actorApp,
		ActorRole:          "user",
	})
	require.NoError(t, err)
	require.Len(t, result.Shipments, 2)
	assert.Equal(t, 25.0, result.Weight)
	assert.Equal(t, 1, quotes.quoted)

	var deal models.Deal
	require.NoError(t, db.First(&deal, "id = ?", result.DealID).Error)
	assert.Equal(t, 25.0, deal.FullWeight)
	assert.Equal(t, 25.0, deal.AvailableWeight)
	require.NotNil(t, deal.OwnerID)
	assert.Equal(t, actorApp, *deal.OwnerID)
	assert.Nil(t, deal.DeliverID)
	assert.Nil(t, deal.TripID)
	require.NotNil(t, deal.ExpectedDate)

	var attached int64
	require.NoError(t, db.Model(&models.Shipment{}).Where("deal_id = ?", deal.ID).Count(&attached).Error)
	assert.Equal(t, int64(2), attached)

	require.NotNil(t, result.Shipments[0].Price)
	assert.True(t, result.Shipments[0].Price.Equal(decimal.NewFromInt(30)))
	require.NotNil(t, result.Shipments[1].Price)
	assert.True(t, result.Shipments[1].Price.Equal(priced))

	require.Len(t, emitter.events, 1)
	assert.Equal(t, enums.EventDealCreated, emitter.events[0].EventType)
	assert.Equal(t, deal.ID, emitter.events[0].AggregateID)
}

func TestCreateBatch_RequiresApplication(t *testing.T) {
	db := setupShipmentsTestDB(t)
	svc, _ := newTestService(t, db, &stubPricing{})

	_, err := svc.CreateBatch(context.Background(), CreateBatchInput{
		Shipments:    []ShipmentInput{{Weight: 10}},
		ExpectedDate: time.Now(),
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeUnauthorized, appErr.Code())
}

func TestCreateBatch_RejectsNonPositiveWeight(t *testing.T) {
	db := setupShipmentsTestDB(t)
	svc, emitter := newTestService(t, db, &stubPricing{})

	_, err := svc.CreateBatch(context.Background(), CreateBatchInput{
		Shipments:          []ShipmentInput{{Weight: 10}, {Weight: 0}},
		ExpectedDate:       time.Now(),
		ActorApplicationID: uuid.New(),
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	var count int64
	require.NoError(t, db.Model(&models.Deal{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, emitter.events)
}

func TestSearch_ByRoute(t *testing.T) {
	db := setupShipmentsTestDB(t)
	svc, _ := newTestService(t, db, &stubPricing{})
	ctx := context.Background()

	amman := models.Location{ID: uuid.New(), Country: "Jordan", City: "Amman", Airport: "Queen Alia International"}
	london := models.Location{ID: uuid.New(), Country: "United Kingdom", City: "London", Airport: "Heathrow"}
	require.NoError(t, db.Create(&amman).Error)
	require.NoError(t, db.Create(&london).Error)

	match := models.Shipment{ID: uuid.New(), Weight: 10, FromID: &amman.ID, ToID: &london.ID}
	other := models.Shipment{ID: uuid.New(), Weight: 10, FromID: &london.ID, ToID: &amman.ID}
	require.NoError(t, db.Create(&match).Error)
	require.NoError(t, db.Create(&other).Error)

	result, err := svc.Search(ctx, SearchParams{From: "jordan", To: "london"})
	require.NoError(t, err)
	require.Len(t, result.Shipments, 1)
	assert.Equal(t, match.ID, result.Shipments[0].ID)

	_, err = svc.Search(ctx, SearchParams{})
	require.Error(t, err)
}
