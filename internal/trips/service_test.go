package trips

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/internal/deals"
	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/enums"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
	"github.com/closurehq/laser-backend/pkg/logger"
	"github.com/closurehq/laser-backend/pkg/outbox"
)

func setupTripsTestDB(t *testing.T) *gorm.DB {
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

	require.NoError(t, db.Exec(`CREATE TABLE trips (
  id TEXT PRIMARY KEY,
  trip_identifier TEXT NOT NULL,
  fly_time DATETIME,
  arrive_time DATETIME,
  details TEXT,
  ticket_image TEXT NOT NULL,
  trip_type TEXT,
  transit TEXT,
  from_id TEXT,
  to_id TEXT,
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

func newTestService(t *testing.T, db *gorm.DB) (Service, *recordingEmitter) {
	t.Helper()
	emitter := &recordingEmitter{}
	svc, err := NewService(
		gormTxRunner{db: db},
		NewRepository(db),
		deals.NewRepository(db),
		emitter,
		logger.New(logger.Options{ServiceName: "trips-test", Output: io.Discard}),
	)
	require.NoError(t, err)
	return svc, emitter
}

func intakeInput(actorApp uuid.UUID) CreateWithDealInput {
	fly := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	return CreateWithDealInput{
		TripIdentifier:     "RJ111",
		FlyTime:            fly,
		ArriveTime:         fly.Add(5 * time.Hour),
		TicketImage:        "ticket.png",
		FullWeight:         30,
		AvailableWeight:    30,
		ActorUserID:        uuid.New(),
		ActorApplicationID: actorApp,
		ActorRole:          "user",
	}
}

func TestCreateWithDeal_CreatesTripAndWaitingDeal(t *testing.T) {
	db := setupTripsTestDB(t)
	svc, emitter := newTestService(t, db)
	ctx := context.Background()

	actorApp := uuid.New()
	result, err := svc.CreateWithDeal(ctx, intakeInput(actorApp))
	require.NoError(t, err)
	assert.False(t, result.ReusedTrip)

	var deal models.Deal
	require.NoError(t, db.First(&deal, "id = ?", result.DealID).Error)
	assert.Equal(t, 30.0, deal.FullWeight)
	assert.Equal(t, 30.0, deal.AvailableWeight)
	require.NotNil(t, deal.DeliverID)
	assert.Equal(t, actorApp, *deal.DeliverID)
	require.NotNil(t, deal.TripID)
	assert.Equal(t, result.Trip.ID, *deal.TripID)
	require.NotNil(t, deal.ArrivalDate)
	assert.True(t, deal.ArrivalDate.Equal(result.Trip.ArriveTime))

	require.Len(t, emitter.events, 1)
	assert.Equal(t, enums.EventDealCreated, emitter.events[0].EventType)
}

func TestCreateWithDeal_ReusesMatchingTrip(t *testing.T) {
	db := setupTripsTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	first, err := svc.CreateWithDeal(ctx, intakeInput(uuid.New()))
	require.NoError(t, err)

	second, err := svc.CreateWithDeal(ctx, intakeInput(uuid.New()))
	require.NoError(t, err)
	assert.True(t, second.ReusedTrip)
	assert.Equal(t, first.Trip.ID, second.Trip.ID)
	assert.NotEqual(t, first.DealID, second.DealID)

	var tripCount, dealCount int64
	require.NoError(t, db.Model(&models.Trip{}).Count(&tripCount).Error)
	require.NoError(t, db.Model(&models.Deal{}).Count(&dealCount).Error)
	assert.Equal(t, int64(1), tripCount)
	assert.Equal(t, int64(2), dealCount)
}

func TestCreateWithDeal_DifferentFlightTimeIsNewTrip(t *testing.T) {
	db := setupTripsTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	first, err := svc.CreateWithDeal(ctx, intakeInput(uuid.New()))
	require.NoError(t, err)

	input := intakeInput(uuid.New())
	input.FlyTime = input.FlyTime.Add(24 * time.Hour)
	input.ArriveTime = input.ArriveTime.Add(24 * time.Hour)
	second, err := svc.CreateWithDeal(ctx, input)
	require.NoError(t, err)

	assert.False(t, second.ReusedTrip)
	assert.NotEqual(t, first.Trip.ID, second.Trip.ID)
}

func TestCreateWithDeal_RejectsMissingTicketImage(t *testing.T) {
	db := setupTripsTestDB(t)
	svc, _ := newTestService(t, db)

	input := intakeInput(uuid.New())
	input.TicketImage = "  "
	_, err := svc.CreateWithDeal(context.Background(), input)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestDealsByTrip(t *testing.T) {
	db := setupTripsTestDB(t)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	first, err := svc.CreateWithDeal(ctx, intakeInput(uuid.New()))
	require.NoError(t, err)
	_, err = svc.CreateWithDeal(ctx, intakeInput(uuid.New()))
	require.NoError(t, err)

	rows, err := svc.DealsByTrip(ctx, first.Trip.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = svc.DealsByTrip(ctx, uuid.New())
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}
