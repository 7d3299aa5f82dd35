package deals

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/enums"
	pkgerrors "github.com/closurehq/laser-backend/pkg/errors"
	"github.com/closurehq/laser-backend/pkg/logger"
	"github.com/closurehq/laser-backend/pkg/outbox"
)

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
		emitter,
		logger.New(logger.Options{ServiceName: "deals-test", Output: io.Discard}),
	)
	require.NoError(t, err)
	return svc, emitter
}

// Two shipments of 10 and 15 kg accepted against a trip deal with 30 kg of
// capacity. Every deal sharing the traveler and trip loses 25 available and
// gains 25 full, the original shipment deal disappears, the accepted offer
// repoints at the merged deal and every rival offer on the shipment deal
// closes.
func TestFinalize_MergesDealsAndRebalancesSiblings(t *testing.T) {
	db := setupDealsTestDB(t)
	statuses := seedStatuses(t, db)
	svc, emitter := newTestService(t, db)
	ctx := context.Background()

	owner := uuid.New()
	deliver := uuid.New()
	trip := uuid.New()

	// deterministic ids so the trip deal is the first locked sibling
	tripDeal := seedDeal(t, db, models.Deal{
		ID:              uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		StatusID:        statuses[enums.DealStatusWaiting].ID,
		DeliverID:       ptrUUID(deliver),
		TripID:          ptrUUID(trip),
		FullWeight:      0,
		AvailableWeight: 30,
	})
	sibling := seedDeal(t, db, models.Deal{
		ID:              uuid.MustParse("00000000-0000-0000-0000-000000000002"),
		StatusID:        statuses[enums.DealStatusWaiting].ID,
		DeliverID:       ptrUUID(deliver),
		TripID:          ptrUUID(trip),
		FullWeight:      5,
		AvailableWeight: 40,
	})
	shipmentDeal := seedDeal(t, db, models.Deal{
		ID:         uuid.MustParse("00000000-0000-0000-0000-000000000003"),
		StatusID:   statuses[enums.DealStatusWaiting].ID,
		OwnerID:    ptrUUID(owner),
		FullWeight: 25,
	})
	first := seedShipment(t, db, 10, ptrUUID(shipmentDeal.ID))
	second := seedShipment(t, db, 15, ptrUUID(shipmentDeal.ID))

	accepted := seedOffer(t, db, shipmentDeal.ID, tripDeal.ID, enums.OfferStatusPending)
	rival := seedOffer(t, db, shipmentDeal.ID, sibling.ID, enums.OfferStatusPending)

	result, err := svc.Finalize(ctx, FinalizeInput{
		ShipmentDealID: shipmentDeal.ID,
		TripDealID:     tripDeal.ID,
		ActorUserID:    uuid.New(),
		ActorRole:      enums.UserRoleUser,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.MovedShipments)
	assert.Equal(t, int64(1), result.ClosedRivalOffers)
	assert.Equal(t, 2, result.RebalancedDeals)

	var reloadedTrip, reloadedSibling models.Deal
	require.NoError(t, db.First(&reloadedTrip, "id = ?", tripDeal.ID).Error)
	require.NoError(t, db.First(&reloadedSibling, "id = ?", sibling.ID).Error)
	assert.Equal(t, 25.0, reloadedTrip.FullWeight)
	assert.Equal(t, 5.0, reloadedTrip.AvailableWeight)
	assert.Equal(t, 30.0, reloadedSibling.FullWeight)
	assert.Equal(t, 15.0, reloadedSibling.AvailableWeight)

	var originalCount int64
	require.NoError(t, db.Model(&models.Deal{}).Where("id = ?", shipmentDeal.ID).Count(&originalCount).Error)
	assert.Zero(t, originalCount)

	var merged models.Deal
	require.NoError(t, db.First(&merged, "id = ?", result.MergedDealID).Error)
	assert.Equal(t, statuses[enums.DealStatusAgreement].ID, merged.StatusID)
	assert.Equal(t, 25.0, merged.FullWeight)
	assert.Equal(t, 5.0, merged.AvailableWeight)
	require.NotNil(t, merged.OwnerID)
	assert.Equal(t, owner, *merged.OwnerID)
	require.NotNil(t, merged.DeliverID)
	assert.Equal(t, deliver, *merged.DeliverID)
	require.NotNil(t, merged.TripID)
	assert.Equal(t, trip, *merged.TripID)

	for _, shipmentID := range []uuid.UUID{first.ID, second.ID} {
		var shipment models.Shipment
		require.NoError(t, db.First(&shipment, "id = ?", shipmentID).Error)
		require.NotNil(t, shipment.DealID)
		assert.Equal(t, merged.ID, *shipment.DealID)
	}

	var acceptedOffer models.Offer
	require.NoError(t, db.First(&acceptedOffer, "id = ?", accepted.ID).Error)
	assert.Equal(t, enums.OfferStatusAccepted, acceptedOffer.Status)
	assert.Equal(t, merged.ID, acceptedOffer.TripDealID)
	// the shipment side keeps pointing at the deleted deal for history
	assert.Equal(t, shipmentDeal.ID, acceptedOffer.ShipmentDealID)

	var rivalOffer models.Offer
	require.NoError(t, db.First(&rivalOffer, "id = ?", rival.ID).Error)
	assert.Equal(t, enums.OfferStatusClosed, rivalOffer.Status)

	require.Len(t, emitter.events, 1)
	assert.Equal(t, enums.EventDealFinalized, emitter.events[0].EventType)
	assert.Equal(t, merged.ID, emitter.events[0].AggregateID)
}

func TestFinalize_NegativeWeightRollsBackEverything(t *testing.T) {
	db := setupDealsTestDB(t)
	statuses := seedStatuses(t, db)
	svc, emitter := newTestService(t, db)
	ctx := context.Background()

	deliver := uuid.New()
	trip := uuid.New()
	tripDeal := seedDeal(t, db, models.Deal{
		ID:              uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		StatusID:        statuses[enums.DealStatusWaiting].ID,
		DeliverID:       ptrUUID(deliver),
		TripID:          ptrUUID(trip),
		AvailableWeight: 30,
	})
	// this sibling cannot absorb the shipments
	starved := seedDeal(t, db, models.Deal{
		ID:              uuid.MustParse("00000000-0000-0000-0000-000000000002"),
		StatusID:        statuses[enums.DealStatusWaiting].ID,
		DeliverID:       ptrUUID(deliver),
		TripID:          ptrUUID(trip),
		AvailableWeight: 10,
	})
	shipmentDeal := seedDeal(t, db, models.Deal{
		StatusID: statuses[enums.DealStatusWaiting].ID,
		OwnerID:  ptrUUID(uuid.New()),
	})
	seedShipment(t, db, 10, ptrUUID(shipmentDeal.ID))
	seedShipment(t, db, 15, ptrUUID(shipmentDeal.ID))
	offer := seedOffer(t, db, shipmentDeal.ID, tripDeal.ID, enums.OfferStatusPending)

	_, err := svc.Finalize(ctx, FinalizeInput{
		ShipmentDealID: shipmentDeal.ID,
		TripDealID:     tripDeal.ID,
		ActorUserID:    uuid.New(),
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())

	// nothing moved
	var reloadedTrip, reloadedStarved, reloadedShipmentDeal models.Deal
	require.NoError(t, db.First(&reloadedTrip, "id = ?", tripDeal.ID).Error)
	require.NoError(t, db.First(&reloadedStarved, "id = ?", starved.ID).Error)
	require.NoError(t, db.First(&reloadedShipmentDeal, "id = ?", shipmentDeal.ID).Error)
	assert.Equal(t, 30.0, reloadedTrip.AvailableWeight)
	assert.Equal(t, 0.0, reloadedTrip.FullWeight)
	assert.Equal(t, 10.0, reloadedStarved.AvailableWeight)

	var reloadedOffer models.Offer
	require.NoError(t, db.First(&reloadedOffer, "id = ?", offer.ID).Error)
	assert.Equal(t, enums.OfferStatusPending, reloadedOffer.Status)

	var dealCount int64
	require.NoError(t, db.Model(&models.Deal{}).Count(&dealCount).Error)
	assert.Equal(t, int64(3), dealCount)

	assert.Empty(t, emitter.events)
}

func TestFinalize_MissingOffer(t *testing.T) {
	db := setupDealsTestDB(t)
	statuses := seedStatuses(t, db)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	tripDeal := seedDeal(t, db, models.Deal{
		StatusID:        statuses[enums.DealStatusWaiting].ID,
		DeliverID:       ptrUUID(uuid.New()),
		TripID:          ptrUUID(uuid.New()),
		AvailableWeight: 30,
	})
	shipmentDeal := seedDeal(t, db, models.Deal{
		StatusID: statuses[enums.DealStatusWaiting].ID,
		OwnerID:  ptrUUID(uuid.New()),
	})
	seedShipment(t, db, 10, ptrUUID(shipmentDeal.ID))

	_, err := svc.Finalize(ctx, FinalizeInput{
		ShipmentDealID: shipmentDeal.ID,
		TripDealID:     tripDeal.ID,
		ActorUserID:    uuid.New(),
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestDelete_DetachesShipmentsBeforeRemoval(t *testing.T) {
	db := setupDealsTestDB(t)
	statuses := seedStatuses(t, db)
	svc, emitter := newTestService(t, db)
	ctx := context.Background()

	deal := seedDeal(t, db, models.Deal{
		StatusID: statuses[enums.DealStatusWaiting].ID,
		OwnerID:  ptrUUID(uuid.New()),
	})
	shipment := seedShipment(t, db, 12, ptrUUID(deal.ID))

	require.NoError(t, svc.Delete(ctx, deal.ID, ActorInput{UserID: uuid.New()}))

	var count int64
	require.NoError(t, db.Model(&models.Deal{}).Where("id = ?", deal.ID).Count(&count).Error)
	assert.Zero(t, count)

	var freed models.Shipment
	require.NoError(t, db.First(&freed, "id = ?", shipment.ID).Error)
	assert.Nil(t, freed.DealID)

	require.Len(t, emitter.events, 1)
	assert.Equal(t, enums.EventDealDeleted, emitter.events[0].EventType)
}

func TestRemoveShipment_DetachesSingleShipment(t *testing.T) {
	db := setupDealsTestDB(t)
	statuses := seedStatuses(t, db)
	svc, _ := newTestService(t, db)
	ctx := context.Background()

	deal := seedDeal(t, db, models.Deal{
		StatusID:  statuses[enums.DealStatusWaiting].ID,
		DeliverID: ptrUUID(uuid.New()),
		TripID:    ptrUUID(uuid.New()),
	})
	kept := seedShipment(t, db, 5, ptrUUID(deal.ID))
	removed := seedShipment(t, db, 9, ptrUUID(deal.ID))

	require.NoError(t, svc.RemoveShipment(ctx, removed.ID, deal.ID, ActorInput{UserID: uuid.New()}))

	var detachedRow, keptRow models.Shipment
	require.NoError(t, db.First(&detachedRow, "id = ?", removed.ID).Error)
	require.NoError(t, db.First(&keptRow, "id = ?", kept.ID).Error)
	assert.Nil(t, detachedRow.DealID)
	require.NotNil(t, keptRow.DealID)

	err := svc.RemoveShipment(ctx, removed.ID, deal.ID, ActorInput{UserID: uuid.New()})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}
