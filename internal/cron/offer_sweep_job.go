package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/closurehq/laser-backend/internal/offers"
	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/enums"
	"github.com/closurehq/laser-backend/pkg/logger"
	"github.com/closurehq/laser-backend/pkg/outbox"
	"github.com/closurehq/laser-backend/pkg/outbox/payloads"
)

const (
	defaultOfferMaxAge   = 30 * 24 * time.Hour
	offerSweepBatchLimit = 500
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type staleOfferReader interface {
	FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Offer, error)
}

type sweepOfferRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type sweepOfferRepoFactory func(tx *gorm.DB) sweepOfferRepo

func defaultSweepOfferRepo(tx *gorm.DB) sweepOfferRepo {
	return offers.NewRepository(tx)
}

// OfferSweepJobParams configure the stale offer sweeper.
type OfferSweepJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Reader      staleOfferReader
	Outbox      outboxEmitter
	MaxAge      time.Duration
	RepoFactory sweepOfferRepoFactory
}

// NewOfferSweepJob builds the cron job that closes pending offers nobody
// acted on within the configured age.
func NewOfferSweepJob(params OfferSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("offer reader required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = defaultOfferMaxAge
	}
	repoFactory := params.RepoFactory
	if repoFactory == nil {
		repoFactory = defaultSweepOfferRepo
	}
	return &offerSweepJob{
		logg:        params.Logger,
		db:          params.DB,
		reader:      params.Reader,
		outbox:      params.Outbox,
		maxAge:      maxAge,
		repoFactory: repoFactory,
		now:         time.Now,
	}, nil
}

type offerSweepJob struct {
	logg        *logger.Logger
	db          txRunner
	reader      staleOfferReader
	outbox      outboxEmitter
	maxAge      time.Duration
	repoFactory sweepOfferRepoFactory
	now         func() time.Time
}

func (j *offerSweepJob) Name() string { return "offer-sweep" }

func (j *offerSweepJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.maxAge)
	stale, err := j.reader.FindPendingBefore(ctx, cutoff, offerSweepBatchLimit)
	if err != nil {
		return fmt.Errorf("query stale offers: %w", err)
	}
	closed := 0
	for _, offer := range stale {
		if err := j.closeOffer(ctx, offer); err != nil {
			return err
		}
		closed++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"max_age": j.maxAge.String(),
		"closed":  closed,
	})
	j.logg.Info(logCtx, "offer sweep complete")
	return nil
}

func (j *offerSweepJob) closeOffer(ctx context.Context, offer models.Offer) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repoFactory(tx)
		current, err := repo.FindByID(ctx, offer.ID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return fmt.Errorf("reload offer %s: %w", offer.ID, err)
		}
		// The offer may have been accepted between the read and this tx.
		if current.Status != enums.OfferStatusPending {
			return nil
		}
		if err := repo.Update(ctx, offer.ID, map[string]any{"status": enums.OfferStatusClosed}); err != nil {
			return fmt.Errorf("close offer %s: %w", offer.ID, err)
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventOfferClosed,
			AggregateType: enums.AggregateOffer,
			AggregateID:   offer.ID,
			Version:       1,
			OccurredAt:    j.now().UTC(),
			Data: payloads.OfferClosedEvent{
				OfferID:        offer.ID,
				ShipmentDealID: offer.ShipmentDealID,
				Status:         enums.OfferStatusClosed,
			},
		}
		return j.outbox.Emit(ctx, tx, event)
	})
}
