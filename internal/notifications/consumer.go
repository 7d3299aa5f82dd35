package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/closurehq/laser-backend/pkg/db/models"
	"github.com/closurehq/laser-backend/pkg/enums"
	"github.com/closurehq/laser-backend/pkg/logger"
	"github.com/closurehq/laser-backend/pkg/outbox"
	"github.com/closurehq/laser-backend/pkg/outbox/payloads"
)

type consumerRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ExistsForOffer(ctx context.Context, kind enums.NotificationKind, offerID uuid.UUID) (bool, error)
}

// Consumer watches the deals stream and writes the durable notification rows
// for finalized deals. The synchronous push in the offer flow is best effort;
// this pass guarantees both parties end up with a record.
type Consumer struct {
	repo         consumerRepository
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer builds a deal notification consumer.
func NewConsumer(repo consumerRepository, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("deals subscription required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{repo: repo, subscription: subscription, logg: logg}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	if eventType != enums.EventDealFinalized {
		// not ours, drop
		return processResult{}
	}

	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   msg.Attributes["event_id"],
		"event_type": string(eventType),
	})

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "decode envelope failed, dropping", err)
		return processResult{}
	}
	var payload payloads.DealFinalizedEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "decode deal finalized payload failed, dropping", err)
		return processResult{}
	}

	exists, err := c.repo.ExistsForOffer(ctx, enums.NotificationKindDealFinalized, payload.OfferID)
	if err != nil {
		c.logg.Error(logCtx, "dedup check failed", err)
		return processResult{nack: true}
	}
	if exists {
		return processResult{}
	}

	if err := c.notifyParties(ctx, payload); err != nil {
		c.logg.Error(logCtx, "create finalized notifications failed", err)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "deal finalized notifications stored")
	return processResult{}
}

func (c *Consumer) notifyParties(ctx context.Context, payload payloads.DealFinalizedEvent) error {
	offerID := payload.OfferID
	for _, party := range []*uuid.UUID{payload.OwnerID, payload.DeliverID} {
		if party == nil {
			continue
		}
		row := &models.Notification{
			ID:                uuid.New(),
			UserApplicationID: *party,
			Kind:              enums.NotificationKindDealFinalized,
			Title:             "Deal finalized",
			Body:              fmt.Sprintf("Deal %s has been finalized.", payload.DealID),
			OfferID:           &offerID,
		}
		if err := c.repo.Create(ctx, row); err != nil {
			return err
		}
	}
	return nil
}
