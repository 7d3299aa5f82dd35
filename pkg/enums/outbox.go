package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateDeal         OutboxAggregateType = "deal"
	AggregateOffer        OutboxAggregateType = "offer"
	AggregateShipment     OutboxAggregateType = "shipment"
	AggregateTrip         OutboxAggregateType = "trip"
	AggregateNotification OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateDeal,
	AggregateOffer,
	AggregateShipment,
	AggregateTrip,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOfferCreated     OutboxEventType = "offer_created"
	EventOfferClosed      OutboxEventType = "offer_closed"
	EventDealCreated      OutboxEventType = "deal_created"
	EventDealFinalized    OutboxEventType = "deal_finalized"
	EventDealDeleted      OutboxEventType = "deal_deleted"
	EventShipmentDetached OutboxEventType = "shipment_detached"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOfferCreated,
	EventOfferClosed,
	EventDealCreated,
	EventDealFinalized,
	EventDealDeleted,
	EventShipmentDetached,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
