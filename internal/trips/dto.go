package trips

import (
	"time"

	"github.com/google/uuid"
)

// CreateWithDealInput is the trip intake payload plus the acting user. The
// trip may already exist; the deal is always new.
type CreateWithDealInput struct {
	TripIdentifier  string     `json:"trip_identifier" validate:"required"`
	FlyTime         time.Time  `json:"fly_time" validate:"required"`
	ArriveTime      time.Time  `json:"arrive_time" validate:"required"`
	TicketImage     string     `json:"ticket_image" validate:"required"`
	Details         *string    `json:"details,omitempty"`
	TripType        *string    `json:"trip_type,omitempty"`
	Transit         *string    `json:"transit,omitempty"`
	FromID          *uuid.UUID `json:"from_id,omitempty"`
	ToID            *uuid.UUID `json:"to_id,omitempty"`
	FullWeight      float64    `json:"full_weight" validate:"required,gt=0"`
	AvailableWeight float64    `json:"available_weight" validate:"required,gt=0"`

	ActorUserID        uuid.UUID `json:"-"`
	ActorApplicationID uuid.UUID `json:"-"`
	ActorRole          string    `json:"-"`
}

// SearchParams filters trips by flight identifier and route endpoints.
type SearchParams struct {
	Identifier string
	From       string
	To         string
	Limit      int
	Cursor     string
}
