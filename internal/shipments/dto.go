package shipments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShipmentInput is one parcel in a batch intake request.
type ShipmentInput struct {
	Weight      float64          `json:"weight" validate:"required,gt=0"`
	TypeID      *uuid.UUID       `json:"type_id,omitempty"`
	FromID      *uuid.UUID       `json:"from_id,omitempty"`
	ToID        *uuid.UUID       `json:"to_id,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Cost        *decimal.Decimal `json:"cost,omitempty"`
	URL         *string          `json:"url,omitempty"`
	ImgURL      *string          `json:"img_url,omitempty"`
	Description *string          `json:"description,omitempty"`
	Details     *string          `json:"details,omitempty"`
}

// CreateBatchInput is the full intake payload plus the acting user.
type CreateBatchInput struct {
	Shipments    []ShipmentInput `json:"shipments" validate:"required,min=1,dive"`
	ExpectedDate time.Time       `json:"expected_date" validate:"required"`

	ActorUserID        uuid.UUID `json:"-"`
	ActorApplicationID uuid.UUID `json:"-"`
	ActorRole          string    `json:"-"`
}

// SearchParams filters the shipment catalog by route endpoints.
type SearchParams struct {
	From   string
	To     string
	Limit  int
	Cursor string
}
