package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/closurehq/laser-backend/pkg/enums"
)

// Notification stores the durable copy of each push sent to a user; the FCM
// delivery itself is best effort.
type Notification struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserApplicationID uuid.UUID              `gorm:"column:user_application_id;type:uuid;not null"`
	Kind              enums.NotificationKind `gorm:"column:kind;type:text;not null"`
	Title             string                 `gorm:"column:title;type:text;not null"`
	Body              string                 `gorm:"column:body;type:text;not null"`
	OfferID           *uuid.UUID             `gorm:"column:offer_id;type:uuid"`
	ReadAt            *time.Time             `gorm:"column:read_at"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
}
