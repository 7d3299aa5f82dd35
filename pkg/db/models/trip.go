package models

import (
	"time"

	"github.com/google/uuid"
)

// Trip is a traveler's journey. Trips are deduplicated on
// (trip_identifier, fly_time, arrive_time, from_id, to_id): posting the same
// flight twice reuses the stored row and only creates a new deal.
type Trip struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TripIdentifier string     `gorm:"column:trip_identifier;not null"`
	FlyTime        time.Time  `gorm:"column:fly_time;not null"`
	ArriveTime     time.Time  `gorm:"column:arrive_time;not null"`
	Details        *string    `gorm:"column:details"`
	TicketImage    string     `gorm:"column:ticket_image;not null"`
	TripType       *string    `gorm:"column:trip_type"`
	Transit        *string    `gorm:"column:transit"`
	FromID         *uuid.UUID `gorm:"column:from_id;type:uuid"`
	From           *Location  `gorm:"foreignKey:FromID"`
	ToID           *uuid.UUID `gorm:"column:to_id;type:uuid"`
	To             *Location  `gorm:"foreignKey:ToID"`
	Deals          []Deal     `gorm:"foreignKey:TripID"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
