package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction records the money side of a finalized deal.
type Transaction struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FromAccount *string          `gorm:"column:from_account"`
	ToAccount   *string          `gorm:"column:to_account"`
	Fees        *decimal.Decimal `gorm:"column:fees;type:numeric(12,2)"`
	NetAmount   *decimal.Decimal `gorm:"column:net_amount;type:numeric(12,2)"`
	Details     *string          `gorm:"column:details"`
	DealID      *uuid.UUID       `gorm:"column:deal_id;type:uuid"`
	ProviderID  *uuid.UUID       `gorm:"column:provider_id;type:uuid"`
	Provider    *AccountProvider `gorm:"foreignKey:ProviderID"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// AccountProvider is a lookup naming a payment rail a transaction settles
// through.
type AccountProvider struct {
	ID           uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string        `gorm:"column:name;not null;uniqueIndex"`
	Transactions []Transaction `gorm:"foreignKey:ProviderID"`
	CreatedAt    time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
