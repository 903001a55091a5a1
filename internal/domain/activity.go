package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CarrierActivity is the append-only audit trail of carrier-facing actions.
type CarrierActivity struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Carrier        string         `gorm:"column:carrier;not null;index" json:"carrier"`
	Action         string         `gorm:"column:action;not null;index" json:"action"`
	TrackingNumber string         `gorm:"column:tracking_number;index" json:"tracking_number,omitempty"`
	Details        datatypes.JSON `gorm:"column:details;type:jsonb" json:"details,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;index" json:"created_at"`
}

func (CarrierActivity) TableName() string { return "carrier_activity" }

const (
	ActivityRateQuote = "rate_quote"
	ActivityBook      = "book"
	ActivityCancel    = "cancel"
	ActivityTrack     = "track"
)
