package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Shipment is the persisted record of a booked package movement. It is the
// single source of truth for booking state; Version backs optimistic
// concurrency on status updates.
type Shipment struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	TrackingNumber string         `gorm:"column:tracking_number;uniqueIndex" json:"tracking_number,omitempty"`
	Carrier        string         `gorm:"column:carrier;index" json:"carrier,omitempty"`
	ServiceType    string         `gorm:"column:service_type" json:"service_type,omitempty"`
	Status         ShipmentStatus `gorm:"column:status;not null;index" json:"status"`
	FromAddress    datatypes.JSON `gorm:"column:from_address;type:jsonb" json:"from_address"`
	ToAddress      datatypes.JSON `gorm:"column:to_address;type:jsonb" json:"to_address"`
	Packages       datatypes.JSON `gorm:"column:packages;type:jsonb" json:"packages"`
	TotalWeightLbs float64        `gorm:"column:total_weight_lbs" json:"total_weight_lbs"`
	TotalValue     float64        `gorm:"column:total_value" json:"total_value"`
	Cost           float64        `gorm:"column:cost" json:"cost"`
	Currency       string         `gorm:"column:currency" json:"currency,omitempty"`
	LabelURL       string         `gorm:"column:label_url" json:"label_url,omitempty"`
	LabelFormat    string         `gorm:"column:label_format" json:"label_format,omitempty"`
	RateQuoteID    *uuid.UUID     `gorm:"type:uuid;column:rate_quote_id" json:"rate_quote_id,omitempty"`
	CancelReason   string         `gorm:"column:cancel_reason" json:"cancel_reason,omitempty"`
	CancelledAt    *time.Time     `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	Version        int            `gorm:"column:version;not null;default:0" json:"-"`
	CreatedAt      time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
}

func (Shipment) TableName() string { return "shipment" }

// LabelResult is the carrier-issued proof of booking. It is returned to the
// caller and folded into the Shipment record, never persisted on its own.
type LabelResult struct {
	TrackingNumber string  `json:"tracking_number"`
	LabelURL       string  `json:"label_url"`
	LabelFormat    string  `json:"label_format"`
	Cost           float64 `json:"cost"`
	Currency       string  `json:"currency"`
}

// TrackingEvent is one entry of a carrier's tracking history, chronological
// within a single carrier only.
type TrackingEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Status      string    `json:"status"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
}
