package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RateQuote is one carrier/service price offer for a single shipment
// request. Rank, Savings and PercentageSavings are assigned by the rate
// aggregator after the cross-carrier merge.
type RateQuote struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RateRequestID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"rate_request_id"`
	Carrier            string     `gorm:"column:carrier;not null" json:"carrier"`
	ServiceCode        string     `gorm:"column:service_code;not null" json:"service_code"`
	ServiceName        string     `gorm:"column:service_name" json:"service_name,omitempty"`
	Cost               float64    `gorm:"column:cost;not null" json:"cost"`
	Currency           string     `gorm:"column:currency;not null" json:"currency"`
	TransitDays        *int       `gorm:"column:transit_days" json:"transit_days,omitempty"`
	DeliveryDate       *time.Time `gorm:"column:delivery_date" json:"delivery_date,omitempty"`
	Guaranteed         bool       `gorm:"column:guaranteed" json:"guaranteed"`
	Rank               int        `gorm:"column:rank" json:"rank"`
	Savings            float64    `gorm:"column:savings" json:"savings"`
	PercentageSavings  float64    `gorm:"column:percentage_savings" json:"percentage_savings"`
	CreatedAt          time.Time  `gorm:"not null" json:"created_at"`
}

func (RateQuote) TableName() string { return "rate_quote" }

// CarrierError is one per-carrier (optionally per-service) failure collected
// during a rate fan-out.
type CarrierError struct {
	Carrier string `json:"carrier"`
	Service string `json:"service,omitempty"`
	Message string `json:"message"`
}

// RateRequestRecord is the immutable snapshot of one rate-shopping query.
// It is created once by the aggregator and never mutated; quotes live in
// rate_quote keyed by RateRequestID.
type RateRequestRecord struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	Request     datatypes.JSON `gorm:"column:request;type:jsonb" json:"request"`
	Carriers    datatypes.JSON `gorm:"column:carriers;type:jsonb" json:"carriers"`
	Errors      datatypes.JSON `gorm:"column:errors;type:jsonb" json:"errors"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
}

func (RateRequestRecord) TableName() string { return "rate_request_record" }
