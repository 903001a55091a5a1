package carriers

import (
	"context"

	"github.com/parcelworks/parcelworks-backend/internal/domain"
)

// Service is one bookable service a carrier offers.
type Service struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
}

// Adapter translates the uniform shipping contract into one carrier's
// proprietary protocol. Implementations privately own endpoint selection,
// auth header construction and unit conversion; caller units (pounds,
// inches) never change shape at this boundary.
type Adapter interface {
	// Name returns the canonical lowercase carrier id.
	Name() string

	// ListServices returns the carrier's bookable services.
	ListServices() []Service

	// QuoteRate prices one service for the request. The returned quote has
	// Carrier/ServiceCode/Cost/Currency and transit fields populated; id,
	// rank and savings belong to the aggregator.
	QuoteRate(ctx context.Context, req *domain.ShipmentRequest, serviceCode string) (*domain.RateQuote, error)

	// CreateShipment books the request and returns the carrier label. The
	// request shape is validated before any network call; invalid input
	// fails with *domain.ValidationError without touching the wire.
	CreateShipment(ctx context.Context, req *domain.ShipmentRequest) (*domain.LabelResult, error)

	// TrackShipment returns the carrier's tracking history, chronological
	// within this carrier only.
	TrackShipment(ctx context.Context, trackingNumber string) ([]domain.TrackingEvent, error)

	// CancelShipment asks the carrier to void the shipment. Network and
	// carrier failures are logged and reported as false, never returned as
	// errors past this boundary.
	CancelShipment(ctx context.Context, trackingNumber string) bool
}

// ValidateShipmentRequest enforces the request shape every adapter requires
// before spending a network call: non-empty addresses, at least one package,
// positive weight and dimensions.
func ValidateShipmentRequest(req *domain.ShipmentRequest) error {
	if req == nil {
		return &domain.ValidationError{Reason: "request required"}
	}
	if req.From.Empty() {
		return &domain.ValidationError{Field: "from", Reason: "origin address required"}
	}
	if req.To.Empty() {
		return &domain.ValidationError{Field: "to", Reason: "destination address required"}
	}
	if len(req.Packages) == 0 {
		return &domain.ValidationError{Field: "packages", Reason: "at least one package required"}
	}
	for _, p := range req.Packages {
		if p.WeightLbs <= 0 {
			return &domain.ValidationError{Field: "packages", Reason: "weight must be positive"}
		}
		if p.LengthIn <= 0 || p.WidthIn <= 0 || p.HeightIn <= 0 {
			return &domain.ValidationError{Field: "packages", Reason: "dimensions must be positive"}
		}
	}
	return nil
}
