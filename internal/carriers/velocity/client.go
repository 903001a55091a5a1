// Package velocity is the carrier adapter for Velocity Express. Velocity's
// API already works in pounds and inches, so requests pass through without
// unit conversion.
package velocity

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/parcelworks/parcelworks-backend/internal/carriers"
	"github.com/parcelworks/parcelworks-backend/internal/carriers/rest"
	"github.com/parcelworks/parcelworks-backend/internal/domain"
	"github.com/parcelworks/parcelworks-backend/internal/platform/envutil"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
)

const (
	CarrierName = "velocity"

	productionBaseURL = "https://api.velocityexpress.com/v2"
	sandboxBaseURL    = "https://sandbox.velocityexpress.com/v2"
)

type Config struct {
	APIToken string
	BaseURL  string
	TestMode bool
	Timeout  time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		APIToken: strings.TrimSpace(os.Getenv("VELOCITY_API_TOKEN")),
		BaseURL:  strings.TrimSpace(os.Getenv("VELOCITY_BASE_URL")),
		TestMode: envutil.Bool("VELOCITY_TEST_MODE", false),
		Timeout:  envutil.DurationSeconds("VELOCITY_TIMEOUT_SECONDS", 30*time.Second),
	}
}

func NewFromEnv(log *logger.Logger) (carriers.Adapter, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (carriers.Adapter, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("missing VELOCITY_API_TOKEN")
	}
	if cfg.BaseURL == "" {
		if cfg.TestMode {
			cfg.BaseURL = sandboxBaseURL
		} else {
			cfg.BaseURL = productionBaseURL
		}
	}

	clientLog := log.With("carrier", CarrierName)
	token := cfg.APIToken
	return &client{
		log: clientLog,
		api: rest.NewClient(clientLog, cfg.BaseURL, cfg.Timeout, func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer "+token)
		}),
	}, nil
}

type client struct {
	log *logger.Logger
	api *rest.Client
}

func (c *client) Name() string { return CarrierName }

func (c *client) ListServices() []carriers.Service {
	return carriers.CatalogServices(CarrierName)
}

// --- wire types ---

type wireAddress struct {
	Name       string `json:"name"`
	Company    string `json:"company,omitempty"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

type wireParcel struct {
	WeightLbs float64 `json:"weight_lbs"`
	LengthIn  float64 `json:"length_in"`
	WidthIn   float64 `json:"width_in"`
	HeightIn  float64 `json:"height_in"`
}

type rateRequest struct {
	Service     string       `json:"service"`
	Origin      wireAddress  `json:"origin"`
	Destination wireAddress  `json:"destination"`
	Parcels     []wireParcel `json:"parcels"`
	Signature   bool         `json:"signature_required,omitempty"`
	Hazmat      bool         `json:"hazmat,omitempty"`
}

type rateResponse struct {
	TotalCharge  float64 `json:"total_charge"`
	Currency     string  `json:"currency"`
	TransitDays  int     `json:"transit_days"`
	Guaranteed   bool    `json:"guaranteed"`
	DeliveryDate string  `json:"delivery_date"`
}

type shipmentRequest struct {
	rateRequest
	LabelFormat string `json:"label_format"`
}

type shipmentResponse struct {
	TrackingNumber string  `json:"tracking_number"`
	LabelURL       string  `json:"label_url"`
	LabelFormat    string  `json:"label_format"`
	TotalCharge    float64 `json:"total_charge"`
	Currency       string  `json:"currency"`
}

type trackResponse struct {
	Events []struct {
		OccurredAt  string `json:"occurred_at"`
		Status      string `json:"status"`
		City        string `json:"city"`
		Region      string `json:"region"`
		Description string `json:"description"`
	} `json:"events"`
}

type voidResponse struct {
	Voided bool   `json:"voided"`
	Reason string `json:"reason"`
}

func toWireAddress(a domain.Address) wireAddress {
	return wireAddress{
		Name:       a.Name,
		Company:    a.Company,
		Line1:      a.Street1,
		Line2:      a.Street2,
		City:       a.City,
		Region:     a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}

func toWireParcels(packages []domain.PackageSpec) []wireParcel {
	parcels := make([]wireParcel, 0, len(packages))
	for _, p := range packages {
		parcels = append(parcels, wireParcel{
			WeightLbs: p.WeightLbs,
			LengthIn:  p.LengthIn,
			WidthIn:   p.WidthIn,
			HeightIn:  p.HeightIn,
		})
	}
	return parcels
}

func (c *client) QuoteRate(ctx context.Context, req *domain.ShipmentRequest, serviceCode string) (*domain.RateQuote, error) {
	if err := carriers.ValidateShipmentRequest(req); err != nil {
		return nil, err
	}
	payload := rateRequest{
		Service:     serviceCode,
		Origin:      toWireAddress(req.From),
		Destination: toWireAddress(req.To),
		Parcels:     toWireParcels(req.Packages),
		Signature:   req.Options.SignatureRequired,
		Hazmat:      req.Options.Hazmat,
	}
	var resp rateResponse
	if err := c.api.PostJSON(ctx, "/rates", payload, &resp); err != nil {
		return nil, err
	}

	quote := &domain.RateQuote{
		Carrier:     CarrierName,
		ServiceCode: serviceCode,
		ServiceName: carriers.CatalogServiceName(CarrierName, serviceCode),
		Cost:        resp.TotalCharge,
		Currency:    defaultCurrency(resp.Currency),
		Guaranteed:  resp.Guaranteed,
	}
	if resp.TransitDays > 0 {
		days := resp.TransitDays
		quote.TransitDays = &days
	}
	if resp.DeliveryDate != "" {
		if when, err := time.Parse("2006-01-02", resp.DeliveryDate); err == nil {
			quote.DeliveryDate = &when
		}
	}
	return quote, nil
}

func (c *client) CreateShipment(ctx context.Context, req *domain.ShipmentRequest) (*domain.LabelResult, error) {
	if err := carriers.ValidateShipmentRequest(req); err != nil {
		return nil, err
	}
	payload := shipmentRequest{
		rateRequest: rateRequest{
			Service:     req.ServiceType,
			Origin:      toWireAddress(req.From),
			Destination: toWireAddress(req.To),
			Parcels:     toWireParcels(req.Packages),
			Signature:   req.Options.SignatureRequired,
			Hazmat:      req.Options.Hazmat,
		},
		LabelFormat: "PDF",
	}
	var resp shipmentResponse
	if err := c.api.PostJSON(ctx, "/shipments", payload, &resp); err != nil {
		return nil, err
	}
	if resp.TrackingNumber == "" {
		return nil, fmt.Errorf("velocity returned no tracking number")
	}
	return &domain.LabelResult{
		TrackingNumber: resp.TrackingNumber,
		LabelURL:       resp.LabelURL,
		LabelFormat:    resp.LabelFormat,
		Cost:           resp.TotalCharge,
		Currency:       defaultCurrency(resp.Currency),
	}, nil
}

func (c *client) TrackShipment(ctx context.Context, trackingNumber string) ([]domain.TrackingEvent, error) {
	var resp trackResponse
	if err := c.api.GetJSON(ctx, "/shipments/"+trackingNumber+"/events", &resp); err != nil {
		return nil, err
	}
	events := make([]domain.TrackingEvent, 0, len(resp.Events))
	for _, e := range resp.Events {
		when, err := time.Parse(time.RFC3339, e.OccurredAt)
		if err != nil {
			continue
		}
		location := e.City
		if e.Region != "" {
			location = strings.TrimPrefix(location+", "+e.Region, ", ")
		}
		events = append(events, domain.TrackingEvent{
			Timestamp:   when,
			Status:      e.Status,
			Location:    location,
			Description: e.Description,
		})
	}
	// Velocity returns newest-first; callers expect chronological.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, nil
}

func (c *client) CancelShipment(ctx context.Context, trackingNumber string) bool {
	var resp voidResponse
	if err := c.api.PostJSON(ctx, "/shipments/"+trackingNumber+"/void", struct{}{}, &resp); err != nil {
		c.log.Warn("void request failed", "tracking_number", trackingNumber, "error", err)
		return false
	}
	if !resp.Voided {
		c.log.Warn("void rejected by carrier", "tracking_number", trackingNumber, "reason", resp.Reason)
	}
	return resp.Voided
}

func defaultCurrency(cur string) string {
	cur = strings.ToUpper(strings.TrimSpace(cur))
	if cur == "" {
		return "USD"
	}
	return cur
}
