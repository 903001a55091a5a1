// Package meridian is the carrier adapter for Meridian Freight. Meridian's
// API is metric: weights in kilograms, dimensions in centimetres. Conversion
// from caller units happens here and only here.
package meridian

import (
	"context"
	"fmt"
	"math"
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
	CarrierName = "meridian"

	productionBaseURL = "https://gateway.meridianfreight.io/api/v3"
	stagingBaseURL    = "https://staging.meridianfreight.io/api/v3"

	lbsPerKg = 0.45359237
	cmPerIn  = 2.54
)

type Config struct {
	AccountID string
	APISecret string
	BaseURL   string
	TestMode  bool
	Timeout   time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		AccountID: strings.TrimSpace(os.Getenv("MERIDIAN_ACCOUNT_ID")),
		APISecret: strings.TrimSpace(os.Getenv("MERIDIAN_API_SECRET")),
		BaseURL:   strings.TrimSpace(os.Getenv("MERIDIAN_BASE_URL")),
		TestMode:  envutil.Bool("MERIDIAN_TEST_MODE", false),
		Timeout:   envutil.DurationSeconds("MERIDIAN_TIMEOUT_SECONDS", 30*time.Second),
	}
}

func NewFromEnv(log *logger.Logger) (carriers.Adapter, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (carriers.Adapter, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.AccountID == "" {
		return nil, fmt.Errorf("missing MERIDIAN_ACCOUNT_ID")
	}
	if cfg.APISecret == "" {
		return nil, fmt.Errorf("missing MERIDIAN_API_SECRET")
	}
	if cfg.BaseURL == "" {
		if cfg.TestMode {
			cfg.BaseURL = stagingBaseURL
		} else {
			cfg.BaseURL = productionBaseURL
		}
	}

	clientLog := log.With("carrier", CarrierName)
	account, secret := cfg.AccountID, cfg.APISecret
	return &client{
		log: clientLog,
		api: rest.NewClient(clientLog, cfg.BaseURL, cfg.Timeout, func(req *http.Request) {
			req.SetBasicAuth(account, secret)
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

type wireParty struct {
	Contact  string `json:"contact"`
	Company  string `json:"company,omitempty"`
	Street   string `json:"street"`
	Street2  string `json:"street2,omitempty"`
	City     string `json:"city"`
	Province string `json:"province"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
}

type wirePiece struct {
	WeightKg float64 `json:"weight_kg"`
	LengthCm float64 `json:"length_cm"`
	WidthCm  float64 `json:"width_cm"`
	HeightCm float64 `json:"height_cm"`
}

type quoteRequest struct {
	ServiceLevel string      `json:"service_level"`
	Shipper      wireParty   `json:"shipper"`
	Consignee    wireParty   `json:"consignee"`
	Pieces       []wirePiece `json:"pieces"`
	Dangerous    bool        `json:"dangerous_goods,omitempty"`
	Insured      *float64    `json:"insured_value,omitempty"`
}

type quoteResponse struct {
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	EstimatedDays int     `json:"estimated_days"`
	Committed     bool    `json:"committed_delivery"`
}

type consignmentRequest struct {
	quoteRequest
	LabelType string `json:"label_type"`
}

type consignmentResponse struct {
	ConsignmentNo string  `json:"consignment_no"`
	LabelHref     string  `json:"label_href"`
	LabelType     string  `json:"label_type"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
}

type historyResponse struct {
	History []struct {
		At      string `json:"at"`
		Code    string `json:"code"`
		Depot   string `json:"depot"`
		Remarks string `json:"remarks"`
	} `json:"history"`
}

type cancelResponse struct {
	Cancelled bool   `json:"cancelled"`
	Message   string `json:"message"`
}

func toWireParty(a domain.Address) wireParty {
	return wireParty{
		Contact:  a.Name,
		Company:  a.Company,
		Street:   a.Street1,
		Street2:  a.Street2,
		City:     a.City,
		Province: a.State,
		Postcode: a.PostalCode,
		Country:  a.Country,
		Phone:    a.Phone,
		Email:    a.Email,
	}
}

func toWirePieces(packages []domain.PackageSpec) []wirePiece {
	pieces := make([]wirePiece, 0, len(packages))
	for _, p := range packages {
		pieces = append(pieces, wirePiece{
			WeightKg: round3(p.WeightLbs * lbsPerKg),
			LengthCm: round1(p.LengthIn * cmPerIn),
			WidthCm:  round1(p.WidthIn * cmPerIn),
			HeightCm: round1(p.HeightIn * cmPerIn),
		})
	}
	return pieces
}

func (c *client) buildQuoteRequest(req *domain.ShipmentRequest, serviceCode string) quoteRequest {
	payload := quoteRequest{
		ServiceLevel: serviceCode,
		Shipper:      toWireParty(req.From),
		Consignee:    toWireParty(req.To),
		Pieces:       toWirePieces(req.Packages),
		Dangerous:    req.Options.Hazmat,
	}
	if req.Options.Insurance && req.Options.InsuredValue != nil {
		payload.Insured = req.Options.InsuredValue
	}
	return payload
}

func (c *client) QuoteRate(ctx context.Context, req *domain.ShipmentRequest, serviceCode string) (*domain.RateQuote, error) {
	if err := carriers.ValidateShipmentRequest(req); err != nil {
		return nil, err
	}
	var resp quoteResponse
	if err := c.api.PostJSON(ctx, "/quotes", c.buildQuoteRequest(req, serviceCode), &resp); err != nil {
		return nil, err
	}

	quote := &domain.RateQuote{
		Carrier:     CarrierName,
		ServiceCode: serviceCode,
		ServiceName: carriers.CatalogServiceName(CarrierName, serviceCode),
		Cost:        resp.Price,
		Currency:    currencyOrUSD(resp.Currency),
		Guaranteed:  resp.Committed,
	}
	if resp.EstimatedDays > 0 {
		days := resp.EstimatedDays
		quote.TransitDays = &days
	}
	return quote, nil
}

func (c *client) CreateShipment(ctx context.Context, req *domain.ShipmentRequest) (*domain.LabelResult, error) {
	if err := carriers.ValidateShipmentRequest(req); err != nil {
		return nil, err
	}
	payload := consignmentRequest{
		quoteRequest: c.buildQuoteRequest(req, req.ServiceType),
		LabelType:    "PDF_A4",
	}
	var resp consignmentResponse
	if err := c.api.PostJSON(ctx, "/consignments", payload, &resp); err != nil {
		return nil, err
	}
	if resp.ConsignmentNo == "" {
		return nil, fmt.Errorf("meridian returned no consignment number")
	}
	return &domain.LabelResult{
		TrackingNumber: resp.ConsignmentNo,
		LabelURL:       resp.LabelHref,
		LabelFormat:    resp.LabelType,
		Cost:           resp.Price,
		Currency:       currencyOrUSD(resp.Currency),
	}, nil
}

func (c *client) TrackShipment(ctx context.Context, trackingNumber string) ([]domain.TrackingEvent, error) {
	var resp historyResponse
	if err := c.api.GetJSON(ctx, "/consignments/"+trackingNumber+"/history", &resp); err != nil {
		return nil, err
	}
	events := make([]domain.TrackingEvent, 0, len(resp.History))
	for _, h := range resp.History {
		when, err := time.Parse(time.RFC3339, h.At)
		if err != nil {
			continue
		}
		events = append(events, domain.TrackingEvent{
			Timestamp:   when,
			Status:      h.Code,
			Location:    h.Depot,
			Description: h.Remarks,
		})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, nil
}

func (c *client) CancelShipment(ctx context.Context, trackingNumber string) bool {
	var resp cancelResponse
	if err := c.api.PostJSON(ctx, "/consignments/"+trackingNumber+"/cancel", struct{}{}, &resp); err != nil {
		c.log.Warn("cancel request failed", "tracking_number", trackingNumber, "error", err)
		return false
	}
	if !resp.Cancelled {
		c.log.Warn("cancel rejected by carrier", "tracking_number", trackingNumber, "message", resp.Message)
	}
	return resp.Cancelled
}

func currencyOrUSD(cur string) string {
	cur = strings.ToUpper(strings.TrimSpace(cur))
	if cur == "" {
		return "USD"
	}
	return cur
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round1(v float64) float64 { return math.Round(v*10) / 10 }
