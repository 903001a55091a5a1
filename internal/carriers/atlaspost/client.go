// Package atlaspost is the carrier adapter for AtlasPost, a postal carrier.
// AtlasPost weighs in grams and measures in centimetres; conversion from
// caller units stays inside this package. Cancellation maps to AtlasPost's
// refund flow, which only succeeds before first scan.
package atlaspost

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
	CarrierName = "atlaspost"

	productionBaseURL = "https://api.atlaspost.com/rest/v1"
	testBaseURL       = "https://test.atlaspost.com/rest/v1"

	gramsPerLb = 453.59237
	cmPerIn    = 2.54
)

type Config struct {
	APIKey   string
	BaseURL  string
	TestMode bool
	Timeout  time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:   strings.TrimSpace(os.Getenv("ATLASPOST_API_KEY")),
		BaseURL:  strings.TrimSpace(os.Getenv("ATLASPOST_BASE_URL")),
		TestMode: envutil.Bool("ATLASPOST_TEST_MODE", false),
		Timeout:  envutil.DurationSeconds("ATLASPOST_TIMEOUT_SECONDS", 30*time.Second),
	}
}

func NewFromEnv(log *logger.Logger) (carriers.Adapter, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (carriers.Adapter, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing ATLASPOST_API_KEY")
	}
	if cfg.BaseURL == "" {
		if cfg.TestMode {
			cfg.BaseURL = testBaseURL
		} else {
			cfg.BaseURL = productionBaseURL
		}
	}

	clientLog := log.With("carrier", CarrierName)
	key := cfg.APIKey
	return &client{
		log: clientLog,
		api: rest.NewClient(clientLog, cfg.BaseURL, cfg.Timeout, func(req *http.Request) {
			req.Header.Set("X-Atlas-Key", key)
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
	Recipient string `json:"recipient"`
	Street    string `json:"street"`
	Unit      string `json:"unit,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
}

type wireItem struct {
	WeightGrams float64 `json:"weight_grams"`
	LengthCm    float64 `json:"length_cm"`
	WidthCm     float64 `json:"width_cm"`
	HeightCm    float64 `json:"height_cm"`
}

type priceRequest struct {
	MailClass string      `json:"mail_class"`
	Sender    wireAddress `json:"sender"`
	Recipient wireAddress `json:"recipient"`
	Items     []wireItem  `json:"items"`
}

type priceResponse struct {
	Postage      float64 `json:"postage"`
	Currency     string  `json:"currency"`
	DaysToArrive int     `json:"days_to_arrive"`
}

type labelRequest struct {
	priceRequest
	Format string `json:"format"`
}

type labelResponse struct {
	Barcode  string  `json:"barcode"`
	LabelURL string  `json:"label_url"`
	Format   string  `json:"format"`
	Postage  float64 `json:"postage"`
	Currency string  `json:"currency"`
}

type scanResponse struct {
	Scans []struct {
		ScannedAt string `json:"scanned_at"`
		Event     string `json:"event"`
		Facility  string `json:"facility"`
		Note      string `json:"note"`
	} `json:"scans"`
}

type refundResponse struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
}

func toWireAddress(a domain.Address) wireAddress {
	return wireAddress{
		Recipient: a.Name,
		Street:    a.Street1,
		Unit:      a.Street2,
		City:      a.City,
		State:     a.State,
		Zip:       a.PostalCode,
		Country:   a.Country,
	}
}

func toWireItems(packages []domain.PackageSpec) []wireItem {
	items := make([]wireItem, 0, len(packages))
	for _, p := range packages {
		items = append(items, wireItem{
			WeightGrams: math.Round(p.WeightLbs * gramsPerLb),
			LengthCm:    math.Round(p.LengthIn*cmPerIn*10) / 10,
			WidthCm:     math.Round(p.WidthIn*cmPerIn*10) / 10,
			HeightCm:    math.Round(p.HeightIn*cmPerIn*10) / 10,
		})
	}
	return items
}

func (c *client) QuoteRate(ctx context.Context, req *domain.ShipmentRequest, serviceCode string) (*domain.RateQuote, error) {
	if err := carriers.ValidateShipmentRequest(req); err != nil {
		return nil, err
	}
	payload := priceRequest{
		MailClass: serviceCode,
		Sender:    toWireAddress(req.From),
		Recipient: toWireAddress(req.To),
		Items:     toWireItems(req.Packages),
	}
	var resp priceResponse
	if err := c.api.PostJSON(ctx, "/prices", payload, &resp); err != nil {
		return nil, err
	}

	quote := &domain.RateQuote{
		Carrier:     CarrierName,
		ServiceCode: serviceCode,
		ServiceName: carriers.CatalogServiceName(CarrierName, serviceCode),
		Cost:        resp.Postage,
		Currency:    currencyOrUSD(resp.Currency),
	}
	if resp.DaysToArrive > 0 {
		days := resp.DaysToArrive
		quote.TransitDays = &days
	}
	return quote, nil
}

func (c *client) CreateShipment(ctx context.Context, req *domain.ShipmentRequest) (*domain.LabelResult, error) {
	if err := carriers.ValidateShipmentRequest(req); err != nil {
		return nil, err
	}
	payload := labelRequest{
		priceRequest: priceRequest{
			MailClass: req.ServiceType,
			Sender:    toWireAddress(req.From),
			Recipient: toWireAddress(req.To),
			Items:     toWireItems(req.Packages),
		},
		Format: "PNG",
	}
	var resp labelResponse
	if err := c.api.PostJSON(ctx, "/labels", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Barcode == "" {
		return nil, fmt.Errorf("atlaspost returned no barcode")
	}
	return &domain.LabelResult{
		TrackingNumber: resp.Barcode,
		LabelURL:       resp.LabelURL,
		LabelFormat:    resp.Format,
		Cost:           resp.Postage,
		Currency:       currencyOrUSD(resp.Currency),
	}, nil
}

func (c *client) TrackShipment(ctx context.Context, trackingNumber string) ([]domain.TrackingEvent, error) {
	var resp scanResponse
	if err := c.api.GetJSON(ctx, "/tracking/"+trackingNumber, &resp); err != nil {
		return nil, err
	}
	events := make([]domain.TrackingEvent, 0, len(resp.Scans))
	for _, s := range resp.Scans {
		when, err := time.Parse(time.RFC3339, s.ScannedAt)
		if err != nil {
			continue
		}
		events = append(events, domain.TrackingEvent{
			Timestamp:   when,
			Status:      s.Event,
			Location:    s.Facility,
			Description: s.Note,
		})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events, nil
}

func (c *client) CancelShipment(ctx context.Context, trackingNumber string) bool {
	var resp refundResponse
	if err := c.api.PostJSON(ctx, "/refunds", map[string]string{"barcode": trackingNumber}, &resp); err != nil {
		c.log.Warn("refund request failed", "tracking_number", trackingNumber, "error", err)
		return false
	}
	if !resp.Approved {
		c.log.Warn("refund rejected by carrier", "tracking_number", trackingNumber, "reason", resp.Reason)
	}
	return resp.Approved
}

func currencyOrUSD(cur string) string {
	cur = strings.ToUpper(strings.TrimSpace(cur))
	if cur == "" {
		return "USD"
	}
	return cur
}
