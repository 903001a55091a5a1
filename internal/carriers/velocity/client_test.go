package velocity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/parcelworks/parcelworks-backend/internal/carriers/rest"
	"github.com/parcelworks/parcelworks-backend/internal/domain"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
)

func testRequest() *domain.ShipmentRequest {
	return &domain.ShipmentRequest{
		From:        domain.Address{Name: "Warehouse", Street1: "1 Dock St", City: "Oakland", State: "CA", PostalCode: "94607", Country: "US"},
		To:          domain.Address{Name: "Customer", Street1: "2 Pier Rd", City: "Seattle", State: "WA", PostalCode: "98101", Country: "US"},
		Packages:    []domain.PackageSpec{{WeightLbs: 3.5, LengthIn: 12, WidthIn: 8, HeightIn: 6}},
		ServiceType: "ground",
	}
}

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	a, err := New(log, Config{APIToken: "test-token", BaseURL: srv.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a.(*client)
}

func TestQuoteRate(t *testing.T) {
	t.Parallel()

	var gotAuth string
	var gotBody rateRequest
	c := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rates" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(rateResponse{
			TotalCharge:  12.45,
			Currency:     "usd",
			TransitDays:  3,
			Guaranteed:   true,
			DeliveryDate: "2026-09-04",
		})
	})

	quote, err := c.QuoteRate(context.Background(), testRequest(), "ground")
	if err != nil {
		t.Fatalf("QuoteRate: %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("auth header: got=%q", gotAuth)
	}
	if gotBody.Service != "ground" {
		t.Fatalf("service in payload: got=%q", gotBody.Service)
	}
	if gotBody.Parcels[0].WeightLbs != 3.5 {
		t.Fatalf("weight passed through: got=%v", gotBody.Parcels[0].WeightLbs)
	}
	if quote.Carrier != CarrierName || quote.ServiceCode != "ground" {
		t.Fatalf("quote identity: %+v", quote)
	}
	if quote.Cost != 12.45 || quote.Currency != "USD" {
		t.Fatalf("quote pricing: cost=%v currency=%q", quote.Cost, quote.Currency)
	}
	if quote.TransitDays == nil || *quote.TransitDays != 3 {
		t.Fatalf("transit days: %+v", quote.TransitDays)
	}
	if !quote.Guaranteed {
		t.Fatalf("guaranteed flag lost")
	}
	if quote.ServiceName != "Velocity Ground" {
		t.Fatalf("service name: got=%q", quote.ServiceName)
	}
}

func TestQuoteRateHTTPError(t *testing.T) {
	t.Parallel()

	c := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"rate engine down"}`, http.StatusServiceUnavailable)
	})

	_, err := c.QuoteRate(context.Background(), testRequest(), "ground")
	if err == nil {
		t.Fatalf("expected error")
	}
	var httpErr *rest.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *rest.HTTPError, got %T", err)
	}
	if httpErr.HTTPStatusCode() != http.StatusServiceUnavailable {
		t.Fatalf("status: got=%d", httpErr.HTTPStatusCode())
	}
}

func TestQuoteRateInvalidRequestSkipsNetwork(t *testing.T) {
	t.Parallel()

	called := false
	c := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := testRequest()
	req.Packages = nil
	_, err := c.QuoteRate(context.Background(), req, "ground")

	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Fatalf("invalid request reached the network")
	}
}

func TestCreateShipment(t *testing.T) {
	t.Parallel()

	c := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shipments" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(shipmentResponse{
			TrackingNumber: "VEL123456789",
			LabelURL:       "https://labels.example.com/VEL123456789.pdf",
			LabelFormat:    "PDF",
			TotalCharge:    14.10,
			Currency:       "USD",
		})
	})

	label, err := c.CreateShipment(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
	if label.TrackingNumber != "VEL123456789" {
		t.Fatalf("tracking number: got=%q", label.TrackingNumber)
	}
	if label.Cost != 14.10 {
		t.Fatalf("cost: got=%v", label.Cost)
	}
}

func TestCreateShipmentMissingTrackingNumber(t *testing.T) {
	t.Parallel()

	c := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(shipmentResponse{})
	})

	if _, err := c.CreateShipment(context.Background(), testRequest()); err == nil {
		t.Fatalf("expected error for empty tracking number")
	}
}

func TestTrackShipmentSortsChronologically(t *testing.T) {
	t.Parallel()

	c := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shipments/VEL1/events" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Write([]byte(`{"events":[
			{"occurred_at":"2026-08-30T10:00:00Z","status":"in_transit","city":"Portland","region":"OR"},
			{"occurred_at":"2026-08-29T08:00:00Z","status":"picked_up","city":"Oakland","region":"CA"}
		]}`))
	})

	events, err := c.TrackShipment(context.Background(), "VEL1")
	if err != nil {
		t.Fatalf("TrackShipment: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("event count: got=%d", len(events))
	}
	if !events[0].Timestamp.Before(events[1].Timestamp) {
		t.Fatalf("events not chronological: %v then %v", events[0].Timestamp, events[1].Timestamp)
	}
	if events[0].Status != "picked_up" {
		t.Fatalf("first event status: got=%q", events[0].Status)
	}
	if events[0].Location != "Oakland, CA" {
		t.Fatalf("location: got=%q", events[0].Location)
	}
}

func TestCancelShipment(t *testing.T) {
	t.Parallel()

	t.Run("voided", func(t *testing.T) {
		t.Parallel()
		c := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/shipments/VEL1/void" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			json.NewEncoder(w).Encode(voidResponse{Voided: true})
		})
		if !c.CancelShipment(context.Background(), "VEL1") {
			t.Fatalf("expected voided=true")
		}
	})

	t.Run("rejected", func(t *testing.T) {
		t.Parallel()
		c := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(voidResponse{Voided: false, Reason: "already in transit"})
		})
		if c.CancelShipment(context.Background(), "VEL1") {
			t.Fatalf("expected voided=false")
		}
	})

	t.Run("server error", func(t *testing.T) {
		t.Parallel()
		c := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		if c.CancelShipment(context.Background(), "VEL1") {
			t.Fatalf("expected false on server error")
		}
	})
}
