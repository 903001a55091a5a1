package atlaspost

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/parcelworks/parcelworks-backend/internal/domain"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
)

func testRequest() *domain.ShipmentRequest {
	return &domain.ShipmentRequest{
		From:        domain.Address{Name: "Depot", Street1: "1 Quay Ln", City: "Oakland", State: "CA", PostalCode: "94607", Country: "US"},
		To:          domain.Address{Name: "Receiver", Street1: "9 Hill St", City: "Denver", State: "CO", PostalCode: "80202", Country: "US"},
		Packages:    []domain.PackageSpec{{WeightLbs: 2, LengthIn: 10, WidthIn: 6, HeightIn: 4}},
		ServiceType: "first-class",
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
	a, err := New(log, Config{APIKey: "atlas-key", BaseURL: srv.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a.(*client)
}

func TestQuoteRateConvertsToGrams(t *testing.T) {
	t.Parallel()

	var gotKey string
	var gotBody priceRequest
	c := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/prices" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotKey = r.Header.Get("X-Atlas-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(priceResponse{Postage: 6.15, Currency: "usd", DaysToArrive: 5})
	})

	quote, err := c.QuoteRate(context.Background(), testRequest(), "first-class")
	if err != nil {
		t.Fatalf("QuoteRate: %v", err)
	}
	if gotKey != "atlas-key" {
		t.Fatalf("api key header: got=%q", gotKey)
	}
	if len(gotBody.Items) != 1 {
		t.Fatalf("items: got=%d want=1", len(gotBody.Items))
	}
	item := gotBody.Items[0]
	// 2 lbs rounds to 907 g; inches convert at 2.54 cm to one decimal.
	if item.WeightGrams != 907 {
		t.Errorf("weight: got=%v want=907", item.WeightGrams)
	}
	if item.LengthCm != 25.4 || item.WidthCm != 15.2 || item.HeightCm != 10.2 {
		t.Errorf("dims: got=%v/%v/%v", item.LengthCm, item.WidthCm, item.HeightCm)
	}
	if quote.Cost != 6.15 {
		t.Errorf("cost: got=%v want=6.15", quote.Cost)
	}
	if quote.Currency != "USD" {
		t.Errorf("currency: got=%q want=USD", quote.Currency)
	}
	if quote.TransitDays == nil || *quote.TransitDays != 5 {
		t.Errorf("transit days: got=%v want=5", quote.TransitDays)
	}
}

func TestCreateShipment(t *testing.T) {
	t.Parallel()

	c := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/labels" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(labelResponse{
			Barcode:  "AP00012345US",
			LabelURL: "https://labels.example.com/AP00012345US.png",
			Format:   "PNG",
			Postage:  6.15,
			Currency: "USD",
		})
	})

	label, err := c.CreateShipment(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("CreateShipment: %v", err)
	}
	if label.TrackingNumber != "AP00012345US" {
		t.Errorf("tracking: got=%q", label.TrackingNumber)
	}
	if label.LabelFormat != "PNG" {
		t.Errorf("format: got=%q", label.LabelFormat)
	}
}

func TestCreateShipmentMissingBarcode(t *testing.T) {
	t.Parallel()

	c := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(labelResponse{LabelURL: "https://labels.example.com/x.png"})
	})

	if _, err := c.CreateShipment(context.Background(), testRequest()); err == nil {
		t.Fatal("expected error for missing barcode")
	}
}

func TestTrackShipmentSkipsUnparseableScans(t *testing.T) {
	t.Parallel()

	c := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tracking/AP00012345US" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"scans": []map[string]string{
				{"scanned_at": "2026-03-02T08:00:00Z", "event": "in_transit", "facility": "Denver, CO"},
				{"scanned_at": "not-a-timestamp", "event": "bogus"},
				{"scanned_at": "2026-03-01T10:00:00Z", "event": "accepted", "facility": "Oakland, CA"},
			},
		})
	})

	events, err := c.TrackShipment(context.Background(), "AP00012345US")
	if err != nil {
		t.Fatalf("TrackShipment: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events: got=%d want=2", len(events))
	}
	if events[0].Status != "accepted" || events[1].Status != "in_transit" {
		t.Errorf("order: got=%q,%q", events[0].Status, events[1].Status)
	}
}

func TestCancelShipment(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		resp refundResponse
		code int
		want bool
	}{
		{name: "approved", resp: refundResponse{Approved: true}, code: http.StatusOK, want: true},
		{name: "rejected after scan", resp: refundResponse{Approved: false, Reason: "already scanned"}, code: http.StatusOK, want: false},
		{name: "server error", code: http.StatusInternalServerError, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/refunds" {
					t.Errorf("unexpected path %q", r.URL.Path)
				}
				w.WriteHeader(tc.code)
				json.NewEncoder(w).Encode(tc.resp)
			})
			if got := c.CancelShipment(context.Background(), "AP00012345US"); got != tc.want {
				t.Fatalf("got=%v want=%v", got, tc.want)
			}
		})
	}
}
