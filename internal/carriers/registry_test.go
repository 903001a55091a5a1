package carriers

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/parcelworks/parcelworks-backend/internal/domain"
)

type fakeAdapter struct {
	name     string
	services []Service
}

func (f *fakeAdapter) Name() string            { return f.name }
func (f *fakeAdapter) ListServices() []Service { return f.services }
func (f *fakeAdapter) QuoteRate(ctx context.Context, req *domain.ShipmentRequest, serviceCode string) (*domain.RateQuote, error) {
	return nil, nil
}
func (f *fakeAdapter) CreateShipment(ctx context.Context, req *domain.ShipmentRequest) (*domain.LabelResult, error) {
	return nil, nil
}
func (f *fakeAdapter) TrackShipment(ctx context.Context, trackingNumber string) ([]domain.TrackingEvent, error) {
	return nil, nil
}
func (f *fakeAdapter) CancelShipment(ctx context.Context, trackingNumber string) bool { return false }

func TestRegistryLookupIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	r := NewRegistry(&fakeAdapter{name: "velocity"})
	for _, name := range []string{"velocity", "VELOCITY", " Velocity "} {
		if _, ok := r.Get(name); !ok {
			t.Fatalf("Get(%q) not found", name)
		}
	}
	if _, ok := r.Get("ghostcarrier"); ok {
		t.Fatalf("unregistered carrier resolved")
	}
}

func TestRegistryLaterDuplicateWins(t *testing.T) {
	t.Parallel()

	first := &fakeAdapter{name: "meridian"}
	second := &fakeAdapter{name: "Meridian"}
	r := NewRegistry(first, second)

	got, ok := r.Get("meridian")
	if !ok {
		t.Fatalf("meridian not found")
	}
	if got != second {
		t.Fatalf("expected later registration to win")
	}
	if len(r.List()) != 1 {
		t.Fatalf("duplicate registration leaked: %v", r.List())
	}
}

func TestRegistryListIsSorted(t *testing.T) {
	t.Parallel()

	r := NewRegistry(
		&fakeAdapter{name: "velocity"},
		&fakeAdapter{name: "atlaspost"},
		&fakeAdapter{name: "meridian"},
	)
	want := []string{"atlaspost", "meridian", "velocity"}
	if got := r.List(); !reflect.DeepEqual(got, want) {
		t.Fatalf("List: got=%v want=%v", got, want)
	}
}

func TestValidateShipmentRequest(t *testing.T) {
	t.Parallel()

	valid := &domain.ShipmentRequest{
		From:     domain.Address{Name: "a", Street1: "1 Dock St", City: "Oakland", State: "CA", PostalCode: "94607", Country: "US"},
		To:       domain.Address{Name: "b", Street1: "2 Pier Rd", City: "Seattle", State: "WA", PostalCode: "98101", Country: "US"},
		Packages: []domain.PackageSpec{{WeightLbs: 2, LengthIn: 10, WidthIn: 6, HeightIn: 4}},
	}
	if err := ValidateShipmentRequest(valid); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*domain.ShipmentRequest)
	}{
		{"missing origin", func(r *domain.ShipmentRequest) { r.From = domain.Address{} }},
		{"missing destination", func(r *domain.ShipmentRequest) { r.To = domain.Address{} }},
		{"no packages", func(r *domain.ShipmentRequest) { r.Packages = nil }},
		{"zero weight", func(r *domain.ShipmentRequest) { r.Packages[0].WeightLbs = 0 }},
		{"negative dimension", func(r *domain.ShipmentRequest) { r.Packages[0].HeightIn = -1 }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := *valid
			req.Packages = append([]domain.PackageSpec{}, valid.Packages...)
			tc.mutate(&req)
			err := ValidateShipmentRequest(&req)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *domain.ValidationError, got %T", err)
			}
		})
	}
}

func TestCatalogServices(t *testing.T) {
	t.Parallel()

	services := CatalogServices("velocity")
	if len(services) == 0 {
		t.Fatalf("velocity catalog empty")
	}
	if got := CatalogServiceName("velocity", "ground"); got != "Velocity Ground" {
		t.Fatalf("ground service name: got=%q", got)
	}
	// unknown codes fall back to the code itself
	if got := CatalogServiceName("velocity", "drone-drop"); got != "drone-drop" {
		t.Fatalf("unknown code fallback: got=%q", got)
	}
	if got := CatalogServices("ghostcarrier"); len(got) != 0 {
		t.Fatalf("unknown carrier returned services: %v", got)
	}
}
