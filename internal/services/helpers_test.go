package services

import (
	"context"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/parcelworks/parcelworks-backend/internal/carriers"
	"github.com/parcelworks/parcelworks-backend/internal/domain"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
	"github.com/parcelworks/parcelworks-backend/internal/repos"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.Shipment{},
		&domain.RateQuote{},
		&domain.RateRequestRecord{},
		&domain.CarrierActivity{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestAudit(t *testing.T, db *gorm.DB) AuditService {
	t.Helper()
	log := newTestLogger(t)
	return NewAuditService(db, log, repos.NewCarrierActivityRepo(db, log))
}

// stubAdapter is a configurable in-memory carrier for service tests.
type stubAdapter struct {
	name     string
	services []carriers.Service

	quoteFn  func(ctx context.Context, req *domain.ShipmentRequest, serviceCode string) (*domain.RateQuote, error)
	createFn func(ctx context.Context, req *domain.ShipmentRequest) (*domain.LabelResult, error)
	trackFn  func(ctx context.Context, trackingNumber string) ([]domain.TrackingEvent, error)
	cancelFn func(ctx context.Context, trackingNumber string) bool

	cancelCalls int
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) ListServices() []carriers.Service {
	if s.services != nil {
		return s.services
	}
	return []carriers.Service{{Code: "standard", Name: "Standard"}}
}

func (s *stubAdapter) QuoteRate(ctx context.Context, req *domain.ShipmentRequest, serviceCode string) (*domain.RateQuote, error) {
	if s.quoteFn != nil {
		return s.quoteFn(ctx, req, serviceCode)
	}
	return &domain.RateQuote{Carrier: s.name, ServiceCode: serviceCode, Cost: 10, Currency: "USD"}, nil
}

func (s *stubAdapter) CreateShipment(ctx context.Context, req *domain.ShipmentRequest) (*domain.LabelResult, error) {
	if s.createFn != nil {
		return s.createFn(ctx, req)
	}
	return &domain.LabelResult{
		TrackingNumber: s.name + "-TRACK-1",
		LabelURL:       "https://labels.example.com/" + s.name + ".pdf",
		LabelFormat:    "PDF",
		Cost:           10,
		Currency:       "USD",
	}, nil
}

func (s *stubAdapter) TrackShipment(ctx context.Context, trackingNumber string) ([]domain.TrackingEvent, error) {
	if s.trackFn != nil {
		return s.trackFn(ctx, trackingNumber)
	}
	return nil, nil
}

func (s *stubAdapter) CancelShipment(ctx context.Context, trackingNumber string) bool {
	s.cancelCalls++
	if s.cancelFn != nil {
		return s.cancelFn(ctx, trackingNumber)
	}
	return true
}

func shipmentRequestFixture() *domain.ShipmentRequest {
	return &domain.ShipmentRequest{
		From:        domain.Address{Name: "Sender", Street1: "1 Dock St", City: "Oakland", State: "CA", PostalCode: "94607", Country: "US"},
		To:          domain.Address{Name: "Receiver", Street1: "2 Pier Rd", City: "Seattle", State: "WA", PostalCode: "98101", Country: "US", Email: "receiver@example.com"},
		Packages:    []domain.PackageSpec{{WeightLbs: 2, LengthIn: 10, WidthIn: 6, HeightIn: 4}},
		ServiceType: "standard",
	}
}
