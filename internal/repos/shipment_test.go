package repos

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/parcelworks/parcelworks-backend/internal/domain"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
)

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

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func shipmentFixture(owner uuid.UUID, trackingNumber string) *domain.Shipment {
	return &domain.Shipment{
		ID:             uuid.New(),
		OwnerUserID:    owner,
		TrackingNumber: trackingNumber,
		Carrier:        "velocity",
		ServiceType:    "ground",
		Status:         domain.StatusLabelCreated,
		Cost:           12.50,
		Currency:       "USD",
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
}

func TestShipmentCreateAndGet(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewShipmentRepo(db, newTestLogger(t))
	owner := uuid.New()

	created, err := repo.Create(context.Background(), nil, []*domain.Shipment{shipmentFixture(owner, "VEL-1")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("created count: got=%d", len(created))
	}

	got, err := repo.GetByTrackingNumber(context.Background(), nil, "VEL-1")
	if err != nil {
		t.Fatalf("GetByTrackingNumber: %v", err)
	}
	if got.ID != created[0].ID || got.OwnerUserID != owner {
		t.Fatalf("loaded: %+v", got)
	}

	if _, err := repo.GetByTrackingNumber(context.Background(), nil, "NOPE"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	byID, err := repo.GetByIDs(context.Background(), nil, []uuid.UUID{created[0].ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(byID) != 1 {
		t.Fatalf("GetByIDs count: got=%d", len(byID))
	}
}

func TestShipmentDuplicateTrackingNumber(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewShipmentRepo(db, newTestLogger(t))
	owner := uuid.New()

	if _, err := repo.Create(context.Background(), nil, []*domain.Shipment{shipmentFixture(owner, "VEL-1")}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := repo.Create(context.Background(), nil, []*domain.Shipment{shipmentFixture(owner, "VEL-1")})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestShipmentListByOwnerIsScoped(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewShipmentRepo(db, newTestLogger(t))
	owner := uuid.New()
	other := uuid.New()

	fixtures := []*domain.Shipment{
		shipmentFixture(owner, "VEL-1"),
		shipmentFixture(owner, "VEL-2"),
		shipmentFixture(other, "VEL-3"),
	}
	if _, err := repo.Create(context.Background(), nil, fixtures); err != nil {
		t.Fatalf("Create: %v", err)
	}

	mine, err := repo.ListByOwner(context.Background(), nil, owner)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("list count: got=%d want=2", len(mine))
	}
	for _, s := range mine {
		if s.OwnerUserID != owner {
			t.Fatalf("foreign shipment in list: %+v", s)
		}
	}
}

func TestShipmentUpdateVersioned(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewShipmentRepo(db, newTestLogger(t))
	owner := uuid.New()

	created, err := repo.Create(context.Background(), nil, []*domain.Shipment{shipmentFixture(owner, "VEL-1")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	id := created[0].ID

	if err := repo.UpdateVersioned(context.Background(), nil, id, 0, map[string]any{
		"status": string(domain.StatusInTransit),
	}); err != nil {
		t.Fatalf("UpdateVersioned: %v", err)
	}

	got, err := repo.GetByTrackingNumber(context.Background(), nil, "VEL-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != domain.StatusInTransit {
		t.Fatalf("status: got=%q", got.Status)
	}
	if got.Version != 1 {
		t.Fatalf("version: got=%d want=1", got.Version)
	}

	// A writer holding the old version loses the race.
	err = repo.UpdateVersioned(context.Background(), nil, id, 0, map[string]any{
		"status": string(domain.StatusDelivered),
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}
