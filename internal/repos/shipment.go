package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/parcelworks/parcelworks-backend/internal/domain"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
)

type ShipmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, shipments []*domain.Shipment) ([]*domain.Shipment, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.Shipment, error)
	GetByTrackingNumber(ctx context.Context, tx *gorm.DB, trackingNumber string) (*domain.Shipment, error)
	ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*domain.Shipment, error)
	// UpdateVersioned applies fields to one shipment iff its version still
	// matches; the row's version is bumped in the same statement. A lost
	// race returns domain.ErrConflict.
	UpdateVersioned(ctx context.Context, tx *gorm.DB, id uuid.UUID, version int, fields map[string]any) error
}

type shipmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShipmentRepo(db *gorm.DB, baseLog *logger.Logger) ShipmentRepo {
	repoLog := baseLog.With("repo", "ShipmentRepo")
	return &shipmentRepo{db: db, log: repoLog}
}

func (sr *shipmentRepo) Create(ctx context.Context, tx *gorm.DB, shipments []*domain.Shipment) ([]*domain.Shipment, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	if len(shipments) == 0 {
		return []*domain.Shipment{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&shipments).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("tracking number already recorded: %w", domain.ErrConflict)
		}
		return nil, err
	}
	return shipments, nil
}

func (sr *shipmentRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.Shipment, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var results []*domain.Shipment
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *shipmentRepo) GetByTrackingNumber(ctx context.Context, tx *gorm.DB, trackingNumber string) (*domain.Shipment, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var result domain.Shipment
	err := transaction.WithContext(ctx).
		Where("tracking_number = ?", trackingNumber).
		First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (sr *shipmentRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID) ([]*domain.Shipment, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var results []*domain.Shipment
	if err := transaction.WithContext(ctx).
		Where("owner_user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *shipmentRepo) UpdateVersioned(ctx context.Context, tx *gorm.DB, id uuid.UUID, version int, fields map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	updates := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		updates[k] = v
	}
	updates["version"] = version + 1
	updates["updated_at"] = time.Now().UTC()

	res := transaction.WithContext(ctx).
		Model(&domain.Shipment{}).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("shipment %s changed concurrently: %w", id, domain.ErrConflict)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	// The sqlite driver used in tests reports constraint failures as plain
	// strings.
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
