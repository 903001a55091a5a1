package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parcelworks/parcelworks-backend/internal/domain"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
)

// RateRequestRepo persists rate-shopping snapshots. Records are append-only:
// there is intentionally no update method.
type RateRequestRepo interface {
	Create(ctx context.Context, tx *gorm.DB, record *domain.RateRequestRecord, quotes []*domain.RateQuote) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.RateRequestRecord, []*domain.RateQuote, error)
	GetQuoteByID(ctx context.Context, tx *gorm.DB, quoteID uuid.UUID) (*domain.RateQuote, error)
}

type rateRequestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRateRequestRepo(db *gorm.DB, baseLog *logger.Logger) RateRequestRepo {
	repoLog := baseLog.With("repo", "RateRequestRepo")
	return &rateRequestRepo{db: db, log: repoLog}
}

func (rr *rateRequestRepo) Create(ctx context.Context, tx *gorm.DB, record *domain.RateRequestRecord, quotes []*domain.RateQuote) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	return transaction.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		if err := inner.Create(record).Error; err != nil {
			return err
		}
		if len(quotes) == 0 {
			return nil
		}
		return inner.Create(&quotes).Error
	})
}

func (rr *rateRequestRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.RateRequestRecord, []*domain.RateQuote, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var record domain.RateRequestRecord
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, err
	}

	var quotes []*domain.RateQuote
	if err := transaction.WithContext(ctx).
		Where("rate_request_id = ?", id).
		Order("rank ASC").
		Find(&quotes).Error; err != nil {
		return nil, nil, err
	}
	return &record, quotes, nil
}

func (rr *rateRequestRepo) GetQuoteByID(ctx context.Context, tx *gorm.DB, quoteID uuid.UUID) (*domain.RateQuote, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var quote domain.RateQuote
	err := transaction.WithContext(ctx).
		Where("id = ?", quoteID).
		First(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &quote, nil
}
