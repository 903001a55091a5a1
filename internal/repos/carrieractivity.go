package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/parcelworks/parcelworks-backend/internal/domain"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
)

type CarrierActivityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entries []*domain.CarrierActivity) error
}

type carrierActivityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCarrierActivityRepo(db *gorm.DB, baseLog *logger.Logger) CarrierActivityRepo {
	repoLog := baseLog.With("repo", "CarrierActivityRepo")
	return &carrierActivityRepo{db: db, log: repoLog}
}

func (cr *carrierActivityRepo) Create(ctx context.Context, tx *gorm.DB, entries []*domain.CarrierActivity) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if len(entries) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&entries).Error
}
