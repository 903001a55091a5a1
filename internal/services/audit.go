package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/parcelworks/parcelworks-backend/internal/domain"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
	"github.com/parcelworks/parcelworks-backend/internal/repos"
)

// AuditService appends carrier activity entries. Writes are deliberately
// log-and-continue: an audit failure never fails the operation it records.
type AuditService interface {
	Record(ctx context.Context, carrier, action, trackingNumber string, details map[string]any)
}

type auditService struct {
	db           *gorm.DB
	log          *logger.Logger
	activityRepo repos.CarrierActivityRepo
}

func NewAuditService(db *gorm.DB, baseLog *logger.Logger, activityRepo repos.CarrierActivityRepo) AuditService {
	serviceLog := baseLog.With("service", "AuditService")
	return &auditService{db: db, log: serviceLog, activityRepo: activityRepo}
}

func (as *auditService) Record(ctx context.Context, carrier, action, trackingNumber string, details map[string]any) {
	if as == nil || as.activityRepo == nil {
		return
	}

	entry := &domain.CarrierActivity{
		ID:             uuid.New(),
		Carrier:        carrier,
		Action:         action,
		TrackingNumber: trackingNumber,
		CreatedAt:      time.Now().UTC(),
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err == nil {
			entry.Details = datatypes.JSON(raw)
		} else {
			as.log.Warn("audit details not serializable", "carrier", carrier, "action", action, "error", err)
		}
	}

	if err := as.activityRepo.Create(ctx, nil, []*domain.CarrierActivity{entry}); err != nil {
		as.log.Error("audit write failed", "carrier", carrier, "action", action, "error", err)
	}
}
