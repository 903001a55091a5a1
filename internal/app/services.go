package app

import (
	"gorm.io/gorm"

	"github.com/parcelworks/parcelworks-backend/internal/carriers"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
	"github.com/parcelworks/parcelworks-backend/internal/platform/mailer"
	"github.com/parcelworks/parcelworks-backend/internal/services"
)

type Services struct {
	Audit    services.AuditService
	Notifier services.ShipmentNotifier
	Rates    services.RateService
	Booking  services.BookingService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, registry *carriers.Registry, reposet Repos) Services {
	log.Info("Wiring services...")

	var mail mailer.Client
	if m, err := mailer.NewFromEnv(log); err != nil {
		log.Warn("mailer not configured, notifications disabled", "error", err)
	} else {
		mail = m
	}

	audit := services.NewAuditService(db, log, reposet.CarrierActivity)
	notifier := services.NewShipmentNotifier(log, mail)
	rates := services.NewRateService(db, log, registry, reposet.RateRequest, audit, services.RateServiceConfig{
		PerCallTimeout:        cfg.PerCallTimeout,
		MaxServicesPerCarrier: cfg.MaxServicesPerCarrier,
	})
	booking := services.NewBookingService(db, log, registry, reposet.Shipment, reposet.RateRequest, audit, notifier, services.BookingServiceConfig{
		MaxBulkBook:   cfg.MaxBulkBook,
		MaxBulkCancel: cfg.MaxBulkCancel,
	})

	return Services{
		Audit:    audit,
		Notifier: notifier,
		Rates:    rates,
		Booking:  booking,
	}
}
