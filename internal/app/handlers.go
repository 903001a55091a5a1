package app

import (
	"github.com/parcelworks/parcelworks-backend/internal/carriers"
	"github.com/parcelworks/parcelworks-backend/internal/clients/redis"
	httpH "github.com/parcelworks/parcelworks-backend/internal/http/handlers"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	Carrier  *httpH.CarrierHandler
	Rate     *httpH.RateHandler
	Shipment *httpH.ShipmentHandler
}

func wireHandlers(log *logger.Logger, cfg Config, registry *carriers.Registry, serviceset Services) Handlers {
	log.Info("Wiring handlers...")

	var idem redis.IdempotencyStore
	if cfg.IdempotencyEnabled {
		store, err := redis.NewIdempotencyStore(log)
		if err != nil {
			log.Warn("idempotency store unavailable, keys ignored", "error", err)
		} else {
			idem = store
		}
	}

	return Handlers{
		Health:   httpH.NewHealthHandler(),
		Carrier:  httpH.NewCarrierHandler(log, registry),
		Rate:     httpH.NewRateHandler(log, serviceset.Rates),
		Shipment: httpH.NewShipmentHandler(log, serviceset.Booking, idem),
	}
}
