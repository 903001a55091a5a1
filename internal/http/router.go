package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/parcelworks/parcelworks-backend/internal/domain"
	httpH "github.com/parcelworks/parcelworks-backend/internal/http/handlers"
	httpMW "github.com/parcelworks/parcelworks-backend/internal/http/middleware"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log                *logger.Logger
	IdentityMiddleware *httpMW.IdentityMiddleware
	TracingEnabled     bool

	CarrierHandler  *httpH.CarrierHandler
	RateHandler     *httpH.RateHandler
	ShipmentHandler *httpH.ShipmentHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware("parcelworks"))
	}
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.CORS())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	protected := api.Group("/")
	{
		// Middleware
		if cfg.IdentityMiddleware != nil {
			protected.Use(cfg.IdentityMiddleware.RequireIdentity())
		}

		// Carriers
		if cfg.CarrierHandler != nil {
			protected.GET("/carriers", cfg.CarrierHandler.ListCarriers)
		}

		// Rates
		if cfg.RateHandler != nil {
			protected.POST("/rates/quote",
				cfg.IdentityMiddleware.RequirePermission(domain.PermRateQuote),
				cfg.RateHandler.QuoteRates)
			protected.GET("/rates/requests/:id",
				cfg.IdentityMiddleware.RequirePermission(domain.PermRateQuote),
				cfg.RateHandler.GetRateRequest)
		}

		// Shipments
		if cfg.ShipmentHandler != nil {
			protected.POST("/shipments",
				cfg.IdentityMiddleware.RequirePermission(domain.PermShipmentBook),
				cfg.ShipmentHandler.BookShipment)
			protected.POST("/shipments/bulk",
				cfg.IdentityMiddleware.RequirePermission(domain.PermShipmentBook),
				cfg.ShipmentHandler.BookShipmentsBulk)
			protected.POST("/shipments/cancel-bulk",
				cfg.IdentityMiddleware.RequirePermission(domain.PermShipmentCancel),
				cfg.ShipmentHandler.CancelShipmentsBulk)
			protected.GET("/shipments",
				cfg.IdentityMiddleware.RequirePermission(domain.PermShipmentRead),
				cfg.ShipmentHandler.ListShipments)
			protected.GET("/shipments/:trackingNumber",
				cfg.IdentityMiddleware.RequirePermission(domain.PermShipmentRead),
				cfg.ShipmentHandler.GetShipment)
			protected.GET("/shipments/:trackingNumber/events",
				cfg.IdentityMiddleware.RequirePermission(domain.PermShipmentRead),
				cfg.ShipmentHandler.TrackShipment)
			protected.POST("/shipments/:trackingNumber/cancel",
				cfg.IdentityMiddleware.RequirePermission(domain.PermShipmentCancel),
				cfg.ShipmentHandler.CancelShipment)
		}
	}

	return r
}
