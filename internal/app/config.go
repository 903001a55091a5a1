package app

import (
	"time"

	"github.com/parcelworks/parcelworks-backend/internal/platform/envutil"
)

type Config struct {
	Environment           string
	Version               string
	PerCallTimeout        time.Duration
	MaxServicesPerCarrier int
	MaxBulkBook           int
	MaxBulkCancel         int
	TracingEnabled        bool
	IdempotencyEnabled    bool
}

func LoadConfig() Config {
	return Config{
		Environment:           envutil.String("APP_ENV", "development"),
		Version:               envutil.String("APP_VERSION", "dev"),
		PerCallTimeout:        envutil.DurationSeconds("CARRIER_CALL_TIMEOUT_SECONDS", 10*time.Second),
		MaxServicesPerCarrier: envutil.Int("MAX_SERVICES_PER_CARRIER", 5),
		MaxBulkBook:           envutil.Int("MAX_BULK_BOOK", 20),
		MaxBulkCancel:         envutil.Int("MAX_BULK_CANCEL", 50),
		TracingEnabled:        envutil.Bool("OTEL_ENABLED", false),
		IdempotencyEnabled:    envutil.Bool("IDEMPOTENCY_ENABLED", false),
	}
}
