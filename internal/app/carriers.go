package app

import (
	"github.com/parcelworks/parcelworks-backend/internal/carriers"
	"github.com/parcelworks/parcelworks-backend/internal/carriers/atlaspost"
	"github.com/parcelworks/parcelworks-backend/internal/carriers/meridian"
	"github.com/parcelworks/parcelworks-backend/internal/carriers/velocity"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
)

// wireCarriers registers every adapter whose credentials are configured. A
// carrier without credentials is simply absent from the registry; rate shops
// naming it get a per-carrier error, not a boot failure.
func wireCarriers(log *logger.Logger) *carriers.Registry {
	log.Info("Wiring carrier adapters...")

	var adapters []carriers.Adapter
	if a, err := velocity.NewFromEnv(log); err != nil {
		log.Warn("velocity adapter not registered", "error", err)
	} else {
		adapters = append(adapters, a)
	}
	if a, err := meridian.NewFromEnv(log); err != nil {
		log.Warn("meridian adapter not registered", "error", err)
	} else {
		adapters = append(adapters, a)
	}
	if a, err := atlaspost.NewFromEnv(log); err != nil {
		log.Warn("atlaspost adapter not registered", "error", err)
	} else {
		adapters = append(adapters, a)
	}

	registry := carriers.NewRegistry(adapters...)
	log.Info("Carrier adapters wired", "registered", registry.List())
	return registry
}
