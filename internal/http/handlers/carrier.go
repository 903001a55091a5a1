package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/parcelworks/parcelworks-backend/internal/carriers"
	"github.com/parcelworks/parcelworks-backend/internal/http/response"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
)

type CarrierHandler struct {
	log      *logger.Logger
	registry *carriers.Registry
}

func NewCarrierHandler(log *logger.Logger, registry *carriers.Registry) *CarrierHandler {
	return &CarrierHandler{
		log:      log.With("handler", "CarrierHandler"),
		registry: registry,
	}
}

type carrierInfo struct {
	Name     string             `json:"name"`
	Services []carriers.Service `json:"services"`
}

// GET /api/carriers
func (h *CarrierHandler) ListCarriers(c *gin.Context) {
	names := h.registry.List()
	out := make([]carrierInfo, 0, len(names))
	for _, name := range names {
		adapter, ok := h.registry.Get(name)
		if !ok {
			continue
		}
		out = append(out, carrierInfo{
			Name:     adapter.Name(),
			Services: adapter.ListServices(),
		})
	}
	response.RespondOK(c, gin.H{"carriers": out})
}
