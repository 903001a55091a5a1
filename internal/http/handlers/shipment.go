package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/parcelworks/parcelworks-backend/internal/clients/redis"
	"github.com/parcelworks/parcelworks-backend/internal/domain"
	"github.com/parcelworks/parcelworks-backend/internal/http/response"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
	"github.com/parcelworks/parcelworks-backend/internal/requestdata"
	"github.com/parcelworks/parcelworks-backend/internal/services"
)

const idempotencyTTL = 24 * time.Hour

type ShipmentHandler struct {
	log     *logger.Logger
	booking services.BookingService
	idem    redis.IdempotencyStore
}

// NewShipmentHandler accepts a nil idem store; idempotency keys are then
// ignored rather than failing every booking.
func NewShipmentHandler(log *logger.Logger, booking services.BookingService, idem redis.IdempotencyStore) *ShipmentHandler {
	return &ShipmentHandler{
		log:     log.With("handler", "ShipmentHandler"),
		booking: booking,
		idem:    idem,
	}
}

type bookRequest struct {
	Request            *domain.ShipmentRequest `json:"request" binding:"required"`
	Carrier            string                  `json:"carrier" binding:"required"`
	ExistingShipmentID *uuid.UUID              `json:"existing_shipment_id,omitempty"`
	RateQuoteID        *uuid.UUID              `json:"rate_quote_id,omitempty"`
	NotifyEmail        string                  `json:"notify_email,omitempty"`
}

func (r bookRequest) toInput() services.BookInput {
	return services.BookInput{
		Request:            r.Request,
		Carrier:            r.Carrier,
		ExistingShipmentID: r.ExistingShipmentID,
		RateQuoteID:        r.RateQuoteID,
		NotifyEmail:        r.NotifyEmail,
	}
}

// POST /api/shipments
func (h *ShipmentHandler) BookShipment(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var body bookRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if idemKey != "" && h.idem != nil {
		idemKey = rd.UserID.String() + ":" + idemKey
		reserved, err := h.idem.Reserve(c.Request.Context(), idemKey, idempotencyTTL)
		if err != nil {
			h.log.Error("idempotency reserve failed", "error", err)
			response.RespondError(c, http.StatusServiceUnavailable, "idempotency_unavailable", err)
			return
		}
		if !reserved {
			response.RespondError(c, http.StatusConflict, "duplicate_request", domain.ErrConflict)
			return
		}
	}

	result, err := h.booking.Book(c.Request.Context(), nil, rd.UserID, body.toInput())
	if err != nil {
		if idemKey != "" && h.idem != nil {
			// Failed bookings did not create a shipment; let a retry through.
			if relErr := h.idem.Release(c.Request.Context(), idemKey); relErr != nil {
				h.log.Warn("idempotency release failed", "error", relErr)
			}
		}
		h.log.Warn("BookShipment failed", "error", err, "user_id", rd.UserID, "carrier", body.Carrier)
		response.RespondFromError(c, err)
		return
	}
	response.RespondCreated(c, result)
}

type bookBulkRequest struct {
	Shipments []bookRequest `json:"shipments" binding:"required"`
}

// POST /api/shipments/bulk
func (h *ShipmentHandler) BookShipmentsBulk(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var body bookBulkRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	ins := make([]services.BookInput, len(body.Shipments))
	for i, s := range body.Shipments {
		ins[i] = s.toInput()
	}
	outcomes, err := h.booking.BookBulk(c.Request.Context(), rd.UserID, ins)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"results": outcomes})
}

// GET /api/shipments
func (h *ShipmentHandler) ListShipments(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	shipments, err := h.booking.ListByOwner(c.Request.Context(), nil, rd.UserID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"shipments": shipments})
}

// GET /api/shipments/:trackingNumber
func (h *ShipmentHandler) GetShipment(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	trackingNumber := strings.TrimSpace(c.Param("trackingNumber"))
	if trackingNumber == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_tracking_number", nil)
		return
	}

	shipment, err := h.booking.GetByTrackingNumber(c.Request.Context(), nil, rd.UserID, trackingNumber)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"shipment": shipment})
}

// GET /api/shipments/:trackingNumber/events
func (h *ShipmentHandler) TrackShipment(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	trackingNumber := strings.TrimSpace(c.Param("trackingNumber"))
	if trackingNumber == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_tracking_number", nil)
		return
	}

	events, err := h.booking.Track(c.Request.Context(), rd.UserID, trackingNumber)
	if err != nil {
		h.log.Warn("TrackShipment failed", "error", err, "tracking_number", trackingNumber)
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tracking_number": trackingNumber, "events": events})
}

type cancelRequest struct {
	Carrier     string `json:"carrier" binding:"required"`
	Reason      string `json:"reason,omitempty"`
	NotifyEmail string `json:"notify_email,omitempty"`
}

// POST /api/shipments/:trackingNumber/cancel
func (h *ShipmentHandler) CancelShipment(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	trackingNumber := strings.TrimSpace(c.Param("trackingNumber"))
	if trackingNumber == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_tracking_number", nil)
		return
	}

	var body cancelRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	shipment, err := h.booking.Cancel(c.Request.Context(), nil, rd.UserID, services.CancelInput{
		TrackingNumber: trackingNumber,
		Carrier:        body.Carrier,
		Reason:         body.Reason,
		NotifyEmail:    body.NotifyEmail,
	})
	if err != nil {
		h.log.Warn("CancelShipment failed", "error", err, "tracking_number", trackingNumber)
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"shipment": shipment})
}

type cancelBulkRequest struct {
	Cancellations []struct {
		TrackingNumber string `json:"tracking_number" binding:"required"`
		Carrier        string `json:"carrier" binding:"required"`
		Reason         string `json:"reason,omitempty"`
		NotifyEmail    string `json:"notify_email,omitempty"`
	} `json:"cancellations" binding:"required"`
}

// POST /api/shipments/cancel-bulk
func (h *ShipmentHandler) CancelShipmentsBulk(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var body cancelBulkRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	ins := make([]services.CancelInput, len(body.Cancellations))
	for i, cc := range body.Cancellations {
		ins[i] = services.CancelInput{
			TrackingNumber: cc.TrackingNumber,
			Carrier:        cc.Carrier,
			Reason:         cc.Reason,
			NotifyEmail:    cc.NotifyEmail,
		}
	}
	outcomes, err := h.booking.CancelBulk(c.Request.Context(), rd.UserID, ins)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"results": outcomes})
}
