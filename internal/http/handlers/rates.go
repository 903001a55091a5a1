package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/parcelworks/parcelworks-backend/internal/domain"
	"github.com/parcelworks/parcelworks-backend/internal/http/response"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
	"github.com/parcelworks/parcelworks-backend/internal/requestdata"
	"github.com/parcelworks/parcelworks-backend/internal/services"
)

type RateHandler struct {
	log   *logger.Logger
	rates services.RateService
}

func NewRateHandler(log *logger.Logger, rates services.RateService) *RateHandler {
	return &RateHandler{
		log:   log.With("handler", "RateHandler"),
		rates: rates,
	}
}

type rateQuoteRequest struct {
	Request  *domain.ShipmentRequest `json:"request" binding:"required"`
	Carriers []string                `json:"carriers,omitempty"`
	Services []string                `json:"services,omitempty"`
}

// POST /api/rates/quote
func (h *RateHandler) QuoteRates(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var body rateQuoteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	result, err := h.rates.GetRates(c.Request.Context(), nil, rd.UserID, body.Request, body.Carriers, body.Services)
	if err != nil {
		h.log.Warn("QuoteRates failed", "error", err, "user_id", rd.UserID)
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, result)
}

// GET /api/rates/requests/:id
func (h *RateHandler) GetRateRequest(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil || requestID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request_id", err)
		return
	}

	result, err := h.rates.GetRequestByID(c.Request.Context(), nil, rd.UserID, requestID)
	if err != nil {
		response.RespondFromError(c, err)
		return
	}
	response.RespondOK(c, result)
}
