package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parcelworks/parcelworks-backend/internal/domain"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondFromError maps the domain error taxonomy onto HTTP statuses and
// stable machine-readable codes.
func RespondFromError(c *gin.Context, err error) {
	var (
		validationErr  *domain.ValidationError
		unavailableErr *domain.CarrierUnavailableError
		mismatchErr    *domain.RateMismatchError
		bookingErr     *domain.BookingFailedError
		cancelErr      *domain.CancelFailedError
		notCancelErr   *domain.NotCancellableError
		carrierErr     *domain.CarrierCallError
	)
	switch {
	case errors.As(err, &validationErr):
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
	case errors.As(err, &unavailableErr):
		RespondError(c, http.StatusBadRequest, "carrier_unavailable", err)
	case errors.As(err, &mismatchErr):
		RespondError(c, http.StatusConflict, "rate_mismatch", err)
	case errors.As(err, &notCancelErr):
		RespondError(c, http.StatusConflict, "not_cancellable", err)
	case errors.As(err, &bookingErr):
		RespondError(c, http.StatusBadGateway, "booking_failed", err)
	case errors.As(err, &cancelErr):
		RespondError(c, http.StatusBadGateway, "cancel_failed", err)
	case errors.As(err, &carrierErr):
		RespondError(c, http.StatusBadGateway, "carrier_error", err)
	case errors.Is(err, domain.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, domain.ErrForbidden):
		RespondError(c, http.StatusForbidden, "forbidden", err)
	case errors.Is(err, domain.ErrPermissionDenied):
		RespondError(c, http.StatusForbidden, "permission_denied", err)
	case errors.Is(err, domain.ErrConflict):
		RespondError(c, http.StatusConflict, "conflict", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
