package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/parcelworks/parcelworks-backend/internal/domain"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
	"github.com/parcelworks/parcelworks-backend/internal/requestdata"
)

func newIdentityRouter(t *testing.T, mw *IdentityMiddleware, extra ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{mw.RequireIdentity()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": rd.UserID.String(), "permissions": rd.Permissions})
	})
	r.GET("/probe", handlers...)
	return r
}

func newTestMiddleware(t *testing.T) *IdentityMiddleware {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewIdentityMiddleware(log)
}

func TestRequireIdentityMissingHeader(t *testing.T) {
	t.Parallel()

	r := newIdentityRouter(t, newTestMiddleware(t))
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got=%d want=%d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireIdentityInvalidUserID(t *testing.T) {
	t.Parallel()

	r := newIdentityRouter(t, newTestMiddleware(t))
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-API-User", "not-a-uuid")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got=%d want=%d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireIdentityParsesScopes(t *testing.T) {
	t.Parallel()

	mw := newTestMiddleware(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/probe", mw.RequireIdentity(), func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		if !rd.Has(domain.PermRateQuote) || !rd.Has(domain.PermShipmentRead) {
			t.Errorf("granted scopes missing: %+v", rd.Permissions)
		}
		if rd.Has(domain.PermShipmentBook) {
			t.Errorf("ungranted scope present")
		}
		if len(rd.Permissions) != 2 {
			t.Errorf("unknown scope not dropped: %+v", rd.Permissions)
		}
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-API-User", uuid.New().String())
	req.Header.Set("X-API-Scopes", "rates:quote, shipments:read, admin:everything")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: got=%d", rec.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	t.Parallel()

	mw := newTestMiddleware(t)
	r := newIdentityRouter(t, mw, mw.RequirePermission(domain.PermShipmentBook))

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-API-User", uuid.New().String())
	req.Header.Set("X-API-Scopes", "shipments:read")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: got=%d want=%d", rec.Code, http.StatusForbidden)
	}

	req = httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-API-User", uuid.New().String())
	req.Header.Set("X-API-Scopes", "shipments:book")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d want=%d", rec.Code, http.StatusOK)
	}
}
