package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/parcelworks/parcelworks-backend/internal/domain"
	"github.com/parcelworks/parcelworks-backend/internal/http/response"
	"github.com/parcelworks/parcelworks-backend/internal/platform/logger"
	"github.com/parcelworks/parcelworks-backend/internal/requestdata"
)

// IdentityMiddleware resolves the caller from gateway-trusted headers:
// X-API-User carries the user id, X-API-Scopes a comma-separated list of
// granted permissions. Scope strings outside the closed permission set are
// dropped, not errors.
type IdentityMiddleware struct {
	log *logger.Logger
}

func NewIdentityMiddleware(log *logger.Logger) *IdentityMiddleware {
	return &IdentityMiddleware{log: log.With("Middleware", "IdentityMiddleware")}
}

func (im *IdentityMiddleware) RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawUser := strings.TrimSpace(c.GetHeader("X-API-User"))
		if rawUser == "" {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing X-API-User header"))
			c.Abort()
			return
		}
		userID, err := uuid.Parse(rawUser)
		if err != nil {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("invalid X-API-User header"))
			c.Abort()
			return
		}

		rd := &requestdata.RequestData{
			UserID:      userID,
			Permissions: parseScopes(c.GetHeader("X-API-Scopes")),
		}
		ctx := requestdata.WithRequestData(c.Request.Context(), rd)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (im *IdentityMiddleware) RequirePermission(perm domain.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		if !rd.Has(perm) {
			im.log.Warn("permission denied",
				"permission", string(perm),
				"path", c.FullPath(),
			)
			response.RespondError(c, http.StatusForbidden, "permission_denied", domain.ErrPermissionDenied)
			c.Abort()
			return
		}
		c.Next()
	}
}

func parseScopes(raw string) []domain.Permission {
	var perms []domain.Permission
	for _, part := range strings.Split(raw, ",") {
		p, ok := domain.ParsePermission(strings.TrimSpace(part))
		if !ok {
			continue
		}
		perms = append(perms, p)
	}
	return perms
}
