package requestdata

import (
	"context"

	"github.com/google/uuid"

	"github.com/parcelworks/parcelworks-backend/internal/domain"
)

type requestDataKey struct{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey{})
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}

// RequestData carries the caller identity resolved by the identity
// middleware from gateway-trusted headers.
type RequestData struct {
	UserID      uuid.UUID
	Permissions []domain.Permission
}

func (rd *RequestData) Has(p domain.Permission) bool {
	if rd == nil {
		return false
	}
	for _, got := range rd.Permissions {
		if got == p {
			return true
		}
	}
	return false
}
