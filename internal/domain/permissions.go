package domain

// Permission is the closed set of caller capabilities the gateway grants.
type Permission string

const (
	PermRateQuote      Permission = "rates:quote"
	PermShipmentBook   Permission = "shipments:book"
	PermShipmentCancel Permission = "shipments:cancel"
	PermShipmentRead   Permission = "shipments:read"
)

func (p Permission) Valid() bool {
	switch p {
	case PermRateQuote, PermShipmentBook, PermShipmentCancel, PermShipmentRead:
		return true
	default:
		return false
	}
}

// ParsePermission returns the matching Permission or false for anything
// outside the closed set; unknown scopes are dropped, never passed through.
func ParsePermission(raw string) (Permission, bool) {
	p := Permission(raw)
	if p.Valid() {
		return p, true
	}
	return "", false
}
