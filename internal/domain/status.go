package domain

type ShipmentStatus string

const (
	StatusCreated      ShipmentStatus = "created"
	StatusLabelCreated ShipmentStatus = "label_created"
	StatusPickedUp     ShipmentStatus = "picked_up"
	StatusInTransit    ShipmentStatus = "in_transit"
	StatusDelivered    ShipmentStatus = "delivered"
	StatusCancelled    ShipmentStatus = "cancelled"
	StatusReturned     ShipmentStatus = "returned"
)

func (s ShipmentStatus) Valid() bool {
	switch s {
	case StatusCreated, StatusLabelCreated, StatusPickedUp, StatusInTransit,
		StatusDelivered, StatusCancelled, StatusReturned:
		return true
	default:
		return false
	}
}

func (s ShipmentStatus) Terminal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusReturned:
		return true
	default:
		return false
	}
}

// forwardOrder places the linear statuses on a line; cancelled and returned
// sit outside it and are handled explicitly in CanTransitionTo.
var forwardOrder = map[ShipmentStatus]int{
	StatusCreated:      0,
	StatusLabelCreated: 1,
	StatusPickedUp:     2,
	StatusInTransit:    3,
	StatusDelivered:    4,
}

// CanTransitionTo reports whether a status change is legal. Statuses only
// move forward through the linear chain; cancelled is reachable from any
// non-terminal state; terminal states never change.
func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	if !s.Valid() || !next.Valid() || s == next {
		return false
	}
	if s.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	if next == StatusReturned {
		// A shipment can only come back once it has moved.
		return s == StatusInTransit
	}
	from, okFrom := forwardOrder[s]
	to, okTo := forwardOrder[next]
	if !okFrom || !okTo {
		return false
	}
	return to > from
}
