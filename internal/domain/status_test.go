package domain

import "testing"

func TestStatusTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from ShipmentStatus
		to   ShipmentStatus
		want bool
	}{
		{StatusCreated, StatusLabelCreated, true},
		{StatusLabelCreated, StatusPickedUp, true},
		{StatusPickedUp, StatusInTransit, true},
		{StatusInTransit, StatusDelivered, true},
		{StatusInTransit, StatusReturned, true},
		{StatusCreated, StatusCancelled, true},
		{StatusInTransit, StatusCancelled, true},
		// forward jumps are legal, scans can be missed
		{StatusCreated, StatusDelivered, true},
		{StatusLabelCreated, StatusInTransit, true},

		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusInTransit, false},
		{StatusReturned, StatusCancelled, false},
		{StatusDelivered, StatusReturned, false},
		{StatusInTransit, StatusPickedUp, false},
		{StatusLabelCreated, StatusCreated, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: got=%v want=%v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	t.Parallel()

	terminal := map[ShipmentStatus]bool{
		StatusDelivered: true,
		StatusCancelled: true,
		StatusReturned:  true,
	}
	all := []ShipmentStatus{
		StatusCreated, StatusLabelCreated, StatusPickedUp,
		StatusInTransit, StatusDelivered, StatusCancelled, StatusReturned,
	}
	for _, s := range all {
		if got := s.Terminal(); got != terminal[s] {
			t.Errorf("%s terminal: got=%v want=%v", s, got, terminal[s])
		}
	}
}

func TestStatusValid(t *testing.T) {
	t.Parallel()

	if !StatusInTransit.Valid() {
		t.Fatalf("in_transit should be valid")
	}
	if ShipmentStatus("teleported").Valid() {
		t.Fatalf("unknown status should be invalid")
	}
}
