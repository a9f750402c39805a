package order

import (
	"fmt"
	"strings"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusPreparing Status = "Preparing"
	StatusReady     Status = "Ready"
	StatusServed    Status = "Served"
	StatusPaid      Status = "Paid"
	StatusCanceled  Status = "Canceled"
)

var allStatuses = []Status{
	StatusPending, StatusPreparing, StatusReady, StatusServed, StatusPaid, StatusCanceled,
}

// ParseStatus accepts any casing, e.g. "served" or "SERVED".
func ParseStatus(s string) (Status, error) {
	for _, st := range allStatuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidStatus, s)
}

func (s Status) Valid() bool {
	for _, st := range allStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Frozen orders reject every line-item mutation.
func (s Status) Frozen() bool {
	return s == StatusPaid || s == StatusCanceled
}

func (s Status) Editable() bool {
	return s.Valid() && !s.Frozen()
}

// Trigger names who is asking for a transition. Only settlement may enter Paid
// and only a payment refund may leave it.
type Trigger int

const (
	TriggerManual Trigger = iota
	TriggerSettle
	TriggerRefund
)

func (t Trigger) String() string {
	switch t {
	case TriggerSettle:
		return "settlement"
	case TriggerRefund:
		return "payment refund"
	default:
		return "manual"
	}
}

var transitions = map[Status]map[Status]Trigger{
	StatusPending: {
		StatusPreparing: TriggerManual,
		StatusCanceled:  TriggerManual,
		StatusPaid:      TriggerSettle,
	},
	StatusPreparing: {
		StatusReady:    TriggerManual,
		StatusCanceled: TriggerManual,
		StatusPaid:     TriggerSettle,
	},
	StatusReady: {
		StatusServed:   TriggerManual,
		StatusCanceled: TriggerManual,
		StatusPaid:     TriggerSettle,
	},
	StatusServed: {
		StatusCanceled: TriggerManual,
		StatusPaid:     TriggerSettle,
	},
	StatusPaid: {
		StatusServed: TriggerRefund,
	},
}

// CheckTransition is the single place status edges are validated.
func CheckTransition(from, to Status, by Trigger) error {
	if allowed, ok := transitions[from][to]; ok && allowed == by {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s is not allowed by %s", ErrInvalidTransition, from, to, by)
}
