package table

import "fmt"

type Availability string

const (
	Available Availability = "available"
	Occupied  Availability = "occupied"
)

func (a Availability) Valid() bool {
	return a == Available || a == Occupied
}

func ParseAvailability(s string) (Availability, error) {
	a := Availability(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown table availability %q", s)
	}
	return a, nil
}

type Table struct {
	ID           int64        `json:"id"`
	Number       int          `json:"table_number"`
	Capacity     int          `json:"capacity"`
	Availability Availability `json:"status"`
}
