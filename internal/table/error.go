package table

import "errors"

var (
	ErrTableNotFound    = errors.New("table not found")
	ErrTableUnavailable = errors.New("table is not available")
)
