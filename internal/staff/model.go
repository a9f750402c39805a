package staff

import "errors"

var ErrStaffNotFound = errors.New("staff member not found")

// Member is a staff account as seen by the POS. Credentials never leave the
// users table.
type Member struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
