package models

import "time"

// User represents an account on the user API. Herald only ever interprets
// the Accessibility blob; every other field is carried through update calls
// unchanged.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Accessibility *string   `json:"accessibility"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Clone returns a copy of the user that can be modified without affecting
// the original, including a fresh Accessibility pointer.
func (u *User) Clone() *User {
	clone := *u
	if u.Accessibility != nil {
		blob := *u.Accessibility
		clone.Accessibility = &blob
	}
	return &clone
}
