package user

import "time"

// User represents a registered account holder.
type User struct {
	ID            string
	FirstName     string
	LastName      string
	Email         string
	PhoneNumber   string
	PasswordHash  []byte
	IsBlacklisted bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
