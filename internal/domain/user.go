package domain

import "time"

// User is the domain model for registered accounts. IsPartner grants
// administrator privileges (privileged delete, status changes, status
// filtered listing).
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	IsPartner    bool
}
