package domain

import "time"

// RequestStatus enumerates lifecycle states for requests.
type RequestStatus string

const (
	StatusNew       RequestStatus = "new"
	StatusPending   RequestStatus = "Pending"
	StatusAccepted  RequestStatus = "Accepted"
	StatusRejected  RequestStatus = "Rejected"
	StatusCompleted RequestStatus = "Completed"
)

// AdminSettableStatuses are the states an administrator may assign.
var AdminSettableStatuses = []RequestStatus{
	StatusPending,
	StatusAccepted,
	StatusRejected,
	StatusCompleted,
}

// AdminSettable reports whether an administrator may assign this status.
func (s RequestStatus) AdminSettable() bool {
	for _, candidate := range AdminSettableStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// Valid reports whether the status belongs to the fixed set.
func (s RequestStatus) Valid() bool {
	return s == StatusNew || s.AdminSettable()
}

// Request is the persisted business entity submitted by users.
// UserID is nullable; once set it is never reassigned.
type Request struct {
	ID        int64
	Title     string
	Content   string
	Status    RequestStatus
	CreatedAt time.Time
	UserID    *int64
}
