package dto

import (
	"time"

	"github.com/NirVa-gh/AppAuth/internal/domain"
)

// CreateRequestRequest payload.
type CreateRequestRequest struct {
	Title   string               `json:"title" validate:"required"`
	Content string               `json:"content" validate:"required"`
	Status  domain.RequestStatus `json:"status,omitempty"`
}

// UpdateRequestRequest payload for content updates.
type UpdateRequestRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// UpdateStatusRequest payload for admin status changes.
type UpdateStatusRequest struct {
	Status domain.RequestStatus `json:"status" validate:"required"`
}

// RequestView is the wire shape of a request record.
type RequestView struct {
	ID        int64                `json:"id"`
	Title     string               `json:"title"`
	Content   string               `json:"content"`
	Status    domain.RequestStatus `json:"status"`
	CreatedAt time.Time            `json:"created_at"`
	UserID    *int64               `json:"user_id,omitempty"`
}

// NewRequestView maps a domain record to its wire shape.
func NewRequestView(request *domain.Request) RequestView {
	return RequestView{
		ID:        request.ID,
		Title:     request.Title,
		Content:   request.Content,
		Status:    request.Status,
		CreatedAt: request.CreatedAt,
		UserID:    request.UserID,
	}
}

// NewRequestViews maps a slice of records.
func NewRequestViews(requests []domain.Request) []RequestView {
	views := make([]RequestView, 0, len(requests))
	for i := range requests {
		views = append(views, NewRequestView(&requests[i]))
	}
	return views
}
