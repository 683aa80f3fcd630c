package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NirVa-gh/AppAuth/internal/domain"
	"github.com/NirVa-gh/AppAuth/internal/events"
	"github.com/NirVa-gh/AppAuth/internal/repository"
	"github.com/NirVa-gh/AppAuth/pkg/util"
)

// RequestService coordinates request workflows and enforces the access
// policy: any authenticated user may create, read and update content;
// deletion requires ownership; status changes, privileged deletion and
// status-filtered listing require the partner flag.
type RequestService struct {
	requests   repository.RequestRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// RequestDependencies bundles collaborators for the request service.
type RequestDependencies struct {
	RequestRepo repository.RequestRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
}

// CreateInput describes request creation payload.
type CreateInput struct {
	Title   string
	Content string
	Status  domain.RequestStatus
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	return &RequestService{
		requests:   deps.RequestRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Create persists a new request owned by the caller.
func (s *RequestService) Create(ctx context.Context, ownerID int64, input CreateInput) (*domain.Request, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" || content == "" {
		return nil, util.NewValidationError("title and content are required", nil)
	}

	status := input.Status
	if status == "" {
		status = domain.StatusNew
	}
	if !status.Valid() {
		return nil, util.NewValidationError("unknown status", nil)
	}

	request := &domain.Request{
		Title:   title,
		Content: content,
		Status:  status,
		UserID:  &ownerID,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestCreated,
		RequestID: request.ID,
		Actor:     events.Actor{UserID: ownerID},
		Payload: events.RequestCreatedPayload{
			Title:  request.Title,
			Status: request.Status,
		},
	})
	return request, nil
}

// Get fetches a single request. Any authenticated caller may read any
// request; ownership is deliberately not checked here.
func (s *RequestService) Get(ctx context.Context, id int64) (*domain.Request, error) {
	request, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.NewNotFound("request", nil)
		}
		return nil, util.MapError(err)
	}
	return request, nil
}

// ListForOwner returns the caller's requests, newest first. When an explicit
// user id is requested it must match the caller.
func (s *RequestService) ListForOwner(ctx context.Context, callerID int64, requestedUserID *int64) ([]domain.Request, error) {
	if requestedUserID != nil && *requestedUserID != callerID {
		return nil, util.NewForbidden("cannot list requests of another user")
	}
	result, err := s.requests.ListByUser(ctx, callerID)
	if err != nil {
		return nil, util.MapError(err)
	}
	return result, nil
}

// ListAll returns every request, newest first. Unauthenticated access is an
// explicit design choice: the listing is a broad read.
func (s *RequestService) ListAll(ctx context.Context) ([]domain.Request, error) {
	result, err := s.requests.ListAll(ctx)
	if err != nil {
		return nil, util.MapError(err)
	}
	return result, nil
}

// ListByStatus returns requests in the given status. Administrator only.
func (s *RequestService) ListByStatus(ctx context.Context, callerID int64, status domain.RequestStatus) ([]domain.Request, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	result, err := s.requests.ListByStatus(ctx, status)
	if err != nil {
		return nil, util.MapError(err)
	}
	return result, nil
}

// UpdateContent replaces title and content. Ownership is deliberately not
// checked: any authenticated caller may update any request's content fields.
func (s *RequestService) UpdateContent(ctx context.Context, id int64, title, content string) (*domain.Request, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, util.NewValidationError("title and content must not be empty", nil)
	}

	if err := s.requests.UpdateContent(ctx, id, title, content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.NewNotFound("request", nil)
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// UpdateStatus sets a new lifecycle status. Administrator only; the new
// status must belong to the administrator-settable set.
func (s *RequestService) UpdateStatus(ctx context.Context, callerID, id int64, status domain.RequestStatus) (*domain.Request, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	if !status.AdminSettable() {
		return nil, util.NewValidationError("status must be one of: Pending, Accepted, Rejected, Completed", nil)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.requests.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.NewNotFound("request", nil)
		}
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestStatusChanged,
		RequestID: id,
		Actor:     events.Actor{UserID: callerID},
		Payload: events.RequestStatusChangedPayload{
			OldStatus: current.Status,
			NewStatus: status,
		},
	})
	current.Status = status
	return current, nil
}

// Delete removes a request. Only the owner may delete through this path;
// orphaned requests have no owner and are only deletable by administrators.
func (s *RequestService) Delete(ctx context.Context, callerID, id int64) error {
	request, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if request.UserID == nil || *request.UserID != callerID {
		return util.NewForbidden("only the owner may delete this request")
	}

	if err := s.requests.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return util.NewNotFound("request", nil)
		}
		return err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestDeleted,
		RequestID: id,
		Actor:     events.Actor{UserID: callerID},
		Payload:   events.RequestDeletedPayload{ByAdmin: false},
	})
	return nil
}

// DeleteAsAdmin removes any request regardless of ownership.
func (s *RequestService) DeleteAsAdmin(ctx context.Context, callerID, id int64) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.requests.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return util.NewNotFound("request", nil)
		}
		return err
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventRequestDeleted,
		RequestID: id,
		Actor:     events.Actor{UserID: callerID},
		Payload:   events.RequestDeletedPayload{ByAdmin: true},
	})
	return nil
}

// requireAdmin checks the partner flag against the credential store on every
// call; role changes take effect immediately.
func (s *RequestService) requireAdmin(ctx context.Context, callerID int64) error {
	user, err := s.users.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return util.NewNotFound("user", nil)
		}
		return util.MapError(err)
	}
	if !user.IsPartner {
		return util.NewForbidden("administrator privileges required")
	}
	return nil
}

func (s *RequestService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
