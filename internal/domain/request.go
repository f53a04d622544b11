package domain

import (
	"context"
	"time"
)

// RequestStatus is the lifecycle status of a participation request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "PENDING"
	RequestConfirmed RequestStatus = "CONFIRMED"
	RequestRejected  RequestStatus = "REJECTED"
	RequestCanceled  RequestStatus = "CANCELED"
)

// ParticipationRequest represents a user's request to attend a published
// event. At most one request exists per (requester, event) pair, whatever
// the status of the first one.
type ParticipationRequest struct {
	ID          int64         `json:"id"`
	EventID     int64         `json:"event"`
	RequesterID int64         `json:"requester"`
	Created     time.Time     `json:"created"`
	Status      RequestStatus `json:"status"`
}

// NewParticipationRequest returns a request with its creation timestamp set.
// ID and Status are assigned by the store during admission.
func NewParticipationRequest(eventID, requesterID int64, created time.Time) *ParticipationRequest {
	return &ParticipationRequest{
		EventID:     eventID,
		RequesterID: requesterID,
		Created:     created,
	}
}

// StatusUpdateResult is the outcome of a bulk resolve: the full current
// CONFIRMED and REJECTED sets for the event, not just the touched requests.
type StatusUpdateResult struct {
	ConfirmedRequests []*ParticipationRequest `json:"confirmed_requests"`
	RejectedRequests  []*ParticipationRequest `json:"rejected_requests"`
}

// RequestRepository defines storage for participation requests. Admit and
// ResolveBatch are the two capacity-critical paths; each runs as a single
// transaction that locks the event row before any capacity read, so
// concurrent callers cannot jointly overbook an event.
type RequestRepository interface {
	GetByID(ctx context.Context, id int64) (*ParticipationRequest, error)
	ListByRequester(ctx context.Context, requesterID int64) ([]*ParticipationRequest, error)
	ListByEvent(ctx context.Context, eventID int64) ([]*ParticipationRequest, error)
	ListByEventAndStatus(ctx context.Context, eventID int64, status RequestStatus) ([]*ParticipationRequest, error)
	CountConfirmedByEvent(ctx context.Context, eventID int64) (int, error)
	UpdateStatus(ctx context.Context, id int64, status RequestStatus) (*ParticipationRequest, error)

	// Admit inserts req under the event row lock after the duplicate and
	// capacity checks, assigning ID and the initial status (CONFIRMED when
	// the event needs no moderation or has no limit, PENDING otherwise).
	// Returns ErrConflict for a duplicate pair, ErrCapacityExceeded when the
	// event is full, ErrNotFound when the event row is gone.
	Admit(ctx context.Context, req *ParticipationRequest) error

	// ResolveBatch applies target to every request in ids, all-or-nothing,
	// under the event row lock: the whole batch fails with
	// ErrCapacityExceeded when it cannot be confirmed in full, ErrNotFound
	// when any id is missing, ErrInvalidState when any request is not
	// PENDING. When confirming exhausts the limit exactly, every remaining
	// PENDING request for the event is rejected in the same transaction.
	ResolveBatch(ctx context.Context, eventID int64, ids []int64, target RequestStatus) (*StatusUpdateResult, error)
}

// RequestService is the request admission engine.
type RequestService interface {
	Create(ctx context.Context, requesterID, eventID int64) (*ParticipationRequest, error)
	Cancel(ctx context.Context, requesterID, requestID int64) (*ParticipationRequest, error)
	ListByRequester(ctx context.Context, requesterID int64) ([]*ParticipationRequest, error)
	ListByEvent(ctx context.Context, initiatorID, eventID int64) ([]*ParticipationRequest, error)
	Resolve(ctx context.Context, initiatorID, eventID int64, requestIDs []int64, target RequestStatus) (*StatusUpdateResult, error)
}
