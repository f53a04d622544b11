package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"meetpoint/internal/domain"
)

type requestService struct {
	requestRepo    domain.RequestRepository
	eventRepo      domain.EventRepository
	userRepo       domain.UserRepository
	log            *slog.Logger
	contextTimeout time.Duration
}

func NewRequestService(requestRepo domain.RequestRepository,
	eventRepo domain.EventRepository,
	userRepo domain.UserRepository,
	log *slog.Logger,
	timeout time.Duration,
) domain.RequestService {
	return &requestService{
		requestRepo:    requestRepo,
		eventRepo:      eventRepo,
		userRepo:       userRepo,
		log:            log,
		contextTimeout: timeout,
	}
}

// Create admits a participation request. The guards run in a fixed order and
// the first violated one wins: missing requester or event, unpublished
// event, requester being the initiator, duplicate request, exhausted
// capacity. The duplicate and capacity guards execute inside the store's
// admission transaction so racing callers cannot overbook the event.
func (s *requestService) Create(ctx context.Context, requesterID, eventID int64) (*domain.ParticipationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.userRepo.GetByID(ctx, requesterID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.State != domain.EventPublished {
		return nil, domain.ErrInvalidState
	}
	if event.InitiatorID == requesterID {
		return nil, domain.ErrForbidden
	}

	req := domain.NewParticipationRequest(eventID, requesterID, time.Now())
	if err := s.requestRepo.Admit(ctx, req); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound),
			errors.Is(err, domain.ErrConflict),
			errors.Is(err, domain.ErrCapacityExceeded):
			return nil, err
		}
		return nil, fmt.Errorf("admit request: %w", err)
	}
	s.log.Debug("participation request created",
		"request_id", req.ID, "event_id", eventID, "status", req.Status)
	return req, nil
}

func (s *requestService) Cancel(ctx context.Context, requesterID, requestID int64) (*domain.ParticipationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.userRepo.GetByID(ctx, requesterID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	// A foreign request is reported as missing, not as forbidden.
	if req.RequesterID != requesterID {
		return nil, domain.ErrNotFound
	}

	// The owner may cancel from any status, including CONFIRMED.
	updated, err := s.requestRepo.UpdateStatus(ctx, requestID, domain.RequestCanceled)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update request status: %w", err)
	}
	s.log.Debug("participation request canceled", "request_id", requestID)
	return updated, nil
}

func (s *requestService) ListByRequester(ctx context.Context, requesterID int64) ([]*domain.ParticipationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.userRepo.GetByID(ctx, requesterID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	reqs, err := s.requestRepo.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	if reqs == nil {
		reqs = []*domain.ParticipationRequest{}
	}
	return reqs, nil
}

func (s *requestService) ListByEvent(ctx context.Context, initiatorID, eventID int64) ([]*domain.ParticipationRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.userRepo.GetByID(ctx, initiatorID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	// Non-initiators get an empty list rather than an error.
	if event.InitiatorID != initiatorID {
		return []*domain.ParticipationRequest{}, nil
	}
	reqs, err := s.requestRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	if reqs == nil {
		reqs = []*domain.ParticipationRequest{}
	}
	return reqs, nil
}

// Resolve applies target to the whole batch or to nothing. Confirming a
// batch larger than the remaining capacity fails instead of partially
// succeeding, so resubmitting a smaller batch after ErrCapacityExceeded is
// always safe. When a confirm fills the event exactly, the store rejects
// every other still-pending request in the same transaction.
func (s *requestService) Resolve(ctx context.Context, initiatorID, eventID int64, requestIDs []int64, target domain.RequestStatus) (*domain.StatusUpdateResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if target != domain.RequestConfirmed && target != domain.RequestRejected {
		return nil, domain.ErrInvalidInput
	}
	if _, err := s.userRepo.GetByID(ctx, initiatorID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.InitiatorID != initiatorID {
		return nil, domain.ErrNotFound
	}
	// Without moderation requests auto-confirm, so there is nothing to
	// resolve.
	if !event.RequestModeration {
		return nil, domain.ErrInvalidState
	}

	result, err := s.requestRepo.ResolveBatch(ctx, eventID, requestIDs, target)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound),
			errors.Is(err, domain.ErrInvalidState),
			errors.Is(err, domain.ErrCapacityExceeded):
			return nil, err
		}
		return nil, fmt.Errorf("resolve requests: %w", err)
	}
	s.log.Debug("participation requests resolved",
		"event_id", eventID, "target", target, "batch", len(requestIDs))
	return result, nil
}
