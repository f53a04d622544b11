package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"meetpoint/internal/domain"
)

// Lead times the lifecycle engine enforces: an event must start at least
// two hours after it is created or edited by its initiator, and at least
// one hour after it is published.
const (
	editLeadTime    = 2 * time.Hour
	publishLeadTime = 1 * time.Hour
)

type eventService struct {
	eventRepo      domain.EventRepository
	requestRepo    domain.RequestRepository
	userRepo       domain.UserRepository
	categoryRepo   domain.CategoryRepository
	locationRepo   domain.LocationRepository
	stats          domain.ViewStatsProvider
	log            *slog.Logger
	contextTimeout time.Duration
}

func NewEventService(eventRepo domain.EventRepository,
	requestRepo domain.RequestRepository,
	userRepo domain.UserRepository,
	categoryRepo domain.CategoryRepository,
	locationRepo domain.LocationRepository,
	views domain.ViewStatsProvider,
	log *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		requestRepo:    requestRepo,
		userRepo:       userRepo,
		categoryRepo:   categoryRepo,
		locationRepo:   locationRepo,
		stats:          views,
		log:            log,
		contextTimeout: timeout,
	}
}

func (s *eventService) Create(ctx context.Context, initiatorID int64, in domain.NewEvent) (*domain.EventView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.userRepo.GetByID(ctx, initiatorID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if _, err := s.categoryRepo.GetByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}

	createdOn := time.Now()
	if in.EventDate.Before(createdOn.Add(editLeadTime)) {
		return nil, domain.ErrInvalidSchedule
	}

	loc, err := s.resolveLocation(ctx, in.Location)
	if err != nil {
		return nil, err
	}

	event := &domain.Event{
		Annotation:        in.Annotation,
		CategoryID:        in.CategoryID,
		CreatedOn:         createdOn,
		Description:       in.Description,
		EventDate:         in.EventDate,
		InitiatorID:       initiatorID,
		LocationID:        loc.ID,
		Paid:              in.Paid,
		ParticipantLimit:  in.ParticipantLimit,
		RequestModeration: in.RequestModeration,
		State:             domain.EventPending,
		Title:             in.Title,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.log.Debug("event created", "event_id", event.ID, "initiator_id", initiatorID)
	return s.view(ctx, event)
}

func (s *eventService) UpdateByInitiator(ctx context.Context, initiatorID, eventID int64, upd domain.UserEventUpdate) (*domain.EventView, error) {
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
	// A foreign event is reported as missing, not as forbidden.
	if event.InitiatorID != initiatorID {
		return nil, domain.ErrNotFound
	}
	if event.State == domain.EventPublished {
		return nil, domain.ErrInvalidState
	}

	// The stored date is validated even when the caller is not changing it,
	// so an event past its edit deadline cannot be edited at all, not even
	// to push the date later. Deliberately kept as-is pending product
	// clarification (see DESIGN.md).
	deadline := time.Now().Add(editLeadTime)
	if upd.EventDate != nil {
		if upd.EventDate.Before(deadline) {
			return nil, domain.ErrInvalidSchedule
		}
		event.EventDate = *upd.EventDate
	} else if event.EventDate.Before(deadline) {
		return nil, domain.ErrInvalidSchedule
	}

	if err := s.applyPatch(ctx, event, upd.EventPatch); err != nil {
		return nil, err
	}
	if upd.StateAction != nil {
		// Anything other than SEND_TO_REVIEW cancels the event.
		if *upd.StateAction == domain.StateActionSendToReview {
			event.State = domain.EventPending
		} else {
			event.State = domain.EventCanceled
		}
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	s.log.Debug("event updated by initiator", "event_id", event.ID, "state", event.State)
	return s.view(ctx, event)
}

func (s *eventService) UpdateByAdmin(ctx context.Context, eventID int64, upd domain.AdminEventUpdate) (*domain.EventView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	// Moderator field edits apply unconditionally.
	if upd.EventDate != nil {
		event.EventDate = *upd.EventDate
	}
	if err := s.applyPatch(ctx, event, upd.EventPatch); err != nil {
		return nil, err
	}

	if upd.StateAction != nil {
		if *upd.StateAction == domain.AdminActionPublish {
			if event.State != domain.EventPending {
				return nil, domain.ErrInvalidState
			}
			publishedOn := time.Now()
			if event.EventDate.Before(publishedOn.Add(publishLeadTime)) {
				return nil, domain.ErrInvalidSchedule
			}
			event.State = domain.EventPublished
			event.PublishedOn = &publishedOn
		} else {
			// Anything other than PUBLISH_EVENT rejects the event.
			if event.State == domain.EventPublished {
				return nil, domain.ErrInvalidState
			}
			event.State = domain.EventCanceled
		}
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	s.log.Debug("event updated by admin", "event_id", event.ID, "state", event.State)
	return s.view(ctx, event)
}

func (s *eventService) GetByInitiator(ctx context.Context, initiatorID, eventID int64) (*domain.EventView, error) {
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
	if event.InitiatorID != initiatorID {
		return nil, domain.ErrNotFound
	}
	return s.view(ctx, event)
}

func (s *eventService) ListByInitiator(ctx context.Context, initiatorID int64, page domain.PaginationParams) ([]*domain.EventView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.userRepo.GetByID(ctx, initiatorID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	events, err := s.eventRepo.ListByInitiator(ctx, initiatorID, page)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return s.buildViews(ctx, events)
}

func (s *eventService) ListAdmin(ctx context.Context, filter domain.AdminEventFilter, page domain.PaginationParams) ([]*domain.EventView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListAdmin(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return s.buildViews(ctx, events)
}

func (s *eventService) ListPublic(ctx context.Context, filter domain.PublicEventFilter, page domain.PaginationParams) ([]*domain.EventView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	// Without an explicit range only upcoming events are listed.
	if filter.RangeStart == nil && filter.RangeEnd == nil {
		now := time.Now()
		filter.RangeStart = &now
	}
	events, err := s.eventRepo.ListPublic(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	views, err := s.buildViews(ctx, events)
	if err != nil {
		return nil, err
	}
	if filter.OnlyAvailable {
		available := views[:0]
		for _, v := range views {
			if v.ConfirmedRequests == v.ParticipantLimit {
				continue
			}
			available = append(available, v)
		}
		views = available
	}
	switch filter.Sort {
	case domain.SortByEventDate:
		sort.SliceStable(views, func(i, j int) bool {
			return views[i].EventDate.Before(views[j].EventDate)
		})
	case domain.SortByViews:
		sort.SliceStable(views, func(i, j int) bool {
			return views[i].Views < views[j].Views
		})
	}
	return views, nil
}

func (s *eventService) GetPublished(ctx context.Context, eventID int64) (*domain.EventView, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	// Unpublished events are invisible to the public surface.
	if event.State != domain.EventPublished {
		return nil, domain.ErrNotFound
	}
	return s.view(ctx, event)
}

// applyPatch merges non-nil patch fields into the event, resolving category
// and location references through their stores. EventDate is handled by the
// callers because its validation differs per caller.
func (s *eventService) applyPatch(ctx context.Context, event *domain.Event, patch domain.EventPatch) error {
	if patch.Annotation != nil {
		event.Annotation = *patch.Annotation
	}
	if patch.CategoryID != nil {
		if _, err := s.categoryRepo.GetByID(ctx, *patch.CategoryID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("get category: %w", err)
		}
		event.CategoryID = *patch.CategoryID
	}
	if patch.Description != nil {
		event.Description = *patch.Description
	}
	if patch.Location != nil {
		loc, err := s.resolveLocation(ctx, *patch.Location)
		if err != nil {
			return err
		}
		event.LocationID = loc.ID
	}
	if patch.Paid != nil {
		event.Paid = *patch.Paid
	}
	if patch.ParticipantLimit != nil {
		event.ParticipantLimit = *patch.ParticipantLimit
	}
	if patch.RequestModeration != nil {
		event.RequestModeration = *patch.RequestModeration
	}
	if patch.Title != nil {
		event.Title = *patch.Title
	}
	return nil
}

// resolveLocation finds the location row with the exact coordinates,
// creating it when missing.
func (s *eventService) resolveLocation(ctx context.Context, at domain.LatLon) (*domain.Location, error) {
	loc, err := s.locationRepo.GetByLatLon(ctx, at.Lat, at.Lon)
	if err == nil {
		return loc, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get location: %w", err)
	}
	loc = &domain.Location{Lat: at.Lat, Lon: at.Lon}
	if err := s.locationRepo.Create(ctx, loc); err != nil {
		return nil, fmt.Errorf("create location: %w", err)
	}
	return loc, nil
}

func (s *eventService) view(ctx context.Context, event *domain.Event) (*domain.EventView, error) {
	views, err := s.buildViews(ctx, []*domain.Event{event})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// buildViews builds caller-facing views: each event is decorated with its
// confirmed-request count and its view count. Neither aggregate is ever
// persisted on the event row.
func (s *eventService) buildViews(ctx context.Context, events []*domain.Event) ([]*domain.EventView, error) {
	out := make([]*domain.EventView, 0, len(events))
	for _, e := range events {
		confirmed, err := s.requestRepo.CountConfirmedByEvent(ctx, e.ID)
		if err != nil {
			return nil, fmt.Errorf("count confirmed requests: %w", err)
		}
		out = append(out, &domain.EventView{Event: *e, ConfirmedRequests: confirmed})
	}
	s.attachViewCounts(ctx, out)
	return out, nil
}

// attachViewCounts decorates views with hit counts from the stats
// collaborator, from the earliest publication to now. Best effort: a
// provider failure leaves every count at zero.
func (s *eventService) attachViewCounts(ctx context.Context, views []*domain.EventView) {
	var start *time.Time
	ids := make([]int64, 0, len(views))
	for _, v := range views {
		ids = append(ids, v.ID)
		if v.PublishedOn != nil && (start == nil || v.PublishedOn.Before(*start)) {
			start = v.PublishedOn
		}
	}
	// Nothing published yet means nothing could have been viewed.
	if start == nil {
		return
	}
	counts, err := s.stats.ViewsByEventIDs(ctx, ids, *start, time.Now())
	if err != nil {
		s.log.Warn("view stats unavailable", "error", err)
		return
	}
	for _, v := range views {
		v.Views = counts[v.ID]
	}
}
