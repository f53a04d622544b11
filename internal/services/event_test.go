package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"meetpoint/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	byID   map[int64]*domain.Event
	nextID int64
	err    error // if set, Create returns this error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		byID:   make(map[int64]*domain.Event),
		nextID: 1,
	}
}

func (f *fakeEventRepo) add(e *domain.Event) *domain.Event {
	e.ID = f.nextID
	f.nextID++
	f.byID[e.ID] = e
	return e
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.err != nil {
		return f.err
	}
	f.add(e)
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	if e, ok := f.byID[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) Update(ctx context.Context, e *domain.Event) error {
	if _, ok := f.byID[e.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *e
	f.byID[e.ID] = &cp
	return nil
}

func (f *fakeEventRepo) ListByInitiator(ctx context.Context, initiatorID int64, page domain.PaginationParams) ([]*domain.Event, error) {
	var out []*domain.Event
	for id := int64(1); id < f.nextID; id++ {
		if e, ok := f.byID[id]; ok && e.InitiatorID == initiatorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) ListAdmin(ctx context.Context, filter domain.AdminEventFilter, page domain.PaginationParams) ([]*domain.Event, error) {
	var out []*domain.Event
	for id := int64(1); id < f.nextID; id++ {
		e, ok := f.byID[id]
		if !ok {
			continue
		}
		if len(filter.States) > 0 {
			match := false
			for _, s := range filter.States {
				if e.State == s {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEventRepo) ListPublic(ctx context.Context, filter domain.PublicEventFilter, page domain.PaginationParams) ([]*domain.Event, error) {
	var out []*domain.Event
	for id := int64(1); id < f.nextID; id++ {
		e, ok := f.byID[id]
		if !ok || e.State != domain.EventPublished {
			continue
		}
		if filter.RangeStart != nil && !e.EventDate.After(*filter.RangeStart) {
			continue
		}
		if filter.RangeEnd != nil && !e.EventDate.Before(*filter.RangeEnd) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	byID map[int64]*domain.User
}

func newFakeUserRepo(ids ...int64) *fakeUserRepo {
	f := &fakeUserRepo{byID: make(map[int64]*domain.User)}
	for _, id := range ids {
		f.byID[id] = &domain.User{ID: id, Email: "user@example.com", Name: "user"}
	}
	return f
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

// fakeCategoryRepo is an in-memory CategoryRepository for tests.
type fakeCategoryRepo struct {
	byID map[int64]*domain.Category
}

func newFakeCategoryRepo(ids ...int64) *fakeCategoryRepo {
	f := &fakeCategoryRepo{byID: make(map[int64]*domain.Category)}
	for _, id := range ids {
		f.byID[id] = &domain.Category{ID: id, Name: "category"}
	}
	return f
}

func (f *fakeCategoryRepo) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	if c, ok := f.byID[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

// fakeLocationRepo is an in-memory LocationRepository for tests.
type fakeLocationRepo struct {
	locs   []*domain.Location
	nextID int64
}

func newFakeLocationRepo() *fakeLocationRepo {
	return &fakeLocationRepo{nextID: 1}
}

func (f *fakeLocationRepo) GetByLatLon(ctx context.Context, lat, lon float64) (*domain.Location, error) {
	for _, l := range f.locs {
		if l.Lat == lat && l.Lon == lon {
			return l, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeLocationRepo) Create(ctx context.Context, loc *domain.Location) error {
	loc.ID = f.nextID
	f.nextID++
	f.locs = append(f.locs, loc)
	return nil
}

// fakeStatsProvider returns fixed view counts or a configurable error.
type fakeStatsProvider struct {
	views map[int64]int64
	err   error
}

func (f *fakeStatsProvider) ViewsByEventIDs(ctx context.Context, ids []int64, start, end time.Time) (map[int64]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[int64]int64)
	for _, id := range ids {
		if v, ok := f.views[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

// fakeRequestRepo is an in-memory RequestRepository for tests. Admit and
// ResolveBatch mirror the transactional store: all capacity accounting
// happens under one lock.
type fakeRequestRepo struct {
	mu     sync.Mutex
	byID   map[int64]*domain.ParticipationRequest
	nextID int64
	events *fakeEventRepo
}

func newFakeRequestRepo(events *fakeEventRepo) *fakeRequestRepo {
	return &fakeRequestRepo{
		byID:   make(map[int64]*domain.ParticipationRequest),
		nextID: 1,
		events: events,
	}
}

func (f *fakeRequestRepo) add(eventID, requesterID int64, status domain.RequestStatus) *domain.ParticipationRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	req := &domain.ParticipationRequest{
		ID:          f.nextID,
		EventID:     eventID,
		RequesterID: requesterID,
		Created:     time.Now(),
		Status:      status,
	}
	f.nextID++
	f.byID[req.ID] = req
	return req
}

func (f *fakeRequestRepo) GetByID(ctx context.Context, id int64) (*domain.ParticipationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.byID[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRequestRepo) ListByRequester(ctx context.Context, requesterID int64) ([]*domain.ParticipationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.ParticipationRequest
	for id := int64(1); id < f.nextID; id++ {
		if r, ok := f.byID[id]; ok && r.RequesterID == requesterID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRequestRepo) ListByEvent(ctx context.Context, eventID int64) ([]*domain.ParticipationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listByEventLocked(eventID, ""), nil
}

func (f *fakeRequestRepo) ListByEventAndStatus(ctx context.Context, eventID int64, status domain.RequestStatus) ([]*domain.ParticipationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listByEventLocked(eventID, status), nil
}

func (f *fakeRequestRepo) listByEventLocked(eventID int64, status domain.RequestStatus) []*domain.ParticipationRequest {
	var out []*domain.ParticipationRequest
	for id := int64(1); id < f.nextID; id++ {
		r, ok := f.byID[id]
		if !ok || r.EventID != eventID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (f *fakeRequestRepo) CountConfirmedByEvent(ctx context.Context, eventID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countConfirmedLocked(eventID), nil
}

func (f *fakeRequestRepo) countConfirmedLocked(eventID int64) int {
	count := 0
	for _, r := range f.byID {
		if r.EventID == eventID && r.Status == domain.RequestConfirmed {
			count++
		}
	}
	return count
}

func (f *fakeRequestRepo) UpdateStatus(ctx context.Context, id int64, status domain.RequestStatus) (*domain.ParticipationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	r.Status = status
	cp := *r
	return &cp, nil
}

func (f *fakeRequestRepo) Admit(ctx context.Context, req *domain.ParticipationRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events.byID[req.EventID]
	if !ok {
		return domain.ErrNotFound
	}
	for _, r := range f.byID {
		if r.RequesterID == req.RequesterID && r.EventID == req.EventID {
			return domain.ErrConflict
		}
	}
	if event.ParticipantLimit != 0 && f.countConfirmedLocked(req.EventID) >= event.ParticipantLimit {
		return domain.ErrCapacityExceeded
	}
	req.Status = domain.RequestPending
	if !event.RequestModeration || event.ParticipantLimit == 0 {
		req.Status = domain.RequestConfirmed
	}
	req.ID = f.nextID
	f.nextID++
	cp := *req
	f.byID[req.ID] = &cp
	return nil
}

func (f *fakeRequestRepo) ResolveBatch(ctx context.Context, eventID int64, ids []int64, target domain.RequestStatus) (*domain.StatusUpdateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event, ok := f.events.byID[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	remaining := -1
	if target == domain.RequestConfirmed && event.ParticipantLimit != 0 {
		confirmed := f.countConfirmedLocked(eventID)
		if confirmed >= event.ParticipantLimit {
			return nil, domain.ErrCapacityExceeded
		}
		remaining = event.ParticipantLimit - confirmed
		if remaining < len(ids) {
			return nil, domain.ErrCapacityExceeded
		}
	}
	batch := make([]*domain.ParticipationRequest, 0, len(ids))
	for _, id := range ids {
		r, ok := f.byID[id]
		if !ok {
			return nil, domain.ErrNotFound
		}
		batch = append(batch, r)
	}
	for _, r := range batch {
		if r.Status != domain.RequestPending {
			return nil, domain.ErrInvalidState
		}
	}
	for _, r := range batch {
		r.Status = target
	}
	if target == domain.RequestConfirmed && remaining == len(ids) {
		for _, r := range f.listByEventLocked(eventID, domain.RequestPending) {
			r.Status = domain.RequestRejected
		}
	}
	return &domain.StatusUpdateResult{
		ConfirmedRequests: f.listByEventLocked(eventID, domain.RequestConfirmed),
		RejectedRequests:  f.listByEventLocked(eventID, domain.RequestRejected),
	}, nil
}

type eventServiceFixture struct {
	events     *fakeEventRepo
	requests   *fakeRequestRepo
	users      *fakeUserRepo
	categories *fakeCategoryRepo
	locations  *fakeLocationRepo
	stats      *fakeStatsProvider
	svc        domain.EventService
}

func newEventServiceFixture() *eventServiceFixture {
	events := newFakeEventRepo()
	f := &eventServiceFixture{
		events:     events,
		requests:   newFakeRequestRepo(events),
		users:      newFakeUserRepo(1, 2),
		categories: newFakeCategoryRepo(1),
		locations:  newFakeLocationRepo(),
		stats:      &fakeStatsProvider{views: map[int64]int64{}},
	}
	f.svc = NewEventService(f.events, f.requests, f.users, f.categories, f.locations, f.stats, testLogger(), time.Second)
	return f
}

func validNewEvent() domain.NewEvent {
	return domain.NewEvent{
		Annotation:        "A walking tour of the old town",
		CategoryID:        1,
		Description:       "Meet at the fountain, two hours on foot",
		EventDate:         time.Now().Add(48 * time.Hour),
		Location:          domain.LatLon{Lat: 55.75, Lon: 37.61},
		Paid:              false,
		ParticipantLimit:  10,
		RequestModeration: true,
		Title:             "Old town walk",
	}
}

func TestEventService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newEventServiceFixture()
		view, err := f.svc.Create(ctx, 1, validNewEvent())
		require.NoError(t, err)
		assert.Equal(t, domain.EventPending, view.State)
		assert.Equal(t, int64(1), view.InitiatorID)
		assert.False(t, view.CreatedOn.IsZero())
		assert.Nil(t, view.PublishedOn)
		assert.Equal(t, 0, view.ConfirmedRequests)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newEventServiceFixture()
		_, err := f.svc.Create(ctx, 99, validNewEvent())
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("unknown category", func(t *testing.T) {
		f := newEventServiceFixture()
		in := validNewEvent()
		in.CategoryID = 42
		_, err := f.svc.Create(ctx, 1, in)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("event date inside two hour window", func(t *testing.T) {
		f := newEventServiceFixture()
		in := validNewEvent()
		in.EventDate = time.Now().Add(90 * time.Minute)
		_, err := f.svc.Create(ctx, 1, in)
		require.ErrorIs(t, err, domain.ErrInvalidSchedule)
	})

	t.Run("repository failure surfaces wrapped", func(t *testing.T) {
		f := newEventServiceFixture()
		f.events.err = errors.New("insert failed")
		_, err := f.svc.Create(ctx, 1, validNewEvent())
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("location reused on exact match", func(t *testing.T) {
		f := newEventServiceFixture()
		first, err := f.svc.Create(ctx, 1, validNewEvent())
		require.NoError(t, err)
		second, err := f.svc.Create(ctx, 2, validNewEvent())
		require.NoError(t, err)
		assert.Equal(t, first.LocationID, second.LocationID)
		assert.Len(t, f.locations.locs, 1)
	})

	t.Run("new location created for new coordinates", func(t *testing.T) {
		f := newEventServiceFixture()
		_, err := f.svc.Create(ctx, 1, validNewEvent())
		require.NoError(t, err)
		in := validNewEvent()
		in.Location = domain.LatLon{Lat: 59.93, Lon: 30.31}
		_, err = f.svc.Create(ctx, 2, in)
		require.NoError(t, err)
		assert.Len(t, f.locations.locs, 2)
	})
}

func TestEventService_UpdateByInitiator(t *testing.T) {
	ctx := context.Background()

	seed := func(f *eventServiceFixture, state domain.EventState, eventDate time.Time) *domain.Event {
		return f.events.add(&domain.Event{
			Annotation:        "seed",
			CategoryID:        1,
			CreatedOn:         time.Now(),
			Description:       "seed",
			EventDate:         eventDate,
			InitiatorID:       1,
			LocationID:        1,
			ParticipantLimit:  10,
			RequestModeration: true,
			State:             state,
			Title:             "seed",
		})
	}

	t.Run("published event cannot be edited", func(t *testing.T) {
		f := newEventServiceFixture()
		e := seed(f, domain.EventPublished, time.Now().Add(48*time.Hour))
		_, err := f.svc.UpdateByInitiator(ctx, 1, e.ID, domain.UserEventUpdate{})
		require.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("foreign event masked as not found", func(t *testing.T) {
		f := newEventServiceFixture()
		e := seed(f, domain.EventPending, time.Now().Add(48*time.Hour))
		_, err := f.svc.UpdateByInitiator(ctx, 2, e.ID, domain.UserEventUpdate{})
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("stored date past deadline blocks any edit", func(t *testing.T) {
		f := newEventServiceFixture()
		e := seed(f, domain.EventPending, time.Now().Add(30*time.Minute))
		title := "new title"
		_, err := f.svc.UpdateByInitiator(ctx, 1, e.ID, domain.UserEventUpdate{
			EventPatch: domain.EventPatch{Title: &title},
		})
		require.ErrorIs(t, err, domain.ErrInvalidSchedule)
	})

	t.Run("new date inside window rejected", func(t *testing.T) {
		f := newEventServiceFixture()
		e := seed(f, domain.EventPending, time.Now().Add(48*time.Hour))
		tooSoon := time.Now().Add(time.Hour)
		_, err := f.svc.UpdateByInitiator(ctx, 1, e.ID, domain.UserEventUpdate{
			EventPatch: domain.EventPatch{EventDate: &tooSoon},
		})
		require.ErrorIs(t, err, domain.ErrInvalidSchedule)
	})

	t.Run("send to review from canceled", func(t *testing.T) {
		f := newEventServiceFixture()
		e := seed(f, domain.EventCanceled, time.Now().Add(48*time.Hour))
		action := domain.StateActionSendToReview
		view, err := f.svc.UpdateByInitiator(ctx, 1, e.ID, domain.UserEventUpdate{StateAction: &action})
		require.NoError(t, err)
		assert.Equal(t, domain.EventPending, view.State)
	})

	t.Run("any other action cancels", func(t *testing.T) {
		f := newEventServiceFixture()
		e := seed(f, domain.EventPending, time.Now().Add(48*time.Hour))
		action := domain.StateActionCancelReview
		view, err := f.svc.UpdateByInitiator(ctx, 1, e.ID, domain.UserEventUpdate{StateAction: &action})
		require.NoError(t, err)
		assert.Equal(t, domain.EventCanceled, view.State)
	})

	t.Run("field patch applied", func(t *testing.T) {
		f := newEventServiceFixture()
		e := seed(f, domain.EventPending, time.Now().Add(48*time.Hour))
		title := "renamed"
		paid := true
		limit := 3
		view, err := f.svc.UpdateByInitiator(ctx, 1, e.ID, domain.UserEventUpdate{
			EventPatch: domain.EventPatch{Title: &title, Paid: &paid, ParticipantLimit: &limit},
		})
		require.NoError(t, err)
		assert.Equal(t, "renamed", view.Title)
		assert.True(t, view.Paid)
		assert.Equal(t, 3, view.ParticipantLimit)
	})
}

func TestEventService_UpdateByAdmin(t *testing.T) {
	ctx := context.Background()

	seed := func(f *eventServiceFixture, state domain.EventState, eventDate time.Time) *domain.Event {
		return f.events.add(&domain.Event{
			CategoryID:  1,
			CreatedOn:   time.Now(),
			EventDate:   eventDate,
			InitiatorID: 1,
			LocationID:  1,
			State:       state,
			Title:       "seed",
		})
	}

	t.Run("publish pending event", func(t *testing.T) {
		f := newEventServiceFixture()
		e := seed(f, domain.EventPending, time.Now().Add(61*time.Minute))
		action := domain.AdminActionPublish
		view, err := f.svc.UpdateByAdmin(ctx, e.ID, domain.AdminEventUpdate{StateAction: &action})
		require.NoError(t, err)
		assert.Equal(t, domain.EventPublished, view.State)
		require.NotNil(t, view.PublishedOn)
		assert.WithinDuration(t, time.Now(), *view.PublishedOn, time.Minute)
	})

	t.Run("publish inside one hour window", func(t *testing.T) {
		f := newEventServiceFixture()
		e := seed(f, domain.EventPending, time.Now().Add(59*time.Minute))
		action := domain.AdminActionPublish
		_, err := f.svc.UpdateByAdmin(ctx, e.ID, domain.AdminEventUpdate{StateAction: &action})
		require.ErrorIs(t, err, domain.ErrInvalidSchedule)
	})

	t.Run("publish non pending event", func(t *testing.T) {
		f := newEventServiceFixture()
		e := seed(f, domain.EventCanceled, time.Now().Add(48*time.Hour))
		action := domain.AdminActionPublish
		_, err := f.svc.UpdateByAdmin(ctx, e.ID, domain.AdminEventUpdate{StateAction: &action})
		require.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("reject published event", func(t *testing.T) {
		f := newEventServiceFixture()
		e := seed(f, domain.EventPublished, time.Now().Add(48*time.Hour))
		action := domain.AdminActionReject
		_, err := f.svc.UpdateByAdmin(ctx, e.ID, domain.AdminEventUpdate{StateAction: &action})
		require.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("reject pending event", func(t *testing.T) {
		f := newEventServiceFixture()
		e := seed(f, domain.EventPending, time.Now().Add(48*time.Hour))
		action := domain.AdminActionReject
		view, err := f.svc.UpdateByAdmin(ctx, e.ID, domain.AdminEventUpdate{StateAction: &action})
		require.NoError(t, err)
		assert.Equal(t, domain.EventCanceled, view.State)
	})

	t.Run("field edits apply without state action", func(t *testing.T) {
		f := newEventServiceFixture()
		e := seed(f, domain.EventPublished, time.Now().Add(48*time.Hour))
		title := "moderated title"
		view, err := f.svc.UpdateByAdmin(ctx, e.ID, domain.AdminEventUpdate{
			EventPatch: domain.EventPatch{Title: &title},
		})
		require.NoError(t, err)
		assert.Equal(t, "moderated title", view.Title)
		assert.Equal(t, domain.EventPublished, view.State)
	})
}

func TestEventService_Views(t *testing.T) {
	ctx := context.Background()

	publish := func(f *eventServiceFixture) *domain.Event {
		publishedOn := time.Now().Add(-time.Hour)
		return f.events.add(&domain.Event{
			CategoryID:       1,
			CreatedOn:        time.Now().Add(-2 * time.Hour),
			EventDate:        time.Now().Add(48 * time.Hour),
			InitiatorID:      1,
			LocationID:       1,
			ParticipantLimit: 5,
			PublishedOn:      &publishedOn,
			State:            domain.EventPublished,
			Title:            "published",
		})
	}

	t.Run("view enriched with confirmed count and views", func(t *testing.T) {
		f := newEventServiceFixture()
		e := publish(f)
		f.requests.add(e.ID, 2, domain.RequestConfirmed)
		f.requests.add(e.ID, 3, domain.RequestConfirmed)
		f.requests.add(e.ID, 4, domain.RequestPending)
		f.stats.views = map[int64]int64{e.ID: 17}

		view, err := f.svc.GetPublished(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, view.ConfirmedRequests)
		assert.Equal(t, int64(17), view.Views)
	})

	t.Run("stats failure degrades to zero views", func(t *testing.T) {
		f := newEventServiceFixture()
		e := publish(f)
		f.stats.err = errors.New("stats server down")

		view, err := f.svc.GetPublished(ctx, e.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), view.Views)
	})

	t.Run("unpublished event invisible to public", func(t *testing.T) {
		f := newEventServiceFixture()
		e := f.events.add(&domain.Event{
			CategoryID: 1, InitiatorID: 1, LocationID: 1,
			EventDate: time.Now().Add(48 * time.Hour), State: domain.EventPending,
		})
		_, err := f.svc.GetPublished(ctx, e.ID)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("get by initiator masks foreign event", func(t *testing.T) {
		f := newEventServiceFixture()
		e := publish(f)
		_, err := f.svc.GetByInitiator(ctx, 2, e.ID)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestEventService_ListPublic(t *testing.T) {
	ctx := context.Background()

	seedPublished := func(f *eventServiceFixture, limit int, eventDate time.Time) *domain.Event {
		publishedOn := time.Now().Add(-time.Hour)
		return f.events.add(&domain.Event{
			CategoryID:        1,
			CreatedOn:         time.Now(),
			EventDate:         eventDate,
			InitiatorID:       1,
			LocationID:        1,
			ParticipantLimit:  limit,
			PublishedOn:       &publishedOn,
			RequestModeration: true,
			State:             domain.EventPublished,
			Title:             "public",
		})
	}

	t.Run("past events excluded by default", func(t *testing.T) {
		f := newEventServiceFixture()
		seedPublished(f, 10, time.Now().Add(-time.Hour))
		upcoming := seedPublished(f, 10, time.Now().Add(48*time.Hour))

		views, err := f.svc.ListPublic(ctx, domain.PublicEventFilter{}, domain.PaginationParams{})
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, upcoming.ID, views[0].ID)
	})

	t.Run("only available drops exactly full events", func(t *testing.T) {
		f := newEventServiceFixture()
		full := seedPublished(f, 2, time.Now().Add(48*time.Hour))
		open := seedPublished(f, 2, time.Now().Add(48*time.Hour))
		f.requests.add(full.ID, 2, domain.RequestConfirmed)
		f.requests.add(full.ID, 3, domain.RequestConfirmed)
		f.requests.add(open.ID, 2, domain.RequestConfirmed)

		views, err := f.svc.ListPublic(ctx, domain.PublicEventFilter{OnlyAvailable: true}, domain.PaginationParams{})
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, open.ID, views[0].ID)
	})

	t.Run("sorted by views", func(t *testing.T) {
		f := newEventServiceFixture()
		a := seedPublished(f, 10, time.Now().Add(48*time.Hour))
		b := seedPublished(f, 10, time.Now().Add(24*time.Hour))
		f.stats.views = map[int64]int64{a.ID: 40, b.ID: 5}

		views, err := f.svc.ListPublic(ctx, domain.PublicEventFilter{Sort: domain.SortByViews}, domain.PaginationParams{})
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, b.ID, views[0].ID)
		assert.Equal(t, a.ID, views[1].ID)
	})

	t.Run("sorted by event date", func(t *testing.T) {
		f := newEventServiceFixture()
		later := seedPublished(f, 10, time.Now().Add(72*time.Hour))
		sooner := seedPublished(f, 10, time.Now().Add(24*time.Hour))

		views, err := f.svc.ListPublic(ctx, domain.PublicEventFilter{Sort: domain.SortByEventDate}, domain.PaginationParams{})
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, sooner.ID, views[0].ID)
		assert.Equal(t, later.ID, views[1].ID)
	})
}
