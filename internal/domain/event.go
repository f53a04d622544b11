package domain

import (
	"context"
	"time"
)

// EventState is the publication state of an event.
type EventState string

const (
	EventPending   EventState = "PENDING"
	EventPublished EventState = "PUBLISHED"
	EventCanceled  EventState = "CANCELED"
)

// UserStateAction is the optional state transition requested by the
// event's initiator alongside a field update.
type UserStateAction string

const (
	StateActionSendToReview UserStateAction = "SEND_TO_REVIEW"
	StateActionCancelReview UserStateAction = "CANCEL_REVIEW"
)

// AdminStateAction is the optional state transition requested by a moderator.
type AdminStateAction string

const (
	AdminActionPublish AdminStateAction = "PUBLISH_EVENT"
	AdminActionReject  AdminStateAction = "REJECT_EVENT"
)

// Event represents a proposed public activity. PublishedOn is nil until the
// event first reaches PUBLISHED and is never cleared afterwards.
type Event struct {
	ID                int64      `json:"id"`
	Annotation        string     `json:"annotation"`
	CategoryID        int64      `json:"category"`
	CreatedOn         time.Time  `json:"created_on"`
	Description       string     `json:"description"`
	EventDate         time.Time  `json:"event_date"`
	InitiatorID       int64      `json:"initiator"`
	LocationID        int64      `json:"location"`
	Paid              bool       `json:"paid"`
	ParticipantLimit  int        `json:"participant_limit"`
	PublishedOn       *time.Time `json:"published_on,omitempty"`
	RequestModeration bool       `json:"request_moderation"`
	State             EventState `json:"state"`
	Title             string     `json:"title"`
}

// EventView is the only event shape returned to callers: the stored entity
// plus the two read-time aggregates that are never persisted on it.
type EventView struct {
	Event
	ConfirmedRequests int   `json:"confirmed_requests"`
	Views             int64 `json:"views"`
}

// LatLon is an exact coordinate pair; locations are deduplicated by exact
// value, never by proximity.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewEvent is the creation input for an event.
type NewEvent struct {
	Annotation        string
	CategoryID        int64
	Description       string
	EventDate         time.Time
	Location          LatLon
	Paid              bool
	ParticipantLimit  int
	RequestModeration bool
	Title             string
}

// EventPatch carries optional field edits; nil fields are left unchanged.
type EventPatch struct {
	Annotation        *string
	CategoryID        *int64
	Description       *string
	EventDate         *time.Time
	Location          *LatLon
	Paid              *bool
	ParticipantLimit  *int
	RequestModeration *bool
	Title             *string
}

// UserEventUpdate is an initiator's update: field edits plus an optional
// review sub-transition.
type UserEventUpdate struct {
	EventPatch
	StateAction *UserStateAction
}

// AdminEventUpdate is a moderator's update: field edits plus an optional
// publish/reject sub-transition.
type AdminEventUpdate struct {
	EventPatch
	StateAction *AdminStateAction
}

// EventSort orders public listings.
type EventSort string

const (
	SortByEventDate EventSort = "EVENT_DATE"
	SortByViews     EventSort = "VIEWS"
)

// AdminEventFilter narrows the admin listing. Empty slices and nil ranges
// mean "no constraint".
type AdminEventFilter struct {
	InitiatorIDs []int64
	States       []EventState
	CategoryIDs  []int64
	RangeStart   *time.Time
	RangeEnd     *time.Time
}

// PublicEventFilter narrows the public listing; only PUBLISHED events are
// ever visible through it.
type PublicEventFilter struct {
	Text          string
	CategoryIDs   []int64
	Paid          *bool
	RangeStart    *time.Time
	RangeEnd      *time.Time
	OnlyAvailable bool
	Sort          EventSort
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id int64) (*Event, error)
	// Update persists every mutable field of the event; the caller owns the
	// merge of patch values into the entity.
	Update(ctx context.Context, event *Event) error
	ListByInitiator(ctx context.Context, initiatorID int64, page PaginationParams) ([]*Event, error)
	ListAdmin(ctx context.Context, filter AdminEventFilter, page PaginationParams) ([]*Event, error)
	ListPublic(ctx context.Context, filter PublicEventFilter, page PaginationParams) ([]*Event, error)
}

// EventService is the event lifecycle engine.
type EventService interface {
	Create(ctx context.Context, initiatorID int64, in NewEvent) (*EventView, error)
	UpdateByInitiator(ctx context.Context, initiatorID, eventID int64, upd UserEventUpdate) (*EventView, error)
	UpdateByAdmin(ctx context.Context, eventID int64, upd AdminEventUpdate) (*EventView, error)
	GetByInitiator(ctx context.Context, initiatorID, eventID int64) (*EventView, error)
	ListByInitiator(ctx context.Context, initiatorID int64, page PaginationParams) ([]*EventView, error)
	ListAdmin(ctx context.Context, filter AdminEventFilter, page PaginationParams) ([]*EventView, error)
	ListPublic(ctx context.Context, filter PublicEventFilter, page PaginationParams) ([]*EventView, error)
	GetPublished(ctx context.Context, eventID int64) (*EventView, error)
}
