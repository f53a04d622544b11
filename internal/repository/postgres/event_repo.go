package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"meetpoint/internal/domain"
)

const eventColumns = `event_id, annotation, category_id, created_on, description, event_date,
		initiator_id, location_id, paid, participant_limit, published_on, request_moderation, state, title`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (annotation, category_id, created_on, description, event_date,
			initiator_id, location_id, paid, participant_limit, request_moderation, state, title)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING event_id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.Annotation, e.CategoryID, e.CreatedOn, e.Description, e.EventDate,
		e.InitiatorID, e.LocationID, e.Paid, e.ParticipantLimit, e.RequestModeration, e.State, e.Title,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE event_id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	query := `
		UPDATE events
		SET annotation = $1, category_id = $2, description = $3, event_date = $4,
			location_id = $5, paid = $6, participant_limit = $7, published_on = $8,
			request_moderation = $9, state = $10, title = $11
		WHERE event_id = $12
	`
	var publishedOn sql.NullTime
	if e.PublishedOn != nil {
		publishedOn = sql.NullTime{Time: *e.PublishedOn, Valid: true}
	}
	result, err := r.DB.ExecContext(ctx, query,
		e.Annotation, e.CategoryID, e.Description, e.EventDate,
		e.LocationID, e.Paid, e.ParticipantLimit, publishedOn,
		e.RequestModeration, e.State, e.Title, e.ID,
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) ListByInitiator(ctx context.Context, initiatorID int64, page domain.PaginationParams) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE initiator_id = $1
		ORDER BY created_on DESC
		OFFSET $2 LIMIT $3
	`
	rows, err := r.DB.QueryContext(ctx, query, initiatorID, page.Offset(), page.Limit())
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func (r *eventRepository) ListAdmin(ctx context.Context, filter domain.AdminEventFilter, page domain.PaginationParams) ([]*domain.Event, error) {
	where := []string{}
	args := []interface{}{}
	n := 1
	if len(filter.InitiatorIDs) > 0 {
		where = append(where, fmt.Sprintf("initiator_id = ANY($%d)", n))
		args = append(args, pq.Array(filter.InitiatorIDs))
		n++
	}
	if len(filter.States) > 0 {
		states := make([]string, 0, len(filter.States))
		for _, s := range filter.States {
			states = append(states, string(s))
		}
		where = append(where, fmt.Sprintf("state = ANY($%d)", n))
		args = append(args, pq.Array(states))
		n++
	}
	if len(filter.CategoryIDs) > 0 {
		where = append(where, fmt.Sprintf("category_id = ANY($%d)", n))
		args = append(args, pq.Array(filter.CategoryIDs))
		n++
	}
	if filter.RangeStart != nil {
		where = append(where, fmt.Sprintf("event_date >= $%d", n))
		args = append(args, *filter.RangeStart)
		n++
	}
	if filter.RangeEnd != nil {
		where = append(where, fmt.Sprintf("event_date <= $%d", n))
		args = append(args, *filter.RangeEnd)
		n++
	}
	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, page.Offset(), page.Limit())
	query := fmt.Sprintf(`
		SELECT `+eventColumns+`
		FROM events
		%s
		ORDER BY event_id
		OFFSET $%d LIMIT $%d
	`, whereClause, n, n+1)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

func (r *eventRepository) ListPublic(ctx context.Context, filter domain.PublicEventFilter, page domain.PaginationParams) ([]*domain.Event, error) {
	where := []string{"state = 'PUBLISHED'"}
	args := []interface{}{}
	n := 1
	if filter.Text != "" {
		where = append(where, fmt.Sprintf("(annotation ILIKE $%d OR description ILIKE $%d)", n, n))
		args = append(args, "%"+filter.Text+"%")
		n++
	}
	if len(filter.CategoryIDs) > 0 {
		where = append(where, fmt.Sprintf("category_id = ANY($%d)", n))
		args = append(args, pq.Array(filter.CategoryIDs))
		n++
	}
	if filter.Paid != nil {
		where = append(where, fmt.Sprintf("paid = $%d", n))
		args = append(args, *filter.Paid)
		n++
	}
	if filter.RangeStart != nil {
		where = append(where, fmt.Sprintf("event_date > $%d", n))
		args = append(args, *filter.RangeStart)
		n++
	}
	if filter.RangeEnd != nil {
		where = append(where, fmt.Sprintf("event_date < $%d", n))
		args = append(args, *filter.RangeEnd)
		n++
	}
	args = append(args, page.Offset(), page.Limit())
	query := fmt.Sprintf(`
		SELECT `+eventColumns+`
		FROM events
		WHERE %s
		ORDER BY event_date
		OFFSET $%d LIMIT $%d
	`, strings.Join(where, " AND "), n, n+1)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var publishedOn sql.NullTime
	err := row.Scan(
		&e.ID, &e.Annotation, &e.CategoryID, &e.CreatedOn, &e.Description, &e.EventDate,
		&e.InitiatorID, &e.LocationID, &e.Paid, &e.ParticipantLimit, &publishedOn,
		&e.RequestModeration, &e.State, &e.Title,
	)
	if err != nil {
		return nil, err
	}
	if publishedOn.Valid {
		e.PublishedOn = &publishedOn.Time
	}
	return e, nil
}

func collectEvents(rows *sql.Rows) ([]*domain.Event, error) {
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
