package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"meetpoint/internal/domain"
)

const requestColumns = `request_id, created, event_id, requester_id, status`

// uniqueViolation is the Postgres error class for duplicate keys; the
// requests table has a unique index on (requester_id, event_id).
const uniqueViolation = "23505"

type requestRepository struct {
	DB *sql.DB
}

func NewRequestRepository(db *sql.DB) domain.RequestRepository {
	return &requestRepository{
		DB: db,
	}
}

func (r *requestRepository) GetByID(ctx context.Context, id int64) (*domain.ParticipationRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE request_id = $1`
	req, err := scanRequest(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

func (r *requestRepository) ListByRequester(ctx context.Context, requesterID int64) ([]*domain.ParticipationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE requester_id = $1
		ORDER BY created DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, requesterID)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

func (r *requestRepository) ListByEvent(ctx context.Context, eventID int64) ([]*domain.ParticipationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE event_id = $1
		ORDER BY request_id
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

func (r *requestRepository) ListByEventAndStatus(ctx context.Context, eventID int64, status domain.RequestStatus) ([]*domain.ParticipationRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM requests
		WHERE event_id = $1 AND status = $2
		ORDER BY request_id
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, status)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

func (r *requestRepository) CountConfirmedByEvent(ctx context.Context, eventID int64) (int, error) {
	query := `SELECT COUNT(*) FROM requests WHERE event_id = $1 AND status = 'CONFIRMED'`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id int64, status domain.RequestStatus) (*domain.ParticipationRequest, error) {
	query := `
		UPDATE requests SET status = $1
		WHERE request_id = $2
		RETURNING ` + requestColumns + `
	`
	req, err := scanRequest(r.DB.QueryRowContext(ctx, query, status, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// Admit runs the single-request admission sequence in one transaction.
// The event row is locked first, so the duplicate check, the capacity
// read and the insert are serialized against every other admission and
// bulk resolve for the same event.
func (r *requestRepository) Admit(ctx context.Context, req *domain.ParticipationRequest) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var participantLimit int
	var requestModeration bool
	err = tx.QueryRowContext(ctx,
		`SELECT participant_limit, request_moderation FROM events WHERE event_id = $1 FOR UPDATE`,
		req.EventID,
	).Scan(&participantLimit, &requestModeration)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	var duplicates int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM requests WHERE requester_id = $1 AND event_id = $2`,
		req.RequesterID, req.EventID,
	).Scan(&duplicates)
	if err != nil {
		return err
	}
	if duplicates > 0 {
		return domain.ErrConflict
	}

	if participantLimit != 0 {
		var confirmed int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM requests WHERE event_id = $1 AND status = 'CONFIRMED'`,
			req.EventID,
		).Scan(&confirmed)
		if err != nil {
			return err
		}
		if confirmed >= participantLimit {
			return domain.ErrCapacityExceeded
		}
	}

	status := domain.RequestPending
	if !requestModeration || participantLimit == 0 {
		status = domain.RequestConfirmed
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO requests (created, event_id, requester_id, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING request_id`,
		req.Created, req.EventID, req.RequesterID, status,
	).Scan(&req.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrConflict
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	req.Status = status
	return nil
}

// ResolveBatch applies target to the batch all-or-nothing under the event
// row lock, cascading rejection over the remaining PENDING requests when a
// confirm exhausts the limit exactly, and returns the event's full current
// CONFIRMED and REJECTED sets.
func (r *requestRepository) ResolveBatch(ctx context.Context, eventID int64, ids []int64, target domain.RequestStatus) (result *domain.StatusUpdateResult, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var participantLimit int
	err = tx.QueryRowContext(ctx,
		`SELECT participant_limit FROM events WHERE event_id = $1 FOR UPDATE`,
		eventID,
	).Scan(&participantLimit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	remaining := -1
	if target == domain.RequestConfirmed && participantLimit != 0 {
		var confirmed int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM requests WHERE event_id = $1 AND status = 'CONFIRMED'`,
			eventID,
		).Scan(&confirmed)
		if err != nil {
			return nil, err
		}
		if confirmed >= participantLimit {
			return nil, domain.ErrCapacityExceeded
		}
		remaining = participantLimit - confirmed
		// All-or-nothing: a batch that would only partially fit fails
		// whole, so the caller can resubmit a smaller one.
		if remaining < len(ids) {
			return nil, domain.ErrCapacityExceeded
		}
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE request_id = ANY($1) FOR UPDATE`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, err
	}
	batch, err := collectRequests(rows)
	if err != nil {
		return nil, err
	}
	if len(batch) < len(ids) {
		err = domain.ErrNotFound
		return nil, err
	}
	for _, req := range batch {
		if req.Status != domain.RequestPending {
			err = domain.ErrInvalidState
			return nil, err
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE requests SET status = $1 WHERE request_id = ANY($2)`,
		target, pq.Array(ids),
	)
	if err != nil {
		return nil, err
	}

	// Cascade: once the limit is exactly exhausted no pending request can
	// ever be confirmed, so they are all rejected here.
	if target == domain.RequestConfirmed && remaining == len(ids) {
		_, err = tx.ExecContext(ctx,
			`UPDATE requests SET status = 'REJECTED' WHERE event_id = $1 AND status = 'PENDING'`,
			eventID,
		)
		if err != nil {
			return nil, err
		}
	}

	confirmed, err := r.listByEventAndStatusTx(ctx, tx, eventID, domain.RequestConfirmed)
	if err != nil {
		return nil, err
	}
	rejected, err := r.listByEventAndStatusTx(ctx, tx, eventID, domain.RequestRejected)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return &domain.StatusUpdateResult{
		ConfirmedRequests: confirmed,
		RejectedRequests:  rejected,
	}, nil
}

func (r *requestRepository) listByEventAndStatusTx(ctx context.Context, tx *sql.Tx, eventID int64, status domain.RequestStatus) ([]*domain.ParticipationRequest, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE event_id = $1 AND status = $2 ORDER BY request_id`,
		eventID, status,
	)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

func scanRequest(row rowScanner) (*domain.ParticipationRequest, error) {
	req := &domain.ParticipationRequest{}
	if err := row.Scan(&req.ID, &req.Created, &req.EventID, &req.RequesterID, &req.Status); err != nil {
		return nil, err
	}
	return req, nil
}

func collectRequests(rows *sql.Rows) ([]*domain.ParticipationRequest, error) {
	defer rows.Close()
	reqs := make([]*domain.ParticipationRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}
