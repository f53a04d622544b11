package domain

import (
	"context"
	"time"
)

// ViewStatsProvider is the view-count collaborator: given event ids and a
// time window it returns hit counts per id. It only ever decorates output;
// an id missing from the result means zero views, and callers treat a
// provider failure as zero views rather than an operation error.
type ViewStatsProvider interface {
	ViewsByEventIDs(ctx context.Context, eventIDs []int64, start, end time.Time) (map[int64]int64, error)
}

// HitRecorder records a single endpoint hit with the stats collaborator.
// The delivery layer calls it on public reads; the core never does.
type HitRecorder interface {
	RecordHit(ctx context.Context, uri, ip string) error
}
