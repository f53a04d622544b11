package domain

import "context"

// Location is a stored coordinate pair. Rows are shared between events and
// deduplicated by exact (lat, lon).
type Location struct {
	ID  int64   `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LocationRepository defines location storage.
type LocationRepository interface {
	// GetByLatLon resolves a location by exact coordinate match,
	// returning ErrNotFound when no such row exists.
	GetByLatLon(ctx context.Context, lat, lon float64) (*Location, error)
	Create(ctx context.Context, loc *Location) error
}
