package postgres

import (
	"context"
	"database/sql"
	"errors"

	"meetpoint/internal/domain"
)

type locationRepository struct {
	DB *sql.DB
}

func NewLocationRepository(db *sql.DB) domain.LocationRepository {
	return &locationRepository{
		DB: db,
	}
}

func (r *locationRepository) GetByLatLon(ctx context.Context, lat, lon float64) (*domain.Location, error) {
	// Exact match only; locations are never matched by proximity.
	query := `SELECT location_id, lat, lon FROM locations WHERE lat = $1 AND lon = $2`
	loc := &domain.Location{}
	err := r.DB.QueryRowContext(ctx, query, lat, lon).Scan(&loc.ID, &loc.Lat, &loc.Lon)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return loc, nil
}

func (r *locationRepository) Create(ctx context.Context, loc *domain.Location) error {
	query := `
		INSERT INTO locations (lat, lon)
		VALUES ($1, $2)
		RETURNING location_id
	`
	return r.DB.QueryRowContext(ctx, query, loc.Lat, loc.Lon).Scan(&loc.ID)
}
