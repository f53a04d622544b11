package domain

import "context"

// Category is an event category; the core only ever reads categories.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CategoryRepository is the category lookup collaborator.
type CategoryRepository interface {
	GetByID(ctx context.Context, id int64) (*Category, error)
}
