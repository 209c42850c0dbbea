package domain

import (
	"context"
	"errors"
)

// Repository reads the raw customer table from its source.
type Repository interface {
	Rows(ctx context.Context) ([]Row, error)
}

type Service interface {
	GetByID(ctx context.Context, id string) (Customer, error)
	// All returns every customer ordered by id. The slice is the caller's
	// own; the Extras maps are not.
	All(ctx context.Context) []Customer
}

var (
	ErrInvalidID      = errors.New("invalid_id")
	ErrNotFound       = errors.New("not_found")
	ErrDuplicateID    = errors.New("duplicate_customer_id")
	ErrSourceNotFound = errors.New("customer_source_not_found")
)
