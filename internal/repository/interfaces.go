package repository

import (
	"context"

	"address-rest-api/internal/model"
)

// AddressRepository defines address data access methods.
// FindByID returns (nil, nil) when no record exists for the id;
// callers decide whether that is an error.
type AddressRepository interface {
	// Save persists an address. When the ID is empty a new one is
	// assigned; the returned address carries the stored ID.
	Save(ctx context.Context, addr *model.Address) (*model.Address, error)

	// FindByID retrieves an address by id.
	FindByID(ctx context.Context, id string) (*model.Address, error)

	// ExistsByID reports whether an address with the id exists.
	ExistsByID(ctx context.Context, id string) (bool, error)

	// DeleteByID removes an address by id.
	DeleteByID(ctx context.Context, id string) error

	// FindAll returns every address ordered by id.
	FindAll(ctx context.Context) ([]model.Address, error)

	// FindByUserID returns all addresses belonging to a user.
	FindByUserID(ctx context.Context, userID string) ([]model.Address, error)

	// Stats returns statistics about the address store.
	Stats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the repository connection.
	Close() error
}
