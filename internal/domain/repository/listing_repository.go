package repository

import (
	"context"

	"servicemarket/internal/domain/entity"
)

type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	GetByID(ctx context.Context, id string) (*entity.Listing, error)
	Update(ctx context.Context, listing *entity.Listing) error
	Delete(ctx context.Context, id string) error

	// List returns listings newest first, optionally narrowed to one category.
	List(ctx context.Context, category string) ([]*entity.Listing, error)
	ListByProviderID(ctx context.Context, providerID string) ([]*entity.Listing, error)
}
