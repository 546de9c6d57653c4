package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/pkg/errors"
)

const listingsCollection = "services"

type firestoreListingRepository struct {
	client *firestore.Client
}

func NewFirestoreListingRepository(client *firestore.Client) repository.ListingRepository {
	return &firestoreListingRepository{
		client: client,
	}
}

func (r *firestoreListingRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(listingsCollection)
}

func decodeListing(doc *firestore.DocumentSnapshot) (*entity.Listing, error) {
	var listing entity.Listing
	if err := doc.DataTo(&listing); err != nil {
		return nil, err
	}
	listing.ID = doc.Ref.ID
	return &listing, nil
}

func (r *firestoreListingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	if listing.ID == "" {
		listing.ID = r.collection().NewDoc().ID
	}

	now := time.Now()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	listing.UpdatedAt = now

	if _, err := r.collection().Doc(listing.ID).Set(ctx, listing); err != nil {
		return errors.Internal("Failed to create service", err)
	}
	return nil
}

func (r *firestoreListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	doc, err := r.collection().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("Service", err)
		}
		return nil, errors.Internal("Failed to get service", err)
	}

	listing, err := decodeListing(doc)
	if err != nil {
		return nil, errors.Internal("Failed to parse service data", err)
	}
	return listing, nil
}

func (r *firestoreListingRepository) Update(ctx context.Context, listing *entity.Listing) error {
	listing.UpdatedAt = time.Now()

	if _, err := r.collection().Doc(listing.ID).Set(ctx, listing); err != nil {
		return errors.Internal("Failed to update service", err)
	}
	return nil
}

func (r *firestoreListingRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.collection().Doc(id).Delete(ctx); err != nil {
		return errors.Internal("Failed to delete service", err)
	}
	return nil
}

func (r *firestoreListingRepository) List(ctx context.Context, category string) ([]*entity.Listing, error) {
	query := r.collection().Query
	if category != "" && category != "All" {
		query = query.Where("category", "==", category)
	}
	query = query.OrderBy("createdAt", firestore.Desc)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to list services", err)
	}
	return decodeAll(docs, decodeListing), nil
}

func (r *firestoreListingRepository) ListByProviderID(ctx context.Context, providerID string) ([]*entity.Listing, error) {
	docs, err := r.collection().
		Where("providerId", "==", providerID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to list provider services", err)
	}
	return decodeAll(docs, decodeListing), nil
}
