package usecase

import (
	"context"
	"io"
	"strings"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/internal/domain/service"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/logger"
	"servicemarket/pkg/utils"
)

// MaxListingImages is how many pictures one service may carry.
const MaxListingImages = 5

type ListingUseCase struct {
	listingRepo repository.ListingRepository
	userRepo    repository.UserRepository
	storage     service.FileStorage
}

func NewListingUseCase(listingRepo repository.ListingRepository, userRepo repository.UserRepository, storage service.FileStorage) *ListingUseCase {
	return &ListingUseCase{
		listingRepo: listingRepo,
		userRepo:    userRepo,
		storage:     storage,
	}
}

type ListingInput struct {
	Title       string          `json:"title" validate:"required,min=3,max=100"`
	Description string          `json:"description" validate:"required,max=2000"`
	Price       float64         `json:"price" validate:"gte=0"`
	Category    string          `json:"category" validate:"required"`
	Location    entity.Location `json:"location"`
}

type ImageUpload struct {
	Reader      io.Reader
	ContentType string
	Filename    string
}

func validCategory(category string) bool {
	for _, c := range entity.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// CreateListing uploads the images under services/{providerID} and stores
// the listing. An image that fails to upload is skipped.
func (uc *ListingUseCase) CreateListing(ctx context.Context, providerID string, input ListingInput, images []ImageUpload) (*entity.Listing, error) {
	if !validCategory(input.Category) {
		return nil, errors.BadRequest("Invalid category", nil)
	}
	if len(images) > MaxListingImages {
		return nil, errors.BadRequest("A service can have at most 5 images", nil)
	}

	provider, err := uc.userRepo.GetByID(ctx, providerID)
	if err != nil {
		return nil, errors.BadRequest("Invalid provider", err)
	}

	urls := make([]string, 0, len(images))
	for _, img := range images {
		result, err := uc.storage.Upload(ctx, img.Reader, img.ContentType, "services/"+providerID, img.Filename)
		if err != nil {
			logger.Warn("Skipping image %q of %s: %v", img.Filename, providerID, err)
			continue
		}
		urls = append(urls, result.URL)
	}

	listing := &entity.Listing{
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		Price:         input.Price,
		Category:      input.Category,
		Location:      input.Location,
		Images:        urls,
		ProviderID:    providerID,
		ProviderName:  provider.DisplayName,
		ProviderImage: provider.PhotoURL,
		ProviderPhone: provider.PhoneNumber,
	}

	if err := uc.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}

	if !provider.IsServiceProvider {
		if err := uc.userRepo.MarkServiceProvider(ctx, providerID); err != nil {
			logger.Warn("Failed to flag %s as service provider: %v", providerID, err)
		}
	}

	logger.Info("Service %s created by %s with %d images", listing.ID, providerID, len(urls))
	return listing, nil
}

func (uc *ListingUseCase) GetListing(ctx context.Context, id string) (*entity.Listing, error) {
	return uc.listingRepo.GetByID(ctx, id)
}

// SearchListings filters by category and free text, newest first, and
// returns one page plus the total match count.
func (uc *ListingUseCase) SearchListings(ctx context.Context, query, category string, page utils.PaginationParams) ([]*entity.Listing, int64, error) {
	listings, err := uc.listingRepo.List(ctx, category)
	if err != nil {
		return nil, 0, err
	}

	matched := make([]*entity.Listing, 0, len(listings))
	for _, l := range listings {
		if l.MatchesCategory(category) && l.MatchesQuery(query) {
			matched = append(matched, l)
		}
	}

	return utils.Paginate(matched, page), int64(len(matched)), nil
}

func (uc *ListingUseCase) ListByProvider(ctx context.Context, providerID string) ([]*entity.Listing, error) {
	return uc.listingRepo.ListByProviderID(ctx, providerID)
}

func (uc *ListingUseCase) UpdateListing(ctx context.Context, userID, id string, input ListingInput) (*entity.Listing, error) {
	if !validCategory(input.Category) {
		return nil, errors.BadRequest("Invalid category", nil)
	}

	listing, err := uc.ownedListing(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	listing.Title = strings.TrimSpace(input.Title)
	listing.Description = strings.TrimSpace(input.Description)
	listing.Price = input.Price
	listing.Category = input.Category
	listing.Location = input.Location

	if err := uc.listingRepo.Update(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// DeleteListing removes the listing and, best effort, its images.
func (uc *ListingUseCase) DeleteListing(ctx context.Context, userID, id string) error {
	listing, err := uc.ownedListing(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := uc.listingRepo.Delete(ctx, id); err != nil {
		return err
	}

	for _, url := range listing.Images {
		if err := uc.storage.Delete(ctx, url); err != nil {
			logger.Warn("Failed to delete image of service %s: %v", id, err)
		}
	}
	return nil
}

func (uc *ListingUseCase) ownedListing(ctx context.Context, userID, id string) (*entity.Listing, error) {
	listing, err := uc.listingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.ProviderID != userID {
		return nil, errors.Forbidden("You can only modify your own services", nil)
	}
	return listing, nil
}
