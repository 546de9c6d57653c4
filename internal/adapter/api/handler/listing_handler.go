package handler

import (
	"encoding/json"

	"github.com/labstack/echo/v4"

	"servicemarket/internal/adapter/api/middleware"
	"servicemarket/internal/usecase"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/response"
	"servicemarket/pkg/utils"
)

type ListingHandler struct {
	listingUseCase *usecase.ListingUseCase
	maxUploadBytes int64
}

func NewListingHandler(listingUseCase *usecase.ListingUseCase, maxUploadBytes int64) *ListingHandler {
	return &ListingHandler{
		listingUseCase: listingUseCase,
		maxUploadBytes: maxUploadBytes,
	}
}

// CreateListing takes a multipart form: the listing as JSON in the "data"
// field and up to five files under "images".
func (h *ListingHandler) CreateListing(c echo.Context) error {
	if err := c.Request().ParseMultipartForm(h.maxUploadBytes * usecase.MaxListingImages); err != nil {
		return response.Error(c, errors.BadRequest("Invalid multipart form", err))
	}
	form := c.Request().MultipartForm

	var input usecase.ListingInput
	if err := json.Unmarshal([]byte(c.FormValue("data")), &input); err != nil {
		return response.Error(c, errors.BadRequest("Invalid service data", err))
	}
	if err := c.Validate(&input); err != nil {
		return response.Error(c, err)
	}

	files := form.File["images"]
	if len(files) > usecase.MaxListingImages {
		return response.Error(c, errors.BadRequest("A service can have at most 5 images", nil))
	}

	images, closeAll, err := openImages(files, h.maxUploadBytes)
	if err != nil {
		return response.Error(c, err)
	}
	defer closeAll()

	listing, err := h.listingUseCase.CreateListing(c.Request().Context(), middleware.UserID(c), input, images)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, listing)
}

func (h *ListingHandler) GetListing(c echo.Context) error {
	listing, err := h.listingUseCase.GetListing(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, listing)
}

func (h *ListingHandler) SearchListings(c echo.Context) error {
	page := utils.GetPaginationParams(c)

	listings, total, err := h.listingUseCase.SearchListings(c.Request().Context(), c.QueryParam("q"), c.QueryParam("category"), page)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, listings, total, page.Page, page.PageSize)
}

func (h *ListingHandler) ListByProvider(c echo.Context) error {
	listings, err := h.listingUseCase.ListByProvider(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, listings)
}

func (h *ListingHandler) UpdateListing(c echo.Context) error {
	var input usecase.ListingInput
	if err := c.Bind(&input); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&input); err != nil {
		return response.Error(c, err)
	}

	listing, err := h.listingUseCase.UpdateListing(c.Request().Context(), middleware.UserID(c), c.Param("id"), input)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, listing)
}

func (h *ListingHandler) DeleteListing(c echo.Context) error {
	if err := h.listingUseCase.DeleteListing(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.NoContent(c)
}
