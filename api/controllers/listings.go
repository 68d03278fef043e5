package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gethsun1/solmarket-backend/api/responses"
	"github.com/gethsun1/solmarket-backend/api/validators"
	listingsvc "github.com/gethsun1/solmarket-backend/internal/listings"
	pkgerrors "github.com/gethsun1/solmarket-backend/pkg/errors"
	"github.com/gethsun1/solmarket-backend/pkg/logger"
)

const (
	maxListLimit     = 100
	defaultListLimit = 20
)

type createListingRequest struct {
	MerchantID    int64   `json:"merchant_id" validate:"required,min=1"`
	Name          string  `json:"name" validate:"required,max=200"`
	Description   *string `json:"description,omitempty"`
	Category      string  `json:"category,omitempty"`
	PriceLamports int64   `json:"price_lamports" validate:"min=0"`
	ImageURL      *string `json:"image_url,omitempty"`
}

// CreateListing publishes a new fixed-price product.
func CreateListing(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		var payload createListingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), listingsvc.CreateProductInput{
			MerchantID:    payload.MerchantID,
			Name:          validators.SanitizeString(payload.Name, 200),
			Description:   payload.Description,
			Category:      validators.SanitizeString(payload.Category, 100),
			PriceLamports: payload.PriceLamports,
			ImageURL:      payload.ImageURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// ListListings returns products filtered by category, merchant, and activity.
func ListListings(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultListLimit, 1, maxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := listingsvc.ListFilter{
			Category:   validators.SanitizeString(r.URL.Query().Get("category"), 100),
			ActiveOnly: strings.TrimSpace(r.URL.Query().Get("include_inactive")) == "",
			Limit:      limit,
			Offset:     offset,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("merchant_id")); raw != "" {
			merchantID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || merchantID <= 0 {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "merchant_id must be a positive id"))
				return
			}
			filter.MerchantID = merchantID
		}

		products, err := svc.ListProducts(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, products)
	}
}

// GetListing returns one product with its effective discount applied.
func GetListing(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		id, err := validators.ParsePathID(chi.URLParam(r, "listingId"), "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listingDetailResponse{
			Product:          detail.Product,
			EffectivePercent: detail.EffectivePercent,
			EffectivePrice:   detail.EffectivePrice,
			Discounts:        detail.Discounts,
		})
	}
}

type listingDetailResponse struct {
	Product          any   `json:"product"`
	EffectivePercent int   `json:"effective_percent"`
	EffectivePrice   int64 `json:"effective_price_lamports"`
	Discounts        any   `json:"discounts"`
}

type addDiscountRequest struct {
	Percent  int        `json:"percent" validate:"min=0,max=100"`
	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
}

// AddListingDiscount attaches a time-windowed percentage discount.
func AddListingDiscount(svc listingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		id, err := validators.ParsePathID(chi.URLParam(r, "listingId"), "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount, err := svc.AddDiscount(r.Context(), listingsvc.AddDiscountInput{
			ProductID: id,
			Percent:   payload.Percent,
			StartsAt:  payload.StartsAt,
			EndsAt:    payload.EndsAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, discount)
	}
}
