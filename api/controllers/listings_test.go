package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	listingsvc "github.com/gethsun1/solmarket-backend/internal/listings"
	"github.com/gethsun1/solmarket-backend/pkg/db/models"
	pkgerrors "github.com/gethsun1/solmarket-backend/pkg/errors"
	"github.com/gethsun1/solmarket-backend/pkg/types"
)

type stubListings struct {
	created *listingsvc.CreateProductInput
	detail  *listingsvc.ProductDetail
	err     error
}

func (s *stubListings) CreateProduct(ctx context.Context, input listingsvc.CreateProductInput) (*models.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = &input
	return &models.Product{ID: 10, Name: input.Name, PriceLamports: input.PriceLamports}, nil
}

func (s *stubListings) GetProduct(ctx context.Context, id int64) (*listingsvc.ProductDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.detail, nil
}

func (s *stubListings) ListProducts(ctx context.Context, filter listingsvc.ListFilter) ([]models.Product, error) {
	return nil, s.err
}

func (s *stubListings) AddDiscount(ctx context.Context, input listingsvc.AddDiscountInput) (*models.Discount, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Discount{ID: 1, ProductID: input.ProductID, Percent: input.Percent}, nil
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestCreateListingRejectsMissingFields(t *testing.T) {
	svc := &stubListings{}
	handler := CreateListing(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", strings.NewReader(`{"name":"Sticker Pack"}`))
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
	}
	if svc.created != nil {
		t.Fatal("service must not be called on validation failure")
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
}

func TestCreateListingPassesSanitizedInput(t *testing.T) {
	svc := &stubListings{}
	handler := CreateListing(svc, nil)

	payload := `{"merchant_id":3,"name":"  Sticker Pack  ","price_lamports":5000}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings", strings.NewReader(payload))
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	if svc.created == nil {
		t.Fatal("expected service call")
	}
	if svc.created.Name != "Sticker Pack" {
		t.Fatalf("expected trimmed name, got %q", svc.created.Name)
	}
	if svc.created.PriceLamports != 5000 {
		t.Fatalf("unexpected price %d", svc.created.PriceLamports)
	}
}

func TestGetListingRejectsBadID(t *testing.T) {
	handler := GetListing(&stubListings{}, nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/listings/abc", nil), "listingId", "abc")
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetListingMapsNotFound(t *testing.T) {
	svc := &stubListings{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	handler := GetListing(svc, nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/listings/99", nil), "listingId", "99")
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetListingReturnsEffectivePrice(t *testing.T) {
	svc := &stubListings{detail: &listingsvc.ProductDetail{
		Product:          models.Product{ID: 5, Name: "Poster", PriceLamports: 1000},
		EffectivePercent: 10,
		EffectivePrice:   900,
	}}
	handler := GetListing(svc, nil)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/listings/5", nil), "listingId", "5")
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var envelope struct {
		Data struct {
			EffectivePrice int64 `json:"effective_price_lamports"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.EffectivePrice != 900 {
		t.Fatalf("expected discounted price 900, got %d", envelope.Data.EffectivePrice)
	}
}

func TestAddListingDiscountRejectsOutOfRangePercent(t *testing.T) {
	handler := AddListingDiscount(&stubListings{}, nil)

	req := withURLParam(
		httptest.NewRequest(http.MethodPost, "/api/v1/listings/5/discounts", strings.NewReader(`{"percent":150}`)),
		"listingId", "5",
	)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
	}
}
