package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tastebite/tastebite-backend/internal/catalog"
	"github.com/tastebite/tastebite-backend/pkg/db/models"
	pkgerrors "github.com/tastebite/tastebite-backend/pkg/errors"
)

type catalogServiceStub struct {
	setStockFn    func(ctx context.Context, productID uuid.UUID, stock int) (*catalog.StockUpdate, error)
	adjustPriceFn func(ctx context.Context, productID uuid.UUID, factor decimal.Decimal) (*models.Product, error)
	listFn        func(ctx context.Context) ([]models.Recipe, error)
}

func (s *catalogServiceStub) SetStock(ctx context.Context, productID uuid.UUID, stock int) (*catalog.StockUpdate, error) {
	return s.setStockFn(ctx, productID, stock)
}

func (s *catalogServiceStub) AdjustPrice(ctx context.Context, productID uuid.UUID, factor decimal.Decimal) (*models.Product, error) {
	return s.adjustPriceFn(ctx, productID, factor)
}

func (s *catalogServiceStub) ListVisibleRecipes(ctx context.Context) ([]models.Recipe, error) {
	return s.listFn(ctx)
}

func TestAdminSetStockReportsCascade(t *testing.T) {
	productID := uuid.New()
	svc := &catalogServiceStub{
		setStockFn: func(_ context.Context, gotProduct uuid.UUID, stock int) (*catalog.StockUpdate, error) {
			if gotProduct != productID || stock != 0 {
				t.Fatalf("unexpected call: product=%s stock=%d", gotProduct, stock)
			}
			return &catalog.StockUpdate{
				Product:      models.Product{ID: productID, Stock: 0},
				RecipeHidden: true,
				LowStock:     true,
			}, nil
		},
	}

	router := chi.NewRouter()
	router.Patch("/api/admin/menu/{id}/stock", AdminSetStock(svc, nil))

	req := authedRequest(http.MethodPatch, "/api/admin/menu/"+productID.String()+"/stock", `{"stock":0}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data struct {
			Stock         int  `json:"stock"`
			RecipeDeleted bool `json:"recipe_deleted"`
			NotifyAdmin   bool `json:"notify_admin"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !envelope.Data.RecipeDeleted || !envelope.Data.NotifyAdmin || envelope.Data.Stock != 0 {
		t.Fatalf("cascade flags not surfaced: %+v", envelope.Data)
	}
}

func TestAdminSetStockRejectsNegative(t *testing.T) {
	svc := &catalogServiceStub{
		setStockFn: func(context.Context, uuid.UUID, int) (*catalog.StockUpdate, error) {
			t.Fatal("service must not be called on invalid payload")
			return nil, nil
		},
	}

	router := chi.NewRouter()
	router.Patch("/api/admin/menu/{id}/stock", AdminSetStock(svc, nil))

	for _, body := range []string{`{"stock":-1}`, `{}`} {
		req := authedRequest(http.MethodPatch, "/api/admin/menu/"+uuid.NewString()+"/stock", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, rec.Code)
		}
	}
}

func TestAdminAdjustPricePercentMode(t *testing.T) {
	productID := uuid.New()
	svc := &catalogServiceStub{
		adjustPriceFn: func(_ context.Context, _ uuid.UUID, factor decimal.Decimal) (*models.Product, error) {
			if !factor.Equal(decimal.NewFromFloat(0.9)) {
				t.Fatalf("percent -10 should map to factor 0.9, got %s", factor)
			}
			return &models.Product{ID: productID, Price: decimal.NewFromInt(9)}, nil
		},
	}

	router := chi.NewRouter()
	router.Patch("/api/admin/menu/{id}/price", AdminAdjustPrice(svc, nil))

	req := authedRequest(http.MethodPatch, "/api/admin/menu/"+productID.String()+"/price", `{"percent":-10}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data struct {
			Price string `json:"price"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if envelope.Data.Price != "9.00" {
		t.Fatalf("expected price 9.00, got %q", envelope.Data.Price)
	}
}

func TestAdminAdjustPriceExplicitMode(t *testing.T) {
	productID := uuid.New()
	svc := &catalogServiceStub{
		adjustPriceFn: func(_ context.Context, _ uuid.UUID, factor decimal.Decimal) (*models.Product, error) {
			if !factor.Equal(decimal.NewFromFloat(0.5)) {
				t.Fatalf("expected factor 0.5, got %s", factor)
			}
			return &models.Product{ID: productID, Price: decimal.NewFromInt(5)}, nil
		},
	}

	router := chi.NewRouter()
	router.Patch("/api/admin/menu/{id}/price", AdminAdjustPrice(svc, nil))

	req := authedRequest(http.MethodPatch, "/api/admin/menu/"+productID.String()+"/price", `{"mode":"factor","factor":0.5}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminAdjustPriceModeMismatch(t *testing.T) {
	svc := &catalogServiceStub{
		adjustPriceFn: func(context.Context, uuid.UUID, decimal.Decimal) (*models.Product, error) {
			t.Fatal("service must not be called on mismatched mode")
			return nil, nil
		},
	}

	router := chi.NewRouter()
	router.Patch("/api/admin/menu/{id}/price", AdminAdjustPrice(svc, nil))

	cases := []string{
		`{"mode":"factor","percent":-10}`,
		`{"mode":"percent","factor":0.9}`,
		`{"mode":"half_off","factor":0.5}`,
	}
	for _, body := range cases {
		req := authedRequest(http.MethodPatch, "/api/admin/menu/"+uuid.NewString()+"/price", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, rec.Code)
		}
	}
}

func TestAdminAdjustPriceRejectsAmbiguousPayload(t *testing.T) {
	svc := &catalogServiceStub{
		adjustPriceFn: func(context.Context, uuid.UUID, decimal.Decimal) (*models.Product, error) {
			t.Fatal("service must not be called on invalid payload")
			return nil, nil
		},
	}

	router := chi.NewRouter()
	router.Patch("/api/admin/menu/{id}/price", AdminAdjustPrice(svc, nil))

	for _, body := range []string{`{"factor":0.9,"percent":-10}`, `{}`} {
		req := authedRequest(http.MethodPatch, "/api/admin/menu/"+uuid.NewString()+"/price", body)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, rec.Code)
		}
	}
}

func TestAdminAdjustPriceStateConflict(t *testing.T) {
	svc := &catalogServiceStub{
		adjustPriceFn: func(context.Context, uuid.UUID, decimal.Decimal) (*models.Product, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "price adjustment requires low stock")
		},
	}

	router := chi.NewRouter()
	router.Patch("/api/admin/menu/{id}/price", AdminAdjustPrice(svc, nil))

	req := authedRequest(http.MethodPatch, "/api/admin/menu/"+uuid.NewString()+"/price", `{"factor":0.5}`)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestMenuListHidesNothingExtra(t *testing.T) {
	svc := &catalogServiceStub{
		listFn: func(context.Context) ([]models.Recipe, error) {
			return []models.Recipe{
				{ID: uuid.New(), Name: "Lentil Soup", Calories: 300},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/menu", nil)
	rec := httptest.NewRecorder()
	MenuList(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envelope struct {
		Data []recipeView `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].Name != "Lentil Soup" {
		t.Fatalf("unexpected menu payload: %+v", envelope.Data)
	}
}
