package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tastebite/tastebite-backend/internal/checkout"
	"github.com/tastebite/tastebite-backend/pkg/db/models"
	"github.com/tastebite/tastebite-backend/pkg/enums"
	pkgerrors "github.com/tastebite/tastebite-backend/pkg/errors"
	"github.com/tastebite/tastebite-backend/pkg/pagination"
)

type checkoutServiceStub struct {
	checkoutFn func(ctx context.Context, userID uuid.UUID, schedule checkout.Schedule) ([]models.Order, error)
}

func (s *checkoutServiceStub) Checkout(ctx context.Context, userID uuid.UUID, schedule checkout.Schedule) ([]models.Order, error) {
	return s.checkoutFn(ctx, userID, schedule)
}

type orderServiceStub struct {
	confirmFn func(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	rebuildFn func(ctx context.Context, userID, orderID uuid.UUID) (int, error)
	listFn    func(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
}

func (s *orderServiceStub) Confirm(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	return s.confirmFn(ctx, userID, orderID)
}

func (s *orderServiceStub) RebuildCart(ctx context.Context, userID, orderID uuid.UUID) (int, error) {
	return s.rebuildFn(ctx, userID, orderID)
}

func (s *orderServiceStub) List(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	return s.listFn(ctx, userID, params)
}

func (s *orderServiceStub) Get(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *orderServiceStub) LatestDraft(context.Context, uuid.UUID) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no draft order")
}

func TestOrdersCheckoutParsesSchedule(t *testing.T) {
	delivery := time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)
	orderID := uuid.New()
	svc := &checkoutServiceStub{
		checkoutFn: func(_ context.Context, _ uuid.UUID, schedule checkout.Schedule) ([]models.Order, error) {
			got, ok := schedule.PerCategory["soups"]
			if !ok || !got.Equal(delivery) {
				t.Fatalf("schedule not parsed: %+v", schedule)
			}
			return []models.Order{{
				ID:         orderID,
				Status:     enums.OrderStatusDraft,
				TotalPrice: decimal.NewFromInt(236),
				DeliveryAt: delivery,
			}}, nil
		},
	}

	body := `{"schedule":{"soups":"2026-03-12T09:00:00Z"}}`
	req := authedRequest(http.MethodPost, "/api/orders/checkout", body)
	rec := httptest.NewRecorder()
	OrdersCheckout(svc, nil)(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data struct {
			OrderIDs []uuid.UUID `json:"order_ids"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(envelope.Data.OrderIDs) != 1 || envelope.Data.OrderIDs[0] != orderID {
		t.Fatalf("unexpected order ids: %v", envelope.Data.OrderIDs)
	}
}

func TestOrdersCheckoutRejectsBadTimestamp(t *testing.T) {
	svc := &checkoutServiceStub{
		checkoutFn: func(context.Context, uuid.UUID, checkout.Schedule) ([]models.Order, error) {
			t.Fatal("service must not be called on invalid schedule")
			return nil, nil
		},
	}

	body := `{"schedule":{"soups":"tomorrow at nine"}}`
	req := authedRequest(http.MethodPost, "/api/orders/checkout", body)
	rec := httptest.NewRecorder()
	OrdersCheckout(svc, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestOrdersCheckoutScheduleErrorNamesCategory(t *testing.T) {
	svc := &checkoutServiceStub{
		checkoutFn: func(context.Context, uuid.UUID, checkout.Schedule) ([]models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "no delivery time for category desserts")
		},
	}

	req := authedRequest(http.MethodPost, "/api/orders/checkout", `{}`)
	rec := httptest.NewRecorder()
	OrdersCheckout(svc, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if envelope.Error.Message != "no delivery time for category desserts" {
		t.Fatalf("category missing from message: %q", envelope.Error.Message)
	}
}

func TestOrdersListPassesPaginationParams(t *testing.T) {
	svc := &orderServiceStub{
		listFn: func(_ context.Context, _ uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
			if params.Limit != 2 || params.Cursor != "abc" {
				t.Fatalf("params not forwarded: %+v", params)
			}
			return []models.Order{{ID: uuid.New(), Status: enums.OrderStatusConfirmed}}, "next-token", nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/orders?limit=2&cursor=abc", "")
	rec := httptest.NewRecorder()
	OrdersList(svc, nil)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data struct {
			NextCursor string `json:"next_cursor"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if envelope.Data.NextCursor != "next-token" {
		t.Fatalf("cursor not surfaced: %q", envelope.Data.NextCursor)
	}
}

func TestOrdersListRejectsBadLimit(t *testing.T) {
	svc := &orderServiceStub{
		listFn: func(context.Context, uuid.UUID, pagination.Params) ([]models.Order, string, error) {
			t.Fatal("service must not be called on invalid limit")
			return nil, "", nil
		},
	}

	req := authedRequest(http.MethodGet, "/api/orders?limit=zero", "")
	rec := httptest.NewRecorder()
	OrdersList(svc, nil)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestOrdersConfirmNotFound(t *testing.T) {
	svc := &orderServiceStub{
		confirmFn: func(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "draft order not found")
		},
	}

	router := chi.NewRouter()
	router.Post("/api/orders/{id}/confirm", OrdersConfirm(svc, nil))

	req := authedRequest(http.MethodPost, "/api/orders/"+uuid.NewString()+"/confirm", "")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestOrdersRebuildCartReportsCount(t *testing.T) {
	orderID := uuid.New()
	svc := &orderServiceStub{
		rebuildFn: func(_ context.Context, _ uuid.UUID, gotOrder uuid.UUID) (int, error) {
			if gotOrder != orderID {
				t.Fatalf("unexpected order id %s", gotOrder)
			}
			return 3, nil
		},
	}

	router := chi.NewRouter()
	router.Post("/api/orders/{id}/rebuild_cart", OrdersRebuildCart(svc, nil))

	req := authedRequest(http.MethodPost, "/api/orders/"+orderID.String()+"/rebuild_cart", "")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data struct {
			Rebuilt int `json:"rebuilt"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if envelope.Data.Rebuilt != 3 {
		t.Fatalf("expected 3 rebuilt lines, got %d", envelope.Data.Rebuilt)
	}
}

func TestOrdersGetRejectsMalformedID(t *testing.T) {
	svc := &orderServiceStub{}

	router := chi.NewRouter()
	router.Get("/api/orders/{id}", OrdersGet(svc, nil))

	req := authedRequest(http.MethodGet, "/api/orders/not-a-uuid", "")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
