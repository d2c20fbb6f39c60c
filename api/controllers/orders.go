package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tastebite/tastebite-backend/api/responses"
	"github.com/tastebite/tastebite-backend/api/validators"
	"github.com/tastebite/tastebite-backend/internal/checkout"
	"github.com/tastebite/tastebite-backend/pkg/db/models"
	pkgerrors "github.com/tastebite/tastebite-backend/pkg/errors"
	"github.com/tastebite/tastebite-backend/pkg/logger"
	"github.com/tastebite/tastebite-backend/pkg/pagination"
)

// CheckoutService turns a cart and schedule into draft orders.
type CheckoutService interface {
	Checkout(ctx context.Context, userID uuid.UUID, schedule checkout.Schedule) ([]models.Order, error)
}

// OrderService covers the order lifecycle surface.
type OrderService interface {
	Confirm(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	RebuildCart(ctx context.Context, userID, orderID uuid.UUID) (int, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	LatestDraft(ctx context.Context, userID uuid.UUID) (*models.Order, error)
}

type checkoutPayload struct {
	Schedule   map[string]string `json:"schedule"`
	ApplyToAll string            `json:"apply_to_all,omitempty"`
}

func (p checkoutPayload) toSchedule() (checkout.Schedule, error) {
	schedule := checkout.Schedule{}
	if len(p.Schedule) > 0 {
		schedule.PerCategory = make(map[string]time.Time, len(p.Schedule))
		for key, raw := range p.Schedule {
			at, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return checkout.Schedule{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err,
					"invalid delivery time for category "+key)
			}
			schedule.PerCategory[key] = at
		}
	}
	if p.ApplyToAll != "" {
		at, err := time.Parse(time.RFC3339, p.ApplyToAll)
		if err != nil {
			return checkout.Schedule{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid apply_to_all time")
		}
		schedule.ApplyToAll = &at
	}
	return schedule, nil
}

// OrdersCheckout snapshots the cart into draft orders, one per category.
func OrdersCheckout(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := sessionUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload checkoutPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		schedule, err := payload.toSchedule()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		orders, err := svc.Checkout(ctx, userID, schedule)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		ids := make([]uuid.UUID, 0, len(orders))
		for _, order := range orders {
			ids = append(ids, order.ID)
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"order_ids": ids,
			"orders":    newOrderViews(orders),
		})
	}
}

// OrdersList returns one page of the user's orders, newest first.
func OrdersList(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := sessionUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		params := pagination.Params{Cursor: strings.TrimSpace(r.URL.Query().Get("cursor"))}
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			value, err := strconv.Atoi(raw)
			if err != nil || value <= 0 {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer"))
				return
			}
			params.Limit = value
		}

		orders, next, err := svc.List(ctx, userID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		payload := map[string]any{"orders": newOrderViews(orders)}
		if next != "" {
			payload["next_cursor"] = next
		}
		responses.WriteSuccess(w, payload)
	}
}

// OrdersGet returns one order, ownership-scoped.
func OrdersGet(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := sessionUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.Get(ctx, userID, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(*order))
	}
}

// OrdersConfirm flips a draft order to confirmed.
func OrdersConfirm(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := sessionUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.Confirm(ctx, userID, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(*order))
	}
}

// OrdersRebuildCart replaces the cart with an old order's items at current
// prices.
func OrdersRebuildCart(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := sessionUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rebuilt, err := svc.RebuildCart(ctx, userID, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"rebuilt": rebuilt})
	}
}

// OrdersLatestDraft returns the most recent draft order.
func OrdersLatestDraft(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := sessionUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.LatestDraft(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(*order))
	}
}
