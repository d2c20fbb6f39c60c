package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/tastebite/tastebite-backend/api/responses"
	"github.com/tastebite/tastebite-backend/api/validators"
	"github.com/tastebite/tastebite-backend/internal/cart"
	"github.com/tastebite/tastebite-backend/pkg/db/models"
	pkgerrors "github.com/tastebite/tastebite-backend/pkg/errors"
	"github.com/tastebite/tastebite-backend/pkg/logger"
)

// CartService is the slice of the cart store the handlers consume.
type CartService interface {
	Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*cart.Mutation, error)
	SetQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*cart.Mutation, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	Summarize(ctx context.Context, userID uuid.UUID) (*cart.Summary, error)
}

type cartAddPayload struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type cartQuantityPayload struct {
	Quantity *int `json:"quantity" validate:"required,min=0"`
}

type cartMutationView struct {
	Item    cartLineView `json:"item"`
	Capped  bool         `json:"capped"`
	Removed bool         `json:"removed,omitempty"`
}

// CartList returns the session user's cart lines.
func CartList(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := sessionUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		items, err := svc.List(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartLineViews(items))
	}
}

// CartAdd upserts a line; the response reports the effective quantity so a
// stock cap is never silent.
func CartAdd(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := sessionUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload cartAddPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		productID, err := uuid.Parse(payload.ProductID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id"))
			return
		}

		mutation, err := svc.Add(ctx, userID, productID, payload.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, cartMutationView{
			Item:   newCartLineView(mutation.Item),
			Capped: mutation.Capped,
		})
	}
}

// CartSetQuantity overwrites a line's quantity; zero deletes the line.
func CartSetQuantity(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := sessionUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		itemID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload cartQuantityPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		mutation, err := svc.SetQuantity(ctx, userID, itemID, *payload.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartMutationView{
			Item:    newCartLineView(mutation.Item),
			Capped:  mutation.Capped,
			Removed: mutation.Removed,
		})
	}
}

// CartRemove deletes a line; removing an absent line still succeeds.
func CartRemove(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := sessionUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		itemID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Remove(ctx, userID, itemID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"removed": true})
	}
}

// CartClear empties the cart.
func CartClear(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := sessionUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Clear(ctx, userID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"cleared": true})
	}
}

type cartSummaryView struct {
	Items         []cartLineView `json:"items"`
	TotalNet      string         `json:"total_net"`
	TotalTax      string         `json:"total_tax"`
	TotalGross    string         `json:"total_gross"`
	TotalQuantity int            `json:"total_quantity"`
	TotalCalories int            `json:"total_calories"`
}

// CartSummary aggregates the cart for display.
func CartSummary(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := sessionUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		summary, err := svc.Summarize(ctx, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, cartSummaryView{
			Items:         newCartLineViews(summary.Items),
			TotalNet:      summary.TotalNet.StringFixed(2),
			TotalTax:      summary.TotalTax.StringFixed(2),
			TotalGross:    summary.TotalGross.StringFixed(2),
			TotalQuantity: summary.TotalQuantity,
			TotalCalories: summary.TotalCalories,
		})
	}
}
