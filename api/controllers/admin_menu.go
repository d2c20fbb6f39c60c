package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tastebite/tastebite-backend/api/responses"
	"github.com/tastebite/tastebite-backend/api/validators"
	"github.com/tastebite/tastebite-backend/internal/catalog"
	"github.com/tastebite/tastebite-backend/pkg/db/models"
	pkgerrors "github.com/tastebite/tastebite-backend/pkg/errors"
	"github.com/tastebite/tastebite-backend/pkg/logger"
)

// CatalogService is the stock guard surface the admin handlers consume.
type CatalogService interface {
	SetStock(ctx context.Context, productID uuid.UUID, stock int) (*catalog.StockUpdate, error)
	AdjustPrice(ctx context.Context, productID uuid.UUID, factor decimal.Decimal) (*models.Product, error)
	ListVisibleRecipes(ctx context.Context) ([]models.Recipe, error)
}

type setStockPayload struct {
	Stock *int `json:"stock" validate:"required,min=0"`
}

type adjustPricePayload struct {
	// Exactly one of factor and percent must be set: factor multiplies the
	// price directly, percent is a relative change (-10 cuts 10%). mode is
	// optional and, when present, must name the field that was sent.
	Mode    string   `json:"mode,omitempty" validate:"omitempty,oneof=factor percent"`
	Factor  *float64 `json:"factor,omitempty"`
	Percent *float64 `json:"percent,omitempty"`
}

func (p adjustPricePayload) toFactor() (decimal.Decimal, error) {
	switch {
	case p.Mode == "factor" && p.Factor == nil:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "factor is required when mode is factor")
	case p.Mode == "percent" && p.Percent == nil:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "percent is required when mode is percent")
	}

	switch {
	case p.Factor != nil && p.Percent != nil:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "provide either factor or percent, not both")
	case p.Factor != nil:
		return decimal.NewFromFloat(*p.Factor), nil
	case p.Percent != nil:
		return decimal.NewFromFloat(*p.Percent).
			Div(decimal.NewFromInt(100)).
			Add(decimal.NewFromInt(1)), nil
	default:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "factor or percent is required")
	}
}

// AdminSetStock writes an absolute stock value and reports the cascade
// outcome.
func AdminSetStock(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		productID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload setStockPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		update, err := svc.SetStock(ctx, productID, *payload.Stock)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"product_id":     update.Product.ID,
			"stock":          update.Product.Stock,
			"recipe_deleted": update.RecipeHidden,
			"notify_admin":   update.LowStock,
		})
	}
}

// AdminAdjustPrice rescales a product's net price while stock is low.
func AdminAdjustPrice(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		productID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload adjustPricePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		factor, err := payload.toFactor()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		product, err := svc.AdjustPrice(ctx, productID, factor)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"product_id": product.ID,
			"price":      product.Price.StringFixed(2),
		})
	}
}

// MenuList returns the publicly visible recipes.
func MenuList(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		recipes, err := svc.ListVisibleRecipes(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newRecipeViews(recipes))
	}
}
