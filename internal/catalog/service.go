package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tastebite/tastebite-backend/internal/notifications"
	"github.com/tastebite/tastebite-backend/pkg/db/models"
	pkgerrors "github.com/tastebite/tastebite-backend/pkg/errors"
	"github.com/tastebite/tastebite-backend/pkg/metrics"
)

// LowStockThreshold is the stock level at or below which admins are alerted
// and price adjustments become allowed.
const LowStockThreshold = 10

type txRunner interface {
	WithTxRetry(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the stock guard: the only writer of product stock and the owner
// of the recipe visibility cascade that follows from it.
type Service struct {
	repo    *Repository
	tx      txRunner
	sink    notifications.Sink
	metrics *metrics.Registry
}

// NewService wires the stock guard. sink and reg may be nil.
func NewService(repo *Repository, tx txRunner, sink notifications.Sink, reg *metrics.Registry) (*Service, error) {
	if repo == nil {
		return nil, errors.New("catalog: repository is required")
	}
	if tx == nil {
		return nil, errors.New("catalog: transaction runner is required")
	}
	if sink == nil {
		sink = notifications.NopSink{}
	}
	return &Service{repo: repo, tx: tx, sink: sink, metrics: reg}, nil
}

// StockUpdate reports the outcome of a stock write.
type StockUpdate struct {
	Product      models.Product
	Recipe       models.Recipe
	RecipeHidden bool
	LowStock     bool
}

// SetStock writes the absolute stock value for a product and runs the
// visibility cascade in the same transaction: stock hitting zero hides the
// linked recipe, stock returning above zero restores it. Crossing the
// low-stock threshold downward raises an admin notification after commit.
func (s *Service) SetStock(ctx context.Context, productID uuid.UUID, stock int) (*StockUpdate, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
	}

	var result StockUpdate
	err := s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.FindProductForUpdate(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if product.RecipeID == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "product has no linked recipe")
		}

		recipe, err := repo.FindRecipe(ctx, *product.RecipeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "linked recipe missing")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load recipe")
		}

		previous := product.Stock
		if err := repo.UpdateStock(ctx, product.ID, stock); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write stock")
		}
		product.Stock = stock

		// Cascade is idempotent: an already-hidden recipe keeps its
		// original deleted_at on repeated zero writes.
		switch {
		case stock == 0 && recipe.DeletedAt == nil:
			now := time.Now().UTC()
			if err := repo.SetRecipeDeletedAt(ctx, recipe.ID, &now); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "hide recipe")
			}
			recipe.DeletedAt = &now
		case stock > 0 && recipe.DeletedAt != nil:
			if err := repo.SetRecipeDeletedAt(ctx, recipe.ID, nil); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore recipe")
			}
			recipe.DeletedAt = nil
		}

		result = StockUpdate{
			Product:      *product,
			Recipe:       *recipe,
			RecipeHidden: recipe.DeletedAt != nil,
			LowStock:     previous > LowStockThreshold && stock <= LowStockThreshold,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.StockUpdates.Inc()
		if result.LowStock {
			s.metrics.LowStockCrossings.Inc()
		}
	}
	if result.LowStock {
		s.sink.LowStock(ctx, notifications.LowStockEvent{
			ProductID: result.Product.ID,
			RecipeID:  result.Product.RecipeID,
			Stock:     result.Product.Stock,
		})
	}

	return &result, nil
}

// AdjustPrice multiplies the product's net price by factor, rounded to two
// decimals. The adjustment is only allowed while stock sits at or below the
// low-stock threshold; above that the listed price is considered settled.
func (s *Service) AdjustPrice(ctx context.Context, productID uuid.UUID, factor decimal.Decimal) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if !factor.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "factor must be positive")
	}

	var updated models.Product
	err := s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.FindProductForUpdate(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if product.Stock > LowStockThreshold {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "price adjustment requires low stock")
		}

		price := product.Price.Mul(factor).Round(2)
		if err := repo.UpdatePrice(ctx, product.ID, price); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write price")
		}
		product.Price = price
		updated = *product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ListVisibleRecipes returns the publicly listed recipes.
func (s *Service) ListVisibleRecipes(ctx context.Context) ([]models.Recipe, error) {
	recipes, err := s.repo.ListVisibleRecipes(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recipes")
	}
	return recipes, nil
}
