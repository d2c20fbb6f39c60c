package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tastebite/tastebite-backend/internal/pricing"
	"github.com/tastebite/tastebite-backend/pkg/db/models"
	pkgerrors "github.com/tastebite/tastebite-backend/pkg/errors"
	"github.com/tastebite/tastebite-backend/pkg/metrics"
)

type txRunner interface {
	WithTxRetry(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns cart lines. Every mutation runs under the product row lock so
// the summed quantities across all carts never exceed the product's stock,
// and re-derives the pricing snapshot so a line never carries a gross price
// inconsistent with its own net and rate.
type Service struct {
	repo    *Repository
	tx      txRunner
	pricing *pricing.Engine
	metrics *metrics.Registry
}

// NewService wires the cart store. reg may be nil.
func NewService(repo *Repository, tx txRunner, engine *pricing.Engine, reg *metrics.Registry) (*Service, error) {
	if repo == nil {
		return nil, errors.New("cart: repository is required")
	}
	if tx == nil {
		return nil, errors.New("cart: transaction runner is required")
	}
	if engine == nil {
		return nil, errors.New("cart: pricing engine is required")
	}
	return &Service{repo: repo, tx: tx, pricing: engine, metrics: reg}, nil
}

// Mutation reports the effective state of a line after a cart write. Capped
// is set when the requested quantity exceeded what stock allows and the line
// was clamped; Removed when the write deleted the line.
type Mutation struct {
	Item    models.CartItem
	Capped  bool
	Removed bool
}

// Summary aggregates the cart for display.
type Summary struct {
	Items         []models.CartItem
	TotalNet      decimal.Decimal
	TotalTax      decimal.Decimal
	TotalGross    decimal.Decimal
	TotalQuantity int
	TotalCalories int
}

// Add upserts a line for (user, product). The requested quantity is added to
// any existing line and the result is capped at the stock not already held in
// other users' carts. A cap to zero fails with an out-of-stock error.
func (s *Service) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (*Mutation, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	var result Mutation
	err := s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		product, err := repo.FindProductForUpdate(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		reserved, err := repo.SumReservedByOthers(ctx, product.ID, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum reserved stock")
		}
		available := product.Stock - reserved

		existing := 0
		line, err := repo.FindLine(ctx, userID, product.ID)
		switch {
		case err == nil:
			existing = line.Quantity
		case errors.Is(err, gorm.ErrRecordNotFound):
			line = &models.CartItem{ID: uuid.New(), UserID: userID, ProductID: product.ID}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}

		desired := existing + quantity
		effective := desired
		if effective > available {
			effective = available
		}
		if effective < existing {
			// Another cart consumed stock since this line was written;
			// an add never shrinks the line.
			effective = existing
		}
		if effective < 1 {
			return pkgerrors.New(pkgerrors.CodeOutOfStock, "product is out of stock")
		}

		breakdown, err := s.pricing.Quote(product.Price, nil)
		if err != nil {
			return err
		}

		line.Quantity = effective
		line.UnitPriceNet = product.Price
		line.TaxRate = breakdown.Rate
		line.TaxAmount = breakdown.Tax
		line.UnitPriceGross = breakdown.Gross
		if err := repo.SaveLine(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart line")
		}

		result = Mutation{Item: *line, Capped: effective < desired}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.count("add")
	return &result, nil
}

// SetQuantity overwrites a line's quantity. Zero deletes the line; a positive
// quantity is capped at available stock and the pricing snapshot is refreshed
// from the current product price, so price changes propagate into open carts.
func (s *Service) SetQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*Mutation, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}

	var result Mutation
	err := s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		line, err := repo.FindLineByID(ctx, userID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
		}

		if quantity == 0 {
			if _, err := repo.DeleteLineByID(ctx, userID, itemID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
			}
			line.Quantity = 0
			result = Mutation{Item: *line, Removed: true}
			return nil
		}

		product, err := repo.FindProductForUpdate(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		reserved, err := repo.SumReservedByOthers(ctx, product.ID, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum reserved stock")
		}
		available := product.Stock - reserved
		if available < 1 {
			return pkgerrors.New(pkgerrors.CodeOutOfStock, "product is out of stock")
		}

		effective := quantity
		if effective > available {
			effective = available
		}

		breakdown, err := s.pricing.Quote(product.Price, nil)
		if err != nil {
			return err
		}

		line.Quantity = effective
		line.UnitPriceNet = product.Price
		line.TaxRate = breakdown.Rate
		line.TaxAmount = breakdown.Tax
		line.UnitPriceGross = breakdown.Gross
		if err := repo.SaveLine(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart line")
		}

		result = Mutation{Item: *line, Capped: effective < quantity}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.count("set_quantity")
	return &result, nil
}

// Remove deletes a line; a miss is a no-op.
func (s *Service) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if _, err := s.repo.DeleteLineByID(ctx, userID, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
	}
	s.count("remove")
	return nil
}

// Clear empties the user's cart; an already-empty cart is a no-op.
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := s.repo.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	s.count("clear")
	return nil
}

// List returns the cart lines with product and recipe attached.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	items, err := s.repo.ListLines(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart")
	}
	return items, nil
}

// Summarize aggregates the cart from the stored line snapshots.
func (s *Service) Summarize(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	items, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := Summary{
		Items:      items,
		TotalNet:   decimal.Zero,
		TotalTax:   decimal.Zero,
		TotalGross: decimal.Zero,
	}
	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		summary.TotalNet = summary.TotalNet.Add(item.UnitPriceNet.Mul(qty))
		summary.TotalTax = summary.TotalTax.Add(item.TaxAmount.Mul(qty))
		summary.TotalGross = summary.TotalGross.Add(item.LineTotal())
		summary.TotalQuantity += item.Quantity
		if item.Product != nil && item.Product.Recipe != nil {
			summary.TotalCalories += item.Product.Recipe.Calories * item.Quantity
		}
	}
	return &summary, nil
}

func (s *Service) count(op string) {
	if s.metrics == nil {
		return
	}
	s.metrics.CartMutations.WithLabelValues(op).Inc()
}
