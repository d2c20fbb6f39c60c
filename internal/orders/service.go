package orders

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tastebite/tastebite-backend/internal/identity"
	"github.com/tastebite/tastebite-backend/internal/notifications"
	"github.com/tastebite/tastebite-backend/internal/pricing"
	"github.com/tastebite/tastebite-backend/pkg/db/models"
	pkgerrors "github.com/tastebite/tastebite-backend/pkg/errors"
	"github.com/tastebite/tastebite-backend/pkg/metrics"
	"github.com/tastebite/tastebite-backend/pkg/pagination"
)

type txRunner interface {
	WithTxRetry(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the draft -> confirmed lifecycle and the cart-rebuild recovery
// path. Every read and write is scoped to the requesting user's customer
// record; orders that exist but belong to someone else surface as not found.
type Service struct {
	repo     *Repository
	tx       txRunner
	identity identity.Resolver
	pricing  *pricing.Engine
	sink     notifications.Sink
	metrics  *metrics.Registry
}

// NewService wires the order lifecycle. sink and reg may be nil.
func NewService(repo *Repository, tx txRunner, resolver identity.Resolver, engine *pricing.Engine, sink notifications.Sink, reg *metrics.Registry) (*Service, error) {
	if repo == nil {
		return nil, errors.New("orders: repository is required")
	}
	if tx == nil {
		return nil, errors.New("orders: transaction runner is required")
	}
	if resolver == nil {
		return nil, errors.New("orders: identity resolver is required")
	}
	if engine == nil {
		return nil, errors.New("orders: pricing engine is required")
	}
	if sink == nil {
		sink = notifications.NopSink{}
	}
	return &Service{repo: repo, tx: tx, identity: resolver, pricing: engine, sink: sink, metrics: reg}, nil
}

// Confirm flips a draft order to confirmed. Confirming an order the user does
// not own, or one already confirmed, fails with not found and changes nothing.
func (s *Service) Confirm(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	customer, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	var confirmed *models.Order
	err = s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		flipped, err := repo.ConfirmDraft(ctx, customer.ID, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
		}
		if !flipped {
			return pkgerrors.New(pkgerrors.CodeNotFound, "draft order not found")
		}

		confirmed, err = repo.FindOrder(ctx, customer.ID, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.OrdersConfirmed.Inc()
	}
	s.sink.OrderConfirmed(ctx, notifications.OrderConfirmedEvent{
		OrderID:    confirmed.ID,
		CustomerID: confirmed.CustomerID,
	})
	return confirmed, nil
}

// RebuildCart replaces the user's cart with the given order's items, priced
// at the current product price rather than the historical order price. An
// order with no items leaves the cart untouched. Returns the number of lines
// recreated; items whose product has since disappeared or sold out are
// skipped.
func (s *Service) RebuildCart(ctx context.Context, userID, orderID uuid.UUID) (int, error) {
	customer, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return 0, err
	}

	rebuilt := 0
	err = s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		rebuilt = 0
		repo := s.repo.WithTx(tx)

		order, err := repo.FindOrder(ctx, customer.ID, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if len(order.Items) == 0 {
			return nil
		}

		if err := repo.ClearCart(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		for _, item := range order.Items {
			product, err := repo.FindProductForUpdate(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}

			reserved, err := repo.SumReservedByOthers(ctx, product.ID, userID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum reserved stock")
			}
			quantity := item.Quantity
			if available := product.Stock - reserved; quantity > available {
				quantity = available
			}
			if quantity < 1 {
				continue
			}

			breakdown, err := s.pricing.Quote(product.Price, nil)
			if err != nil {
				return err
			}
			line := models.CartItem{
				ID:             uuid.New(),
				UserID:         userID,
				ProductID:      product.ID,
				Quantity:       quantity,
				UnitPriceNet:   product.Price,
				TaxRate:        breakdown.Rate,
				TaxAmount:      breakdown.Tax,
				UnitPriceGross: breakdown.Gross,
			}
			if err := repo.CreateCartItem(ctx, &line); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart line")
			}
			rebuilt++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return rebuilt, nil
}

// List returns one page of the user's orders, newest first, with an opaque
// cursor for the next page when more remain.
func (s *Service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	customer, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	limit, cursor, err := params.Normalize()
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	orders, err := s.repo.ListOrders(ctx, customer.ID, cursor, limit+1)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	next := ""
	if len(orders) > limit {
		orders = orders[:limit]
		last := orders[limit-1]
		next = pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
	}
	return orders, next, nil
}

// Get returns one order, ownership-scoped.
func (s *Service) Get(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	customer, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.FindOrder(ctx, customer.ID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// LatestDraft returns the user's most recent draft order.
func (s *Service) LatestDraft(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	customer, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.LatestDraft(ctx, customer.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no draft order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load draft order")
	}
	return order, nil
}
