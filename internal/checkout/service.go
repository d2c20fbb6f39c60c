package checkout

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tastebite/tastebite-backend/internal/identity"
	"github.com/tastebite/tastebite-backend/pkg/db/models"
	"github.com/tastebite/tastebite-backend/pkg/enums"
	pkgerrors "github.com/tastebite/tastebite-backend/pkg/errors"
	"github.com/tastebite/tastebite-backend/pkg/metrics"
)

type txRunner interface {
	WithTxRetry(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service turns a cart plus a delivery schedule into draft orders: one order
// per category present in the cart, so each order's delivery time maps 1:1 to
// the schedule entry the customer chose. Reading the cart, validating the
// schedule, inserting orders and items, and clearing the cart are one
// transaction.
type Service struct {
	repo     *Repository
	tx       txRunner
	identity identity.Resolver
	metrics  *metrics.Registry
	now      func() time.Time
}

// NewService wires the checkout orchestrator. reg may be nil.
func NewService(repo *Repository, tx txRunner, resolver identity.Resolver, reg *metrics.Registry) (*Service, error) {
	if repo == nil {
		return nil, errors.New("checkout: repository is required")
	}
	if tx == nil {
		return nil, errors.New("checkout: transaction runner is required")
	}
	if resolver == nil {
		return nil, errors.New("checkout: identity resolver is required")
	}
	return &Service{repo: repo, tx: tx, identity: resolver, metrics: reg, now: time.Now}, nil
}

type categoryGroup struct {
	category models.Category
	lines    []models.CartItem
}

// Checkout snapshots the cart into draft orders and clears it. Totals come
// from the pricing snapshots stored on the cart lines, not from the current
// product price: the order must charge what the customer saw.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, schedule Schedule) ([]models.Order, error) {
	orders, err := s.checkout(ctx, userID, schedule)
	if s.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		s.metrics.CheckoutAttempts.WithLabelValues(outcome).Inc()
	}
	return orders, err
}

func (s *Service) checkout(ctx context.Context, userID uuid.UUID, schedule Schedule) ([]models.Order, error) {
	customer, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	var created []models.Order
	err = s.tx.WithTxRetry(ctx, func(tx *gorm.DB) error {
		created = created[:0]
		repo := s.repo.WithTx(tx)

		lines, err := repo.ListCartLines(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		lines, err = recapAgainstStock(ctx, repo, userID, lines)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeOutOfStock, "cart items are no longer in stock")
		}

		groups, err := groupByCategory(lines)
		if err != nil {
			return err
		}

		now := s.now()
		for _, group := range groups {
			deliveryAt, err := schedule.resolve(group.category.Key)
			if err != nil {
				return err
			}
			if err := validateDeliveryAt(group.category.Key, deliveryAt, now); err != nil {
				return err
			}

			order := buildOrder(customer.ID, group, deliveryAt)
			if err := repo.CreateOrder(ctx, &order); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
			}
			created = append(created, order)
		}

		if err := repo.ClearCart(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// recapAgainstStock re-reads every line's product under a row lock and clamps
// the quantity to what is still available: current stock minus what other
// users' carts hold. A line added while stock was plentiful must not survive
// a later stock cut; lines with nothing left are dropped. Pricing snapshots
// stay untouched.
func recapAgainstStock(ctx context.Context, repo *Repository, userID uuid.UUID, lines []models.CartItem) ([]models.CartItem, error) {
	kept := make([]models.CartItem, 0, len(lines))
	for _, line := range lines {
		product, err := repo.FindProductForUpdate(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart line references a missing product")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}

		reserved, err := repo.SumReservedByOthers(ctx, line.ProductID, userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum reserved stock")
		}
		if available := product.Stock - reserved; line.Quantity > available {
			line.Quantity = available
		}
		if line.Quantity < 1 {
			continue
		}
		kept = append(kept, line)
	}
	return kept, nil
}

// groupByCategory splits cart lines by their recipe's category, ordered by
// category key for deterministic order creation.
func groupByCategory(lines []models.CartItem) ([]categoryGroup, error) {
	byKey := make(map[string]*categoryGroup)
	for _, line := range lines {
		if line.Product == nil || line.Product.Recipe == nil || line.Product.Recipe.Category == nil {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart line references a missing product")
		}
		category := *line.Product.Recipe.Category
		group, ok := byKey[category.Key]
		if !ok {
			group = &categoryGroup{category: category}
			byKey[category.Key] = group
		}
		group.lines = append(group.lines, line)
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	groups := make([]categoryGroup, 0, len(keys))
	for _, key := range keys {
		groups = append(groups, *byKey[key])
	}
	return groups, nil
}

func buildOrder(customerID uuid.UUID, group categoryGroup, deliveryAt time.Time) models.Order {
	order := models.Order{
		ID:         uuid.New(),
		CustomerID: customerID,
		CategoryID: group.category.ID,
		Status:     enums.OrderStatusDraft,
		DeliveryAt: deliveryAt,
		TotalPrice: decimal.Zero,
	}
	for _, line := range group.lines {
		item := models.OrderItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ProductID:      line.ProductID,
			RecipeName:     line.Product.Recipe.Name,
			Quantity:       line.Quantity,
			UnitPriceNet:   line.UnitPriceNet,
			TaxRate:        line.TaxRate,
			TaxAmount:      line.TaxAmount,
			UnitPriceGross: line.UnitPriceGross,
			Calories:       line.Product.Recipe.Calories,
		}
		order.Items = append(order.Items, item)
		order.TotalPrice = order.TotalPrice.Add(item.LineTotal())
		order.TotalCalories += item.Calories * item.Quantity
	}
	return order
}
