package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tastebite/tastebite-backend/pkg/db"
	"github.com/tastebite/tastebite-backend/pkg/db/models"
	"github.com/tastebite/tastebite-backend/pkg/enums"
	"github.com/tastebite/tastebite-backend/pkg/pagination"
)

// Repository persists orders and the cart rows the rebuild path recreates.
type Repository struct {
	db *gorm.DB
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindOrder loads an order with its items, scoped to the owning customer.
func (r *Repository) FindOrder(ctx context.Context, customerID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Category").
		Where("id = ? AND customer_id = ?", orderID, customerID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns the customer's orders newest first, keyed for cursor
// pagination on (created_at, id).
func (r *Repository) ListOrders(ctx context.Context, customerID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Category").
		Where("customer_id = ?", customerID)
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// LatestDraft returns the customer's most recent draft order.
func (r *Repository) LatestDraft(ctx context.Context, customerID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Category").
		Where("customer_id = ? AND status = ?", customerID, enums.OrderStatusDraft).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ConfirmDraft flips draft -> confirmed and reports whether a draft row was
// actually updated; the status predicate makes the transition atomic.
func (r *Repository) ConfirmDraft(ctx context.Context, customerID, orderID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND customer_id = ? AND status = ?", orderID, customerID, enums.OrderStatusDraft).
		Update("status", enums.OrderStatusConfirmed)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FindProductForUpdate locks the product row during cart rebuild.
func (r *Repository) FindProductForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := db.LockForUpdate(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// SumReservedByOthers totals the quantities other users hold for a product.
func (r *Repository) SumReservedByOthers(ctx context.Context, productID, excludeUser uuid.UUID) (int, error) {
	var reserved int
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("product_id = ? AND user_id <> ?", productID, excludeUser).
		Scan(&reserved).Error
	if err != nil {
		return 0, err
	}
	return reserved, nil
}

// ClearCart deletes every cart line for the user.
func (r *Repository) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
}

// CreateCartItem inserts a rebuilt cart line.
func (r *Repository) CreateCartItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}
