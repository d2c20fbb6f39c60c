package checkout

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tastebite/tastebite-backend/pkg/db"
	"github.com/tastebite/tastebite-backend/pkg/db/models"
)

// Repository covers the reads and writes checkout performs inside its single
// transaction.
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

// ListCartLines loads the user's cart joined down to the category, which
// checkout groups by.
func (r *Repository) ListCartLines(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Recipe").
		Preload("Product.Recipe.Category").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// FindProductForUpdate locks the product row while its cart lines are
// re-checked against current stock.
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

// CreateOrder persists an order with its items in one insert graph.
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// ClearCart deletes every cart line for the user.
func (r *Repository) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
}
