package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tastebite/tastebite-backend/pkg/db"
	"github.com/tastebite/tastebite-backend/pkg/db/models"
)

// Repository persists cart lines. All quantity math happens in the service
// under the product row lock; the repository only reads and writes rows.
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

// FindProductForUpdate locks the product row; cart mutations for a product
// serialize against each other and against stock writes.
func (r *Repository) FindProductForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := db.LockForUpdate(r.db.WithContext(ctx)).
		Preload("Recipe").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindLine returns the user's cart line for a product, or gorm.ErrRecordNotFound.
func (r *Repository) FindLine(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindLineByID returns a cart line by its id, scoped to the owning user.
func (r *Repository) FindLineByID(ctx context.Context, userID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
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

// SaveLine inserts or updates a cart line.
func (r *Repository) SaveLine(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// DeleteLineByID removes a line by id, scoped to the owning user, and reports
// whether a row existed.
func (r *Repository) DeleteLineByID(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", itemID, userID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Clear drops every line in the user's cart.
func (r *Repository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error
}

// ListLines returns the user's cart with product and recipe preloaded,
// oldest line first.
func (r *Repository) ListLines(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Product.Recipe").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
