package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tastebite/tastebite-backend/pkg/db"
	"github.com/tastebite/tastebite-backend/pkg/db/models"
)

// Repository exposes persistence for products, recipes and their visibility.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided DB.
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

// FindProductForUpdate loads a product under a row lock so concurrent stock
// and cart writes serialize per product.
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

// FindRecipe loads a recipe row regardless of visibility.
func (r *Repository) FindRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&recipe).Error
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// UpdateStock writes the new stock value.
func (r *Repository) UpdateStock(ctx context.Context, productID uuid.UUID, stock int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock", stock).Error
}

// UpdatePrice writes the new net price.
func (r *Repository) UpdatePrice(ctx context.Context, productID uuid.UUID, price decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("price", price).Error
}

// SetRecipeDeletedAt flips the cascade-managed visibility timestamp.
func (r *Repository) SetRecipeDeletedAt(ctx context.Context, recipeID uuid.UUID, deletedAt *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Recipe{}).
		Where("id = ?", recipeID).
		Update("deleted_at", deletedAt).Error
}

// ListVisibleRecipes returns recipes whose linked product currently has
// stock, joined with their category for display.
func (r *Repository) ListVisibleRecipes(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("deleted_at IS NULL").
		Order("name ASC").
		Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	return recipes, nil
}
