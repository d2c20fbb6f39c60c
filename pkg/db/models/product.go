package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product carries the purchasable side of a recipe: net unit price and stock.
// Stock is mutated only through the catalog stock guard.
type Product struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	RecipeID  *uuid.UUID      `gorm:"column:recipe_id;type:uuid;uniqueIndex"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Stock     int             `gorm:"column:stock;not null;default:0"`
	Recipe    *Recipe         `gorm:"foreignKey:RecipeID"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
