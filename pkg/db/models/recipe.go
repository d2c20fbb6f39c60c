package models

import (
	"time"

	"github.com/google/uuid"
)

// Recipe is the catalog entry customers browse. DeletedAt is owned by the
// stock cascade: set when the linked product's stock hits zero, cleared when
// stock is replenished. It is not editable through catalog admin paths.
type Recipe struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name       string     `gorm:"column:name;not null"`
	Calories   int        `gorm:"column:calories;not null;default:0"`
	CategoryID uuid.UUID  `gorm:"column:category_id;type:uuid;not null"`
	DietTypeID *uuid.UUID `gorm:"column:diet_type_id;type:uuid"`
	DeletedAt  *time.Time `gorm:"column:deleted_at"`
	Category   *Category  `gorm:"foreignKey:CategoryID"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Visible reports whether the recipe is currently listed publicly.
func (r Recipe) Visible() bool {
	return r.DeletedAt == nil
}
