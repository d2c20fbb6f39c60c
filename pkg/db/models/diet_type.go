package models

import (
	"time"

	"github.com/google/uuid"
)

// DietType labels recipes (vegan, keto, ...); informational only.
type DietType struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
