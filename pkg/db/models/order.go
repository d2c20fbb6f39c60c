package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tastebite/tastebite-backend/pkg/enums"
)

// Order is one checked-out category group. Checkout creates one order per
// category present in the cart, so DeliveryAt maps 1:1 to the schedule entry
// the customer chose for that category.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID    uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	CategoryID    uuid.UUID         `gorm:"column:category_id;type:uuid;not null"`
	Status        enums.OrderStatus `gorm:"column:status;not null;default:'draft'"`
	TotalPrice    decimal.Decimal   `gorm:"column:total_price;type:numeric(12,2);not null"`
	TotalCalories int               `gorm:"column:total_calories;not null;default:0"`
	DeliveryAt    time.Time         `gorm:"column:delivery_at;not null"`
	Items         []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Category      *Category         `gorm:"foreignKey:CategoryID"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
