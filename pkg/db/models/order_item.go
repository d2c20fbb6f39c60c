package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem snapshots a cart line at checkout time. Immutable once created.
type OrderItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	RecipeName     string          `gorm:"column:recipe_name;not null"`
	Quantity       int             `gorm:"column:quantity;not null"`
	UnitPriceNet   decimal.Decimal `gorm:"column:unit_price_net;type:numeric(10,2);not null"`
	TaxRate        decimal.Decimal `gorm:"column:tax_rate;type:numeric(5,2);not null"`
	TaxAmount      decimal.Decimal `gorm:"column:tax_amount;type:numeric(10,2);not null"`
	UnitPriceGross decimal.Decimal `gorm:"column:unit_price_gross;type:numeric(10,2);not null"`
	Calories       int             `gorm:"column:calories;not null;default:0"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// LineTotal returns gross * quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPriceGross.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
