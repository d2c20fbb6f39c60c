package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one (user, product) line pending checkout. Pricing columns are
// a snapshot recomputed by the pricing engine on every mutation, so the row
// always satisfies gross == round(net * (1 + rate/100), 2).
type CartItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	UserID         uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_cart_user_product"`
	ProductID      uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_user_product"`
	Quantity       int             `gorm:"column:quantity;not null"`
	UnitPriceNet   decimal.Decimal `gorm:"column:unit_price_net;type:numeric(10,2);not null"`
	TaxRate        decimal.Decimal `gorm:"column:tax_rate;type:numeric(5,2);not null"`
	TaxAmount      decimal.Decimal `gorm:"column:tax_amount;type:numeric(10,2);not null"`
	UnitPriceGross decimal.Decimal `gorm:"column:unit_price_gross;type:numeric(10,2);not null"`
	Product        *Product        `gorm:"foreignKey:ProductID"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// LineTotal returns gross * quantity.
func (c CartItem) LineTotal() decimal.Decimal {
	return c.UnitPriceGross.Mul(decimal.NewFromInt(int64(c.Quantity)))
}
