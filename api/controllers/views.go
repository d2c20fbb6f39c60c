package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tastebite/tastebite-backend/pkg/db/models"
)

// cartLineView is the wire shape of one cart line.
type cartLineView struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"product_id"`
	RecipeName     string          `json:"recipe_name,omitempty"`
	Category       string          `json:"category,omitempty"`
	Quantity       int             `json:"quantity"`
	UnitPriceNet   decimal.Decimal `json:"unit_price_net"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	UnitPriceGross decimal.Decimal `json:"unit_price_gross"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

func newCartLineView(item models.CartItem) cartLineView {
	view := cartLineView{
		ID:             item.ID,
		ProductID:      item.ProductID,
		Quantity:       item.Quantity,
		UnitPriceNet:   item.UnitPriceNet,
		TaxRate:        item.TaxRate,
		TaxAmount:      item.TaxAmount,
		UnitPriceGross: item.UnitPriceGross,
		LineTotal:      item.LineTotal(),
	}
	if item.Product != nil && item.Product.Recipe != nil {
		view.RecipeName = item.Product.Recipe.Name
		if item.Product.Recipe.Category != nil {
			view.Category = item.Product.Recipe.Category.Key
		}
	}
	return view
}

func newCartLineViews(items []models.CartItem) []cartLineView {
	views := make([]cartLineView, 0, len(items))
	for _, item := range items {
		views = append(views, newCartLineView(item))
	}
	return views
}

// orderView is the wire shape of an order with its items.
type orderView struct {
	ID            uuid.UUID       `json:"id"`
	Category      string          `json:"category,omitempty"`
	Status        string          `json:"status"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	TotalCalories int             `json:"total_calories"`
	DeliveryAt    time.Time       `json:"delivery_at"`
	CreatedAt     time.Time       `json:"created_at"`
	Items         []orderItemView `json:"items"`
}

type orderItemView struct {
	ProductID      uuid.UUID       `json:"product_id"`
	RecipeName     string          `json:"recipe_name"`
	Quantity       int             `json:"quantity"`
	UnitPriceNet   decimal.Decimal `json:"unit_price_net"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	UnitPriceGross decimal.Decimal `json:"unit_price_gross"`
	LineTotal      decimal.Decimal `json:"line_total"`
	Calories       int             `json:"calories"`
}

func newOrderView(order models.Order) orderView {
	view := orderView{
		ID:            order.ID,
		Status:        string(order.Status),
		TotalPrice:    order.TotalPrice,
		TotalCalories: order.TotalCalories,
		DeliveryAt:    order.DeliveryAt,
		CreatedAt:     order.CreatedAt,
		Items:         make([]orderItemView, 0, len(order.Items)),
	}
	if order.Category != nil {
		view.Category = order.Category.Key
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, orderItemView{
			ProductID:      item.ProductID,
			RecipeName:     item.RecipeName,
			Quantity:       item.Quantity,
			UnitPriceNet:   item.UnitPriceNet,
			TaxRate:        item.TaxRate,
			TaxAmount:      item.TaxAmount,
			UnitPriceGross: item.UnitPriceGross,
			LineTotal:      item.LineTotal(),
			Calories:       item.Calories,
		})
	}
	return view
}

func newOrderViews(orders []models.Order) []orderView {
	views := make([]orderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, newOrderView(order))
	}
	return views
}

// recipeView is the public menu shape.
type recipeView struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Calories int       `json:"calories"`
	Category string    `json:"category,omitempty"`
}

func newRecipeViews(recipes []models.Recipe) []recipeView {
	views := make([]recipeView, 0, len(recipes))
	for _, recipe := range recipes {
		view := recipeView{ID: recipe.ID, Name: recipe.Name, Calories: recipe.Calories}
		if recipe.Category != nil {
			view.Category = recipe.Category.Key
		}
		views = append(views, view)
	}
	return views
}
