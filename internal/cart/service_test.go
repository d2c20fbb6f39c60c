package cart

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tastebite/tastebite-backend/internal/pricing"
	"github.com/tastebite/tastebite-backend/pkg/config"
	"github.com/tastebite/tastebite-backend/pkg/db"
	"github.com/tastebite/tastebite-backend/pkg/db/models"
	pkgerrors "github.com/tastebite/tastebite-backend/pkg/errors"
)

func newTestDB(t *testing.T) *db.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:cart_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Category{},
		&models.Recipe{},
		&models.Product{},
		&models.CartItem{},
	)
	if err != nil {
		t.Fatalf("migrating schema: %v", err)
	}
	return db.NewWithConn(conn, config.DBConfig{TxTimeout: 5 * time.Second})
}

func seedProduct(t *testing.T, client *db.Client, price string, stock int) *models.Product {
	t.Helper()

	category := models.Category{ID: uuid.New(), Key: "dinner", Name: "Dinner"}
	if err := client.DB().Create(&category).Error; err != nil {
		t.Fatalf("seeding category: %v", err)
	}
	recipe := models.Recipe{ID: uuid.New(), Name: "Paneer Tikka", Calories: 450, CategoryID: category.ID}
	if err := client.DB().Create(&recipe).Error; err != nil {
		t.Fatalf("seeding recipe: %v", err)
	}
	product := models.Product{
		ID:       uuid.New(),
		RecipeID: &recipe.ID,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
	}
	if err := client.DB().Create(&product).Error; err != nil {
		t.Fatalf("seeding product: %v", err)
	}
	return &product
}

func newService(t *testing.T, client *db.Client) *Service {
	t.Helper()

	engine, err := pricing.NewEngine(decimal.NewFromFloat(18))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	svc, err := NewService(NewRepository(client.DB()), client, engine, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestAddCapsAtStock(t *testing.T) {
	client := newTestDB(t)
	product := seedProduct(t, client, "100.00", 5)
	svc := newService(t, client)
	userID := uuid.New()

	mutation, err := svc.Add(context.Background(), userID, product.ID, 10)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if mutation.Item.Quantity != 5 {
		t.Fatalf("expected quantity capped to 5, got %d", mutation.Item.Quantity)
	}
	if !mutation.Capped {
		t.Fatal("cap must be reported to the caller")
	}
}

func TestAddIsAdditiveAndRecapped(t *testing.T) {
	client := newTestDB(t)
	product := seedProduct(t, client, "100.00", 5)
	svc := newService(t, client)
	userID := uuid.New()

	if _, err := svc.Add(context.Background(), userID, product.ID, 3); err != nil {
		t.Fatalf("first add: %v", err)
	}
	mutation, err := svc.Add(context.Background(), userID, product.ID, 4)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if mutation.Item.Quantity != 5 || !mutation.Capped {
		t.Fatalf("expected 3+4 capped to 5, got %d capped=%v", mutation.Item.Quantity, mutation.Capped)
	}

	var count int64
	if err := client.DB().Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		t.Fatalf("counting lines: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single upserted line, got %d", count)
	}
}

func TestAddRespectsOtherCarts(t *testing.T) {
	client := newTestDB(t)
	product := seedProduct(t, client, "100.00", 5)
	svc := newService(t, client)
	alice, bob := uuid.New(), uuid.New()

	if _, err := svc.Add(context.Background(), alice, product.ID, 4); err != nil {
		t.Fatalf("alice add: %v", err)
	}

	mutation, err := svc.Add(context.Background(), bob, product.ID, 3)
	if err != nil {
		t.Fatalf("bob add: %v", err)
	}
	if mutation.Item.Quantity != 1 || !mutation.Capped {
		t.Fatalf("expected bob capped to the 1 unit left, got %d capped=%v", mutation.Item.Quantity, mutation.Capped)
	}

	// The product is now fully reserved.
	carol := uuid.New()
	if _, err := svc.Add(context.Background(), carol, product.ID, 1); !pkgerrors.IsCode(err, pkgerrors.CodeOutOfStock) {
		t.Fatalf("expected out of stock for carol, got %v", err)
	}
}

func TestAddOutOfStock(t *testing.T) {
	client := newTestDB(t)
	product := seedProduct(t, client, "100.00", 0)
	svc := newService(t, client)

	if _, err := svc.Add(context.Background(), uuid.New(), product.ID, 1); !pkgerrors.IsCode(err, pkgerrors.CodeOutOfStock) {
		t.Fatalf("expected out of stock, got %v", err)
	}
	if _, err := svc.Add(context.Background(), uuid.New(), uuid.New(), 1); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}
	if _, err := svc.Add(context.Background(), uuid.New(), product.ID, 0); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}
}

func TestAddSnapshotsPricing(t *testing.T) {
	client := newTestDB(t)
	product := seedProduct(t, client, "100.00", 5)
	svc := newService(t, client)

	mutation, err := svc.Add(context.Background(), uuid.New(), product.ID, 2)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	item := mutation.Item
	if !item.TaxAmount.Equal(decimal.RequireFromString("18")) {
		t.Fatalf("expected tax 18.00, got %s", item.TaxAmount)
	}
	if !item.UnitPriceGross.Equal(decimal.RequireFromString("118")) {
		t.Fatalf("expected gross 118.00, got %s", item.UnitPriceGross)
	}
	if !item.LineTotal().Equal(decimal.RequireFromString("236")) {
		t.Fatalf("expected line total 236.00, got %s", item.LineTotal())
	}
}

func TestSetQuantityZeroDeletes(t *testing.T) {
	client := newTestDB(t)
	product := seedProduct(t, client, "100.00", 5)
	svc := newService(t, client)
	userID := uuid.New()

	added, err := svc.Add(context.Background(), userID, product.ID, 2)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	mutation, err := svc.SetQuantity(context.Background(), userID, added.Item.ID, 0)
	if err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	if !mutation.Removed {
		t.Fatal("expected line removal to be reported")
	}

	items, err := svc.List(context.Background(), userID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("cart should be empty, got %d lines", len(items))
	}
}

func TestSetQuantityRepricesFromCurrentPrice(t *testing.T) {
	client := newTestDB(t)
	product := seedProduct(t, client, "100.00", 5)
	svc := newService(t, client)
	userID := uuid.New()

	added, err := svc.Add(context.Background(), userID, product.ID, 2)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	err = client.DB().Model(&models.Product{}).
		Where("id = ?", product.ID).
		Update("price", decimal.RequireFromString("50.00")).Error
	if err != nil {
		t.Fatalf("updating price: %v", err)
	}

	mutation, err := svc.SetQuantity(context.Background(), userID, added.Item.ID, 3)
	if err != nil {
		t.Fatalf("SetQuantity: %v", err)
	}
	if !mutation.Item.UnitPriceNet.Equal(decimal.RequireFromString("50")) {
		t.Fatalf("expected repriced net 50.00, got %s", mutation.Item.UnitPriceNet)
	}
	if !mutation.Item.UnitPriceGross.Equal(decimal.RequireFromString("59")) {
		t.Fatalf("expected gross 59.00, got %s", mutation.Item.UnitPriceGross)
	}
}

func TestSetQuantityUnknownLine(t *testing.T) {
	client := newTestDB(t)
	svc := newService(t, client)

	if _, err := svc.SetQuantity(context.Background(), uuid.New(), uuid.New(), 2); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveAndClearAreNoOpsOnMiss(t *testing.T) {
	client := newTestDB(t)
	svc := newService(t, client)
	userID := uuid.New()

	if err := svc.Remove(context.Background(), userID, uuid.New()); err != nil {
		t.Fatalf("Remove on empty cart: %v", err)
	}
	if err := svc.Clear(context.Background(), userID); err != nil {
		t.Fatalf("Clear on empty cart: %v", err)
	}
}

func TestSummarize(t *testing.T) {
	client := newTestDB(t)
	product := seedProduct(t, client, "100.00", 10)
	svc := newService(t, client)
	userID := uuid.New()

	if _, err := svc.Add(context.Background(), userID, product.ID, 2); err != nil {
		t.Fatalf("Add: %v", err)
	}

	summary, err := svc.Summarize(context.Background(), userID)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !summary.TotalGross.Equal(decimal.RequireFromString("236")) {
		t.Fatalf("expected gross total 236.00, got %s", summary.TotalGross)
	}
	if !summary.TotalTax.Equal(decimal.RequireFromString("36")) {
		t.Fatalf("expected tax total 36.00, got %s", summary.TotalTax)
	}
	if summary.TotalQuantity != 2 || summary.TotalCalories != 900 {
		t.Fatalf("unexpected aggregates: qty=%d calories=%d", summary.TotalQuantity, summary.TotalCalories)
	}
}
