package notifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/tastebite/tastebite-backend/pkg/logger"
)

// LowStockEvent is emitted when a product crosses the low-stock threshold
// downward. Informational only; the stock write has already committed.
type LowStockEvent struct {
	ProductID uuid.UUID
	RecipeID  *uuid.UUID
	Stock     int
}

// OrderConfirmedEvent is emitted after an order flips to confirmed.
type OrderConfirmedEvent struct {
	OrderID    uuid.UUID
	CustomerID uuid.UUID
}

// Sink receives fire-and-forget notifications. Implementations must never
// block the calling operation or surface an error into it.
type Sink interface {
	LowStock(ctx context.Context, event LowStockEvent)
	OrderConfirmed(ctx context.Context, event OrderConfirmedEvent)
}

type logSink struct {
	logg *logger.Logger
}

// NewLogSink returns the default sink, which records events in the
// structured log until a real notification channel is attached.
func NewLogSink(logg *logger.Logger) Sink {
	return &logSink{logg: logg}
}

func (s *logSink) LowStock(ctx context.Context, event LowStockEvent) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"product_id": event.ProductID,
		"stock":      event.Stock,
	})
	s.logg.Warn(ctx, "catalog.low_stock")
}

func (s *logSink) OrderConfirmed(ctx context.Context, event OrderConfirmedEvent) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":    event.OrderID,
		"customer_id": event.CustomerID,
	})
	s.logg.Info(ctx, "orders.confirmed")
}

// NopSink discards every event; handy in tests.
type NopSink struct{}

func (NopSink) LowStock(context.Context, LowStockEvent)             {}
func (NopSink) OrderConfirmed(context.Context, OrderConfirmedEvent) {}
