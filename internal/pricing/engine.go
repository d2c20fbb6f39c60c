package pricing

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/tastebite/tastebite-backend/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Engine derives tax and gross amounts from a net unit price. It is pure:
// no state beyond the configured default rate, no I/O. Cart and checkout use
// the same engine so a cart total always matches the order total computed
// from the same snapshot.
type Engine struct {
	defaultRate decimal.Decimal
}

// Breakdown is the result of pricing one net amount.
type Breakdown struct {
	Rate  decimal.Decimal
	Tax   decimal.Decimal
	Gross decimal.Decimal
}

// NewEngine builds an engine around the process-wide default tax rate
// (percent, e.g. 18 for 18%).
func NewEngine(defaultRate decimal.Decimal) (*Engine, error) {
	if defaultRate.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax rate must be non-negative")
	}
	return &Engine{defaultRate: defaultRate}, nil
}

// DefaultRate exposes the configured rate for snapshotting onto lines.
func (e *Engine) DefaultRate() decimal.Decimal {
	return e.defaultRate
}

// Quote prices a net amount: tax = round(net*rate/100, 2) and
// gross = round(net+tax, 2). A nil rate falls back to the default.
func (e *Engine) Quote(net decimal.Decimal, rate *decimal.Decimal) (Breakdown, error) {
	if net.IsNegative() {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "net price must be non-negative")
	}

	applied := e.defaultRate
	if rate != nil {
		if rate.IsNegative() {
			return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "tax rate must be non-negative")
		}
		applied = *rate
	}

	tax := net.Mul(applied).Div(hundred).Round(2)
	gross := net.Add(tax).Round(2)

	return Breakdown{Rate: applied, Tax: tax, Gross: gross}, nil
}
