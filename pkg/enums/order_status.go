package enums

// OrderStatus models the draft -> confirmed lifecycle. The transition is
// monotone: a confirmed order never returns to draft.
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "draft"
	OrderStatusConfirmed OrderStatus = "confirmed"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusConfirmed:
		return true
	default:
		return false
	}
}
