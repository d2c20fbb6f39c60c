package checkout

import (
	"fmt"
	"time"

	pkgerrors "github.com/tastebite/tastebite-backend/pkg/errors"
)

const (
	// Deliveries run from 06:00 up to and including the 23:00 hour.
	minDeliveryHour = 6
	maxDeliveryHour = 23
	// Orders can be scheduled at most a week out.
	maxDaysAhead = 7
)

// Schedule carries the delivery times chosen at checkout: one per category
// key, or a single time applied to every category in the cart. A per-category
// entry wins over ApplyToAll.
type Schedule struct {
	PerCategory map[string]time.Time
	ApplyToAll  *time.Time
}

// resolve picks the delivery time for a category key, or fails naming it.
func (s Schedule) resolve(categoryKey string) (time.Time, error) {
	if at, ok := s.PerCategory[categoryKey]; ok {
		return at, nil
	}
	if s.ApplyToAll != nil {
		return *s.ApplyToAll, nil
	}
	return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation,
		fmt.Sprintf("no delivery time scheduled for category %q", categoryKey))
}

// validateDeliveryAt enforces the delivery window relative to now: hour
// within [06, 23], date within [today, today+7], and not already past when
// scheduled for today. Violations name the offending category.
func validateDeliveryAt(categoryKey string, at, now time.Time) error {
	at = at.In(now.Location())

	if hour := at.Hour(); hour < minDeliveryHour || hour > maxDeliveryHour {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("delivery for category %q must be between 06:00 and 23:59", categoryKey))
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, now.Location())
	if day.Before(today) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("delivery date for category %q is in the past", categoryKey))
	}
	if day.After(today.AddDate(0, 0, maxDaysAhead)) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("delivery for category %q must be within %d days", categoryKey, maxDaysAhead))
	}
	if day.Equal(today) && at.Before(now) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("delivery time for category %q has already passed", categoryKey))
	}
	return nil
}
