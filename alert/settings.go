package alert

import (
	"github.com/shopspring/decimal"
)

// Settings is one read of the user settings. A zero Settings disables every optional rule.
type Settings struct {
	Collections []string

	// UndercutThreshold is a percentage, 5 means 5% below the floor. Unset disables undercut alerts.
	UndercutThreshold decimal.NullDecimal
	MinFloorPrice     decimal.NullDecimal
	MaxFloorPrice     decimal.NullDecimal

	PriceAlerts   bool
	PriceAlertMin decimal.NullDecimal
	PriceAlertMax decimal.NullDecimal

	// FloorAlerts is on unless explicitly set to false.
	FloorAlerts *bool
}

// Tracks reports whether the collection is followed. An empty list follows everything.
func (s Settings) Tracks(collection string) bool {
	if len(s.Collections) == 0 {
		return true
	}
	for _, c := range s.Collections {
		if c == collection {
			return true
		}
	}
	return false
}

func (s Settings) floorAlertsEnabled() bool {
	return s.FloorAlerts == nil || *s.FloorAlerts
}

func (s Settings) floorInBand(price decimal.Decimal) bool {
	if s.MinFloorPrice.Valid && price.LessThan(s.MinFloorPrice.Decimal) {
		return false
	}
	if s.MaxFloorPrice.Valid && price.GreaterThan(s.MaxFloorPrice.Decimal) {
		return false
	}
	return true
}
