// Package alert decides which alerts a listing event raises.
package alert

import (
	"github.com/xyths/opensea-floor-monitor/floor"
	"github.com/xyths/opensea-floor-monitor/opensea"
)

// Engine turns one listing and one settings snapshot into alert intents.
// It owns the floor tracker and performs no I/O.
type Engine struct {
	tracker *floor.Tracker
}

func NewEngine(tracker *floor.Tracker) *Engine {
	return &Engine{tracker: tracker}
}

func (e *Engine) Tracker() *floor.Tracker {
	return e.tracker
}

// Evaluate applies the listing to the floor and returns the alerts it raises.
// Price-trigger and undercut alerts are mutually exclusive per event; a floor-update alert may
// accompany either.
func (e *Engine) Evaluate(ev opensea.ListingEvent, s Settings) []Intent {
	slug := ev.Collection.Slug
	price := ev.Price()

	// the verdict is taken against the floor as it was before this listing
	var verdict floor.Verdict
	if !s.PriceAlerts && s.UndercutThreshold.Valid {
		verdict = e.tracker.IsUndercut(slug, ev, s.UndercutThreshold.Decimal)
	}
	updated := e.tracker.Update(slug, ev)

	var intents []Intent
	if s.PriceAlerts {
		if reason, ok := priceTrigger(ev, s); ok {
			intents = append(intents, Intent{
				Kind:         KindPriceAlert,
				Collection:   slug,
				Reason:       reason,
				Event:        ev,
				ListingPrice: price,
				Symbol:       ev.PaymentToken.Symbol,
			})
		}
	} else if verdict.Undercut && s.floorInBand(verdict.FloorPrice) {
		intents = append(intents, Intent{
			Kind:         KindUndercut,
			Collection:   slug,
			Reason:       "undercut",
			Event:        ev,
			ListingPrice: verdict.ListingPrice,
			FloorPrice:   verdict.FloorPrice,
			PercentBelow: verdict.PercentBelow,
			Symbol:       ev.PaymentToken.Symbol,
		})
	}

	if updated && s.floorAlertsEnabled() {
		r, _ := e.tracker.Floor(slug)
		intents = append(intents, Intent{
			Kind:         KindFloorUpdate,
			Collection:   slug,
			Reason:       "floor",
			Event:        ev,
			ListingPrice: price,
			FloorPrice:   r.Price,
			Symbol:       r.Symbol,
		})
	}
	return intents
}

// priceTrigger checks the absolute bounds. The max bound is checked after the min bound and
// overwrites its reason, so a price crossing both reports "above <max>".
func priceTrigger(ev opensea.ListingEvent, s Settings) (string, bool) {
	price := ev.Price()
	var reason string
	if s.PriceAlertMin.Valid && price.LessThan(s.PriceAlertMin.Decimal) {
		reason = "below " + s.PriceAlertMin.Decimal.String()
	}
	if s.PriceAlertMax.Valid && price.GreaterThan(s.PriceAlertMax.Decimal) {
		reason = "above " + s.PriceAlertMax.Decimal.String()
	}
	return reason, reason != ""
}
