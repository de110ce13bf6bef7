package floor

import (
	"github.com/shopspring/decimal"
	"github.com/xyths/opensea-floor-monitor/opensea"
)

var hundred = decimal.NewFromInt(100)

// Verdict is the undercut check of one listing against the current floor.
type Verdict struct {
	Undercut     bool
	ListingPrice decimal.Decimal
	FloorPrice   decimal.Decimal
	PercentBelow decimal.Decimal
}

// Tracker applies listing events to a Store.
// Events of one collection must be applied in arrival order.
type Tracker struct {
	store *Store
}

func NewTracker() *Tracker {
	return &Tracker{store: NewStore()}
}

// Update replaces the collection's floor when there is none yet or the listing is strictly
// cheaper. It returns whether the floor changed.
func (t *Tracker) Update(collection string, e opensea.ListingEvent) bool {
	price := e.Price()
	if cur, ok := t.store.Get(collection); ok && !price.LessThan(cur.Price) {
		return false
	}
	t.store.Set(collection, Record{
		Price:     price,
		UsdPrice:  e.UsdPrice(),
		Timestamp: e.Time(),
		Symbol:    e.PaymentToken.Symbol,
	})
	return true
}

func (t *Tracker) Floor(collection string) (Record, bool) {
	return t.store.Get(collection)
}

// Floors returns a copy of every known floor.
func (t *Tracker) Floors() map[string]Record {
	return t.store.Snapshot()
}

// IsUndercut compares the listing with the current floor. A listing is an undercut when it is
// at least thresholdPercent below the floor. Without a floor nothing is an undercut and the
// verdict reports a zero floor.
func (t *Tracker) IsUndercut(collection string, e opensea.ListingEvent, thresholdPercent decimal.Decimal) Verdict {
	price := e.Price()
	v := Verdict{ListingPrice: price}
	cur, ok := t.store.Get(collection)
	if !ok {
		return v
	}
	v.FloorPrice = cur.Price
	if cur.Price.IsZero() {
		return v
	}
	v.PercentBelow = cur.Price.Sub(price).Mul(hundred).Div(cur.Price)
	v.Undercut = v.PercentBelow.GreaterThanOrEqual(thresholdPercent)
	return v
}

// Clear forgets the collection's floor.
func (t *Tracker) Clear(collection string) {
	t.store.Delete(collection)
}

// Count is the number of collections with a floor.
func (t *Tracker) Count() int {
	return t.store.Len()
}
