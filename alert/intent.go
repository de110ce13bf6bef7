package alert

import (
	"fmt"
	"github.com/shopspring/decimal"
	"github.com/xyths/opensea-floor-monitor/opensea"
)

type Kind string

const (
	KindListing     Kind = "listing"
	KindPriceAlert  Kind = "price_alert"
	KindUndercut    Kind = "undercut"
	KindFloorUpdate Kind = "floor_update"
)

// Intent is one alert decided for one event.
type Intent struct {
	Kind       Kind
	Collection string
	Reason     string
	Event      opensea.ListingEvent

	ListingPrice decimal.Decimal
	FloorPrice   decimal.Decimal
	PercentBelow decimal.Decimal
	Symbol       string
}

// Title is a one-line headline for the intent.
func (in Intent) Title() string {
	name := in.Event.DisplayName()
	switch in.Kind {
	case KindPriceAlert:
		return fmt.Sprintf("Price alert: %s", name)
	case KindUndercut:
		return fmt.Sprintf("Undercut: %s", name)
	case KindFloorUpdate:
		return fmt.Sprintf("New floor: %s", name)
	default:
		return fmt.Sprintf("Listing: %s", name)
	}
}

// Message is the plain-text body used by the alert event log and the console.
func (in Intent) Message() string {
	item := in.Event.Item.Metadata.Name
	switch in.Kind {
	case KindPriceAlert:
		return fmt.Sprintf("%s listed at %s (%s)",
			item, opensea.FormatPrice(in.ListingPrice, in.Symbol), in.Reason)
	case KindUndercut:
		return fmt.Sprintf("%s listed at %s, %s%% below floor %s",
			item, opensea.FormatPrice(in.ListingPrice, in.Symbol),
			in.PercentBelow.StringFixed(2), opensea.FormatPrice(in.FloorPrice, in.Symbol))
	case KindFloorUpdate:
		return fmt.Sprintf("floor is now %s", opensea.FormatPrice(in.FloorPrice, in.Symbol))
	default:
		return fmt.Sprintf("%s listed at %s", item, opensea.FormatPrice(in.ListingPrice, in.Symbol))
	}
}

// ListingIntent describes the raw listing, for display only.
func ListingIntent(e opensea.ListingEvent) Intent {
	return Intent{
		Kind:         KindListing,
		Collection:   e.Collection.Slug,
		Event:        e,
		ListingPrice: e.Price(),
		Symbol:       e.PaymentToken.Symbol,
	}
}
