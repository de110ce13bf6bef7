package opensea

import (
	"errors"
	"fmt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/xyths/hs/convert"
	"strconv"
	"time"
)

// Price is the base price in the token's main unit.
// The event must have passed Validate.
func (e ListingEvent) Price() decimal.Decimal {
	return toUnit(e.BasePrice, e.PaymentToken.Decimals)
}

// UsdPrice is Price multiplied by the token's USD unit price.
func (e ListingEvent) UsdPrice() decimal.Decimal {
	usd, err := decimal.NewFromString(e.PaymentToken.UsdPrice)
	if err != nil {
		return decimal.Zero
	}
	return e.Price().Mul(usd)
}

// Time converts the epoch-seconds timestamp.
func (e ListingEvent) Time() time.Time {
	sec, err := strconv.ParseInt(e.EventTimestamp, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// DisplayName prefers the collection name and falls back to the slug.
func (e ListingEvent) DisplayName() string {
	if e.Collection.Name != "" {
		return e.Collection.Name
	}
	return e.Collection.Slug
}

// MakerName is the short checksummed maker address, "" when unknown.
func (e ListingEvent) MakerName() string {
	if e.Maker.Address == "" {
		return ""
	}
	return convert.ShortAddress(common.HexToAddress(e.Maker.Address).Hex())
}

// Validate rejects events whose numeric fields cannot be parsed.
func (e ListingEvent) Validate() error {
	if e.Collection.Slug == "" {
		return errors.New("missing collection slug")
	}
	if _, err := decimal.NewFromString(e.BasePrice); err != nil {
		return fmt.Errorf("bad base_price %q: %w", e.BasePrice, err)
	}
	if e.PaymentToken.Decimals < 0 {
		return fmt.Errorf("bad decimals %d", e.PaymentToken.Decimals)
	}
	if e.PaymentToken.UsdPrice != "" {
		if _, err := decimal.NewFromString(e.PaymentToken.UsdPrice); err != nil {
			return fmt.Errorf("bad usd_price %q: %w", e.PaymentToken.UsdPrice, err)
		}
	}
	if _, err := strconv.ParseInt(e.EventTimestamp, 10, 64); err != nil {
		return fmt.Errorf("bad event_timestamp %q: %w", e.EventTimestamp, err)
	}
	return nil
}

func toUnit(price string, decimals int) decimal.Decimal {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return decimal.Zero
	}
	return d.Shift(int32(-decimals))
}

// FormatPrice renders a price with its token symbol, "1.5 ETH".
func FormatPrice(price decimal.Decimal, symbol string) string {
	if symbol == "" {
		return price.String()
	}
	return fmt.Sprintf("%s %s", price.String(), symbol)
}
