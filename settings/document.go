// Package settings reads the user's alert settings from a file or from MongoDB.
package settings

import (
	"context"
	"github.com/shopspring/decimal"
	"github.com/xyths/opensea-floor-monitor/alert"
)

// Reader returns the current settings. Each call is a fresh snapshot.
type Reader interface {
	Settings(ctx context.Context) (alert.Settings, error)
}

// Document is the stored form of the settings, as written by the dashboard.
type Document struct {
	Collections       []string `json:"collections" bson:"collections" mapstructure:"collections"`
	UndercutThreshold *float64 `json:"undercutThreshold,omitempty" bson:"undercutThreshold,omitempty" mapstructure:"undercutThreshold"`
	MinFloorPrice     *float64 `json:"minFloorPrice,omitempty" bson:"minFloorPrice,omitempty" mapstructure:"minFloorPrice"`
	MaxFloorPrice     *float64 `json:"maxFloorPrice,omitempty" bson:"maxFloorPrice,omitempty" mapstructure:"maxFloorPrice"`
	EnablePriceAlerts bool     `json:"enablePriceAlerts" bson:"enablePriceAlerts" mapstructure:"enablePriceAlerts"`
	PriceAlertMin     *float64 `json:"priceAlertMin,omitempty" bson:"priceAlertMin,omitempty" mapstructure:"priceAlertMin"`
	PriceAlertMax     *float64 `json:"priceAlertMax,omitempty" bson:"priceAlertMax,omitempty" mapstructure:"priceAlertMax"`
	EnableFloorAlerts *bool    `json:"enableFloorAlerts,omitempty" bson:"enableFloorAlerts,omitempty" mapstructure:"enableFloorAlerts"`
}

// Snapshot converts the document. Nil bounds stay unset.
func (d Document) Snapshot() alert.Settings {
	s := alert.Settings{
		UndercutThreshold: nullable(d.UndercutThreshold),
		MinFloorPrice:     nullable(d.MinFloorPrice),
		MaxFloorPrice:     nullable(d.MaxFloorPrice),
		PriceAlerts:       d.EnablePriceAlerts,
		PriceAlertMin:     nullable(d.PriceAlertMin),
		PriceAlertMax:     nullable(d.PriceAlertMax),
	}
	if len(d.Collections) > 0 {
		s.Collections = append([]string(nil), d.Collections...)
	}
	if d.EnableFloorAlerts != nil {
		v := *d.EnableFloorAlerts
		s.FloorAlerts = &v
	}
	return s
}

func nullable(f *float64) decimal.NullDecimal {
	if f == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*f))
}

// Static always returns the same settings.
type Static alert.Settings

func (s Static) Settings(context.Context) (alert.Settings, error) {
	return alert.Settings(s), nil
}
