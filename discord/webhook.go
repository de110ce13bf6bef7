// Package discord posts alerts to a Discord webhook.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/bwmarrin/discordgo"
	"github.com/xyths/opensea-floor-monitor/alert"
	"github.com/xyths/opensea-floor-monitor/opensea"
	"net/http"
	"time"
)

const footer = "OpenSea Floor Monitor"

// Timeout bounds one webhook call.
const Timeout = 10 * time.Second

const (
	colorUndercut    = 0xE74C3C
	colorPriceAlert  = 0xF39C12
	colorFloorUpdate = 0x2ECC71
	colorListing     = 0x3498DB
)

type Config struct {
	Webhook  string `json:"webhook"`
	Username string `json:"username"`
}

func (c Config) Enabled() bool {
	return c.Webhook != ""
}

type Webhook struct {
	cfg    Config
	client *http.Client
}

func NewWebhook(cfg Config) *Webhook {
	return NewWebhookWithClient(cfg, &http.Client{Timeout: Timeout})
}

func NewWebhookWithClient(cfg Config, client *http.Client) *Webhook {
	return &Webhook{cfg: cfg, client: client}
}

func (w *Webhook) Name() string { return "discord" }

// Send posts one embed to the webhook. Any non-2xx status is an error.
func (w *Webhook) Send(ctx context.Context, in alert.Intent) error {
	body, err := json.Marshal(w.params(in))
	if err != nil {
		return fmt.Errorf("marshal discord payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.Webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send discord request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook status %d", resp.StatusCode)
	}
	return nil
}

func (w *Webhook) params(in alert.Intent) *discordgo.WebhookParams {
	return &discordgo.WebhookParams{
		Username: w.cfg.Username,
		Embeds:   []*discordgo.MessageEmbed{embed(in)},
	}
}

func embed(in alert.Intent) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       in.Title(),
		URL:         in.Event.Item.Permalink,
		Description: description(in),
		Color:       color(in.Kind),
		Fields:      fields(in),
		Footer:      &discordgo.MessageEmbedFooter{Text: footer},
	}
	if img := in.Event.Item.Metadata.ImageUrl; img != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: img}
	}
	if ts := in.Event.Time(); !ts.IsZero() {
		e.Timestamp = ts.Format("2006-01-02T15:04:05.000Z07:00")
	}
	return e
}

func description(in alert.Intent) string {
	switch in.Kind {
	case alert.KindUndercut:
		return fmt.Sprintf("**%s** listed **%s%%** below the floor", in.Event.Item.Metadata.Name, in.PercentBelow.StringFixed(2))
	case alert.KindPriceAlert:
		return fmt.Sprintf("**%s** listed %s", in.Event.Item.Metadata.Name, in.Reason)
	case alert.KindFloorUpdate:
		return fmt.Sprintf("Floor moved to **%s**", opensea.FormatPrice(in.FloorPrice, in.Symbol))
	default:
		return in.Message()
	}
}

func fields(in alert.Intent) []*discordgo.MessageEmbedField {
	var fs []*discordgo.MessageEmbedField
	add := func(name, value string) {
		fs = append(fs, &discordgo.MessageEmbedField{Name: name, Value: value, Inline: true})
	}
	switch in.Kind {
	case alert.KindUndercut:
		add("Price", opensea.FormatPrice(in.ListingPrice, in.Symbol))
		add("Floor", opensea.FormatPrice(in.FloorPrice, in.Symbol))
		add("Below", in.PercentBelow.StringFixed(2)+"%")
	case alert.KindPriceAlert:
		add("Price", opensea.FormatPrice(in.ListingPrice, in.Symbol))
		add("Trigger", in.Reason)
	case alert.KindFloorUpdate:
		add("Floor", opensea.FormatPrice(in.FloorPrice, in.Symbol))
		if usd := in.Event.UsdPrice(); !usd.IsZero() {
			add("USD", "$"+usd.StringFixed(2))
		}
	}
	if maker := in.Event.MakerName(); maker != "" {
		add("Maker", maker)
	}
	return fs
}

func color(k alert.Kind) int {
	switch k {
	case alert.KindUndercut:
		return colorUndercut
	case alert.KindPriceAlert:
		return colorPriceAlert
	case alert.KindFloorUpdate:
		return colorFloorUpdate
	default:
		return colorListing
	}
}
