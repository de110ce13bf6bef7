// Package telegram sends alerts as Telegram bot messages.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xyths/opensea-floor-monitor/alert"
	"github.com/xyths/opensea-floor-monitor/opensea"
	"net/http"
	"strings"
	"time"
)

const defaultEndpoint = "https://api.telegram.org"

// Timeout bounds one sendMessage call.
const Timeout = 10 * time.Second

type Config struct {
	Token    string `json:"token"`
	ChatId   string `json:"chatId"`
	Endpoint string `json:"endpoint"` // api base, default https://api.telegram.org
}

// Enabled needs both the bot token and the chat.
func (c Config) Enabled() bool {
	return c.Token != "" && c.ChatId != ""
}

type Client struct {
	cfg    Config
	client *http.Client
}

func NewClient(cfg Config) *Client {
	return NewClientWithHttp(cfg, &http.Client{Timeout: Timeout})
}

func NewClientWithHttp(cfg Config, client *http.Client) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &Client{cfg: cfg, client: client}
}

func (c *Client) Name() string { return "telegram" }

type sendMessage struct {
	ChatId    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Send calls sendMessage once. Any non-2xx status is an error.
func (c *Client) Send(ctx context.Context, in alert.Intent) error {
	body, err := json.Marshal(sendMessage{
		ChatId:    c.cfg.ChatId,
		Text:      format(in),
		ParseMode: tgbotapi.ModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.cfg.Endpoint, c.cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram status %d", resp.StatusCode)
	}
	return nil
}

// format is the Markdown text of the message.
func format(in alert.Intent) string {
	esc := func(s string) string { return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s) }
	var b strings.Builder
	switch in.Kind {
	case alert.KindUndercut:
		b.WriteString("🔻 *Undercut* ")
	case alert.KindPriceAlert:
		b.WriteString("🔔 *Price alert* ")
	case alert.KindFloorUpdate:
		b.WriteString("📉 *New floor* ")
	default:
		b.WriteString("🏷 *Listing* ")
	}
	b.WriteString(esc(in.Event.DisplayName()))
	b.WriteString("\n")
	if name := in.Event.Item.Metadata.Name; name != "" && in.Kind != alert.KindFloorUpdate {
		fmt.Fprintf(&b, "Item: %s\n", esc(name))
	}
	switch in.Kind {
	case alert.KindUndercut:
		fmt.Fprintf(&b, "Price: %s\nFloor: %s\nBelow: %s%%\n",
			esc(opensea.FormatPrice(in.ListingPrice, in.Symbol)),
			esc(opensea.FormatPrice(in.FloorPrice, in.Symbol)),
			in.PercentBelow.StringFixed(2))
	case alert.KindPriceAlert:
		fmt.Fprintf(&b, "Price: %s (%s)\n", esc(opensea.FormatPrice(in.ListingPrice, in.Symbol)), esc(in.Reason))
	case alert.KindFloorUpdate:
		fmt.Fprintf(&b, "Floor: %s\n", esc(opensea.FormatPrice(in.FloorPrice, in.Symbol)))
	default:
		fmt.Fprintf(&b, "Price: %s\n", esc(opensea.FormatPrice(in.ListingPrice, in.Symbol)))
	}
	if link := in.Event.Item.Permalink; link != "" {
		fmt.Fprintf(&b, "[View on OpenSea](%s)", link)
	}
	return strings.TrimRight(b.String(), "\n")
}
