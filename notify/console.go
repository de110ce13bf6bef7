package notify

import (
	"context"
	"fmt"
	"github.com/xyths/opensea-floor-monitor/alert"
	"github.com/xyths/opensea-floor-monitor/opensea"
	"io"
	"strings"
	"sync"
	"unicode/utf8"
)

// Console prints every alert as a boxed block.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Name() string { return "console" }

func (c *Console) Send(_ context.Context, in alert.Intent) error {
	block := box(consoleLines(in))
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.out, block)
	return err
}

func consoleLines(in alert.Intent) []string {
	lines := []string{strings.ToUpper(string(in.Kind)) + "  " + in.Event.DisplayName()}
	if name := in.Event.Item.Metadata.Name; name != "" {
		lines = append(lines, "Item:    "+name)
	}
	switch in.Kind {
	case alert.KindUndercut:
		lines = append(lines,
			"Price:   "+opensea.FormatPrice(in.ListingPrice, in.Symbol),
			"Floor:   "+opensea.FormatPrice(in.FloorPrice, in.Symbol),
			"Below:   "+in.PercentBelow.StringFixed(2)+"%",
		)
	case alert.KindPriceAlert:
		lines = append(lines,
			"Price:   "+opensea.FormatPrice(in.ListingPrice, in.Symbol),
			"Trigger: "+in.Reason,
		)
	case alert.KindFloorUpdate:
		lines = append(lines, "Floor:   "+opensea.FormatPrice(in.FloorPrice, in.Symbol))
	default:
		lines = append(lines, "Price:   "+opensea.FormatPrice(in.ListingPrice, in.Symbol))
	}
	if maker := in.Event.MakerName(); maker != "" {
		lines = append(lines, "Maker:   "+maker)
	}
	if link := in.Event.Item.Permalink; link != "" {
		lines = append(lines, "Link:    "+link)
	}
	return lines
}

func box(lines []string) string {
	width := 0
	for _, l := range lines {
		if n := utf8.RuneCountInString(l); n > width {
			width = n
		}
	}
	border := strings.Repeat("─", width+2)
	var b strings.Builder
	b.WriteString("┌" + border + "┐\n")
	for _, l := range lines {
		pad := width - utf8.RuneCountInString(l)
		fmt.Fprintf(&b, "│ %s%s │\n", l, strings.Repeat(" ", pad))
	}
	b.WriteString("└" + border + "┘\n")
	return b.String()
}
