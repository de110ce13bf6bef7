package alert

import (
	"github.com/shopspring/decimal"
	"github.com/xyths/opensea-floor-monitor/floor"
	"github.com/xyths/opensea-floor-monitor/opensea"
	"strings"
	"testing"
)

func eth(price string) opensea.ListingEvent {
	return opensea.ListingEvent{
		Collection:     opensea.Collection{Slug: "azuki", Name: "Azuki"},
		Item:           opensea.Item{Metadata: opensea.Metadata{Name: "Azuki #7"}},
		BasePrice:      decimal.RequireFromString(price).Shift(18).String(),
		PaymentToken:   opensea.PaymentToken{Symbol: "ETH", Decimals: 18, UsdPrice: "2000"},
		EventTimestamp: "1700000000",
	}
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(d(s))
}

func kinds(intents []Intent) []Kind {
	var ks []Kind
	for _, in := range intents {
		ks = append(ks, in.Kind)
	}
	return ks
}

func off() *bool {
	b := false
	return &b
}

func TestFirstListingRaisesFloorUpdate(t *testing.T) {
	e := NewEngine(floor.NewTracker())
	intents := e.Evaluate(eth("1"), Settings{UndercutThreshold: nd("5")})
	if len(intents) != 1 || intents[0].Kind != KindFloorUpdate {
		t.Fatalf("intents = %v", kinds(intents))
	}
	in := intents[0]
	if !in.FloorPrice.Equal(d("1")) || in.Symbol != "ETH" || in.Collection != "azuki" {
		t.Fatalf("unexpected floor intent: %+v", in)
	}
}

func TestUndercutAndFloorUpdate(t *testing.T) {
	e := NewEngine(floor.NewTracker())
	s := Settings{UndercutThreshold: nd("5")}
	e.Evaluate(eth("1"), s)

	intents := e.Evaluate(eth("0.94"), s)
	if len(intents) != 2 || intents[0].Kind != KindUndercut || intents[1].Kind != KindFloorUpdate {
		t.Fatalf("intents = %v", kinds(intents))
	}
	u := intents[0]
	if !u.FloorPrice.Equal(d("1")) || !u.ListingPrice.Equal(d("0.94")) || !u.PercentBelow.Equal(d("6")) {
		t.Fatalf("undercut payload: %+v", u)
	}
	if !intents[1].FloorPrice.Equal(d("0.94")) {
		t.Fatalf("new floor = %s", intents[1].FloorPrice)
	}
}

func TestSmallDropIsOnlyFloorUpdate(t *testing.T) {
	e := NewEngine(floor.NewTracker())
	s := Settings{UndercutThreshold: nd("5")}
	e.Evaluate(eth("1"), s)

	intents := e.Evaluate(eth("0.96"), s)
	if len(intents) != 1 || intents[0].Kind != KindFloorUpdate {
		t.Fatalf("intents = %v", kinds(intents))
	}
}

func TestHigherListingRaisesNothing(t *testing.T) {
	e := NewEngine(floor.NewTracker())
	s := Settings{UndercutThreshold: nd("5")}
	e.Evaluate(eth("1"), s)
	if intents := e.Evaluate(eth("1.2"), s); len(intents) != 0 {
		t.Fatalf("intents = %v", kinds(intents))
	}
}

func TestUnsetThresholdRaisesNoUndercut(t *testing.T) {
	e := NewEngine(floor.NewTracker())
	e.Evaluate(eth("1"), Settings{})

	if intents := e.Evaluate(eth("1"), Settings{}); len(intents) != 0 {
		t.Fatalf("relist at the floor: %v", kinds(intents))
	}
	intents := e.Evaluate(eth("0.5"), Settings{})
	if len(intents) != 1 || intents[0].Kind != KindFloorUpdate {
		t.Fatalf("intents = %v", kinds(intents))
	}
}

func TestZeroThresholdIsExplicit(t *testing.T) {
	e := NewEngine(floor.NewTracker())
	s := Settings{UndercutThreshold: nd("0"), FloorAlerts: off()}
	e.Evaluate(eth("1"), s)

	intents := e.Evaluate(eth("1"), s)
	if len(intents) != 1 || intents[0].Kind != KindUndercut || !intents[0].PercentBelow.IsZero() {
		t.Fatalf("intents = %v", kinds(intents))
	}
}

func TestFloorFilterDropsUndercutButKeepsFloor(t *testing.T) {
	tests := []struct {
		name string
		s    Settings
	}{
		{"below min", Settings{UndercutThreshold: nd("5"), MinFloorPrice: nd("2")}},
		{"above max", Settings{UndercutThreshold: nd("5"), MaxFloorPrice: nd("0.5")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(floor.NewTracker())
			e.Evaluate(eth("1"), tt.s)
			intents := e.Evaluate(eth("0.5"), tt.s)
			for _, in := range intents {
				if in.Kind == KindUndercut {
					t.Fatal("undercut should be filtered out")
				}
			}
			r, _ := e.Tracker().Floor("azuki")
			if !r.Price.Equal(d("0.5")) {
				t.Fatalf("floor = %s, want 0.5", r.Price)
			}
		})
	}
}

func TestFloorFilterInsideBand(t *testing.T) {
	e := NewEngine(floor.NewTracker())
	s := Settings{UndercutThreshold: nd("5"), MinFloorPrice: nd("1"), MaxFloorPrice: nd("1")}
	e.Evaluate(eth("1"), s)
	intents := e.Evaluate(eth("0.5"), s)
	if len(intents) == 0 || intents[0].Kind != KindUndercut {
		t.Fatalf("band bounds are inclusive, intents = %v", kinds(intents))
	}
}

func TestPriceTriggerMin(t *testing.T) {
	e := NewEngine(floor.NewTracker())
	s := Settings{UndercutThreshold: nd("5"), PriceAlerts: true, PriceAlertMin: nd("0.5"), FloorAlerts: off()}
	e.Evaluate(eth("1"), s)

	intents := e.Evaluate(eth("0.3"), s)
	if len(intents) != 1 || intents[0].Kind != KindPriceAlert {
		t.Fatalf("intents = %v", kinds(intents))
	}
	if intents[0].Reason != "below 0.5" {
		t.Fatalf("reason = %q", intents[0].Reason)
	}
	r, _ := e.Tracker().Floor("azuki")
	if !r.Price.Equal(d("0.3")) {
		t.Fatalf("floor should still move, got %s", r.Price)
	}
}

func TestPriceTriggerMax(t *testing.T) {
	e := NewEngine(floor.NewTracker())
	s := Settings{PriceAlerts: true, PriceAlertMax: nd("10")}
	intents := e.Evaluate(eth("12"), s)
	if len(intents) != 2 || intents[0].Reason != "above 10" {
		t.Fatalf("intents = %+v", intents)
	}
}

func TestPriceTriggerMaxOverwritesMin(t *testing.T) {
	e := NewEngine(floor.NewTracker())
	s := Settings{PriceAlerts: true, PriceAlertMin: nd("5"), PriceAlertMax: nd("2"), FloorAlerts: off()}
	intents := e.Evaluate(eth("3"), s)
	if len(intents) != 1 {
		t.Fatalf("intents = %v", kinds(intents))
	}
	if intents[0].Reason != "above 2" {
		t.Fatalf("reason = %q, want the max bound", intents[0].Reason)
	}
}

func TestPriceTriggerInsideBounds(t *testing.T) {
	e := NewEngine(floor.NewTracker())
	s := Settings{PriceAlerts: true, PriceAlertMin: nd("0.5"), PriceAlertMax: nd("2"), FloorAlerts: off()}
	if intents := e.Evaluate(eth("1"), s); len(intents) != 0 {
		t.Fatalf("intents = %v", kinds(intents))
	}
}

func TestPriceTriggerSuppressesUndercut(t *testing.T) {
	e := NewEngine(floor.NewTracker())
	s := Settings{UndercutThreshold: nd("1"), FloorAlerts: off()}
	e.Evaluate(eth("1"), s)

	s.PriceAlerts = true
	intents := e.Evaluate(eth("0.5"), s)
	if len(intents) != 0 {
		t.Fatalf("no bounds configured, undercut must stay silent: %v", kinds(intents))
	}

	s.PriceAlerts = false
	intents = e.Evaluate(eth("0.2"), s)
	if len(intents) != 1 || intents[0].Kind != KindUndercut {
		t.Fatalf("switching back re-enables undercut alerts: %v", kinds(intents))
	}
}

func TestFloorAlertsToggle(t *testing.T) {
	on := true
	tests := []struct {
		toggle *bool
		want   int
	}{
		{nil, 1},
		{&on, 1},
		{off(), 0},
	}
	for _, tt := range tests {
		e := NewEngine(floor.NewTracker())
		intents := e.Evaluate(eth("1"), Settings{FloorAlerts: tt.toggle})
		if len(intents) != tt.want {
			t.Errorf("toggle %v: intents = %v", tt.toggle, kinds(intents))
		}
	}
}

func TestTracks(t *testing.T) {
	if !(Settings{}).Tracks("anything") {
		t.Fatal("empty list tracks everything")
	}
	s := Settings{Collections: []string{"azuki", "doodles"}}
	if !s.Tracks("doodles") || s.Tracks("pudgy") {
		t.Fatal("tracked list mismatch")
	}
}

func TestIntentMessage(t *testing.T) {
	e := NewEngine(floor.NewTracker())
	s := Settings{UndercutThreshold: nd("5")}
	e.Evaluate(eth("1"), s)
	intents := e.Evaluate(eth("0.9"), s)

	msg := intents[0].Message()
	for _, want := range []string{"Azuki #7", "0.9 ETH", "10.00%", "floor 1 ETH"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
	if got := intents[1].Message(); got != "floor is now 0.9 ETH" {
		t.Errorf("floor message = %q", got)
	}
	if got := intents[0].Title(); got != "Undercut: Azuki" {
		t.Errorf("title = %q", got)
	}
}
