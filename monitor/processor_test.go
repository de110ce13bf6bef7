package monitor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/shopspring/decimal"
	"github.com/xyths/opensea-floor-monitor/alert"
	"github.com/xyths/opensea-floor-monitor/floor"
	"github.com/xyths/opensea-floor-monitor/notify"
	"github.com/xyths/opensea-floor-monitor/opensea"
	"github.com/xyths/opensea-floor-monitor/settings"
	"go.uber.org/zap"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func eth(slug, price string) opensea.ListingEvent {
	return opensea.ListingEvent{
		Collection:     opensea.Collection{Slug: slug},
		Item:           opensea.Item{Metadata: opensea.Metadata{Name: slug + " #1"}},
		BasePrice:      decimal.RequireFromString(price).Shift(18).String(),
		PaymentToken:   opensea.PaymentToken{Symbol: "ETH", Decimals: 18, UsdPrice: "2000"},
		EventTimestamp: "1700000000",
	}
}

type memSink struct {
	mu      sync.Mutex
	records []Record
}

func (s *memSink) Record(_ context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *memSink) types() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := map[string]int{}
	for _, r := range s.records {
		m[r.Type]++
	}
	return m
}

type recorder struct {
	name string
	err  error

	mu    sync.Mutex
	kinds []alert.Kind
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Send(_ context.Context, in alert.Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, in.Kind)
	return r.err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.kinds)
}

type failingReader struct{}

func (failingReader) Settings(context.Context) (alert.Settings, error) {
	return alert.Settings{}, errors.New("store down")
}

func newProcessor(reader settings.Reader, channels ...notify.Channel) (*Processor, *memSink) {
	sugar := zap.NewNop().Sugar()
	sink := &memSink{}
	p := NewProcessor(alert.NewEngine(floor.NewTracker()), reader, notify.New(sugar, channels...), sugar, sink)
	return p, sink
}

func threshold(pct int64) settings.Static {
	return settings.Static{UndercutThreshold: decimal.NewNullDecimal(decimal.NewFromInt(pct))}
}

func TestHandlePublishesEveryIntent(t *testing.T) {
	ch := &recorder{name: "fake"}
	p, sink := newProcessor(threshold(5), ch)
	ctx := context.Background()

	p.Handle(ctx, eth("azuki", "1"))
	intents := p.Handle(ctx, eth("azuki", "0.9"))
	p.Wait()

	if len(intents) != 2 {
		t.Fatalf("intents = %+v", intents)
	}
	if ch.count() != 3 {
		t.Fatalf("channel got %d alerts, want 3", ch.count())
	}
	types := sink.types()
	if types["listing"] != 2 || types["undercut"] != 1 || types["floor_update"] != 2 {
		t.Fatalf("records = %v", types)
	}
}

func TestHandleSkipsUntracked(t *testing.T) {
	ch := &recorder{name: "fake"}
	reader := settings.Static{Collections: []string{"azuki"}}
	p, sink := newProcessor(reader, ch)

	if intents := p.Handle(context.Background(), eth("doodles", "1")); intents != nil {
		t.Fatalf("untracked collection raised %v", intents)
	}
	p.Wait()
	if ch.count() != 0 || len(sink.types()) != 0 {
		t.Fatal("untracked collection must not publish")
	}
	if _, ok := p.Engine().Tracker().Floor("doodles"); ok {
		t.Fatal("untracked collection must not get a floor")
	}
}

func TestHandleSettingsFailureStillTracksFloor(t *testing.T) {
	p, _ := newProcessor(failingReader{}, &recorder{name: "fake"})
	intents := p.Handle(context.Background(), eth("azuki", "1"))
	p.Wait()
	if len(intents) != 1 || intents[0].Kind != alert.KindFloorUpdate {
		t.Fatalf("intents = %+v", intents)
	}
	if r, ok := p.Engine().Tracker().Floor("azuki"); !ok || !r.Price.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("floor = %+v", r)
	}
}

func TestRelistAtFloorWithoutThreshold(t *testing.T) {
	tests := []struct {
		name   string
		reader settings.Reader
	}{
		{"no settings", settings.Static{}},
		{"unreadable settings", failingReader{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &recorder{name: "fake"}
			p, _ := newProcessor(tt.reader, ch)
			ctx := context.Background()
			p.Handle(ctx, eth("azuki", "1"))
			if intents := p.Handle(ctx, eth("azuki", "1")); len(intents) != 0 {
				t.Fatalf("relist at the floor raised %+v", intents)
			}
			p.Wait()
			if ch.count() != 1 {
				t.Fatalf("channel got %d alerts, want only the first floor", ch.count())
			}
		})
	}
}

// flakyReader succeeds once and fails afterwards.
type flakyReader struct {
	s     alert.Settings
	calls int
}

func (r *flakyReader) Settings(context.Context) (alert.Settings, error) {
	r.calls++
	if r.calls > 1 {
		return alert.Settings{}, errors.New("store down")
	}
	return r.s, nil
}

func TestSettingsFailureKeepsLastSnapshot(t *testing.T) {
	reader := &flakyReader{s: alert.Settings{
		Collections:       []string{"azuki"},
		UndercutThreshold: decimal.NewNullDecimal(decimal.NewFromInt(5)),
	}}
	p, _ := newProcessor(reader, &recorder{name: "fake"})
	ctx := context.Background()

	p.Handle(ctx, eth("azuki", "1"))
	if intents := p.Handle(ctx, eth("doodles", "1")); intents != nil {
		t.Fatalf("untracked collection raised %v during outage", intents)
	}
	intents := p.Handle(ctx, eth("azuki", "0.9"))
	p.Wait()
	if len(intents) != 2 || intents[0].Kind != alert.KindUndercut {
		t.Fatalf("intents = %+v", intents)
	}
}

func TestFailedChannelDoesNotAffectNextEvent(t *testing.T) {
	var discordCalls, tgCalls int
	var mu sync.Mutex
	discordSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		discordCalls++
		mu.Unlock()
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer discordSrv.Close()
	tgSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		tgCalls++
		mu.Unlock()
	}))
	defer tgSrv.Close()

	cfg := notify.Config{}
	cfg.Discord.Webhook = discordSrv.URL
	cfg.Telegram.Token = "t"
	cfg.Telegram.ChatId = "1"
	cfg.Telegram.Endpoint = tgSrv.URL
	sugar := zap.NewNop().Sugar()
	d := notify.NewFromConfig(cfg, sugar)
	p := NewProcessor(alert.NewEngine(floor.NewTracker()), threshold(5), d, sugar)

	ctx := context.Background()
	p.Handle(ctx, eth("azuki", "1"))
	p.Handle(ctx, eth("azuki", "0.5"))
	p.Wait()

	r, _ := p.Engine().Tracker().Floor("azuki")
	if !r.Price.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("floor = %s", r.Price)
	}
	mu.Lock()
	defer mu.Unlock()
	// floor_update, then undercut + floor_update
	if discordCalls != 3 || tgCalls != 3 {
		t.Fatalf("discord=%d telegram=%d, want 3 each", discordCalls, tgCalls)
	}
}

func TestReplay(t *testing.T) {
	ch := &recorder{name: "fake"}
	p, _ := newProcessor(threshold(5), ch)
	var buf bytes.Buffer
	for _, price := range []string{"1000000000000000000", "1200000000000000000", "800000000000000000"} {
		fmt.Fprintf(&buf, `{"collection":{"slug":"azuki"},"base_price":"%s","payment_token":{"symbol":"ETH","decimals":18,"usd_price":"2000"},"event_timestamp":"1700000000","extra":true}`+"\n", price)
	}
	buf.WriteString("\n")
	buf.WriteString(`{"collection":{"slug":"azuki"},"base_price":"oops","payment_token":{"decimals":18},"event_timestamp":"1"}` + "\n")
	buf.WriteString("not json\n")

	n, err := replay(context.Background(), strings.NewReader(buf.String()), p, zap.NewNop().Sugar())
	p.Wait()
	if err != nil || n != 3 {
		t.Fatalf("replay = %d, %v", n, err)
	}
	r, _ := p.Engine().Tracker().Floor("azuki")
	if !r.Price.Equal(decimal.RequireFromString("0.8")) {
		t.Fatalf("floor = %s", r.Price)
	}
	// 1.0 sets the floor, 1.2 is ignored, 0.8 is an undercut and a new floor
	if ch.count() != 3 {
		t.Fatalf("alerts = %d", ch.count())
	}
}

func TestStatusFloors(t *testing.T) {
	tr := floor.NewTracker()
	tr.Update("azuki", eth("azuki", "1.5"))
	srv := httptest.NewServer(statusHandler(tr))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/floors")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body bytes.Buffer
	_, _ = body.ReadFrom(resp.Body)
	if !strings.Contains(body.String(), `"azuki":{"price":"1.5"`) {
		t.Fatalf("floors = %s", body.String())
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
}
