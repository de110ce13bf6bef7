package monitor

import (
	"context"
	"github.com/xyths/opensea-floor-monitor/alert"
	"github.com/xyths/opensea-floor-monitor/notify"
	"github.com/xyths/opensea-floor-monitor/opensea"
	"github.com/xyths/opensea-floor-monitor/settings"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"sync"
)

// Processor runs every listing through the engine and publishes the result.
// Handle must be called from a single goroutine; publishing runs in the background.
type Processor struct {
	Sugar *zap.SugaredLogger

	engine     *alert.Engine
	settings   settings.Reader
	dispatcher *notify.Dispatcher
	sinks      []Sink

	// last settings read successfully, used while the store is unreadable
	last alert.Settings

	wg sync.WaitGroup
}

func NewProcessor(engine *alert.Engine, reader settings.Reader, dispatcher *notify.Dispatcher,
	sugar *zap.SugaredLogger, sinks ...Sink) *Processor {
	return &Processor{
		Sugar:      sugar,
		engine:     engine,
		settings:   reader,
		dispatcher: dispatcher,
		sinks:      sinks,
	}
}

// Handle decides the alerts of one listing and returns them. Delivery is asynchronous.
func (p *Processor) Handle(ctx context.Context, e opensea.ListingEvent) []alert.Intent {
	s, err := p.settings.Settings(ctx)
	if err != nil {
		p.Sugar.Errorf("read settings error: %s", err)
		s = p.last
	} else {
		p.last = s
	}
	if !s.Tracks(e.Collection.Slug) {
		p.Sugar.Debugf("collection %s not tracked", e.Collection.Slug)
		eventsTotal.WithLabelValues("skipped").Inc()
		return nil
	}
	eventsTotal.WithLabelValues("processed").Inc()

	intents := p.engine.Evaluate(e, s)
	trackedFloors.Set(float64(p.engine.Tracker().Count()))
	for _, in := range intents {
		alertsTotal.WithLabelValues(string(in.Kind)).Inc()
	}

	// deliveries outlive a cancelled event loop
	bg := context.WithoutCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.publish(bg, e, intents)
	}()
	return intents
}

func (p *Processor) publish(ctx context.Context, e opensea.ListingEvent, intents []alert.Intent) {
	p.record(ctx, toRecord(alert.ListingIntent(e)))
	var g errgroup.Group
	for _, in := range intents {
		in := in
		p.record(ctx, toRecord(in))
		g.Go(func() error {
			p.dispatcher.Dispatch(ctx, in)
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Processor) record(ctx context.Context, r Record) {
	for _, s := range p.sinks {
		if err := s.Record(ctx, r); err != nil {
			p.Sugar.Errorf("record %s event error: %s", r.Type, err)
		}
	}
}

// Wait blocks until every started delivery has finished.
func (p *Processor) Wait() {
	p.wg.Wait()
}

func (p *Processor) Engine() *alert.Engine {
	return p.engine
}
