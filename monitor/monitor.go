// Package monitor wires the OpenSea stream, the floor engine and the notification channels.
package monitor

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/xyths/hs"
	"github.com/xyths/opensea-floor-monitor/alert"
	"github.com/xyths/opensea-floor-monitor/floor"
	"github.com/xyths/opensea-floor-monitor/notify"
	"github.com/xyths/opensea-floor-monitor/opensea"
	"github.com/xyths/opensea-floor-monitor/settings"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"io"
	"net/http"
	"sync"
	"time"
)

const defaultExpire = 24 * time.Hour

type SettingsConf struct {
	File string `json:"file"` // settings file, watched for changes; empty reads MongoDB
}

type Config struct {
	Mongo    *hs.MongoConf // optional, enables the settings collection and the event log
	Log      hs.LogConf
	Stream   opensea.StreamConf
	Api      opensea.ApiConf // with a key, collection names are looked up on OpenSea
	Settings SettingsConf
	Notify   notify.Config
	Status   StatusConf
	Expire   string // how long alert events are kept in MongoDB, default 24h
}

type Monitor struct {
	cfg    Config
	expire time.Duration

	Sugar *zap.SugaredLogger
	db    *mongo.Database

	settings  settings.Reader
	processor *Processor
	status    *http.Server

	api     *opensea.Api
	namesMu sync.RWMutex
	names   map[string]string
}

func New(cfg Config) *Monitor {
	return &Monitor{cfg: cfg}
}

func (m *Monitor) Init(ctx context.Context) error {
	l, err := hs.NewZapLogger(m.cfg.Log)
	if err != nil {
		return err
	}
	m.Sugar = l.Sugar()
	m.Sugar.Info("logger initialized")

	m.expire = defaultExpire
	if m.cfg.Expire != "" {
		if m.expire, err = time.ParseDuration(m.cfg.Expire); err != nil {
			m.Sugar.Errorf("expire %s format error: %s", m.cfg.Expire, err)
			return err
		}
	}

	sinks := []Sink{LogSink{Sugar: m.Sugar}}
	if m.cfg.Mongo != nil {
		db, err := hs.ConnectMongo(ctx, *m.cfg.Mongo)
		if err != nil {
			m.Sugar.Errorf("connect mongo error: %s", err)
			return err
		}
		m.db = db
		ms := NewMongoSink(db, m.expire)
		if name, err := ms.initIndex(ctx); err != nil {
			m.Sugar.Errorf("init index error: %s", err)
			return err
		} else if name != "" {
			m.Sugar.Infof("create index %s", name)
		}
		sinks = append(sinks, ms)
		m.Sugar.Info("database initialized")
	}

	if err = m.initSettings(); err != nil {
		return err
	}

	engine := alert.NewEngine(floor.NewTracker())
	dispatcher := notify.NewFromConfig(m.cfg.Notify, m.Sugar)
	m.processor = NewProcessor(engine, m.settings, dispatcher, m.Sugar, sinks...)
	m.Sugar.Infof("notification channels: %v", dispatcher.Channels())
	m.names = make(map[string]string)
	if m.cfg.Api.Key != "" {
		m.api = opensea.NewApi(m.cfg.Api)
	}
	m.Sugar.Info("Monitor initialized")
	return nil
}

func (m *Monitor) initSettings() error {
	switch {
	case m.cfg.Settings.File != "":
		fs, err := settings.NewFileStore(m.cfg.Settings.File, m.Sugar)
		if err != nil {
			m.Sugar.Errorf("load settings error: %s", err)
			return err
		}
		fs.Watch()
		m.settings = fs
		m.Sugar.Infof("settings loaded from %s", m.cfg.Settings.File)
	case m.db != nil:
		m.settings = settings.NewMongoStore(m.db)
		m.Sugar.Info("settings read from MongoDB")
	default:
		m.settings = settings.Static{}
		m.Sugar.Info("no settings source, using defaults")
	}
	return nil
}

func (m *Monitor) Close(ctx context.Context) {
	if m.processor != nil {
		m.processor.Wait()
	}
	if m.status != nil {
		if err := m.status.Shutdown(ctx); err != nil {
			m.Sugar.Errorf("status server close error: %s", err)
		}
	}
	if m.db != nil {
		if err := m.db.Client().Disconnect(ctx); err != nil {
			m.Sugar.Errorf("db close error: %s", err)
		}
	}
	m.Sugar.Info("Monitor closed")
}

// Monitor follows the live stream until ctx is cancelled.
func (m *Monitor) Monitor(ctx context.Context) error {
	m.serveStatus()
	stream, err := opensea.NewStream(m.cfg.Stream, m.Sugar)
	if err != nil {
		m.Sugar.Errorf("stream config error: %s", err)
		return err
	}
	err = stream.Run(ctx, m.collections, func(ctx context.Context, e opensea.ListingEvent) {
		if e.Collection.Name == "" {
			e.Collection.Name = m.name(e.Collection.Slug)
		}
		m.processor.Handle(ctx, e)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (m *Monitor) collections(ctx context.Context) ([]string, error) {
	s, err := m.settings.Settings(ctx)
	if err != nil {
		return nil, err
	}
	m.resolveNames(ctx, s.Collections)
	return s.Collections, nil
}

func (m *Monitor) name(slug string) string {
	m.namesMu.RLock()
	defer m.namesMu.RUnlock()
	return m.names[slug]
}

// resolveNames looks up the names of collections seen for the first time.
// Failed lookups are retried on the next call.
func (m *Monitor) resolveNames(ctx context.Context, slugs []string) {
	if m.api == nil {
		return
	}
	var missing []string
	m.namesMu.RLock()
	for _, slug := range slugs {
		if _, ok := m.names[slug]; !ok {
			missing = append(missing, slug)
		}
	}
	m.namesMu.RUnlock()
	if len(missing) == 0 {
		return
	}
	names, errs := m.api.Names(ctx, missing)
	for slug, err := range errs {
		m.Sugar.Errorf("retrieve collection %s error: %s", slug, err)
	}
	m.namesMu.Lock()
	for slug, name := range names {
		m.names[slug] = name
	}
	m.namesMu.Unlock()
}

func (m *Monitor) serveStatus() {
	if m.cfg.Status.Listen == "" {
		return
	}
	m.status = &http.Server{
		Addr:    m.cfg.Status.Listen,
		Handler: statusHandler(m.processor.Engine().Tracker()),
	}
	go func() {
		m.Sugar.Infof("status server listening on %s", m.cfg.Status.Listen)
		if err := m.status.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.Sugar.Errorf("status server error: %s", err)
		}
	}()
}

// Replay processes newline-delimited listing events from r and waits for all deliveries.
// Invalid lines are logged and skipped.
func (m *Monitor) Replay(ctx context.Context, r io.Reader) (int, error) {
	n, err := replay(ctx, r, m.processor, m.Sugar)
	m.processor.Wait()
	return n, err
}

func replay(ctx context.Context, r io.Reader, p *Processor, sugar *zap.SugaredLogger) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	var n, line int
	for scanner.Scan() {
		line++
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		default:
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e opensea.ListingEvent
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			sugar.Errorf("line %d decode error: %s", line, err)
			continue
		}
		if err := e.Validate(); err != nil {
			sugar.Errorf("line %d invalid listing: %s", line, err)
			continue
		}
		p.Handle(ctx, e)
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("read events: %w", err)
	}
	return n, nil
}

// Floors is a copy of the current floors.
func (m *Monitor) Floors() map[string]floor.Record {
	return m.processor.Engine().Tracker().Floors()
}
