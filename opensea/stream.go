package opensea

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"net/url"
	"sync"
	"time"
)

const defaultStreamUrl = "wss://stream.openseabeta.com/socket/websocket"

type StreamConf struct {
	Url       string `json:"url"`
	Token     string `json:"token"`     // OpenSea API key
	Heartbeat string `json:"heartbeat"` // default 30s
	Reconnect string `json:"reconnect"` // default 5s
}

// Handler receives validated listings in arrival order.
type Handler func(ctx context.Context, e ListingEvent)

// Collections returns the tracked collection slugs. An empty list means all collections.
type Collections func(ctx context.Context) ([]string, error)

// Stream subscribes to item_listed events of a set of collections.
type Stream struct {
	cfg       StreamConf
	heartbeat time.Duration
	reconnect time.Duration

	Sugar  *zap.SugaredLogger
	dialer *websocket.Dialer

	wmu  sync.Mutex
	conn *websocket.Conn
	ref  int64
}

func NewStream(cfg StreamConf, sugar *zap.SugaredLogger) (*Stream, error) {
	s := &Stream{cfg: cfg, Sugar: sugar, dialer: websocket.DefaultDialer}
	if s.cfg.Url == "" {
		s.cfg.Url = defaultStreamUrl
	}
	var err error
	if s.heartbeat, err = parseDuration(cfg.Heartbeat, 30*time.Second); err != nil {
		return nil, fmt.Errorf("heartbeat %s format error: %w", cfg.Heartbeat, err)
	}
	if s.reconnect, err = parseDuration(cfg.Reconnect, 5*time.Second); err != nil {
		return nil, fmt.Errorf("reconnect %s format error: %w", cfg.Reconnect, err)
	}
	return s, nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}

// Run keeps a subscription open until ctx is done, reconnecting after any error.
// collections is called on every (re)connect and on every heartbeat; topics are joined and left
// as the list changes. If it fails on connect, all collections are subscribed.
func (s *Stream) Run(ctx context.Context, collections Collections, handle Handler) error {
	for {
		if err := s.session(ctx, collections, handle); err != nil && ctx.Err() == nil {
			s.Sugar.Errorf("stream session error: %s", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.reconnect):
			s.Sugar.Info("stream reconnecting")
		}
	}
}

func (s *Stream) session(ctx context.Context, collections Collections, handle Handler) error {
	u, err := url.Parse(s.cfg.Url)
	if err != nil {
		return err
	}
	q := u.Query()
	if s.cfg.Token != "" {
		q.Set("token", s.cfg.Token)
	}
	u.RawQuery = q.Encode()

	conn, _, err := s.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial stream: %w", err)
	}
	s.wmu.Lock()
	s.conn = conn
	s.wmu.Unlock()
	defer conn.Close()
	s.Sugar.Infof("stream connected to %s", s.cfg.Url)

	tracked, err := collections(ctx)
	if err != nil {
		s.Sugar.Errorf("read collections error: %s", err)
	}
	joined := make(map[string]bool)
	if err = s.resubscribe(joined, tracked); err != nil {
		return err
	}
	s.Sugar.Infof("stream joined %d topics", len(joined))

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	go s.beat(ctx, done, joined, collections)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read stream: %w", err)
		}
		s.dispatch(ctx, data, handle)
	}
}

func topicsFor(collections []string) []string {
	if len(collections) == 0 {
		return []string{"collection:*"}
	}
	topics := make([]string, 0, len(collections))
	for _, c := range collections {
		topics = append(topics, "collection:"+c)
	}
	return topics
}

// beat sends heartbeats and follows changes of the tracked list. joined is owned by beat once
// the session has started.
func (s *Stream) beat(ctx context.Context, done <-chan struct{}, joined map[string]bool, collections Collections) {
	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := s.write(phxTopic, phxHeartbeat); err != nil {
				s.Sugar.Errorf("stream heartbeat error: %s", err)
				return
			}
			tracked, err := collections(ctx)
			if err != nil {
				s.Sugar.Errorf("read collections error: %s", err)
				continue
			}
			if err = s.resubscribe(joined, tracked); err != nil {
				s.Sugar.Errorf("stream resubscribe error: %s", err)
				return
			}
		}
	}
}

// resubscribe joins the topics of newly tracked collections and leaves the ones no longer tracked.
func (s *Stream) resubscribe(joined map[string]bool, collections []string) error {
	want := make(map[string]bool)
	for _, topic := range topicsFor(collections) {
		want[topic] = true
		if joined[topic] {
			continue
		}
		if err := s.write(topic, phxJoin); err != nil {
			return fmt.Errorf("join %s: %w", topic, err)
		}
		joined[topic] = true
		s.Sugar.Debugf("stream joined %s", topic)
	}
	for topic := range joined {
		if want[topic] {
			continue
		}
		if err := s.write(topic, phxLeave); err != nil {
			return fmt.Errorf("leave %s: %w", topic, err)
		}
		delete(joined, topic)
		s.Sugar.Debugf("stream left %s", topic)
	}
	return nil
}

func (s *Stream) write(topic, event string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.ref++
	ref := s.ref
	return s.conn.WriteJSON(Message{Topic: topic, Event: event, Payload: json.RawMessage("{}"), Ref: &ref})
}

func (s *Stream) dispatch(ctx context.Context, data []byte, handle Handler) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		s.Sugar.Errorf("decode stream message error: %s", err)
		return
	}
	switch m.Event {
	case EventItemListed:
	case phxReply:
		s.Sugar.Debugf("stream reply on %s: %s", m.Topic, string(m.Payload))
		return
	default:
		s.Sugar.Debugf("stream event %s on %s ignored", m.Event, m.Topic)
		return
	}
	var ev StreamEvent
	if err := json.Unmarshal(m.Payload, &ev); err != nil {
		s.Sugar.Errorf("decode listing error: %s", err)
		return
	}
	if err := ev.Payload.Validate(); err != nil {
		s.Sugar.Errorf("invalid listing on %s: %s", m.Topic, err)
		return
	}
	handle(ctx, ev.Payload)
}
