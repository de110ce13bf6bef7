// Package notify delivers alert intents to every configured channel.
package notify

import (
	"context"
	"github.com/xyths/opensea-floor-monitor/alert"
	"github.com/xyths/opensea-floor-monitor/discord"
	"github.com/xyths/opensea-floor-monitor/telegram"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"io"
	"os"
)

// Channel is one delivery mechanism. Send makes a single attempt.
type Channel interface {
	Name() string
	Send(ctx context.Context, in alert.Intent) error
}

type Config struct {
	Discord  discord.Config
	Telegram telegram.Config
}

// Outcome is the result of one channel for one intent. Err is nil on success.
type Outcome struct {
	Channel string
	Err     error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

type Dispatcher struct {
	Sugar    *zap.SugaredLogger
	channels []Channel
}

func New(sugar *zap.SugaredLogger, channels ...Channel) *Dispatcher {
	return &Dispatcher{Sugar: sugar, channels: channels}
}

// NewFromConfig builds the console channel plus every channel that has credentials.
func NewFromConfig(cfg Config, sugar *zap.SugaredLogger) *Dispatcher {
	return newFromConfig(cfg, sugar, os.Stdout)
}

func newFromConfig(cfg Config, sugar *zap.SugaredLogger, out io.Writer) *Dispatcher {
	channels := []Channel{NewConsole(out)}
	if cfg.Discord.Enabled() {
		channels = append(channels, discord.NewWebhook(cfg.Discord))
		sugar.Info("discord channel enabled")
	}
	if cfg.Telegram.Enabled() {
		channels = append(channels, telegram.NewClient(cfg.Telegram))
		sugar.Info("telegram channel enabled")
	}
	return New(sugar, channels...)
}

func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.channels))
	for _, c := range d.channels {
		names = append(names, c.Name())
	}
	return names
}

// Dispatch sends the intent to all channels concurrently and waits for every one of them.
// A failing channel never cancels or delays its siblings.
func (d *Dispatcher) Dispatch(ctx context.Context, in alert.Intent) []Outcome {
	outcomes := make([]Outcome, len(d.channels))
	var g errgroup.Group
	for i, c := range d.channels {
		i, c := i, c
		g.Go(func() error {
			outcomes[i] = d.send(ctx, c, in)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (d *Dispatcher) send(ctx context.Context, c Channel, in alert.Intent) (o Outcome) {
	o.Channel = c.Name()
	defer func() {
		if r := recover(); r != nil {
			o.Err = &PanicError{Value: r}
		}
		observe(o, in)
		if o.Err != nil {
			d.Sugar.Errorf("send %s alert of %s to %s error: %s", in.Kind, in.Collection, o.Channel, o.Err)
		} else {
			d.Sugar.Debugf("sent %s alert of %s to %s", in.Kind, in.Collection, o.Channel)
		}
	}()
	o.Err = c.Send(ctx, in)
	return o
}
