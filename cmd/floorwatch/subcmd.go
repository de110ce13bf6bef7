package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/urfave/cli/v2"
	"github.com/xyths/hs"
	"github.com/xyths/opensea-floor-monitor/monitor"
	"github.com/xyths/opensea-floor-monitor/opensea"
	"github.com/xyths/opensea-floor-monitor/settings"
	"io"
	"os"
	"sort"
)

var (
	monitorCommand = &cli.Command{
		Action: runMonitor,
		Name:   "monitor",
		Usage:  "Follow OpenSea listings and send floor alerts",
	}
	replayCommand = &cli.Command{
		Action: replay,
		Name:   "replay",
		Usage:  "Run recorded listing events through the alert engine",
		Flags: []cli.Flag{
			ReplayFileFlag,
		},
	}
	settingsCommand = &cli.Command{
		Name:  "settings",
		Usage: "Manage alert settings stored in MongoDB",
		Subcommands: []*cli.Command{
			{
				Action: pushSettings,
				Name:   "push",
				Usage:  "Write a settings file to MongoDB",
				Flags: []cli.Flag{
					SettingsFileFlag,
				},
			},
			{
				Action: showSettings,
				Name:   "show",
				Usage:  "Print the settings stored in MongoDB",
			},
		},
	}
)

func loadConfig(c *cli.Context) (monitor.Config, error) {
	configFile := c.String(ConfigFlag.Name)
	cfg := monitor.Config{}
	if err := hs.ParseJsonConfig(configFile, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runMonitor(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	m := monitor.New(cfg)
	if err := m.Init(c.Context); err != nil {
		return err
	}
	defer m.Close(c.Context)
	return m.Monitor(c.Context)
}

func replay(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	var r io.Reader = os.Stdin
	if name := c.String(ReplayFileFlag.Name); name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	m := monitor.New(cfg)
	if err := m.Init(c.Context); err != nil {
		return err
	}
	defer m.Close(c.Context)
	n, err := m.Replay(c.Context, r)
	if err != nil {
		return err
	}

	floors := m.Floors()
	slugs := make([]string, 0, len(floors))
	for slug := range floors {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	fmt.Printf("replayed %d events\n", n)
	for _, slug := range slugs {
		f := floors[slug]
		fmt.Printf("%-32s %s\n", slug, opensea.FormatPrice(f.Price, f.Symbol))
	}
	return nil
}

func mongoSettings(c *cli.Context) (*settings.MongoStore, func(), error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Mongo == nil {
		return nil, nil, errors.New("no mongo configured")
	}
	db, err := hs.ConnectMongo(c.Context, *cfg.Mongo)
	if err != nil {
		return nil, nil, err
	}
	closer := func() { _ = db.Client().Disconnect(c.Context) }
	return settings.NewMongoStore(db), closer, nil
}

func pushSettings(c *cli.Context) error {
	doc := settings.Document{}
	if err := hs.ParseJsonConfig(c.String(SettingsFileFlag.Name), &doc); err != nil {
		return err
	}
	store, closer, err := mongoSettings(c)
	if err != nil {
		return err
	}
	defer closer()
	return store.Save(c.Context, doc)
}

func showSettings(c *cli.Context) error {
	store, closer, err := mongoSettings(c)
	if err != nil {
		return err
	}
	defer closer()
	doc, err := store.Load(c.Context)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
