// Command hnfeed is a terminal reader for the Hacker News new, job and
// poll feeds with infinite scroll and live "new stories" updates.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/hnfeed/internal/config"
	"github.com/abelbrown/hnfeed/internal/fetch"
	"github.com/abelbrown/hnfeed/internal/logging"
	"github.com/abelbrown/hnfeed/internal/model"
	"github.com/abelbrown/hnfeed/internal/otel"
	"github.com/abelbrown/hnfeed/internal/ui"
)

func main() {
	configPath := flag.String("config", config.ConfigPath(), "path to config.json")
	feedName := flag.String("feed", "", "feed to open: new, job or poll")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fatal("Failed to load config: %v", err)
	}
	if *feedName != "" {
		t, err := model.ParseFeedType(*feedName)
		if err != nil {
			fatal("Error: %v", err)
		}
		cfg.Feed.DefaultType = t
	}

	dataDir := config.DataDir()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		fatal("Failed to create data directory: %v", err)
	}

	if err := logging.Init(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logging.Close()
	logging.WithPrefix("config").Debug("Loaded",
		"path", *configPath,
		"poll", cfg.Feed.PollInterval.D(),
		"throttle", cfg.Feed.ScrollThrottle.D(),
		"near_bottom", cfg.Feed.NearBottomRows)

	// Event log + ring buffer for the debug overlay
	events, closeEvents, err := otel.Open(config.EventLogPath())
	if err != nil {
		logging.Warn("Event log disabled", "error", err)
		events, closeEvents = otel.NewNullLogger(), func() {}
	}
	defer closeEvents()
	ring := otel.NewRingBuffer(512)
	events.SetRingBuffer(ring)
	logging.Debug("Event log", "path", config.EventLogPath(), "session", events.SessionID())
	lifecycle := events.Scope("main")
	lifecycle.Info(otel.KindStartup, "hnfeed "+logging.Version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := fetch.NewClient(fetch.OptionsFromConfig(cfg), events)
	logging.Info("Gateway ready",
		"base", cfg.API.BaseURL,
		"search", cfg.API.SearchURL,
		"page_size", client.PageSize(),
		"feed", cfg.Feed.DefaultType)

	app := ui.NewAppWithConfig(ui.AppConfig{
		Gateway: client,
		Context: ctx,
		Feed:    cfg.Feed,
		UI:      cfg.UI,
		Obs:     ui.ObsConfig{Logger: events, Ring: ring},
	})

	opts := []tea.ProgramOption{tea.WithMouseCellMotion(), tea.WithContext(ctx)}
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(app, opts...)

	logging.Info("Starting UI")
	if _, err := p.Run(); err != nil {
		lifecycle.Error(otel.KindError, err)
		logging.Error("Application error", "error", err)
		cancel()
		closeEvents()
		logging.Close()
		fatal("Error: %v", err)
	}

	lifecycle.Info(otel.KindShutdown, "exit")
	logging.Info("hnfeed exiting normally")
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
