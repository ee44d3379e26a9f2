package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/abelbrown/hnfeed/internal/config"
	"github.com/abelbrown/hnfeed/internal/fetch"
	"github.com/abelbrown/hnfeed/internal/otel"
)

// loadConfig reads the user's config or fatals.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// newClient builds the gateway from config. With verbose set, gateway
// events are printed to stderr as JSONL.
func newClient(cfg *config.Config, verbose bool) *fetch.Client {
	events := otel.NewNullLogger()
	if verbose {
		events = otel.NewLogger(os.Stderr)
	}
	return fetch.NewClient(fetch.OptionsFromConfig(cfg), events)
}

// signalContext is cancelled on Ctrl-C.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("encode: %v", err)
	}
}

// usageError prints msg and the flag set usage, then exits 2.
func usageError(msg string, usage func()) {
	fmt.Fprintln(os.Stderr, "error: "+msg)
	usage()
	os.Exit(2)
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
