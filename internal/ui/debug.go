package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/hnfeed/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders the debug panel showing feed stats and recent events.
// gen is the controller's current generation. Pure function with no side
// effects. Returns empty string if ring is nil.
func debugOverlay(ring *otel.RingBuffer, gen uint64, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	// --- Stats section (keyed lookups, not map iteration) ---
	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Feed Stats"))
	lines = append(lines, fmt.Sprintf("  Fetches:    %d complete, %d errors",
		stats[otel.KindFetchComplete], stats[otel.KindFetchError]))
	lines = append(lines, fmt.Sprintf("  Loads:      %d initial, %d more, %d failed",
		stats[otel.KindLoad], stats[otel.KindLoadMore], stats[otel.KindLoadFail]))
	lines = append(lines, fmt.Sprintf("  Polls:      %d ticks, %d pending updates",
		stats[otel.KindPoll], stats[otel.KindPending]))
	lines = append(lines, fmt.Sprintf("  Comments:   %d loaded, %d errors",
		stats[otel.KindCommentsLoad], stats[otel.KindCommentsError]))
	lines = append(lines, fmt.Sprintf("  Stale:      %d dropped", stats[otel.KindStale]))
	lines = append(lines, fmt.Sprintf("  This feed:  gen %d, %d events",
		gen, len(ring.ForGen(gen, ring.Cap()))))
	lines = append(lines, fmt.Sprintf("  Problems:   %d warn/error", len(ring.LastProblems(ring.Cap()))))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events (%d total)", ring.Len(), ring.Cap(), ring.Total()))
	lines = append(lines, "")

	// --- Recent events section ---
	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		age := time.Since(e.Time)
		ageStr := formatAge(age)

		line := fmt.Sprintf("  %6s  %-22s", ageStr, string(e.Kind))
		if e.Msg != "" {
			line += "  " + truncateRunes(e.Msg, 40)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateRunes(e.Err, 30)
		}
		if e.Feed != "" {
			line += fmt.Sprintf("  %s", e.Feed)
			if e.Page > 0 {
				line += fmt.Sprintf("/p%d", e.Page)
			}
		}
		if e.Gen > 0 {
			line += fmt.Sprintf("  gen:%d", e.Gen)
		}
		lines = append(lines, line)
	}

	// Truncate to fit terminal height (subtract chrome added by DebugPanel border/padding)
	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 76
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	content := strings.Join(lines, "\n")
	return DebugPanel.Width(panelWidth).Render(content)
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("?") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}
