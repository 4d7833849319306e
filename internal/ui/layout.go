package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the header and status
	// bar drop secondary fields.
	LayoutCompactWidth = 100
)

// Panel sizing, in rows including borders.
const (
	// chromeRows is the header, the command bar and the status bar.
	chromeRows = 3

	detailsMinRows = 5
	detailsMaxRows = 12
	debugMinRows   = 4
	debugMaxRows   = 10

	// minLogsRows is the smallest logs panel kept before the secondary
	// panels are dropped.
	minLogsRows = 5
)

// Timing constants.
const (
	// StatusEventTTL is how long a display event stays in the status bar.
	StatusEventTTL = 800 * time.Millisecond

	// DefaultDrainInterval is the ingestion tick used when none is configured.
	DefaultDrainInterval = 100 * time.Millisecond

	// DefaultInputTick is the render interval used when none is configured.
	DefaultInputTick = 16 * time.Millisecond
)

// layout is the row allocation of one frame.
type layout struct {
	logs    int
	details int
	debug   int
}

// computeLayout splits the rows below the header between the panels. The
// logs panel keeps at least minLogsRows; the secondary panels shrink first.
func computeLayout(height int, showDebug bool) layout {
	body := height - chromeRows
	if body < 3 {
		return layout{logs: max(body, 0)}
	}
	l := layout{logs: body}

	if showDebug {
		l.debug = clampInt(body/4, debugMinRows, debugMaxRows)
	}
	l.details = clampInt(body/3, detailsMinRows, detailsMaxRows)

	l.logs = body - l.details - l.debug
	if l.logs < minLogsRows {
		l.details = 0
		l.logs = body - l.debug
	}
	if l.logs < minLogsRows {
		l.debug = 0
		l.logs = body
	}
	return l
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
