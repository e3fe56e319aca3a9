package app

import (
	"log/slog"
	"sync"

	"github.com/corey/gbsearch/internal/domain/index"
)

// ResultMonitor listens to search events. It logs every result set and
// remembers the size of the last one that held more than one feature, which
// a front end would offer for disambiguation.
type ResultMonitor struct {
	logger *slog.Logger

	mu            sync.Mutex
	searches      int
	lastCount     int
	lastMultiple  int
	multipleCount int
}

// NewResultMonitor creates a monitor logging to logger.
func NewResultMonitor(logger *slog.Logger) *ResultMonitor {
	return &ResultMonitor{logger: logger}
}

// ReceiveEvent implements index.Listener.
func (m *ResultMonitor) ReceiveEvent(ev index.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch ev.Action {
	case index.ActionSearchResults:
		m.searches++
		m.lastCount = len(ev.Features)
		m.logger.Debug("search results", "count", len(ev.Features))
	case index.ActionMultipleResults:
		m.multipleCount++
		m.lastMultiple = len(ev.Features)
		m.logger.Debug("multiple results", "count", len(ev.Features), "first", ev.Features[0].String())
	}
}

// MonitorSnapshot is a point-in-time copy of the monitor's counters.
type MonitorSnapshot struct {
	Searches      int
	LastCount     int
	MultipleCount int
	LastMultiple  int
}

// Snapshot returns the counters.
func (m *ResultMonitor) Snapshot() MonitorSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MonitorSnapshot{
		Searches:      m.searches,
		LastCount:     m.lastCount,
		MultipleCount: m.multipleCount,
		LastMultiple:  m.lastMultiple,
	}
}
