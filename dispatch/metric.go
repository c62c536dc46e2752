package dispatch

import "sync/atomic"

// Metrics contains atomic counters of a Dispatcher.
type Metrics struct {
	// DispatchedCount indicates the number of messages routed to a typed handler.
	DispatchedCount atomic.Uint64
	// FallbackCount indicates the number of messages routed to the fallback.
	FallbackCount atomic.Uint64
	// BusyCount indicates the number of rejected reentrant dispatches.
	BusyCount atomic.Uint64
}

func (m *Metrics) incDispatchedCount() {
	m.DispatchedCount.Add(1)
}

func (m *Metrics) incFallbackCount() {
	m.FallbackCount.Add(1)
}

func (m *Metrics) incBusyCount() {
	m.BusyCount.Add(1)
}
