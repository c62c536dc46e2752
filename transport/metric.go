package transport

import "sync/atomic"

// Metrics contains atomic counters of a transport endpoint.
type Metrics struct {
	// ConnAccepted indicates the number of accepted connections.
	ConnAccepted atomic.Uint64
	// ConnActive indicates the number of open connections.
	ConnActive atomic.Int64
	// BytesRead indicates the number of bytes received.
	BytesRead atomic.Uint64
	// BytesWritten indicates the number of bytes sent.
	BytesWritten atomic.Uint64
	// FrameErrCount indicates the number of read chunks that contained bad frames.
	FrameErrCount atomic.Uint64
}

func (m *Metrics) connOpened() {
	m.ConnAccepted.Add(1)
	m.ConnActive.Add(1)
}

func (m *Metrics) connClosed() {
	m.ConnActive.Add(-1)
}

func (m *Metrics) addBytesRead(n int) {
	m.BytesRead.Add(uint64(n)) //nolint:gosec
}

func (m *Metrics) addBytesWritten(n int) {
	m.BytesWritten.Add(uint64(n)) //nolint:gosec
}

func (m *Metrics) incFrameErrCount() {
	m.FrameErrCount.Add(1)
}
