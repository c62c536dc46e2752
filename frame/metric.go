package frame

import (
	"sync/atomic"
)

// Metrics contains atomic counters of a Frame. They are shared by every Stream of
// the frame and may be read while streams run.
type Metrics struct {
	// FrameCount indicates the number of frames decoded successfully.
	FrameCount atomic.Uint64
	// EncodeCount indicates the number of frames written.
	EncodeCount atomic.Uint64
	// RawCount indicates the number of frames carrying an unregistered message ID.
	RawCount atomic.Uint64

	// SyncLossCount indicates the number of times the sync marker was not found.
	SyncLossCount atomic.Uint64
	// SkippedBytes indicates the number of bytes dropped while searching for sync.
	SkippedBytes atomic.Uint64
	// ChecksumErrCount indicates the number of checksum mismatches.
	ChecksumErrCount atomic.Uint64
	// SizeErrCount indicates the number of invalid size or ID fields.
	SizeErrCount atomic.Uint64
	// DecodeErrCount indicates the number of well-formed frames whose message failed to decode.
	DecodeErrCount atomic.Uint64
	// DroppedBytes indicates the number of bytes a Stream dropped on buffer overflow.
	DroppedBytes atomic.Uint64
}

func (m *Metrics) incFrameCount() {
	m.FrameCount.Add(1)
}

func (m *Metrics) incEncodeCount() {
	m.EncodeCount.Add(1)
}

func (m *Metrics) incRawCount() {
	m.RawCount.Add(1)
}

func (m *Metrics) addSyncLoss(skipped int) {
	m.SyncLossCount.Add(1)
	m.SkippedBytes.Add(uint64(skipped)) //nolint:gosec
}

func (m *Metrics) incChecksumErrCount() {
	m.ChecksumErrCount.Add(1)
}

func (m *Metrics) incSizeErrCount() {
	m.SizeErrCount.Add(1)
}

func (m *Metrics) incDecodeErrCount() {
	m.DecodeErrCount.Add(1)
}

func (m *Metrics) addDroppedBytes(n int) {
	m.DroppedBytes.Add(uint64(n)) //nolint:gosec
}
