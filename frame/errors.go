package frame

import "errors"

var (
	// ErrNeedMoreData indicates that the input is a strict prefix of a frame; nothing was consumed.
	ErrNeedMoreData = errors.New("need more data")

	// ErrSyncLost indicates that the input did not start with the sync marker.
	// The consumed count covers the bytes skipped up to the next possible marker.
	ErrSyncLost = errors.New("sync lost")

	// ErrChecksumMismatch indicates a frame whose checksum does not match its content.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrInvalidSize indicates a size field that is out of range or inconsistent
	// with the inner layers.
	ErrInvalidSize = errors.New("invalid frame size")

	// ErrInvalidID indicates an ID that cannot be encoded or decoded by the ID layer.
	ErrInvalidID = errors.New("invalid message id")

	// ErrInvalidFrame indicates an invalid layer composition.
	ErrInvalidFrame = errors.New("invalid frame definition")
)

// errSyncMismatch is raised by the sync layer and turned into ErrSyncLost by Unwrap.
var errSyncMismatch = errors.New("sync marker mismatch")
