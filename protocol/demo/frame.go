package demo

import (
	"github.com/arloliu/go-comms/frame"
	"github.com/arloliu/go-comms/message"
)

// SyncPattern starts every demo frame.
var SyncPattern = []byte{0xAB, 0xCD}

// MaxPayload caps the size field of a demo frame.
const MaxPayload = 4096

// NewRegistry returns a registry holding every demo message.
func NewRegistry() *message.Registry {
	return message.NewRegistry().MustRegister(
		func() message.Message { return NewMsg1() },
		func() message.Message { return NewMsg2() },
		func() message.Message { return NewText() },
		func() message.Message { return NewStatus() },
	)
}

// NewFrame returns the demo frame over a fresh registry:
//
//	AB CD | size(u16) | id(u8) | payload | crc16-ccitt
//
// The checksum covers the size, the ID and the payload.
func NewFrame(opts ...frame.Option) (*frame.Frame, error) {
	return frame.New(NewRegistry(), []frame.Layer{
		frame.Sync(SyncPattern...),
		frame.Checksum(frame.CRC16CCITT),
		frame.Size(2).WithMax(MaxPayload),
		frame.ID(1),
		frame.Payload(),
	}, opts...)
}

// MustNewFrame is like NewFrame but panics on error.
func MustNewFrame(opts ...frame.Option) *frame.Frame {
	f, err := NewFrame(opts...)
	if err != nil {
		panic(err)
	}

	return f
}
