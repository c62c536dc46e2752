package frame

import (
	"errors"
	"testing"

	"github.com/arloliu/go-comms/field"
	"github.com/arloliu/go-comms/message"
	"github.com/stretchr/testify/require"
)

var (
	valueDef = field.MustDefineInt(field.IntSchema{Name: "value", Type: field.Uint16})
	levelDef = field.MustDefineInt(field.IntSchema{
		Name:        "level",
		Type:        field.Uint8,
		ValidRanges: []field.Range{{Min: 0, Max: 100}},
	})
	noteDef = field.MustDefineString(field.StringSchema{Name: "note", Prefix: field.LengthPrefix(field.PrefixU8)})
)

type testPing struct{ message.Base }

func newTestPing() message.Message {
	return &testPing{Base: message.NewBase(1, "Ping", valueDef.New())}
}

func (m *testPing) FieldValue() *field.Int { return m.Fields()[0].(*field.Int) }

type testNote struct{ message.Base }

func newTestNote() message.Message {
	return &testNote{Base: message.NewBase(2, "Note", noteDef.New())}
}

type testLevel struct{ message.Base }

func newTestLevel() message.Message {
	return &testLevel{Base: message.NewBase(3, "Level", levelDef.New())}
}

func newTestRegistry() *message.Registry {
	return message.NewRegistry().MustRegister(newTestPing, newTestNote, newTestLevel)
}

// newTestFrame returns AB CD | size(u16) | id(u8) | payload | crc16.
func newTestFrame(t *testing.T, opts ...Option) *Frame {
	t.Helper()

	f, err := New(newTestRegistry(), []Layer{
		Sync(0xAB, 0xCD),
		Checksum(CRC16CCITT),
		Size(2),
		ID(1),
		Payload(),
	}, opts...)
	require.NoError(t, err)

	return f
}

func ping(value int64) message.Message {
	msg := newTestPing().(*testPing)
	_ = msg.FieldValue().SetValue(value)

	return msg
}

func mustEncode(t *testing.T, f *Frame, msgs ...message.Message) []byte {
	t.Helper()

	var out []byte
	for _, msg := range msgs {
		var err error
		out, err = f.WriteMessage(out, msg)
		require.NoError(t, err)
	}

	return out
}

// expectedPingFrame builds the wire bytes of a ping frame by hand.
func expectedPingFrame(value uint16) []byte {
	body := []byte{0x00, 0x03, 0x01, byte(value >> 8), byte(value)}
	crc := CRC16CCITT.Compute(body)

	out := append([]byte{0xAB, 0xCD}, body...)

	return append(out, byte(crc>>8), byte(crc))
}

func TestFrame_WriteUnwrap(t *testing.T) {
	require := require.New(t)

	f := newTestFrame(t)
	data := mustEncode(t, f, ping(0x0102))
	require.Equal(expectedPingFrame(0x0102), data)

	msg, n, err := f.Unwrap(data)
	require.NoError(err)
	require.Equal(len(data), n)
	require.IsType(&testPing{}, msg)
	require.Equal(int64(0x0102), msg.(*testPing).FieldValue().Value())
	require.True(message.Equal(ping(0x0102), msg))

	require.Equal(uint64(1), f.Metrics().FrameCount.Load())
	require.Equal(uint64(1), f.Metrics().EncodeCount.Load())
}

func TestFrame_WriteMessageAppends(t *testing.T) {
	require := require.New(t)

	f := newTestFrame(t)
	dst := []byte{0x01, 0x02}
	out, err := f.WriteMessage(dst, ping(7))
	require.NoError(err)
	require.Equal([]byte{0x01, 0x02}, out[:2])
	require.Equal(expectedPingFrame(7), out[2:])

	_, err = f.WriteMessage(dst, nil)
	require.Error(err)
}

func TestFrame_Wrap(t *testing.T) {
	require := require.New(t)

	f := newTestFrame(t)
	data, err := f.Wrap(1, []byte{0x01, 0x02})
	require.NoError(err)
	require.Equal(expectedPingFrame(0x0102), data)

	_, err = f.Wrap(256, nil)
	require.ErrorIs(err, ErrInvalidID)
}

func TestFrame_NeedMoreDataForEveryPrefix(t *testing.T) {
	require := require.New(t)

	f := newTestFrame(t)
	data := mustEncode(t, f, ping(0x1234))

	for i := range len(data) {
		msg, n, err := f.Unwrap(data[:i])
		require.ErrorIs(err, ErrNeedMoreData, "prefix length %d", i)
		require.Zero(n, "prefix length %d", i)
		require.Nil(msg)
	}
}

func TestFrame_SyncLost(t *testing.T) {
	tests := []struct {
		description string
		prefix      []byte
		skipped     int
	}{
		{description: "garbage before the marker", prefix: []byte{0x00, 0x11, 0x22}, skipped: 3},
		{description: "first marker byte repeated", prefix: []byte{0xAB}, skipped: 1},
		{description: "marker byte not followed by its second byte", prefix: []byte{0xAB, 0x00}, skipped: 2},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		require := require.New(t)

		f := newTestFrame(t)
		data := append(append([]byte{}, test.prefix...), expectedPingFrame(5)...)

		_, n, err := f.Unwrap(data)
		require.ErrorIs(err, ErrSyncLost)
		require.Equal(test.skipped, n)

		msg, n, err := f.Unwrap(data[test.skipped:])
		require.NoError(err)
		require.Equal(len(data)-test.skipped, n)
		require.Equal(int64(5), msg.(*testPing).FieldValue().Value())
	}
}

func TestFrame_SyncLostPartialMarkerAtEnd(t *testing.T) {
	require := require.New(t)

	f := newTestFrame(t)
	_, n, err := f.Unwrap([]byte{0x00, 0x01, 0xAB})
	require.ErrorIs(err, ErrSyncLost)
	require.Equal(2, n, "the trailing marker byte is kept")

	_, n, err = f.Unwrap([]byte{0xAB})
	require.ErrorIs(err, ErrNeedMoreData)
	require.Zero(n)
}

func TestFrame_ResyncAfterCorruption(t *testing.T) {
	require := require.New(t)

	f := newTestFrame(t)
	first := expectedPingFrame(0x0102)
	second := expectedPingFrame(0x0304)
	data := append(append([]byte{}, first...), second...)
	data[5] ^= 0xFF // corrupt the first payload byte

	var got []message.Message
	n, err := f.ProcessInputData(data, DispatcherFunc(func(msg message.Message) error {
		got = append(got, msg)
		return nil
	}))
	require.Equal(len(data), n)
	require.ErrorIs(err, ErrChecksumMismatch)
	require.ErrorIs(err, ErrSyncLost)

	require.Len(got, 1)
	require.Equal(int64(0x0304), got[0].(*testPing).FieldValue().Value())

	m := f.Metrics()
	require.Equal(uint64(1), m.ChecksumErrCount.Load())
	require.Equal(uint64(1), m.SyncLossCount.Load())
	require.Equal(uint64(len(first)-1), m.SkippedBytes.Load())
	require.Equal(uint64(1), m.FrameCount.Load())
}

func TestFrame_ResyncAfterCorruptedSize(t *testing.T) {
	require := require.New(t)

	f := newTestFrame(t)
	first := expectedPingFrame(0x0102)
	second := expectedPingFrame(0x0304)
	data := append(append([]byte{}, first...), second...)
	data[3] = 0x30 // a larger size that still fits the size layer

	msg, n, err := f.Unwrap(data)
	require.Nil(msg)
	require.ErrorIs(err, ErrSyncLost)
	require.Equal(len(first), n)

	var got []message.Message
	n, err = f.ProcessInputData(data, DispatcherFunc(func(msg message.Message) error {
		got = append(got, msg)
		return nil
	}))
	require.Equal(len(data), n)
	require.ErrorIs(err, ErrSyncLost)
	require.Len(got, 1)
	require.Equal(int64(0x0304), got[0].(*testPing).FieldValue().Value())

	s := f.NewStream()
	frames, err := s.Process(data, nil)
	require.ErrorIs(err, ErrSyncLost)
	require.Equal(1, frames)
	require.Zero(s.Buffered())
}

func TestFrame_IncompleteFramesKeepWaiting(t *testing.T) {
	tests := []struct {
		description string
		input       []byte
	}{
		{
			description: "marker inside the pending frame",
			input:       append(append([]byte{}, expectedPingFrame(1)[:5]...), 0xAB, 0xCD, 0x00),
		},
		{
			description: "second frame incomplete too",
			input:       append(append([]byte{}, expectedPingFrame(1)[:5]...), expectedPingFrame(2)[:8]...),
		},
		{
			description: "second frame with a bad checksum",
			input: func() []byte {
				second := expectedPingFrame(2)
				second[len(second)-1] ^= 0x01
				return append([]byte{0xAB, 0xCD, 0x00, 0x30}, second...)
			}(),
		},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		require := require.New(t)

		f := newTestFrame(t)
		_, n, err := f.Unwrap(test.input)
		require.ErrorIs(err, ErrNeedMoreData)
		require.Zero(n)
	}
}

func TestFrame_ChecksumMismatchConsumesOneByte(t *testing.T) {
	require := require.New(t)

	f := newTestFrame(t)
	data := expectedPingFrame(9)
	data[len(data)-1] ^= 0x01

	_, n, err := f.Unwrap(data)
	require.ErrorIs(err, ErrChecksumMismatch)
	require.Equal(1, n)
	require.Contains(err.Error(), "crc16-ccitt")
}

func TestFrame_InvalidSize(t *testing.T) {
	tests := []struct {
		description string
		data        []byte
		opts        []Option
	}{
		{
			description: "size below the id width",
			data:        []byte{0xAB, 0xCD, 0x00, 0x00, 0x01},
		},
		{
			description: "size above the maximum",
			data:        []byte{0xAB, 0xCD, 0xFF, 0xFF},
		},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		require := require.New(t)

		f, err := New(newTestRegistry(), []Layer{
			Sync(0xAB, 0xCD),
			Checksum(CRC16CCITT),
			Size(2).WithMax(64),
			ID(1),
			Payload(),
		}, test.opts...)
		require.NoError(err)

		_, n, err := f.Unwrap(test.data)
		require.ErrorIs(err, ErrInvalidSize)
		require.Equal(1, n)
		require.Equal(uint64(1), f.Metrics().SizeErrCount.Load())
	}
}

func TestFrame_UnknownIDIsRaw(t *testing.T) {
	require := require.New(t)

	f := newTestFrame(t)
	data, err := f.Wrap(9, []byte{0x01, 0x02, 0x03})
	require.NoError(err)

	msg, n, err := f.Unwrap(data)
	require.NoError(err)
	require.Equal(len(data), n)

	raw, ok := msg.(*message.Raw)
	require.True(ok)
	require.Equal(uint64(9), raw.ID())
	require.Equal([]byte{0x01, 0x02, 0x03}, raw.Payload())
	require.Equal(uint64(1), f.Metrics().RawCount.Load())

	// re-framing the raw message reproduces the input
	out, err := f.Encode(raw)
	require.NoError(err)
	require.Equal(data, out)
}

func TestFrame_DecodeErrorKeepsSync(t *testing.T) {
	tests := []struct {
		description string
		id          uint64
		payload     []byte
		expectedErr error
	}{
		{description: "payload shorter than the message", id: 1, payload: []byte{0x01}, expectedErr: field.ErrTruncated},
		{description: "value outside the valid range", id: 3, payload: []byte{200}, expectedErr: field.ErrInvalidValue},
		{description: "string prefix beyond the payload", id: 2, payload: []byte{0x05, 'a'}, expectedErr: field.ErrTruncated},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		require := require.New(t)

		f := newTestFrame(t)
		bad, err := f.Wrap(test.id, test.payload)
		require.NoError(err)
		data := append(bad, expectedPingFrame(1)...)

		_, n, err := f.Unwrap(data)
		require.ErrorIs(err, test.expectedErr)
		require.Equal(len(bad), n, "the whole frame is consumed")

		msg, _, err := f.Unwrap(data[n:])
		require.NoError(err)
		require.Equal(int64(1), msg.(*testPing).FieldValue().Value())
		require.Equal(uint64(1), f.Metrics().DecodeErrCount.Load())
	}
}

func TestFrame_TrailingPayloadIgnored(t *testing.T) {
	require := require.New(t)

	f := newTestFrame(t)
	data, err := f.Wrap(1, []byte{0x01, 0x02, 0x03, 0x04})
	require.NoError(err)

	msg, n, err := f.Unwrap(data)
	require.NoError(err)
	require.Equal(len(data), n)
	require.Equal(int64(0x0102), msg.(*testPing).FieldValue().Value())
}

func TestFrame_Unbounded(t *testing.T) {
	require := require.New(t)

	f, err := New(newTestRegistry(), []Layer{
		Sync(0x7E),
		Checksum(Sum8),
		ID(1),
		Payload(),
	})
	require.NoError(err)

	data := mustEncode(t, f, ping(0x0102))
	require.Equal([]byte{0x7E, 0x01, 0x01, 0x02, 0x04}, data)

	for i := range len(data) {
		_, n, err := f.Unwrap(data[:i])
		require.ErrorIs(err, ErrNeedMoreData, "prefix length %d", i)
		require.Zero(n)
	}

	msg, n, err := f.Unwrap(data)
	require.NoError(err)
	require.Equal(len(data), n)
	require.Equal(int64(0x0102), msg.(*testPing).FieldValue().Value())

	// the message schema delimits the payload, so the id must be registered
	_, n, err = f.Unwrap([]byte{0x7E, 0x09, 0x00, 0x09})
	require.ErrorIs(err, ErrInvalidID)
	require.ErrorIs(err, message.ErrUnknownID)
	require.Equal(1, n)

	_, _, err = f.Unwrap([]byte{0x7E, 0x03, 200, 0xCB})
	require.ErrorIs(err, field.ErrInvalidValue)
}

func TestFrame_WithoutSync(t *testing.T) {
	require := require.New(t)

	f, err := New(newTestRegistry(), []Layer{
		Size(1),
		Checksum(Sum8),
		Payload(),
	}, WithDefaultID(1))
	require.NoError(err)
	require.Equal("size(u8) | checksum(sum8) | payload", f.String())

	data := mustEncode(t, f, ping(0x0102))
	require.Equal([]byte{0x03, 0x01, 0x02, 0x03}, data)

	_, err = f.Encode(newTestNote())
	require.ErrorIs(err, ErrInvalidID)

	first := append([]byte{}, data...)
	first[3] ^= 0x01
	stream := append(first, data...)

	_, n, err := f.Unwrap(stream)
	require.ErrorIs(err, ErrChecksumMismatch)
	require.Equal(len(first), n, "without sync the whole frame is dropped")

	msg, _, err := f.Unwrap(stream[n:])
	require.NoError(err)
	require.Equal(int64(0x0102), msg.(*testPing).FieldValue().Value())
}

func TestFrame_SizeOptions(t *testing.T) {
	require := require.New(t)

	f, err := New(newTestRegistry(), []Layer{
		Size(2).WithEndian(field.LittleEndian).WithOffset(2),
		VarintID(),
		Payload(),
	})
	require.NoError(err)

	data := mustEncode(t, f, ping(0x0102))
	// size counts itself: 2 + id(1) + payload(2)
	require.Equal([]byte{0x05, 0x00, 0x01, 0x01, 0x02}, data)

	msg, n, err := f.Unwrap(data)
	require.NoError(err)
	require.Equal(len(data), n)
	require.Equal(uint64(1), msg.ID())

	_, _, err = f.Unwrap([]byte{0x01, 0x00})
	require.ErrorIs(err, ErrInvalidSize)
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		description string
		layers      []Layer
		opts        []Option
	}{
		{description: "no layers"},
		{description: "payload only", layers: []Layer{Payload()}},
		{description: "missing payload", layers: []Layer{Sync(0x01), ID(1)}},
		{description: "payload not last", layers: []Layer{Payload(), ID(1)}},
		{description: "two payloads", layers: []Layer{ID(1), Payload(), Payload()}},
		{description: "sync after size", layers: []Layer{Size(1), Sync(0x01), Payload()}},
		{description: "two sync layers", layers: []Layer{Sync(0x01), Sync(0x02), Payload()}},
		{description: "empty sync", layers: []Layer{Sync(), Payload()}},
		{description: "two size layers", layers: []Layer{Size(1), Size(1), Payload()}},
		{description: "two id layers", layers: []Layer{ID(1), ID(2), Payload()}},
		{description: "size width 3", layers: []Layer{Size(3), Payload()}},
		{description: "id width 9", layers: []Layer{ID(9), Payload()}},
		{description: "offset beyond width", layers: []Layer{Size(1).WithOffset(300), Payload()}},
		{description: "unknown checksum", layers: []Layer{Checksum(Algorithm(0)), Payload()}},
		{description: "nil layer", layers: []Layer{nil, Payload()}},
		{description: "bad max buffered", layers: []Layer{ID(1), Payload()}, opts: []Option{WithMaxBuffered(0)}},
		{description: "nil logger", layers: []Layer{ID(1), Payload()}, opts: []Option{WithLogger(nil)}},
	}

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		_, err := New(newTestRegistry(), test.layers, test.opts...)
		require.Error(t, err)
	}

	_, err := New(nil, []Layer{ID(1), Payload()})
	require.ErrorIs(t, err, ErrInvalidFrame)

	require.Panics(t, func() { MustNew(newTestRegistry(), nil) })
}

func TestFrame_ChecksumBeforeSync(t *testing.T) {
	require := require.New(t)

	f, err := New(newTestRegistry(), []Layer{
		Checksum(Sum8),
		Sync(0x55),
		ID(1),
		Payload(),
	})
	require.NoError(err)

	data := mustEncode(t, f, ping(1))
	require.Equal([]byte{0x55, 0x01, 0x00, 0x01, 0x57}, data)

	msg, n, err := f.Unwrap(data)
	require.NoError(err)
	require.Equal(len(data), n)
	require.Equal(uint64(1), msg.ID())
}

func TestFrame_ProcessInputData(t *testing.T) {
	require := require.New(t)

	f := newTestFrame(t)
	data := mustEncode(t, f, ping(1), ping(2), ping(3))
	partial := expectedPingFrame(4)[:5]
	input := append(append([]byte{}, data...), partial...)

	var values []int64
	n, err := f.ProcessInputData(input, DispatcherFunc(func(msg message.Message) error {
		values = append(values, msg.(*testPing).FieldValue().Value())
		return nil
	}))
	require.NoError(err)
	require.Equal(len(data), n, "the partial frame stays pending")
	require.Equal([]int64{1, 2, 3}, values)

	n, err = f.ProcessInputData(partial, nil)
	require.NoError(err)
	require.Zero(n)
}

func TestFrame_ProcessInputDataJoinsDispatchErrors(t *testing.T) {
	require := require.New(t)

	errRejected := errors.New("rejected")
	f := newTestFrame(t)
	data := mustEncode(t, f, ping(1), ping(2))

	calls := 0
	n, err := f.ProcessInputData(data, DispatcherFunc(func(message.Message) error {
		calls++
		return errRejected
	}))
	require.Equal(len(data), n)
	require.Equal(2, calls)
	require.ErrorIs(err, errRejected)
	require.Contains(err.Error(), "dispatch Ping")
}
