package demo

import (
	"testing"

	"github.com/arloliu/go-comms/field"
	"github.com/arloliu/go-comms/frame"
	"github.com/arloliu/go-comms/message"
	"github.com/stretchr/testify/require"
)

type testHandler struct {
	t        *testing.T
	msg1     []*Msg1
	msg2     []*Msg2
	status   []*Status
	fallback []message.Message
}

func (h *testHandler) HandleMsg1(msg *Msg1) { h.msg1 = append(h.msg1, msg) }

func (h *testHandler) HandleMsg2(msg *Msg2) { h.msg2 = append(h.msg2, msg) }

func (h *testHandler) HandleStatus(msg *Status) { h.status = append(h.status, msg) }

func (h *testHandler) HandleMessage(msg message.Message) { h.fallback = append(h.fallback, msg) }

func TestMsg2_ScaledDistance(t *testing.T) {
	require := require.New(t)

	m := NewMsg2()
	require.NoError(m.FieldF1().SetMeters(0.1))
	require.Equal(0.1, m.FieldF1().Meters())
	require.Equal(100.0, m.FieldF1().Millimeters())
	require.Equal(int64(10000), m.FieldF1().Value())

	// idempotent re-encode through the domain value
	require.NoError(m.FieldF1().SetMeters(m.FieldF1().Meters()))
	require.Equal(int64(10000), m.FieldF1().Value())

	require.ErrorIs(m.FieldF1().SetMeters(-0.5), field.ErrRange)
	require.Equal(int64(10000), m.FieldF1().Value(), "failed setter keeps the value")
}

func TestMsg1_Encode(t *testing.T) {
	require := require.New(t)

	m := NewMsg1()
	require.Equal(ModeIdle, m.FieldF2().Mode())
	require.NoError(m.FieldF1().SetMeters(0.1))
	require.NoError(m.FieldF2().SetMode(ModeRun))
	require.Equal([]byte{0x00, 0x00, 0x27, 0x10, 0x01}, m.Encode())

	require.NoError(m.FieldF1().SetMillimeters(-2.5))
	require.Equal(int64(-250), m.FieldF1().Value())
	require.InDelta(-0.0025, m.FieldF1().Meters(), 1e-12)

	require.NoError(m.FieldF1().SetSpecial("Unknown"))
	require.True(m.FieldF1().IsSpecial("Unknown"))

	require.ErrorIs(m.FieldF2().SetMode(Mode(9)), field.ErrInvalidValue)
	require.Equal("Msg1(1){f1=-1 (Unknown), f2=Run(1)}", m.String())
}

func TestMsg2_Fields(t *testing.T) {
	require := require.New(t)

	m := NewMsg2()
	require.NoError(m.FieldF2().SetMilliseconds(1500))
	require.Equal(1.5, m.FieldF2().Seconds())
	require.Equal(1500.0, m.FieldF2().Milliseconds())

	m.FieldF3().SetReady(true)
	m.FieldF3().SetErrorBit(true)
	require.True(m.FieldF3().Ready())
	require.False(m.FieldF3().Busy())
	require.True(m.FieldF3().ErrorBit())
	require.Equal(uint64(0x81), m.FieldF3().Value())

	data := m.Encode()
	decoded := NewMsg2()
	n, err := decoded.Decode(data)
	require.NoError(err)
	require.Equal(len(data), n)
	require.True(message.Equal(m, decoded))

	// bit 2 is not declared
	data[len(data)-1] |= 0x04
	_, err = NewMsg2().Decode(data)
	require.ErrorIs(err, field.ErrInvalidValue)
}

func TestText_RoundTrip(t *testing.T) {
	require := require.New(t)

	m := NewText()
	require.NoError(m.FieldF1().SetValue("hello"))
	require.NoError(m.FieldF2().SetValue([]byte{0xDE, 0xAD}))
	require.NoError(m.FieldF3().SetUint(300))

	expected := []byte{0x05, 'h', 'e', 'l', 'l', 'o', 0x00, 0x02, 0xDE, 0xAD, 0xAC, 0x02}
	require.Equal(expected, m.Encode())

	decoded := NewText()
	_, err := decoded.Decode(expected)
	require.NoError(err)
	require.Equal("hello", decoded.FieldF1().Value())
	require.Equal([]byte{0xDE, 0xAD}, decoded.FieldF2().Value())
	require.Equal(uint64(300), decoded.FieldF3().Uint())
}

func TestFrame_Layout(t *testing.T) {
	require := require.New(t)

	f := MustNewFrame()
	require.Equal("sync(abcd) | checksum(crc16-ccitt) | size(u16) | id(u8) | payload", f.String())

	m := NewMsg1()
	require.NoError(m.FieldF1().SetMeters(0.1))
	require.NoError(m.FieldF2().SetMode(ModeRun))

	data, err := f.Encode(m)
	require.NoError(err)

	body := []byte{0x00, 0x06, 0x01, 0x00, 0x00, 0x27, 0x10, 0x01}
	crc := frame.CRC16CCITT.Compute(body)
	expected := append(append([]byte{0xAB, 0xCD}, body...), byte(crc>>8), byte(crc))
	require.Equal(expected, data)
}

func TestDispatch_TypedHandlers(t *testing.T) {
	require := require.New(t)

	f := MustNewFrame()
	h := &testHandler{t: t}
	d := NewDispatcher(h)

	m1 := NewMsg1()
	require.NoError(m1.FieldF1().SetMeters(1.25))
	m2 := NewMsg2()
	require.NoError(m2.FieldF1().SetMeters(0.1))
	text := NewText()

	var data []byte
	for _, msg := range []message.Message{m1, m2, text} {
		var err error
		data, err = f.WriteMessage(data, msg)
		require.NoError(err)
	}
	unknown, err := f.Wrap(42, []byte{0x01})
	require.NoError(err)
	data = append(data, unknown...)

	n, err := f.ProcessInputData(data, d)
	require.NoError(err)
	require.Equal(len(data), n)

	require.Len(h.msg1, 1)
	require.Equal(1.25, h.msg1[0].FieldF1().Meters())
	require.Len(h.msg2, 1)
	require.Equal(int64(10000), h.msg2[0].FieldF1().Value())

	// Text has no typed handler and 42 is not registered
	require.Len(h.fallback, 2)
	require.IsType(&Text{}, h.fallback[0])
	raw, ok := h.fallback[1].(*message.Raw)
	require.True(ok)
	require.Equal(uint64(42), raw.ID())
}

func TestDispatch_OnlyFallback(t *testing.T) {
	require := require.New(t)

	type fallbackOnly struct{ BaseHandler }

	f := MustNewFrame()
	d := NewDispatcher(fallbackOnly{})

	data, err := f.Encode(NewMsg1())
	require.NoError(err)

	_, err = f.ProcessInputData(data, d)
	require.NoError(err)
	require.Equal(uint64(1), d.Metrics().FallbackCount.Load())
	require.Zero(d.Metrics().DispatchedCount.Load())
}

func TestStream_ResyncTwoMessages(t *testing.T) {
	require := require.New(t)

	f := MustNewFrame()
	h := &testHandler{t: t}
	d := NewDispatcher(h)

	first := NewMsg1()
	require.NoError(first.FieldF1().SetMeters(0.5))
	second := NewMsg1()
	require.NoError(second.FieldF1().SetMeters(0.75))

	data, err := f.Encode(first)
	require.NoError(err)
	firstLen := len(data)
	data, err = f.WriteMessage(data, second)
	require.NoError(err)

	for i := range firstLen {
		corrupted := append([]byte{}, data...)
		corrupted[i] ^= 0x5A

		h.msg1 = nil
		s := f.NewStream()
		_, err := s.Process(corrupted, d)
		require.Error(err, "corrupted byte %d", i)

		require.NotEmpty(h.msg1, "corrupted byte %d", i)
		last := h.msg1[len(h.msg1)-1]
		require.Equal(0.75, last.FieldF1().Meters(), "corrupted byte %d", i)
	}
}

func TestFrame_TruncatedNeverDispatches(t *testing.T) {
	require := require.New(t)

	f := MustNewFrame()
	h := &testHandler{t: t}
	d := NewDispatcher(h)

	data, err := f.Encode(NewMsg2())
	require.NoError(err)

	for i := range len(data) {
		n, err := f.ProcessInputData(data[:i], d)
		require.NoError(err)
		require.Zero(n)
	}
	require.Empty(h.msg2)
	require.Empty(h.fallback)
}

func TestStatus_Fields(t *testing.T) {
	require := require.New(t)

	m := NewStatus()
	require.True(m.FieldF3().IsNull())
	require.True(m.Valid())

	require.NoError(m.FieldF1().SetChannel(2))
	require.NoError(m.FieldF1().SetLevel(5))
	require.ErrorIs(m.FieldF1().SetChannel(16), field.ErrRange)
	require.NoError(m.FieldF2().X().SetMeters(1.5))
	require.NoError(m.FieldF2().Y().SetMeters(-0.02))
	require.NoError(m.FieldF3().SetValue(21.5))
	require.False(m.FieldF3().IsNull())

	// the sequence number stays off the wire until it is set
	expected := []byte{0x52, 0x05, 0xdc, 0xff, 0xec, 0x41, 0xac, 0x00, 0x00}
	require.Equal(expected, m.Encode())

	decoded := NewStatus()
	n, err := decoded.Decode(expected)
	require.NoError(err)
	require.Equal(len(expected), n)
	_, ok := decoded.FieldF4().Value()
	require.False(ok)
	require.Equal("Status(4){f1=0x52{channel=2, level=5}, f2={x=1500 (1.5 m), y=-20 (-0.02 m)}, f3=21.5, f4=<missing>}", decoded.String())

	require.NoError(m.FieldF4().SetValue(7))
	withSeq := m.Encode()
	require.Equal(append(append([]byte{}, expected...), 0x00, 0x07), withSeq)

	decoded = NewStatus()
	_, err = decoded.Decode(withSeq)
	require.NoError(err)
	seq, ok := decoded.FieldF4().Value()
	require.True(ok)
	require.Equal(uint64(7), seq)

	m.FieldF3().SetNull()
	require.True(m.FieldF3().IsNull())
	require.True(m.Valid())

	// level 10 is outside the declared range
	bad := append([]byte{}, expected...)
	bad[0] = 0xa2
	_, err = NewStatus().Decode(bad)
	require.ErrorIs(err, field.ErrInvalidValue)
}

func TestStatus_Dispatch(t *testing.T) {
	require := require.New(t)

	f := MustNewFrame()
	h := &testHandler{t: t}

	m := NewStatus()
	require.NoError(m.FieldF1().SetLevel(9))
	require.NoError(m.FieldF4().SetValue(300))

	data, err := f.Encode(m)
	require.NoError(err)

	n, err := f.ProcessInputData(data, NewDispatcher(h))
	require.NoError(err)
	require.Equal(len(data), n)
	require.Len(h.status, 1)
	require.Equal(int64(9), h.status[0].FieldF1().Level())
	require.True(h.status[0].FieldF3().IsNull())
	seq, ok := h.status[0].FieldF4().Value()
	require.True(ok)
	require.Equal(uint64(300), seq)
}
