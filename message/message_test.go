package message

import (
	"sync"
	"testing"

	"github.com/arloliu/go-comms/field"
	"github.com/arloliu/go-comms/units"
	"github.com/stretchr/testify/require"
)

var (
	distanceDef = field.MustDefineInt(field.IntSchema{
		Name:        "distance",
		Type:        field.Int32,
		Scaling:     units.Ratio{Num: 1, Den: 100},
		Units:       units.Millimeters,
		DomainUnits: units.Meters,
	})
	labelDef = field.MustDefineString(field.StringSchema{Name: "label", Prefix: field.LengthPrefix(field.PrefixU8)})
	stateDef = field.MustDefineEnum(field.EnumSchema{
		Name:   "state",
		Type:   field.Uint8,
		Values: []field.EnumValue{{Name: "Off", Value: 0}, {Name: "On", Value: 1}},
	})
)

type testPosition struct {
	Base
}

func newTestPosition() Message {
	return &testPosition{Base: NewBase(7, "Position", distanceDef.New(), labelDef.New(), stateDef.New())}
}

func (m *testPosition) FieldDistance() *field.Int { return m.Fields()[0].(*field.Int) }
func (m *testPosition) FieldLabel() *field.String { return m.Fields()[1].(*field.String) }

type testPing struct {
	Base
}

func newTestPing() Message { return &testPing{Base: NewBase(1, "Ping")} }

func TestBase_EncodeDecode(t *testing.T) {
	require := require.New(t)

	msg := newTestPosition().(*testPosition)
	require.Equal(uint64(7), msg.ID())
	require.Equal("Position", msg.Name())
	require.Len(msg.Fields(), 3)
	require.Same(msg.Fields()[1], msg.Field("label"))
	require.Nil(msg.Field("missing"))

	require.NoError(msg.FieldDistance().SetDomainValue(0.1))
	require.NoError(msg.FieldLabel().SetValue("ab"))

	expected := []byte{0x00, 0x00, 0x27, 0x10, 0x02, 'a', 'b', 0x00}
	require.Equal(expected, msg.Encode())
	require.Equal(len(expected), msg.Length())
	require.Equal(append([]byte{0xff}, expected...), msg.AppendTo([]byte{0xff}))
	require.True(msg.Valid())
	require.Equal(`Position(7){distance=10000 (0.1 m), label="ab", state=Off(0)}`, msg.String())

	decoded := newTestPosition()
	n, err := decoded.Decode(append(expected, 0x99))
	require.NoError(err)
	require.Equal(len(expected), n)
	require.True(Equal(msg, decoded))

	msg.Reset()
	require.Equal(int64(0), msg.FieldDistance().Value())
	require.False(Equal(msg, decoded))
}

func TestBase_DecodeErrors(t *testing.T) {
	tests := []struct {
		description      string
		input            []byte
		expectedErr      error
		expectedConsumed int
		expectedMsg      string
	}{
		{
			description:      "truncated first field",
			input:            []byte{0x00, 0x00},
			expectedErr:      field.ErrTruncated,
			expectedConsumed: 0,
			expectedMsg:      "message Position: field distance:",
		},
		{
			description:      "truncated string content",
			input:            []byte{0x00, 0x00, 0x00, 0x01, 0x05, 'a'},
			expectedErr:      field.ErrTruncated,
			expectedConsumed: 4,
			expectedMsg:      "message Position: field label:",
		},
		{
			description:      "undeclared enum value",
			input:            []byte{0x00, 0x00, 0x00, 0x01, 0x00, 0x07},
			expectedErr:      field.ErrInvalidValue,
			expectedConsumed: 6,
			expectedMsg:      "message Position: field state:",
		},
	}

	require := require.New(t)

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		msg := newTestPosition()
		n, err := msg.Decode(test.input)
		require.ErrorIs(err, test.expectedErr)
		require.ErrorContains(err, test.expectedMsg)
		require.Equal(test.expectedConsumed, n)

		var fieldErr *field.Error
		require.ErrorAs(err, &fieldErr)
	}
}

func TestNewBase_DuplicateField(t *testing.T) {
	require.Panics(t, func() {
		NewBase(1, "Dup", labelDef.New(), labelDef.New())
	})
}

func TestRaw(t *testing.T) {
	require := require.New(t)

	payload := []byte{0x01, 0x02}
	raw := NewRaw(42, payload)
	payload[0] = 0xff

	require.Equal(uint64(42), raw.ID())
	require.Equal(RawName, raw.Name())
	require.Nil(raw.Fields())
	require.Nil(raw.Field("x"))
	require.Equal([]byte{0x01, 0x02}, raw.Payload())
	require.Equal([]byte{0x01, 0x02}, raw.Encode())
	require.Equal(2, raw.Length())
	require.True(raw.Valid())
	require.Equal("Raw(42)[01 02]", raw.String())

	decoded := &Raw{id: 42}
	n, err := decoded.Decode([]byte{0x01, 0x02})
	require.NoError(err)
	require.Equal(2, n)
	require.True(Equal(raw, decoded))

	raw.Reset()
	require.Equal(0, raw.Length())
	require.False(Equal(raw, nil))
	require.True(Equal(nil, nil))
}

func TestRegistry(t *testing.T) {
	require := require.New(t)

	reg := NewRegistry().MustRegister(newTestPosition, newTestPing)
	require.Equal(2, reg.Len())
	require.Equal([]uint64{1, 7}, reg.IDs())
	require.True(reg.Contains(7))
	require.False(reg.Contains(8))

	msg, err := reg.New(7)
	require.NoError(err)
	require.IsType(&testPosition{}, msg)

	msg, err = reg.NewByName("Ping")
	require.NoError(err)
	require.IsType(&testPing{}, msg)

	_, err = reg.New(8)
	require.ErrorIs(err, ErrUnknownID)
	_, err = reg.NewByName("Pong")
	require.ErrorIs(err, ErrUnknownName)

	raw := reg.NewOrRaw(8)
	require.IsType(&Raw{}, raw)
	require.Equal(uint64(8), raw.ID())
	require.IsType(&testPing{}, reg.NewOrRaw(1))

	err = reg.Register(newTestPing)
	require.ErrorIs(err, ErrDuplicateID)

	err = reg.Register(func() Message { return &testPing{Base: NewBase(2, "Ping")} })
	require.ErrorIs(err, ErrDuplicateName)
	require.False(reg.Contains(2), "failed registration must not leave the id behind")

	require.Error(reg.Register(nil))

	// factories produce independent instances
	a, _ := reg.New(7)
	b, _ := reg.New(7)
	require.NoError(a.(*testPosition).FieldLabel().SetValue("x"))
	require.Equal("", b.(*testPosition).FieldLabel().Value())
}

func TestRegistry_Concurrent(t *testing.T) {
	require := require.New(t)

	reg := NewRegistry()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- reg.Register(newTestPosition)
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(err, ErrDuplicateID)
	}
	require.Equal(1, succeeded)
	require.Equal(1, reg.Len())
}
