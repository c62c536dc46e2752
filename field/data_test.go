package field

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestData(t *testing.T) {
	tests := []struct {
		description   string
		prefix        Prefix
		input         []byte
		expectedBytes []byte
		expectedValue []byte
	}{
		{
			description:   "u16 prefix",
			prefix:        LengthPrefix(PrefixU16),
			input:         []byte{0xde, 0xad},
			expectedBytes: []byte{0x00, 0x02, 0xde, 0xad},
			expectedValue: []byte{0xde, 0xad},
		},
		{
			description:   "varint prefix, empty",
			prefix:        LengthPrefix(PrefixVarint),
			input:         []byte{},
			expectedBytes: []byte{0x00},
			expectedValue: []byte{},
		},
		{
			description:   "fixed length keeps padding on decode",
			prefix:        FixedLength(4),
			input:         []byte{0x01},
			expectedBytes: []byte{0x01, 0x00, 0x00, 0x00},
			expectedValue: []byte{0x01, 0x00, 0x00, 0x00},
		},
	}

	require := require.New(t)

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		def := MustDefineData(DataSchema{Name: "d", Prefix: test.prefix})

		f := def.New()
		require.NoError(f.SetValue(test.input))
		require.Equal(test.expectedBytes, f.AppendTo(nil))
		require.Equal(len(test.expectedBytes), f.Length())

		decoded := def.New()
		n, err := decoded.Decode(test.expectedBytes)
		require.NoError(err)
		require.Equal(len(test.expectedBytes), n)
		require.Equal(test.expectedValue, decoded.Value())
		require.True(Equal(f, decoded))
	}
}

func TestData_CopySemantics(t *testing.T) {
	require := require.New(t)

	def := MustDefineData(DataSchema{Name: "blob", Prefix: LengthPrefix(PrefixU8), Default: []byte{0x01}})

	input := []byte{0xaa, 0xbb}
	f := def.New()
	require.Equal([]byte{0x01}, f.Value())
	require.NoError(f.SetValue(input))
	input[0] = 0
	require.Equal([]byte{0xaa, 0xbb}, f.Value())

	buf := []byte{0x01, 0xcc}
	decoded := def.New()
	_, err := decoded.Decode(buf)
	require.NoError(err)
	buf[1] = 0
	require.Equal([]byte{0xcc}, decoded.Value())

	clone := f.Clone().(*Data)
	require.NoError(clone.SetValue([]byte{0x11}))
	require.Equal([]byte{0xaa, 0xbb}, f.Value())
	require.Equal("blob=[aa bb]", f.String())

	f.Reset()
	require.Equal([]byte{0x01}, f.Value())
}

func TestData_Errors(t *testing.T) {
	require := require.New(t)

	f := MustDefineData(DataSchema{Name: "blob", Prefix: LengthPrefix(PrefixU8)}).New()
	require.ErrorIs(f.SetValue(make([]byte, 256)), ErrRange)

	_, err := f.Decode([]byte{0x03, 0x01})
	require.ErrorIs(err, ErrTruncated)

	_, err = f.Decode(nil)
	require.ErrorIs(err, ErrTruncated)

	_, err = DefineData(DataSchema{Name: "blob", Prefix: LengthPrefix(PrefixZeroTerm)})
	require.ErrorIs(err, ErrInvalidSchema)

	_, err = DefineData(DataSchema{Name: "blob", Prefix: FixedLength(1), Default: []byte{1, 2}})
	require.ErrorIs(err, ErrInvalidSchema)

	_, err = DefineData(DataSchema{Name: "blob", Prefix: Prefix{Kind: PrefixKind(42)}})
	require.ErrorIs(err, ErrInvalidSchema)
}
