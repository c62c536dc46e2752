package field

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var pointDef = MustDefineBundle(BundleSchema{
	Name: "point",
	Members: []Definition{
		MustDefineInt(IntSchema{Name: "id", Type: Uint8, Default: 7}),
		MustDefineString(StringSchema{Name: "label", Prefix: LengthPrefix(PrefixU8)}),
		MustDefineBundle(BundleSchema{
			Name: "pos",
			Members: []Definition{
				MustDefineInt(IntSchema{Name: "x", Type: Int16}),
				MustDefineInt(IntSchema{Name: "y", Type: Int16, ValidRanges: []Range{{Min: -100, Max: 100}}}),
			},
		}),
	},
})

func TestBundle(t *testing.T) {
	require := require.New(t)

	f := pointDef.New()
	require.Equal(BundleKind, f.Kind())
	require.Len(f.Fields(), 3)
	require.Equal(int64(7), f.Field("id").(*Int).Value())
	require.Nil(f.Field("unknown"))

	require.NoError(f.Field("id").(*Int).SetValue(1))
	require.NoError(f.Field("label").(*String).SetValue("ab"))
	pos := f.Field("pos").(*Bundle)
	require.NoError(pos.Field("x").(*Int).SetValue(2))
	require.NoError(pos.Field("y").(*Int).SetValue(-1))

	expected := []byte{0x01, 0x02, 'a', 'b', 0x00, 0x02, 0xff, 0xff}
	require.Equal(expected, f.AppendTo(nil))
	require.Equal(len(expected), f.Length())
	require.Equal(`point={id=1, label="ab", pos={x=2, y=-1}}`, f.String())

	decoded := pointDef.New()
	n, err := decoded.Decode(expected)
	require.NoError(err)
	require.Equal(len(expected), n)
	require.True(Equal(f, decoded))

	clone := f.Clone().(*Bundle)
	require.NoError(clone.Field("pos").(*Bundle).Field("x").(*Int).SetValue(9))
	require.Equal(int64(2), pos.Field("x").(*Int).Value())

	f.Reset()
	require.Equal(int64(7), f.Field("id").(*Int).Value())
	require.Equal(int64(0), pos.Field("y").(*Int).Value())
	require.Equal(int64(9), clone.Field("pos").(*Bundle).Field("x").(*Int).Value())
}

func TestBundle_DecodeErrors(t *testing.T) {
	tests := []struct {
		description string
		input       []byte
		expected    error
		expectedN   int
		message     string
	}{
		{
			description: "truncated nested member",
			input:       []byte{0x01, 0x00, 0x00, 0x02},
			expected:    ErrTruncated,
			expectedN:   4,
			message:     "field point: field pos: field y",
		},
		{
			description: "nested member outside its valid range",
			input:       []byte{0x01, 0x00, 0x00, 0x02, 0x01, 0x00},
			expected:    ErrInvalidValue,
			expectedN:   6,
			message:     "field point: field pos: field y",
		},
		{
			description: "truncated string",
			input:       []byte{0x01, 0x05, 'a'},
			expected:    ErrTruncated,
			expectedN:   1,
			message:     "field point: field label",
		},
	}

	require := require.New(t)

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		f := pointDef.New()
		n, err := f.Decode(test.input)
		require.ErrorIs(err, test.expected)
		require.ErrorContains(err, test.message)
		require.Equal(test.expectedN, n)
	}

	f := pointDef.New()
	require.True(f.Valid())
	require.NoError(f.Field("pos").(*Bundle).Field("y").(*Int).SetValue(200))
	require.False(f.Valid())
}

func TestDefineBundle_Errors(t *testing.T) {
	tests := []struct {
		description string
		schema      BundleSchema
	}{
		{description: "empty name", schema: BundleSchema{}},
		{description: "nil member", schema: BundleSchema{Name: "b", Members: []Definition{nil}}},
		{
			description: "duplicate member",
			schema: BundleSchema{Name: "b", Members: []Definition{
				MustDefineInt(IntSchema{Name: "a", Type: Uint8}),
				MustDefineFloat(FloatSchema{Name: "a", Type: Float32}),
			}},
		},
	}

	require := require.New(t)

	for i, test := range tests {
		t.Logf("Test #%d: %s", i, test.description)
		_, err := DefineBundle(test.schema)
		require.ErrorIs(err, ErrInvalidSchema)
	}
}
