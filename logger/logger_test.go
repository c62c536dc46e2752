package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		hasErr   bool
	}{
		{input: "debug", expected: DebugLevel},
		{input: "INFO", expected: InfoLevel},
		{input: "", expected: InfoLevel},
		{input: "warning", expected: WarnLevel},
		{input: " error ", expected: ErrorLevel},
		{input: "fatal", expected: FatalLevel},
		{input: "verbose", expected: InfoLevel, hasErr: true},
	}

	require := require.New(t)

	for i, test := range tests {
		t.Logf("Test #%d: %q", i, test.input)
		level, err := ParseLevel(test.input)
		require.Equal(test.expected, level)
		require.Equal(test.hasErr, err != nil)
	}
}

func TestSlogLogger(t *testing.T) {
	t.Setenv("ENV", "")
	require := require.New(t)

	var buf bytes.Buffer
	l := NewSlogWriter(&buf, InfoLevel, false)
	require.Equal(InfoLevel, l.Level())

	l.Debug("hidden")
	require.Zero(buf.Len())

	l.With("conn", 1).Info("frame decoded", "id", 2)

	var record map[string]any
	require.NoError(json.Unmarshal(buf.Bytes(), &record))
	require.Equal("frame decoded", record["msg"])
	require.Equal("INFO", record["level"])
	require.EqualValues(1, record["conn"])
	require.EqualValues(2, record["id"])
	require.Contains(record, "ts")

	buf.Reset()
	l.SetLevel(DebugLevel)
	require.Equal(DebugLevel, l.Level())
	l.Debug("visible")
	require.True(strings.Contains(buf.String(), "visible"))
}

func TestDefaultLogger(t *testing.T) {
	require := require.New(t)

	prev := GetLogger()
	defer SetLogger(prev)

	m := NewMockLogger()
	m.On("Warn", "sync lost", []any{"skipped", 3}).Once()
	SetLogger(m)
	SetLogger(nil)
	require.Same(m, GetLogger())

	Warn("sync lost", "skipped", 3)
	m.AssertExpectations(t)
}

func TestMockLogger_AllowAll(t *testing.T) {
	m := NewMockLogger()
	m.On("Error", "boom", mock.Anything).Once()
	m.AllowAll()

	m.Error("boom", "err", "x")
	m.Debug("anything")
	require.Same(t, m, m.With("k", "v"))
	require.Equal(t, DebugLevel, m.Level())
	m.AssertCalled(t, "Error", "boom", mock.Anything)
}

func TestZapLogger_Level(t *testing.T) {
	require := require.New(t)

	l, err := NewZap(WarnLevel)
	require.NoError(err)
	require.Equal(WarnLevel, l.Level())

	l.SetLevel(DebugLevel)
	require.Equal(DebugLevel, l.Level())

	child := l.With("component", "test")
	require.Equal(DebugLevel, child.Level())
}
