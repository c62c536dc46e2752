package util

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

// CloneSlice clones slice with cloneSize.
// This function will use src length as the clone size if cloneSize is 0.
func CloneSlice[T any](src []T, cloneSize int) []T {
	if cloneSize == 0 {
		cloneSize = len(src)
	}
	clone := make([]T, cloneSize)
	copy(clone, src)

	return clone
}

// FormatHex formats data as space separated hex bytes, e.g. "ab cd 01".
//
// At most limit bytes are printed when limit > 0; longer input ends with "...(n bytes)".
func FormatHex(data []byte, limit int) string {
	if len(data) == 0 {
		return "[]"
	}

	n := len(data)
	if limit > 0 && n > limit {
		n = limit
	}

	var sb strings.Builder
	sb.Grow(3*n + 16)
	sb.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(hex.EncodeToString(data[i : i+1]))
	}
	if n < len(data) {
		fmt.Fprintf(&sb, " ...(%d bytes)", len(data))
	}
	sb.WriteByte(']')

	return sb.String()
}

// ParseHex decodes a hex dump. Whitespace, colons and "0x" prefixes are ignored.
func ParseHex(s string) ([]byte, error) {
	s = strings.ReplaceAll(s, "0x", "")
	s = strings.ReplaceAll(s, "0X", "")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == ':' || r == ',' {
			return -1
		}
		return r
	}, s)

	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex dump: %w", err)
	}

	return data, nil
}
