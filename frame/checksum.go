package frame

import (
	"fmt"
	"hash/crc32"

	"github.com/sigurn/crc16"
)

// Algorithm identifies a checksum algorithm.
type Algorithm uint8

const (
	// Sum8 is the arithmetic sum of all bytes truncated to 8 bits.
	Sum8 Algorithm = iota + 1
	// Sum16 is the arithmetic sum of all bytes truncated to 16 bits, as used by SECS-I blocks.
	Sum16
	// CRC16CCITT is CRC-16/CCITT-FALSE: polynomial 0x1021, initial value 0xFFFF, no reflection.
	CRC16CCITT
	// CRC32 is the IEEE 802.3 CRC-32.
	CRC32
)

func (a Algorithm) String() string {
	switch a {
	case Sum8:
		return "sum8"
	case Sum16:
		return "sum16"
	case CRC16CCITT:
		return "crc16-ccitt"
	case CRC32:
		return "crc32"
	default:
		return fmt.Sprintf("algorithm(%d)", uint8(a))
	}
}

// Width returns the checksum size in bytes, or 0 for an unknown algorithm.
func (a Algorithm) Width() int {
	switch a {
	case Sum8:
		return 1
	case Sum16, CRC16CCITT:
		return 2
	case CRC32:
		return 4
	default:
		return 0
	}
}

// Compute returns the checksum of data.
func (a Algorithm) Compute(data []byte) uint64 {
	switch a {
	case Sum8:
		var sum uint8
		for _, b := range data {
			sum += b
		}
		return uint64(sum)
	case Sum16:
		var sum uint16
		for _, b := range data {
			sum += uint16(b)
		}
		return uint64(sum)
	case CRC16CCITT:
		return uint64(crc16.Checksum(data, crc16Table))
	case CRC32:
		return uint64(crc32.ChecksumIEEE(data))
	default:
		return 0
	}
}

var crc16Table = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)
