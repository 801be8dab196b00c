// Package utils holds small formatting helpers shared across the
// runtime that don't belong to any one protocol layer.
package utils

import (
	"fmt"
	"strings"
)

// dumpWidth is the number of bytes shown per line, matching the
// conventional 16-byte hex dump layout.
const dumpWidth = 16

// HexDump renders data as a multi-line offset/hex/ASCII dump, one line
// per dumpWidth bytes, for logging raw CIP/ENIP wire payloads at Debug
// level. Returns "" for an empty or nil slice.
func HexDump(data []byte) string {
	lines := HexDumpLines(data)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// HexDumpLines returns one formatted line per dumpWidth-byte chunk of
// data, with no trailing blank line -- useful when the caller wants to
// prefix each line with its own timestamp or log level.
func HexDumpLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	lines := make([]string, 0, (len(data)+dumpWidth-1)/dumpWidth)
	for off := 0; off < len(data); off += dumpWidth {
		end := off + dumpWidth
		if end > len(data) {
			end = len(data)
		}
		lines = append(lines, dumpLine(off, data[off:end]))
	}
	return lines
}

// dumpLine formats one row: the offset, up to dumpWidth hex bytes
// (padded to a fixed column so the ASCII gutter always lines up), and
// the printable-ASCII rendering of the same bytes.
func dumpLine(offset int, chunk []byte) string {
	var hexCol strings.Builder
	var ascii strings.Builder
	for i := 0; i < dumpWidth; i++ {
		if i < len(chunk) {
			fmt.Fprintf(&hexCol, "%02x ", chunk[i])
			ascii.WriteByte(printableOrDot(chunk[i]))
		} else {
			hexCol.WriteString("   ")
		}
		if i == dumpWidth/2-1 {
			hexCol.WriteByte(' ')
		}
	}
	return fmt.Sprintf("%08x  %s |%s|", offset, hexCol.String(), ascii.String())
}

func printableOrDot(b byte) byte {
	if b >= 0x20 && b < 0x7F {
		return b
	}
	return '.'
}

// ByteToHex renders a single byte as two uppercase hex digits.
func ByteToHex(b byte) string {
	return fmt.Sprintf("%02X", b)
}
