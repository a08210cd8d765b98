// Package core parses the MDX container format: the attribute header, the
// key index, the record index and the compressed block framing shared by
// both. It performs no I/O beyond the reader handed to it and keeps no
// state between calls.
package core

import (
	"encoding/binary"
	"io"

	"github.com/scigolib/mdict/internal/utils"
)

// Version selects the integer widths used throughout the file. V1 files
// store counts as 4-byte big-endian words, V2 files as 8 bytes. Versions
// beyond 2 are rejected by the header parser.
type Version int

// Supported format versions.
const (
	V1 Version = 1
	V2 Version = 2
)

// ReadNumber reads one version-sized big-endian count from r.
func (v Version) ReadNumber(r io.Reader) (uint64, error) {
	if v == V1 {
		n, err := utils.ReadUint32BE(r)
		return uint64(n), err
	}
	return utils.ReadUint64BE(r)
}

// Number decodes one version-sized big-endian count from the front of buf
// and returns the value together with the bytes consumed. A zero width
// means buf was too short.
func (v Version) Number(buf []byte) (uint64, int) {
	if v == V1 {
		if len(buf) < 4 {
			return 0, 0
		}
		return uint64(binary.BigEndian.Uint32(buf)), 4
	}
	if len(buf) < 8 {
		return 0, 0
	}
	return binary.BigEndian.Uint64(buf), 8
}
