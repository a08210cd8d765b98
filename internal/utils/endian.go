package utils

import (
	"encoding/binary"
	"io"
)

// ReadUint32BE reads a 4-byte big-endian value from the current position.
func ReadUint32BE(r io.Reader) (uint32, error) {
	buf := GetBuffer(4)
	defer ReleaseBuffer(buf)

	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf), nil
}

// ReadUint32LE reads a 4-byte little-endian value from the current position.
func ReadUint32LE(r io.Reader) (uint32, error) {
	buf := GetBuffer(4)
	defer ReleaseBuffer(buf)

	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf), nil
}

// ReadUint64BE reads an 8-byte big-endian value from the current position.
func ReadUint64BE(r io.Reader) (uint64, error) {
	buf := GetBuffer(8)
	defer ReleaseBuffer(buf)

	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf), nil
}

// ReadBuf reads exactly size bytes into a newly allocated slice owned by
// the caller.
func ReadBuf(r io.Reader, size int) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
