package core

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"hash/adler32"
	"testing"
	"unicode/utf16"

	"github.com/rasky/go-lzo"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/mdict/internal/mdxcrypt"
)

// zlibCompress deflates data with the standard library writer.
func zlibCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// fastEncrypt is the writer-side inverse of the fast cipher.
func fastEncrypt(data, key []byte) []byte {
	out := make([]byte, len(data))
	prev := byte(0x36)
	for i, b := range data {
		t := b ^ prev ^ byte(i) ^ key[i%len(key)]
		out[i] = t>>4 | t<<4
		prev = out[i]
	}
	return out
}

// buildBlock frames payload as one compressed block: 8-byte prefix,
// compression, then encryption, with the Adler-32 of the plain payload in
// the prefix.
func buildBlock(t *testing.T, payload []byte, compressMethod, encryptMethod uint32) []byte {
	t.Helper()

	var body []byte
	switch compressMethod {
	case compressStored:
		body = append([]byte(nil), payload...)
	case compressLZO:
		body = lzo.Compress1X999(payload)
	case compressZlib:
		body = zlibCompress(t, payload)
	default:
		t.Fatalf("unsupported test compression method %d", compressMethod)
	}

	var prefix [8]byte
	binary.LittleEndian.PutUint32(prefix[0:4], compressMethod|encryptMethod<<4)
	binary.BigEndian.PutUint32(prefix[4:8], adler32.Checksum(payload))

	switch encryptMethod {
	case encryptNone:
	case encryptFast:
		body = fastEncrypt(body, mdxcrypt.BlockKey(prefix[4:8]))
	case encryptStream:
		body = mdxcrypt.StreamDecrypt(body, mdxcrypt.BlockKey(prefix[4:8]))
	default:
		t.Fatalf("unsupported test encryption method %d", encryptMethod)
	}

	return append(prefix[:], body...)
}

// mustCodec resolves a codec label or fails the test.
func mustCodec(t *testing.T, label string) TextCodec {
	t.Helper()
	c, err := ResolveCodec(label)
	require.NoError(t, err)
	return c
}

// utf16leBytes encodes s as UTF-16LE without a BOM.
func utf16leBytes(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[i*2:], u)
	}
	return out
}

// writeNum appends one version-sized big-endian count.
func writeNum(buf *bytes.Buffer, v Version, n uint64) {
	if v == V1 {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(n))
		buf.Write(b[:])
		return
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	buf.Write(b[:])
}
