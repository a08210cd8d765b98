package mdict

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"hash/adler32"
	"testing"
	"unicode/utf16"

	"github.com/rasky/go-lzo"
	"github.com/stretchr/testify/require"

	"github.com/scigolib/mdict/internal/mdxcrypt"
)

// Block prefix methods, mirrored here for the builders.
const (
	encNone   = 0
	encFast   = 1
	encStream = 2

	cmpStored = 0
	cmpLZO    = 1
	cmpZlib   = 2
)

type testKey struct {
	text   string
	offset uint64
}

// testFile describes one synthesized dictionary. Keys go into a single
// key block; each records element becomes one record block whose
// decompressed payload it is.
type testFile struct {
	version     int
	title       string
	encrypted   string // Encrypted attribute; empty omits it
	encoding    string // Encoding attribute; empty omits it
	utf16Keys   bool   // encode key text as UTF-16LE
	keys        []testKey
	records     [][]byte
	keyCompress uint32
	keyEncrypt  uint32
	recCompress uint32
	recEncrypt  uint32
	infoEncrypt bool // fast-cipher the V2 key-block-info body
}

func (f testFile) ver() int {
	if f.version == 0 {
		return 2
	}
	return f.version
}

func utf16le(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(out[i*2:], u)
	}
	return out
}

func zlibDeflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

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

// buildBlock frames payload with the 8-byte prefix, compressing then
// encrypting per the given methods.
func buildBlock(t *testing.T, payload []byte, compress, encrypt uint32) []byte {
	t.Helper()

	var body []byte
	switch compress {
	case cmpStored:
		body = append([]byte(nil), payload...)
	case cmpLZO:
		body = lzo.Compress1X999(payload)
	case cmpZlib:
		body = zlibDeflate(t, payload)
	}

	var prefix [8]byte
	binary.LittleEndian.PutUint32(prefix[0:4], compress|encrypt<<4)
	binary.BigEndian.PutUint32(prefix[4:8], adler32.Checksum(payload))

	switch encrypt {
	case encFast:
		body = fastEncrypt(body, mdxcrypt.BlockKey(prefix[4:8]))
	case encStream:
		body = mdxcrypt.StreamDecrypt(body, mdxcrypt.BlockKey(prefix[4:8]))
	}

	return append(prefix[:], body...)
}

func (f testFile) writeNum(buf *bytes.Buffer, n uint64) {
	if f.ver() == 1 {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(n))
		buf.Write(b[:])
		return
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	buf.Write(b[:])
}

func (f testFile) keyText(s string) []byte {
	if f.utf16Keys {
		return append(utf16le(s), 0, 0)
	}
	return append([]byte(s), 0)
}

// infoText writes one first/last key bound into the info table.
func (f testFile) infoText(buf *bytes.Buffer, s string) {
	var raw []byte
	units := len(s)
	if f.utf16Keys {
		raw = utf16le(s)
		units = len(raw) / 2
	} else {
		raw = []byte(s)
	}

	if f.ver() == 1 {
		buf.WriteByte(byte(units))
		buf.Write(raw)
		return
	}

	var u [2]byte
	binary.BigEndian.PutUint16(u[:], uint16(units))
	buf.Write(u[:])
	buf.Write(raw)
	if f.utf16Keys {
		buf.Write([]byte{0, 0})
	} else {
		buf.WriteByte(0)
	}
}

// build assembles the complete file image.
func build(t *testing.T, f testFile) []byte {
	t.Helper()
	require.NotEmpty(t, f.keys)

	var out bytes.Buffer

	// Section 1: header info.
	attrs := fmt.Sprintf(`<Dictionary GeneratedByEngineVersion="%d.0"`, f.ver())
	if f.encrypted != "" {
		attrs += fmt.Sprintf(` Encrypted=%q`, f.encrypted)
	}
	if f.encoding != "" {
		attrs += fmt.Sprintf(` Encoding=%q`, f.encoding)
	}
	attrs += fmt.Sprintf(` Title=%q/>`, f.title)

	info := utf16le(attrs)
	var b4 [4]byte
	binary.BigEndian.PutUint32(b4[:], uint32(len(info)))
	out.Write(b4[:])
	out.Write(info)
	binary.LittleEndian.PutUint32(b4[:], adler32.Checksum(info))
	out.Write(b4[:])

	// Key block data: one block holding every key.
	var keyData bytes.Buffer
	for _, k := range f.keys {
		f.writeNum(&keyData, k.offset)
		keyData.Write(f.keyText(k.text))
	}
	keyBlock := buildBlock(t, keyData.Bytes(), f.keyCompress, f.keyEncrypt)

	// Key-block-info table.
	var table bytes.Buffer
	f.writeNum(&table, uint64(len(f.keys)))
	f.infoText(&table, f.keys[0].text)
	f.infoText(&table, f.keys[len(f.keys)-1].text)
	f.writeNum(&table, uint64(len(keyBlock)))
	f.writeNum(&table, uint64(keyData.Len()))

	var infoSection []byte
	if f.ver() == 1 {
		infoSection = table.Bytes()
	} else {
		var sum [4]byte
		binary.BigEndian.PutUint32(sum[:], adler32.Checksum(table.Bytes()))
		body := zlibDeflate(t, table.Bytes())
		if f.infoEncrypt {
			body = fastEncrypt(body, mdxcrypt.InfoKey(sum[:]))
		}
		infoSection = append([]byte{2, 0, 0, 0}, sum[:]...)
		infoSection = append(infoSection, body...)
	}

	// Section 2: key-block header.
	if f.ver() == 1 {
		for _, n := range []uint32{1, uint32(len(f.keys)), uint32(len(infoSection)), uint32(len(keyBlock))} {
			binary.BigEndian.PutUint32(b4[:], n)
			out.Write(b4[:])
		}
	} else {
		hdr := make([]byte, 40)
		binary.BigEndian.PutUint64(hdr[0:8], 1)
		binary.BigEndian.PutUint64(hdr[8:16], uint64(len(f.keys)))
		binary.BigEndian.PutUint64(hdr[16:24], uint64(table.Len()))
		binary.BigEndian.PutUint64(hdr[24:32], uint64(len(infoSection)))
		binary.BigEndian.PutUint64(hdr[32:40], uint64(len(keyBlock)))
		out.Write(hdr)
		binary.BigEndian.PutUint32(b4[:], adler32.Checksum(hdr))
		out.Write(b4[:])
	}

	// Sections 3 and 4.
	out.Write(infoSection)
	out.Write(keyBlock)

	// Section 5: record index.
	recBlocks := make([][]byte, len(f.records))
	var dataSize uint64
	for i, p := range f.records {
		recBlocks[i] = buildBlock(t, p, f.recCompress, f.recEncrypt)
		dataSize += uint64(len(recBlocks[i]))
	}
	width := uint64(8)
	if f.ver() == 1 {
		width = 4
	}
	f.writeNum(&out, uint64(len(recBlocks)))
	f.writeNum(&out, uint64(len(f.keys)))
	f.writeNum(&out, uint64(len(recBlocks))*2*width)
	f.writeNum(&out, dataSize)
	for i, p := range f.records {
		f.writeNum(&out, uint64(len(recBlocks[i])))
		f.writeNum(&out, uint64(len(p)))
	}

	// Section 6: record data.
	for _, rb := range recBlocks {
		out.Write(rb)
	}

	return out.Bytes()
}

// openTest builds the file and constructs a Dict over an in-memory
// reader.
func openTest(t *testing.T, f testFile, opts ...Option) *Dict {
	t.Helper()
	d, err := New(bytes.NewReader(build(t, f)), opts...)
	require.NoError(t, err)
	return d
}

// seq returns n bytes counting up from start, for recognizable record
// payloads.
func seq(start, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(start + i)
	}
	return out
}
