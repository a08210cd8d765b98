package core

import (
	"bytes"
	"encoding/binary"
	"hash/adler32"
	"io"
	"sort"

	"github.com/scigolib/mdict/internal/mdxcrypt"
	"github.com/scigolib/mdict/internal/utils"
)

// KeyBlockHeader carries the byte lengths of the two sections following
// it: the key-block-info table and the key-block data.
type KeyBlockHeader struct {
	BlockInfoSize uint64
	KeyBlockSize  uint64
}

// BlockEntryInfo describes one compressed block. It appears in two
// parallel tables, one for key blocks and one for record blocks.
type BlockEntryInfo struct {
	CompressedSize   uint64
	DecompressedSize uint64
}

// KeyEntry maps a normalized headword to a byte offset within the logical
// concatenation of all decompressed record blocks.
type KeyEntry struct {
	Offset uint64
	Text   string
}

// KeyNormalizer folds a raw headword into its canonical comparable form.
// The resource hint distinguishes resource archives, whose keys are file
// paths, from dictionary headwords. Indexing and querying must use the
// same normalizer.
type KeyNormalizer interface {
	Normalize(raw string, resource bool) string
}

// ReadKeyBlockHeader reads the key-block header. The V1 form is 16 bytes;
// the V2 form is 40 bytes followed by a big-endian Adler-32 over them.
// The leading block and entry counts are not needed for parsing.
func ReadKeyBlockHeader(r io.Reader, v Version) (*KeyBlockHeader, error) {
	if v == V1 {
		buf, err := utils.ReadBuf(r, 16)
		if err != nil {
			return nil, sized(err)
		}
		return &KeyBlockHeader{
			BlockInfoSize: uint64(binary.BigEndian.Uint32(buf[8:12])),
			KeyBlockSize:  uint64(binary.BigEndian.Uint32(buf[12:16])),
		}, nil
	}

	buf, err := utils.ReadBuf(r, 40)
	if err != nil {
		return nil, sized(err)
	}
	checksum, err := utils.ReadUint32BE(r)
	if err != nil {
		return nil, sized(err)
	}
	if adler32.Checksum(buf) != checksum {
		return nil, ChecksumError{Section: "key block header"}
	}
	return &KeyBlockHeader{
		BlockInfoSize: binary.BigEndian.Uint64(buf[24:32]),
		KeyBlockSize:  binary.BigEndian.Uint64(buf[32:40]),
	}, nil
}

// keyBlockInfoTag opens every V2 key-block-info section.
var keyBlockInfoTag = []byte{2, 0, 0, 0}

// ReadKeyBlockInfos reads size bytes of key-block-info and parses them
// into one BlockEntryInfo per key block. V1 stores the table in the
// clear; V2 wraps it in a type tag, a big-endian Adler-32 over the
// decompressed table, an optional fast-cipher layer (header.Encrypted bit
// 1), and zlib compression.
func ReadKeyBlockInfos(r io.Reader, size uint64, h *Header) ([]BlockEntryInfo, error) {
	if err := utils.ValidateBufferSize(size, utils.MaxSectionSize, "key block info"); err != nil {
		return nil, ErrInvalidData
	}
	buf, err := utils.ReadBuf(r, int(size))
	if err != nil {
		return nil, sized(err)
	}

	table := buf
	if h.Version == V2 {
		if len(buf) < 8 || !bytes.Equal(buf[0:4], keyBlockInfoTag) {
			return nil, ErrInvalidData
		}
		checksum := binary.BigEndian.Uint32(buf[4:8])

		body := buf[8:]
		if h.Encrypted&2 != 0 {
			body = mdxcrypt.FastDecrypt(body, mdxcrypt.InfoKey(buf[4:8]))
		}
		table, err = inflate(body)
		if err != nil {
			return nil, ErrInvalidData
		}
		if adler32.Checksum(table) != checksum {
			return nil, ChecksumError{Section: "key block info"}
		}
	}

	return parseKeyBlockInfos(table, h)
}

// readTextLen reads a first/last key length from the front of buf: one
// byte for V1, a big-endian uint16 for V2. A zero width means buf was too
// short.
func readTextLen(buf []byte, v Version) (int, int) {
	if v == V1 {
		if len(buf) < 1 {
			return 0, 0
		}
		return int(buf[0]), 1
	}
	if len(buf) < 2 {
		return 0, 0
	}
	return int(binary.BigEndian.Uint16(buf)), 2
}

// textSize converts a declared key length into its byte count. V2 adds
// one terminator unit before the UTF-16 doubling; observed files require
// this even though the format leaves it undocumented.
func textSize(h *Header, units int) int {
	if h.Version == V2 {
		units++
	}
	if h.Codec.IsUTF16() {
		units *= 2
	}
	return units
}

// parseKeyBlockInfos walks the decoded info table until it is consumed.
// The first and last key texts delimit each block's key range; they are
// skipped, not retained.
func parseKeyBlockInfos(data []byte, h *Header) ([]BlockEntryInfo, error) {
	var infos []BlockEntryInfo
	rest := data
	for len(rest) > 0 {
		_, w := h.Version.Number(rest) // entry count, framing only
		if w == 0 {
			return nil, ErrInvalidData
		}
		rest = rest[w:]

		for i := 0; i < 2; i++ {
			units, w := readTextLen(rest, h.Version)
			if w == 0 {
				return nil, ErrInvalidData
			}
			rest = rest[w:]
			skip := textSize(h, units)
			if skip > len(rest) {
				return nil, ErrInvalidData
			}
			rest = rest[skip:]
		}

		compressed, w := h.Version.Number(rest)
		if w == 0 {
			return nil, ErrInvalidData
		}
		rest = rest[w:]
		decompressed, w := h.Version.Number(rest)
		if w == 0 {
			return nil, ErrInvalidData
		}
		rest = rest[w:]

		infos = append(infos, BlockEntryInfo{
			CompressedSize:   compressed,
			DecompressedSize: decompressed,
		})
	}
	return infos, nil
}

// ReadKeyEntries reads size bytes of key-block data, decodes each block
// through the block codec, and parses the (offset, NUL-terminated string)
// pairs inside. Every keyword passes through the normalizer; the combined
// result is sorted ascending by normalized text. Duplicates are kept.
func ReadKeyEntries(r io.Reader, size uint64, h *Header, infos []BlockEntryInfo,
	norm KeyNormalizer, resource bool) ([]KeyEntry, error) {
	if err := utils.ValidateBufferSize(size, utils.MaxSectionSize, "key block data"); err != nil {
		return nil, ErrInvalidData
	}
	data, err := utils.ReadBuf(r, int(size))
	if err != nil {
		return nil, sized(err)
	}

	var entries []KeyEntry
	rest := data
	for _, info := range infos {
		if info.CompressedSize > uint64(len(rest)) {
			return nil, ErrInvalidData
		}
		block, err := DecodeBlock(rest[:info.CompressedSize], info.CompressedSize,
			info.DecompressedSize, "key block")
		if err != nil {
			return nil, err
		}
		rest = rest[info.CompressedSize:]

		es := block
		for len(es) > 0 {
			offset, w := h.Version.Number(es)
			if w == 0 {
				return nil, ErrInvalidData
			}
			es = es[w:]

			text, n, err := h.Codec.DecodeString(es)
			if err != nil {
				return nil, err
			}
			es = es[n:]

			entries = append(entries, KeyEntry{
				Offset: offset,
				Text:   norm.Normalize(text, resource),
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Text < entries[j].Text
	})
	return entries, nil
}
