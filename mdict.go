// Package mdict provides a pure Go reader for the MDX dictionary
// container format and its MDD resource sibling. It parses the versioned
// header, materializes the sorted keyword index, and resolves lookups
// through the layered block decryption, decompression and checksum
// pipeline.
package mdict

import (
	"errors"
	"io"
	"os"
	"sort"

	"github.com/scigolib/mdict/internal/core"
	"github.com/scigolib/mdict/internal/utils"
)

// Reader is the random-access byte source a Dict reads from. *os.File and
// *bytes.Reader satisfy it.
type Reader interface {
	io.Reader
	io.Seeker
}

// KeyNormalizer folds a raw headword into its canonical comparable form.
// The same normalizer runs at indexing and at query time; lookups only
// work when both agree.
type KeyNormalizer = core.KeyNormalizer

// identityNormalizer is the default: headwords compare byte-for-byte.
type identityNormalizer struct{}

func (identityNormalizer) Normalize(raw string, resource bool) string { return raw }

// Dict is an opened dictionary. The keyword and record indexes are
// immutable after construction; only the reader position and the optional
// record cache mutate during lookups, so a Dict must not be shared
// between goroutines without external serialization. Distinct handles are
// independent.
type Dict struct {
	reader Reader
	file   *os.File // non-nil when the Dict owns the file

	title     string
	encrypted uint8
	codec     core.TextCodec

	keyEntries        []core.KeyEntry
	recordsInfo       []core.BlockEntryInfo
	recordBlockOffset int64

	// cache maps a block's compressed offset to its decoded bytes.
	// Insert-only; nil when caching is disabled.
	cache map[uint64][]byte

	norm     KeyNormalizer
	resource bool
}

// New constructs a Dict from r by running the loader pipeline: header,
// key-block header, key-block-info table, key entries, record index. The
// reader is left positioned at the start of record data and must not be
// used by the caller afterwards. On failure no handle is produced.
func New(r Reader, opts ...Option) (*Dict, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	d := &Dict{
		reader:   r,
		norm:     cfg.normalizer,
		resource: cfg.resource,
	}
	if cfg.cache {
		d.cache = make(map[uint64][]byte)
	}
	if err := d.load(cfg.defaultEncoding); err != nil {
		return nil, err
	}
	return d, nil
}

// Open opens the file at path and constructs a Dict that owns it. Close
// releases the file.
func Open(path string, opts ...Option) (*Dict, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, utils.WrapError("file open failed", err)
	}
	d, err := New(f, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	d.file = f
	return d, nil
}

func (d *Dict) load(defaultEncoding string) error {
	header, err := core.ReadHeader(d.reader, defaultEncoding)
	if err != nil {
		return err
	}

	kbh, err := core.ReadKeyBlockHeader(d.reader, header.Version)
	if err != nil {
		return err
	}

	infos, err := core.ReadKeyBlockInfos(d.reader, kbh.BlockInfoSize, header)
	if err != nil {
		return err
	}

	entries, err := core.ReadKeyEntries(d.reader, kbh.KeyBlockSize, header, infos, d.norm, d.resource)
	if err != nil {
		return err
	}

	records, err := core.ReadRecordInfos(d.reader, header.Version)
	if err != nil {
		return err
	}

	pos, err := d.reader.Seek(0, io.SeekCurrent)
	if err != nil {
		return utils.WrapError("stream position failed", err)
	}

	d.title = header.Title
	d.encrypted = header.Encrypted
	d.codec = header.Codec
	d.keyEntries = entries
	d.recordsInfo = records
	d.recordBlockOffset = pos
	return nil
}

// Close closes the underlying file when the Dict was built with Open. It
// is safe to call Close multiple times; for a Dict built with New it is a
// no-op.
func (d *Dict) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// Title returns the dictionary title from the header.
func (d *Dict) Title() string { return d.title }

// Encoding returns the canonical WHATWG label of the text codec in use.
func (d *Dict) Encoding() string { return d.codec.Name() }

// Encrypted returns the header's encryption bitfield.
func (d *Dict) Encrypted() uint8 { return d.encrypted }

// Keys returns the normalized headwords in index order: ascending, with
// duplicates preserved.
func (d *Dict) Keys() []string {
	keys := make([]string, len(d.keyEntries))
	for i, e := range d.keyEntries {
		keys[i] = e.Text
	}
	return keys
}

// Lookup resolves key to its record bytes. The key is normalized, binary
// searched in the index, and its record block decoded on demand. A key
// that is absent, or whose offset no record block covers, yields
// (nil, nil); the handle stays usable either way.
//
// Duplicate headwords resolve to the first matching index in sorted
// order. When the record cache is enabled the returned slice aliases the
// cached block and stays valid for the lifetime of the handle; otherwise
// the caller owns it.
func (d *Dict) Lookup(key string) ([]byte, error) {
	k := d.norm.Normalize(key, d.resource)
	i := sort.Search(len(d.keyEntries), func(i int) bool {
		return d.keyEntries[i].Text >= k
	})
	if i >= len(d.keyEntries) || d.keyEntries[i].Text != k {
		return nil, nil
	}

	off, ok := core.LocateRecord(d.recordsInfo, d.keyEntries[i].Offset)
	if !ok {
		return nil, nil
	}

	block, err := d.recordBlock(off)
	if err != nil {
		return nil, err
	}
	if off.BlockOffset > uint64(len(block)) {
		return nil, ErrInvalidData
	}
	return block[off.BlockOffset:], nil
}

// recordBlock returns the decoded block containing off, consulting the
// cache when enabled.
func (d *Dict) recordBlock(off core.RecordOffset) ([]byte, error) {
	if d.cache != nil {
		if block, ok := d.cache[off.BufOffset]; ok {
			return block, nil
		}
	}

	block, err := d.readRecordBlock(off)
	if err != nil {
		return nil, err
	}
	if d.cache != nil {
		d.cache[off.BufOffset] = block
	}
	return block, nil
}

// readRecordBlock seeks to the block's compressed bytes and decodes them.
func (d *Dict) readRecordBlock(off core.RecordOffset) ([]byte, error) {
	if err := utils.ValidateBufferSize(off.RecordSize, utils.MaxBlockSize, "record block"); err != nil {
		return nil, ErrInvalidData
	}
	if _, err := d.reader.Seek(d.recordBlockOffset+int64(off.BufOffset), io.SeekStart); err != nil {
		return nil, utils.WrapError("record block seek failed", err)
	}

	buf, err := utils.ReadBuf(d.reader, int(off.RecordSize))
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrInvalidData
		}
		return nil, utils.WrapError("record block read failed", err)
	}
	return core.DecodeBlock(buf, off.RecordSize, off.DecompSize, "record block")
}
