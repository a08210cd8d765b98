package core

import (
	"io"
)

// recordInfoPrealloc caps the capacity reserved up front for the record
// info table; the count comes from the file and is not trusted.
const recordInfoPrealloc = 1 << 16

// RecordOffset locates one record inside the record-block data. BufOffset
// is the compressed offset of the containing block relative to the start
// of record data; BlockOffset is the record's byte offset inside the
// decompressed block.
type RecordOffset struct {
	BufOffset   uint64
	BlockOffset uint64
	RecordSize  uint64
	DecompSize  uint64
}

// ReadRecordInfos reads the record-index table: four version-sized counts
// of which only the record count matters here, then one
// (compressed, decompressed) pair per record block. No record data is
// read; the caller captures the stream position afterwards.
func ReadRecordInfos(r io.Reader, v Version) ([]BlockEntryInfo, error) {
	numRecords, err := v.ReadNumber(r)
	if err != nil {
		return nil, sized(err)
	}
	for i := 0; i < 3; i++ { // entry count, info size, data size
		if _, err := v.ReadNumber(r); err != nil {
			return nil, sized(err)
		}
	}

	records := make([]BlockEntryInfo, 0, min(numRecords, recordInfoPrealloc))
	for i := uint64(0); i < numRecords; i++ {
		compressed, err := v.ReadNumber(r)
		if err != nil {
			return nil, sized(err)
		}
		decompressed, err := v.ReadNumber(r)
		if err != nil {
			return nil, sized(err)
		}
		records = append(records, BlockEntryInfo{
			CompressedSize:   compressed,
			DecompressedSize: decompressed,
		})
	}
	return records, nil
}

// LocateRecord resolves a logical record-stream offset against the record
// info table by accumulating decompressed and compressed running offsets.
// It reports false when no block covers the offset; the file is then
// self-inconsistent for that entry but other entries remain resolvable.
func LocateRecord(infos []BlockEntryInfo, offset uint64) (RecordOffset, bool) {
	var blockOffset, bufOffset uint64
	for _, info := range infos {
		if offset < blockOffset+info.DecompressedSize {
			return RecordOffset{
				BufOffset:   bufOffset,
				BlockOffset: offset - blockOffset,
				RecordSize:  info.CompressedSize,
				DecompSize:  info.DecompressedSize,
			}, true
		}
		blockOffset += info.DecompressedSize
		bufOffset += info.CompressedSize
	}
	return RecordOffset{}, false
}
