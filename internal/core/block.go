package core

import (
	"bytes"
	"encoding/binary"
	"hash/adler32"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/rasky/go-lzo"

	"github.com/scigolib/mdict/internal/mdxcrypt"
	"github.com/scigolib/mdict/internal/utils"
)

// Block prefix fields: the low nibble of the little-endian encoding word
// selects compression, the next nibble encryption.
const (
	encryptNone   = 0
	encryptFast   = 1
	encryptStream = 2

	compressStored = 0
	compressLZO    = 1
	compressZlib   = 2
)

// blockPrefixSize is the framing prefix of every key and record block:
// a 4-byte encoding word plus 4 checksum bytes.
const blockPrefixSize = 8

// DecodeBlock decodes one compressed block. The first compressedSize
// bytes of data form the block: an 8-byte prefix followed by the payload.
// The payload is decrypted, decompressed, and verified against the
// prefix's big-endian Adler-32 over the decompressed bytes. The checksum
// bytes double as the cipher key derivation input. section names the
// region for checksum failures.
func DecodeBlock(data []byte, compressedSize, decompressedSize uint64, section string) ([]byte, error) {
	if compressedSize < blockPrefixSize || uint64(len(data)) < compressedSize {
		return nil, ErrInvalidData
	}
	if err := utils.ValidateBufferSize(decompressedSize, utils.MaxBlockSize, "decompressed block"); err != nil {
		return nil, ErrInvalidData
	}

	enc := binary.LittleEndian.Uint32(data[0:4])
	checksumBytes := data[4:8]
	checksum := binary.BigEndian.Uint32(checksumBytes)
	encryptMethod := (enc >> 4) & 0xf
	compressMethod := enc & 0xf

	payload := data[blockPrefixSize:compressedSize]
	var compressed []byte
	switch encryptMethod {
	case encryptNone:
		compressed = append([]byte(nil), payload...)
	case encryptFast:
		compressed = mdxcrypt.FastDecrypt(payload, mdxcrypt.BlockKey(checksumBytes))
	case encryptStream:
		compressed = mdxcrypt.StreamDecrypt(payload, mdxcrypt.BlockKey(checksumBytes))
	default:
		return nil, InvalidEncryptMethodError{Method: encryptMethod}
	}

	var decompressed []byte
	switch compressMethod {
	case compressStored:
		decompressed = compressed
	case compressLZO:
		out, err := lzo.Decompress1X(bytes.NewReader(compressed), len(compressed), int(decompressedSize))
		if err != nil {
			return nil, ErrInvalidData
		}
		decompressed = out
	case compressZlib:
		out, err := inflate(compressed)
		if err != nil {
			return nil, ErrInvalidData
		}
		decompressed = out
	default:
		return nil, InvalidCompressMethodError{Method: compressMethod}
	}

	if adler32.Checksum(decompressed) != checksum {
		return nil, ChecksumError{Section: section}
	}
	return decompressed, nil
}

// inflate decompresses one zlib stream.
func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, err
	}
	return out, nil
}
