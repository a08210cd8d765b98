package core

import (
	"errors"
	"fmt"
	"io"

	"github.com/scigolib/mdict/internal/utils"
)

// Sentinel errors for structural problems that carry no further detail.
var (
	// ErrNoVersion reports a header without a GeneratedByEngineVersion
	// attribute.
	ErrNoVersion = errors.New("mdx header: missing GeneratedByEngineVersion attribute")

	// ErrNoTitle reports a header without a Title attribute.
	ErrNoTitle = errors.New("mdx header: missing Title attribute")

	// ErrInvalidData reports a structural violation: a bad type tag, a
	// missing string terminator, a failed decompression, or a count that
	// exceeds the available bytes.
	ErrInvalidData = errors.New("mdx: malformed dictionary data")
)

// InvalidVersionError reports a GeneratedByEngineVersion value that does
// not start with a decimal digit.
type InvalidVersionError struct {
	Raw string
}

func (e InvalidVersionError) Error() string {
	return fmt.Sprintf("mdx header: invalid engine version %q", e.Raw)
}

// UnsupportedVersionError reports a format version other than 1 or 2.
type UnsupportedVersionError struct {
	Version int
}

func (e UnsupportedVersionError) Error() string {
	return fmt.Sprintf("mdx header: unsupported format version %d", e.Version)
}

// InvalidEncodingError reports an Encoding attribute that is not a known
// WHATWG codec label.
type InvalidEncodingError struct {
	Label string
}

func (e InvalidEncodingError) Error() string {
	return fmt.Sprintf("mdx header: unknown encoding label %q", e.Label)
}

// ChecksumError reports an Adler-32 mismatch in a checksummed section.
type ChecksumError struct {
	Section string
}

func (e ChecksumError) Error() string {
	return fmt.Sprintf("mdx: checksum mismatch in %s", e.Section)
}

// InvalidEncryptMethodError reports an unsupported encryption method in a
// block prefix.
type InvalidEncryptMethodError struct {
	Method uint32
}

func (e InvalidEncryptMethodError) Error() string {
	return fmt.Sprintf("mdx: unsupported block encryption method %d", e.Method)
}

// InvalidCompressMethodError reports an unsupported compression method in
// a block prefix.
type InvalidCompressMethodError struct {
	Method uint32
}

func (e InvalidCompressMethodError) Error() string {
	return fmt.Sprintf("mdx: unsupported block compression method %d", e.Method)
}

// sized converts the truncation errors of a length-prefixed read into
// ErrInvalidData: a declared count exceeded the available bytes. Other
// reader failures are wrapped with context.
func sized(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrInvalidData
	}
	return utils.WrapError("section read failed", err)
}
