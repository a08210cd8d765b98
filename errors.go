package mdict

import "github.com/scigolib/mdict/internal/core"

// The loader surfaces every failure to the caller; nothing is recovered
// locally, and a failed construction never produces a partial handle.
// Match sentinels with errors.Is and typed kinds with errors.As.
var (
	// ErrNoVersion reports a header without a GeneratedByEngineVersion
	// attribute.
	ErrNoVersion = core.ErrNoVersion

	// ErrNoTitle reports a header without a Title attribute.
	ErrNoTitle = core.ErrNoTitle

	// ErrInvalidData reports a structural violation: a bad type tag, a
	// missing string terminator, a failed decompression, or a count that
	// exceeds the available bytes.
	ErrInvalidData = core.ErrInvalidData
)

type (
	// InvalidVersionError reports a GeneratedByEngineVersion value that
	// does not start with a decimal digit.
	InvalidVersionError = core.InvalidVersionError

	// UnsupportedVersionError reports a format version other than 1 or 2.
	UnsupportedVersionError = core.UnsupportedVersionError

	// InvalidEncodingError reports an unknown WHATWG codec label.
	InvalidEncodingError = core.InvalidEncodingError

	// ChecksumError reports an Adler-32 mismatch; Section names the
	// region that failed.
	ChecksumError = core.ChecksumError

	// InvalidEncryptMethodError reports an unsupported encryption method
	// in a block prefix.
	InvalidEncryptMethodError = core.InvalidEncryptMethodError

	// InvalidCompressMethodError reports an unsupported compression
	// method in a block prefix.
	InvalidCompressMethodError = core.InvalidCompressMethodError
)
