package core

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// utf16LE decodes the UTF-16LE header blob; the header is always UTF-16LE
// regardless of the dictionary's declared encoding.
var utf16LE = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// TextCodec is a resolved text encoding with its canonical WHATWG label.
// The zero value is not usable; obtain one from ResolveCodec.
type TextCodec struct {
	enc  encoding.Encoding
	name string
}

// ResolveCodec resolves a WHATWG encoding label. An empty label (after
// trimming) resolves to UTF-8.
func ResolveCodec(label string) (TextCodec, error) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		trimmed = "utf-8"
	}
	enc, err := htmlindex.Get(trimmed)
	if err != nil {
		return TextCodec{}, InvalidEncodingError{Label: label}
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		return TextCodec{}, InvalidEncodingError{Label: label}
	}
	return TextCodec{enc: enc, name: name}, nil
}

// Name returns the canonical WHATWG label of the codec.
func (c TextCodec) Name() string { return c.name }

// IsUTF16 reports whether the codec is UTF-16LE, which doubles text sizes
// in the key-block-info table and widens string terminators to two bytes.
func (c TextCodec) IsUTF16() bool { return c.name == "utf-16le" }

// Decode converts b to a string using the codec.
func (c TextCodec) Decode(b []byte) (string, error) {
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", ErrInvalidData
	}
	return string(out), nil
}

// DecodeString decodes one NUL-terminated string from the front of buf and
// returns the text together with the bytes consumed, terminator included.
// UTF-16LE strings terminate on a zero code unit aligned to an even
// offset; every other codec terminates on a single zero byte.
func (c TextCodec) DecodeString(buf []byte) (string, int, error) {
	var end, width int
	if c.IsUTF16() {
		end = -1
		for i := 0; i+1 < len(buf); i += 2 {
			if buf[i] == 0 && buf[i+1] == 0 {
				end = i
				break
			}
		}
		if end < 0 {
			return "", 0, ErrInvalidData
		}
		width = 2
	} else {
		end = bytes.IndexByte(buf, 0)
		if end < 0 {
			return "", 0, ErrInvalidData
		}
		width = 1
	}

	text, err := c.Decode(buf[:end])
	if err != nil {
		return "", 0, err
	}
	return strings.Trim(text, "\x00"), end + width, nil
}
