package core

import (
	"hash/adler32"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/scigolib/mdict/internal/utils"
)

// Header carries the decoded attributes of the MDX file header.
//
// Encrypted is a bitfield: bit 0 hints at record-payload encryption, bit 1
// marks the key-block-info section as fast-cipher encrypted.
type Header struct {
	Version   Version
	Encrypted uint8
	Codec     TextCodec
	Title     string
}

// Attribute values may contain literal line breaks, so the value match
// runs in dotall mode. Attributes are not well-formed XML.
var attrPattern = regexp.MustCompile(`(?s)(\w+)="(.*?)"`)

// parseAttributes extracts key="value" pairs. The last occurrence wins on
// duplicate keys.
func parseAttributes(s string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrPattern.FindAllStringSubmatch(s, -1) {
		attrs[m[1]] = m[2]
	}
	return attrs
}

// ReadHeader reads the header-info section: a 4-byte big-endian length,
// the UTF-16LE attribute blob, and a 4-byte little-endian Adler-32 over
// the raw blob. defaultEncoding is the WHATWG label applied when the
// header does not declare an encoding.
func ReadHeader(r io.Reader, defaultEncoding string) (*Header, error) {
	infoLen, err := utils.ReadUint32BE(r)
	if err != nil {
		return nil, utils.WrapError("header length read failed", err)
	}
	if err := utils.ValidateBufferSize(uint64(infoLen), utils.MaxHeaderInfoSize, "header info"); err != nil {
		return nil, ErrInvalidData
	}

	infoBuf, err := utils.ReadBuf(r, int(infoLen))
	if err != nil {
		return nil, sized(err)
	}
	checksum, err := utils.ReadUint32LE(r)
	if err != nil {
		return nil, sized(err)
	}
	if adler32.Checksum(infoBuf) != checksum {
		return nil, ChecksumError{Section: "header info"}
	}

	decoded, err := utf16LE.NewDecoder().Bytes(infoBuf)
	if err != nil {
		return nil, ErrInvalidData
	}
	attrs := parseAttributes(string(decoded))

	versionRaw, ok := attrs["GeneratedByEngineVersion"]
	if !ok {
		return nil, ErrNoVersion
	}
	versionRaw = strings.TrimSpace(versionRaw)
	if versionRaw == "" || versionRaw[0] < '0' || versionRaw[0] > '9' {
		return nil, InvalidVersionError{Raw: versionRaw}
	}

	title, ok := attrs["Title"]
	if !ok {
		return nil, ErrNoTitle
	}

	var version Version
	switch versionRaw[0] {
	case '1':
		version = V1
	case '2':
		version = V2
	default:
		return nil, UnsupportedVersionError{Version: int(versionRaw[0] - '0')}
	}

	var encrypted uint8
	if v, ok := attrs["Encrypted"]; ok {
		if v == "Yes" {
			encrypted = 1
		} else if n, err := strconv.ParseUint(v, 10, 8); err == nil {
			encrypted = uint8(n)
		}
	}

	label := defaultEncoding
	if v, ok := attrs["Encoding"]; ok && strings.TrimSpace(v) != "" {
		label = v
	}
	codec, err := ResolveCodec(label)
	if err != nil {
		return nil, err
	}

	return &Header{
		Version:   version,
		Encrypted: encrypted,
		Codec:     codec,
		Title:     strings.TrimSpace(title),
	}, nil
}
