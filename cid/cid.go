// Package cid computes and encodes content identifiers. An identifier binds
// a format version, the exact input size in bytes, and the root of a chunked
// SHA-256 hash tree over the input, so equal identifiers mean equal content
// of equal length. The package covers hashing (Builder, FromData, FromReader,
// FromFile) and the two interchange encodings (binary and base-58 string);
// it does not store or retrieve any content.
package cid

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/multiformats/go-varint"
)

// VersionRaw tags raw content identified by a chunked SHA-256 hash tree. It
// is the only version the decoders accept today; the tag is otherwise an
// open byte reserved for future formats.
const VersionRaw byte = 'A'

// MaxEncodedSize bounds the binary encoding: one version byte, the size
// varint (at most varint.MaxLenUvarint63 bytes), and the raw hash.
const MaxEncodedSize = 1 + varint.MaxLenUvarint63 + HashSize

// Decoding is all or nothing: on any of these errors no partially decoded
// Cid escapes.
var (
	// ErrInvalidSize reports a malformed size varint: truncated, not
	// minimally encoded, or wider than 9 bytes. A binary buffer too short
	// to hold anything past the version byte reports it too.
	ErrInvalidSize = errors.New("cid: invalid size")

	// ErrInvalidHash reports that the bytes after the size varint are not
	// exactly HashSize long. Trailing garbage is not tolerated.
	ErrInvalidHash = errors.New("cid: invalid hash")

	// ErrInvalidEncoding reports a string whose payload is not valid
	// base-58, or an empty string.
	ErrInvalidEncoding = errors.New("cid: invalid encoding")
)

// UnsupportedVersionError reports a version tag the decoder does not
// recognize. Unknown tags still encode; only decoding rejects them.
type UnsupportedVersionError struct {
	Version byte
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("cid: unsupported version %#x", e.Version)
}

// Cid is an immutable content identifier: a version tag, the total input
// size in bytes, and the root hash over the input's blocks. Two Cids are
// equal exactly when all three fields are equal, so == is the identity
// check and Cid works as a map key. The zero value is not a valid
// identifier. Cids are small values; copy and share them freely.
type Cid struct {
	version byte
	size    uint64
	hash    Hash
}

// New assembles a Cid from its parts. Any version byte is accepted here;
// version validity is a decode-time concern.
func New(version byte, size uint64, hash Hash) Cid {
	return Cid{version: version, size: size, hash: hash}
}

// Version returns the format tag byte.
func (c Cid) Version() byte { return c.version }

// Size returns the total number of input bytes the identifier covers.
func (c Cid) Size() uint64 { return c.size }

// Hash returns the root hash.
func (c Cid) Hash() Hash { return c.hash }

// IsRaw reports whether the version tag is VersionRaw.
func (c Cid) IsRaw() bool { return c.version == VersionRaw }

// NumBlocks returns how many BlockSize blocks the content occupies,
// counting a trailing partial block as a whole one. Empty content occupies
// zero blocks.
func (c Cid) NumBlocks() uint64 {
	n := c.size / BlockSize
	if c.size%BlockSize != 0 {
		n++
	}
	return n
}

// Bytes returns the canonical binary encoding: the version byte, the size
// as an unsigned LEB128 varint, then the raw hash. Never longer than
// MaxEncodedSize.
func (c Cid) Bytes() []byte {
	buf := make([]byte, 0, MaxEncodedSize)
	buf = append(buf, c.version)
	buf = append(buf, varint.ToUvarint(c.size)...)
	return append(buf, c.hash[:]...)
}

// Decode parses the binary encoding produced by Bytes.
func Decode(data []byte) (Cid, error) {
	if len(data) == 0 {
		return Cid{}, ErrInvalidSize
	}
	return decodeVersioned(data[0], data[1:])
}

// String renders the text form: the version byte as a literal character
// followed by the base-58 (Bitcoin alphabet) encoding of varint(size) and
// the raw hash. The version stays outside the base-58 payload so the format
// is recognizable without decoding.
func (c Cid) String() string {
	payload := make([]byte, 0, MaxEncodedSize-1)
	payload = append(payload, varint.ToUvarint(c.size)...)
	payload = append(payload, c.hash[:]...)

	var sb strings.Builder
	sb.WriteByte(c.version)
	sb.WriteString(base58.Encode(payload))
	return sb.String()
}

// Parse decodes the text form produced by String. The base-58 payload is
// validated before anything else, so a string that is both misencoded and
// structurally wrong reports ErrInvalidEncoding.
func Parse(s string) (Cid, error) {
	if len(s) == 0 {
		return Cid{}, ErrInvalidEncoding
	}
	var payload []byte
	if rest := s[1:]; rest != "" {
		var err error
		payload, err = base58.Decode(rest)
		if err != nil {
			return Cid{}, ErrInvalidEncoding
		}
	}
	return decodeVersioned(s[0], payload)
}

// decodeVersioned checks the version tag, then the varint size and hash
// layout shared by the binary and text decoders.
func decodeVersioned(version byte, payload []byte) (Cid, error) {
	if version != VersionRaw {
		return Cid{}, &UnsupportedVersionError{Version: version}
	}
	size, n, err := varint.FromUvarint(payload)
	if err != nil {
		return Cid{}, ErrInvalidSize
	}
	if len(payload)-n != HashSize {
		return Cid{}, ErrInvalidHash
	}
	var h Hash
	copy(h[:], payload[n:])
	return Cid{version: version, size: size, hash: h}, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (c Cid) MarshalBinary() ([]byte, error) { return c.Bytes(), nil }

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (c *Cid) UnmarshalBinary(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*c = decoded
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (c Cid) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Cid) UnmarshalText(text []byte) error {
	decoded, err := Parse(string(text))
	if err != nil {
		return err
	}
	*c = decoded
	return nil
}
