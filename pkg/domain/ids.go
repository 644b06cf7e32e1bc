// Package domain holds the primitive identifier types shared across modules.
//
// These are domain primitives: parsing enforces validity at the boundary so
// services can assume well-formed values internally.
package domain

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
)

// Identity is an authenticated principal (issuer, owner, or voter). Calls
// arrive pre-authenticated, so the registry treats identities as opaque
// non-empty strings.
type Identity string

// String returns the string representation of the identity.
func (i Identity) String() string {
	return string(i)
}

// IsNil reports whether the identity is unset.
func (i Identity) IsNil() bool {
	return i == ""
}

// WatermarkID is the externally chosen integer identifying a document
// submission. Unique per certificate.
type WatermarkID uint64

// ParseWatermarkID validates and returns a WatermarkID from its decimal form.
func ParseWatermarkID(s string) (WatermarkID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid watermark id %q: %w", s, err)
	}
	return WatermarkID(v), nil
}

// String returns the decimal representation of the watermark ID.
func (w WatermarkID) String() string {
	return strconv.FormatUint(uint64(w), 10)
}

// CertificateID is the sequentially assigned identifier of a minted
// certificate. Zero is never a valid certificate ID.
type CertificateID uint64

// ParseCertificateID validates and returns a CertificateID from its decimal form.
func ParseCertificateID(s string) (CertificateID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid certificate id %q: %w", s, err)
	}
	return CertificateID(v), nil
}

// String returns the decimal representation of the certificate ID.
func (c CertificateID) String() string {
	return strconv.FormatUint(uint64(c), 10)
}

// IsNil reports whether the certificate ID is unset.
func (c CertificateID) IsNil() bool {
	return c == 0
}

// ContentHashSize is the fixed size of a document content fingerprint.
const ContentHashSize = 32

// ContentHash is a fixed-size binary fingerprint of document content.
// The zero value is permitted for placeholder records.
type ContentHash [ContentHashSize]byte

// ParseContentHash decodes a hex string (with or without a 0x prefix) into a
// ContentHash. An empty string yields the zero hash.
func ParseContentHash(s string) (ContentHash, error) {
	var h ContentHash
	if s == "" {
		return h, nil
	}
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("invalid content hash: %w", err)
	}
	if len(raw) != ContentHashSize {
		return h, fmt.Errorf("invalid content hash: got %d bytes, want %d", len(raw), ContentHashSize)
	}
	copy(h[:], raw)
	return h, nil
}

// String returns the lowercase hex representation of the hash.
func (h ContentHash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether the hash is the zero value.
func (h ContentHash) IsZero() bool {
	return h == ContentHash{}
}

// MarshalJSON serializes the hash as a hex string.
func (h ContentHash) MarshalJSON() ([]byte, error) {
	return []byte(`"` + h.String() + `"`), nil
}

// UnmarshalJSON parses a hex string into the hash.
func (h *ContentHash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseContentHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
