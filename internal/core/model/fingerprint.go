package model

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// FingerprintBits is the width of a perceptual fingerprint.
const FingerprintBits = 64

// Fingerprint is a 64-bit perceptual image hash.
type Fingerprint uint64

// Distance returns the Hamming distance between two fingerprints (0..64).
func (f Fingerprint) Distance(other Fingerprint) int {
	return bits.OnesCount64(uint64(f ^ other))
}

// String renders the fingerprint as 16 lowercase hex digits.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// ParseFingerprint parses the hex form produced by String.
func ParseFingerprint(s string) (Fingerprint, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.ToLower(s), "p:"))
	if s == "" || len(s) > FingerprintBits/4 {
		return 0, fmt.Errorf("invalid fingerprint %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid fingerprint %q: %w", s, err)
	}
	return Fingerprint(v), nil
}

// FingerprintPtr returns a pointer to a copy of f.
func FingerprintPtr(f Fingerprint) *Fingerprint {
	return &f
}

// MarshalText encodes the fingerprint in its hex form, so JSON carries a string.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Fingerprint) UnmarshalText(text []byte) error {
	v, err := ParseFingerprint(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
