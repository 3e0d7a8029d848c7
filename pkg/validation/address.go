package validation

import (
	"fmt"
	"strings"
)

const (
	// TryteAlphabet is the set of characters a tryte string may contain.
	TryteAlphabet = "9ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// AddressLength is the length of an address (or seed) without checksum.
	AddressLength = 81
	// AddressWithChecksumLength is the length of an address with its 9 tryte checksum.
	AddressWithChecksumLength = 90

	// MaxTagLength is the fixed size of a transaction tag in trytes.
	MaxTagLength = 27
	// MaxMessageLength is the signature/message fragment size in trytes.
	MaxMessageLength = 2187
)

// IsTrytes reports whether s is a non-empty tryte string.
func IsTrytes(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '9' && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}

// IsSeed reports whether seed is exactly 81 trytes.
func IsSeed(seed string) bool {
	return len(seed) == AddressLength && IsTrytes(seed)
}

// IsAddress reports whether addr is a well formed address, with or without checksum.
func IsAddress(addr string) bool {
	if len(addr) != AddressLength && len(addr) != AddressWithChecksumLength {
		return false
	}
	return IsTrytes(addr)
}

// ValidateAddress validates an address format
func ValidateAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("address cannot be empty")
	}

	if len(addr) != AddressLength && len(addr) != AddressWithChecksumLength {
		return fmt.Errorf("invalid address length: expected %d or %d trytes, got %d",
			AddressLength, AddressWithChecksumLength, len(addr))
	}

	if !IsTrytes(addr) {
		return fmt.Errorf("invalid address: contains characters outside the tryte alphabet")
	}

	return nil
}

// NormalizeAddress upper-cases an address and strips its checksum
func NormalizeAddress(addr string) string {
	addr = strings.ToUpper(strings.TrimSpace(addr))
	if len(addr) == AddressWithChecksumLength {
		return addr[:AddressLength]
	}
	return addr
}

// ValidateAndNormalizeAddress validates an address and returns its normalized form
func ValidateAndNormalizeAddress(addr string) (string, error) {
	addr = strings.ToUpper(strings.TrimSpace(addr))
	if err := ValidateAddress(addr); err != nil {
		return "", err
	}
	return NormalizeAddress(addr), nil
}

// ValidateTag checks a transaction tag: trytes, at most MaxTagLength long.
func ValidateTag(tag string) error {
	if len(tag) > MaxTagLength {
		return fmt.Errorf("tag too long: %d trytes, max %d", len(tag), MaxTagLength)
	}
	if tag != "" && !IsTrytes(tag) {
		return fmt.Errorf("tag contains characters outside the tryte alphabet")
	}
	return nil
}

// PadTag right-pads a tag with '9' up to MaxTagLength.
func PadTag(tag string) string {
	if len(tag) >= MaxTagLength {
		return tag
	}
	return tag + strings.Repeat("9", MaxTagLength-len(tag))
}

// ValidateMessage checks an already tryte-encoded message.
func ValidateMessage(message string) error {
	if len(message) >= MaxMessageLength {
		return fmt.Errorf("message too long: %d trytes, max %d", len(message), MaxMessageLength-1)
	}
	if message != "" && !IsTrytes(message) {
		return fmt.Errorf("message contains characters outside the tryte alphabet")
	}
	return nil
}
