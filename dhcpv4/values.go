package dhcpv4

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"
	"strconv"
)

var (
	// ErrInvalidAddressLength is matched by every *InvalidAddressLengthError.
	ErrInvalidAddressLength = errors.New("invalid address length")

	// ErrInvalidIntegerLength is matched by every *InvalidIntegerLengthError.
	ErrInvalidIntegerLength = errors.New("invalid integer length")
)

// InvalidAddressLengthError reports an address-typed value that is neither
// 4 nor 8 bytes long.
type InvalidAddressLengthError struct {
	Length int
}

func (e *InvalidAddressLengthError) Error() string {
	return fmt.Sprintf("%s: %d bytes", ErrInvalidAddressLength, e.Length)
}

func (e *InvalidAddressLengthError) Is(target error) bool {
	return target == ErrInvalidAddressLength
}

// InvalidIntegerLengthError reports a 32-bit integer option whose value is
// not exactly 4 bytes long.
type InvalidIntegerLengthError struct {
	Length int
}

func (e *InvalidIntegerLengthError) Error() string {
	return fmt.Sprintf("%s: %d bytes", ErrInvalidIntegerLength, e.Length)
}

func (e *InvalidIntegerLengthError) Is(target error) bool {
	return target == ErrInvalidIntegerLength
}

// FormatAddress renders an address field as dotted-decimal text. Both the
// 4-byte form and the 8-byte form (two addresses back to back) are accepted;
// for the latter only the first address is rendered.
func FormatAddress(b []byte) (string, error) {
	switch len(b) {
	case 4, 8:
		return netip.AddrFrom4([4]byte(b[:4])).String(), nil
	default:
		return "", &InvalidAddressLengthError{Length: len(b)}
	}
}

// FormatUint32 renders a 4-byte big-endian unsigned integer as decimal text.
func FormatUint32(b []byte) (string, error) {
	if len(b) != 4 {
		return "", &InvalidIntegerLengthError{Length: len(b)}
	}
	return strconv.FormatUint(uint64(binary.BigEndian.Uint32(b)), 10), nil
}
