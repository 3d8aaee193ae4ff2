package dhcpv4

import (
	"errors"
	"fmt"
)

// ErrMalformedOptions is matched by every *MalformedOptionsError.
var ErrMalformedOptions = errors.New("malformed dhcp options")

// MalformedOptionsError reports an option stream that cannot be decoded
// without reading past the end of the datagram. It is scoped to the datagram
// that produced it.
type MalformedOptionsError struct {
	// Offset is the position in the option stream where decoding stopped.
	Offset int
	// Code is the option being decoded, if any.
	Code   byte
	Reason string
}

func (e *MalformedOptionsError) Error() string {
	return fmt.Sprintf("%s at offset %d (option %d): %s", ErrMalformedOptions, e.Offset, e.Code, e.Reason)
}

func (e *MalformedOptionsError) Is(target error) bool {
	return target == ErrMalformedOptions
}

// Option is a raw type-length-value option read from the wire.
type Option struct {
	Code  byte
	Value []byte
}

// DecodeOptions decodes the option stream that follows the fixed header.
//
// Options are returned in the order their code was first seen. A code that
// appears more than once keeps the value of its last occurrence. Pad bytes
// are skipped and decoding stops at the end option; bytes after it are
// ignored.
func DecodeOptions(stream []byte) ([]Option, error) {
	opts := make([]Option, 0, 16)
	index := make(map[byte]int, 16)

	i := 0
	for {
		if i >= len(stream) {
			return nil, &MalformedOptionsError{Offset: i, Reason: "missing end option"}
		}

		code := stream[i]
		i++

		if code == OptPad {
			continue
		}

		if code == OptEnd {
			break
		}

		if i >= len(stream) {
			return nil, &MalformedOptionsError{Offset: i, Code: code, Reason: "missing length byte"}
		}

		length := int(stream[i])
		i++

		if i+length > len(stream) {
			return nil, &MalformedOptionsError{
				Offset: i,
				Code:   code,
				Reason: fmt.Sprintf("need %d bytes, have %d", length, len(stream)-i),
			}
		}

		value := make([]byte, length)
		copy(value, stream[i:i+length])
		i += length

		if at, seen := index[code]; seen {
			opts[at].Value = value
			continue
		}

		index[code] = len(opts)
		opts = append(opts, Option{Code: code, Value: value})
	}

	return opts, nil
}
