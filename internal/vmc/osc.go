// Package vmc implements the VMC wire protocol: a minimal OSC 1.0 codec
// plus the UDP Sender and Recorder that speak the three VMC addresses.
//
// No OSC library is present anywhere in the reference corpus, so the
// codec is hand-rolled against the OSC 1.0 spec rather than imported —
// see DESIGN.md for why this protocol piece is built on the standard
// library alone.
package vmc

import (
	"encoding/binary"
	"fmt"
	"math"
)

// encodeMessage builds an OSC 1.0 message: a null-padded address string,
// a null-padded type-tag string, then the argument bytes in order.
// Supported argument types are string and float32.
func encodeMessage(address string, args ...any) []byte {
	buf := make([]byte, 0, 64)
	buf = appendOSCString(buf, address)

	tags := []byte{','}
	for _, a := range args {
		switch a.(type) {
		case string:
			tags = append(tags, 's')
		case float32, float64:
			tags = append(tags, 'f')
		default:
			panic(fmt.Sprintf("vmc: unsupported OSC argument type %T", a))
		}
	}
	buf = appendOSCString(buf, string(tags))

	for _, a := range args {
		switch v := a.(type) {
		case string:
			buf = appendOSCString(buf, v)
		case float32:
			buf = appendOSCFloat32(buf, v)
		case float64:
			buf = appendOSCFloat32(buf, float32(v))
		}
	}
	return buf
}

func appendOSCString(buf []byte, s string) []byte {
	buf = append(buf, []byte(s)...)
	buf = append(buf, 0)
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf
}

func appendOSCFloat32(buf []byte, f float32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(f))
	return append(buf, b[:]...)
}

// decodeMessage parses an OSC 1.0 message into its address and arguments
// (each either string or float32). Malformed packets return an error;
// callers are expected to drop them silently per the recorder's
// tolerant-handler policy.
func decodeMessage(data []byte) (address string, args []any, err error) {
	address, rest, err := readOSCString(data)
	if err != nil {
		return "", nil, fmt.Errorf("read address: %w", err)
	}

	tags, rest, err := readOSCString(rest)
	if err != nil {
		return "", nil, fmt.Errorf("read type tags: %w", err)
	}
	if len(tags) == 0 || tags[0] != ',' {
		return "", nil, fmt.Errorf("malformed type tag string %q", tags)
	}

	for _, tag := range tags[1:] {
		switch tag {
		case 's':
			var s string
			s, rest, err = readOSCString(rest)
			if err != nil {
				return "", nil, fmt.Errorf("read string arg: %w", err)
			}
			args = append(args, s)
		case 'f':
			if len(rest) < 4 {
				return "", nil, fmt.Errorf("truncated float arg")
			}
			bits := binary.BigEndian.Uint32(rest[:4])
			args = append(args, math.Float32frombits(bits))
			rest = rest[4:]
		default:
			return "", nil, fmt.Errorf("unsupported type tag %q", tag)
		}
	}

	return address, args, nil
}

func readOSCString(data []byte) (string, []byte, error) {
	end := -1
	for i, b := range data {
		if b == 0 {
			end = i
			break
		}
	}
	if end < 0 {
		return "", nil, fmt.Errorf("unterminated OSC string")
	}
	s := string(data[:end])

	padded := end + 1
	for padded%4 != 0 {
		padded++
	}
	if padded > len(data) {
		return "", nil, fmt.Errorf("truncated OSC string padding")
	}
	return s, data[padded:], nil
}

func argFloat(a any) (float64, bool) {
	switch v := a.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func argString(a any) (string, bool) {
	s, ok := a.(string)
	return s, ok
}
