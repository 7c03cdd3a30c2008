package automaton

import (
	"encoding/binary"
	"fmt"
)

// ParseError is a worker's error slot: Error is 0 on success, non-zero on
// failure, and Location is an absolute index into the flat alpha buffer —
// the position of the symbol that could not be shifted or that triggered an
// unmatched reduction. Field order and width are load-bearing: two
// little-endian uint32s on the wire, matching a GPU-resident error buffer.
type ParseError struct {
	Error    uint32
	Location uint32
}

// noParseError is the success sentinel written once a worker consumes its
// whole chunk without hitting an undefined precedence or an unmatched
// reduction.
func noParseError() ParseError {
	return ParseError{}
}

// atLocation pre-arms a pessimistic "failed before finishing" error at loc.
// This is overwritten on every successful shift and, on successful
// termination, replaced by noParseError — see Run for the full policy.
func atLocation(loc uint32) ParseError {
	return ParseError{Error: 1, Location: loc}
}

// Failed reports whether e represents a parse failure.
func (e ParseError) Failed() bool {
	return e.Error != 0
}

func (e ParseError) String() string {
	if !e.Failed() {
		return "no parse error"
	}
	return fmt.Sprintf("parse error at location %d", e.Location)
}

// MarshalBinary encodes e as two little-endian uint32s (Error, Location),
// the fixed 8-byte wire layout used for error records. Implementing
// encoding.BinaryMarshaler lets internal/store round-trip a
// ParseError through rezi's binary codec the same way it does any other
// fixed-shape value.
func (e ParseError) MarshalBinary() ([]byte, error) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[0:4], e.Error)
	binary.LittleEndian.PutUint32(b[4:8], e.Location)
	return b, nil
}

// UnmarshalBinary decodes the layout MarshalBinary produces.
func (e *ParseError) UnmarshalBinary(b []byte) error {
	if len(b) != 8 {
		return fmt.Errorf("automaton: ParseError wire record must be 8 bytes, got %d", len(b))
	}
	e.Error = binary.LittleEndian.Uint32(b[0:4])
	e.Location = binary.LittleEndian.Uint32(b[4:8])
	return nil
}
