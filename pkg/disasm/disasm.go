// Package disasm turns 8080 machine code into text, one instruction at a
// time, using the shared instruction table so that decoded lengths always
// agree with the executor.
package disasm

import (
	"errors"
	"fmt"
	"iter"

	"github.com/oisee/i8080/pkg/cpu"
	"github.com/oisee/i8080/pkg/inst"
)

var (
	// ErrTruncated reports an instruction whose operands run past the buffer
	// or past address ffff.
	ErrTruncated = errors.New("truncated instruction")
	// ErrOffset reports a decode offset outside the buffer or one whose
	// address would pass ffff.
	ErrOffset = errors.New("offset outside buffer")
)

// Record is one decoded instruction.
type Record struct {
	Address uint16 `json:"address"`
	Length  int    `json:"length"`
	Bytes   []byte `json:"bytes"`
	Text    string `json:"text"`
}

// TruncatedError describes an instruction cut off by the end of the buffer.
type TruncatedError struct {
	Address  uint16
	Opcode   uint8
	Mnemonic string
	Need     int // bytes the instruction needs
	Have     int // bytes left in the buffer or address space
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("disasm: %s (%02x) at %04x needs %d bytes, %d left",
		e.Mnemonic, e.Opcode, e.Address, e.Need, e.Have)
}

func (e *TruncatedError) Unwrap() error { return ErrTruncated }

// Is makes a truncated instruction match cpu.ErrOutOfBounds too: the
// operands lie past the end of the image.
func (e *TruncatedError) Is(target error) bool { return target == cpu.ErrOutOfBounds }

// DecodeOne decodes the instruction at buf[offset]. Addresses are offsets.
func DecodeOne(buf []byte, offset int) (Record, error) {
	return decode(buf, offset, 0)
}

// DecodeAt decodes the instruction at buf[offset], reporting its address
// as origin+offset.
func DecodeAt(buf []byte, offset int, origin uint16) (Record, error) {
	return decode(buf, offset, origin)
}

func decode(buf []byte, offset int, origin uint16) (Record, error) {
	if offset < 0 || offset >= len(buf) {
		return Record{}, fmt.Errorf("disasm: offset %d, buffer %d bytes: %w", offset, len(buf), ErrOffset)
	}
	if int(origin)+offset > 0xFFFF {
		return Record{}, fmt.Errorf("disasm: offset %d from origin %04x passes ffff: %w", offset, origin, ErrOffset)
	}
	addr := origin + uint16(offset)
	d := inst.Lookup(buf[offset])
	// Operand bytes may end neither past the buffer nor past ffff.
	if have := min(len(buf)-offset, 0x10000-int(addr)); d.Length > have {
		return Record{}, &TruncatedError{
			Address:  addr,
			Opcode:   d.Opcode,
			Mnemonic: d.Mnemonic,
			Need:     d.Length,
			Have:     have,
		}
	}
	raw := make([]byte, d.Length)
	copy(raw, buf[offset:])

	var lo, hi uint8
	if d.Length > 1 {
		lo = raw[1]
	}
	if d.Length > 2 {
		hi = raw[2]
	}
	return Record{
		Address: addr,
		Length:  d.Length,
		Bytes:   raw,
		Text:    Format(d, lo, hi),
	}, nil
}

// All returns the records for buf in address order, starting at offset 0.
// The sequence stops after the last whole instruction; a truncated final
// instruction is yielded as an error and ends the sequence. Ranging over
// the result again decodes buf again from the start.
func All(buf []byte, origin uint16) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for off := 0; off < len(buf); {
			rec, err := decode(buf, off, origin)
			if !yield(rec, err) || err != nil {
				return
			}
			off += rec.Length
		}
	}
}

// Listing decodes all of buf. On a truncated final instruction, or one whose
// address passes ffff, it returns the records decoded so far together with
// the error.
func Listing(buf []byte, origin uint16) ([]Record, error) {
	var recs []Record
	for rec, err := range All(buf, origin) {
		if err != nil {
			return recs, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
