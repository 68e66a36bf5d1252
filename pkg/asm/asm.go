// Package asm encodes 8080 instructions written the way the disassembler
// prints them ("MVI B,42", "JMP 0800"). It is a one-line encoder driven by
// the instruction table, not a full assembler: there are no labels,
// expressions or directives.
package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oisee/i8080/pkg/inst"
)

// Assemble encodes a sequence of instructions separated by ':' or newlines.
func Assemble(text string) ([]byte, error) {
	var out []byte
	text = strings.ReplaceAll(text, "\n", ":")
	for _, part := range strings.Split(text, ":") {
		part = strings.TrimSpace(part)
		if part == "" || strings.HasPrefix(part, ";") {
			continue
		}
		enc, err := Instruction(part)
		if err != nil {
			return nil, fmt.Errorf("asm: cannot parse %q: %w", part, err)
		}
		out = append(out, enc...)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("asm: no instructions in %q", text)
	}
	return out, nil
}

// MustAssemble is like Assemble but panics on error. For tests and
// fixed programs.
func MustAssemble(text string) []byte {
	b, err := Assemble(text)
	if err != nil {
		panic(err)
	}
	return b
}

// Instruction encodes a single instruction. Mnemonic and register names
// are case-insensitive; numbers are hex, optionally written 0x42 or 42h.
// Documented encodings are preferred over undocumented aliases.
func Instruction(text string) ([]byte, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty instruction")
	}
	mnemonic := strings.ToUpper(fields[0])
	var operands []string
	if rest := strings.Join(fields[1:], ""); rest != "" {
		for _, op := range strings.Split(rest, ",") {
			operands = append(operands, strings.ToUpper(strings.TrimSpace(op)))
		}
	}

	candidates := inst.ByMnemonic(mnemonic)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("unknown mnemonic %s", mnemonic)
	}
	for _, d := range candidates {
		if d.Undocumented {
			continue
		}
		if enc, ok := match(d, operands); ok {
			return enc, nil
		}
	}
	return nil, fmt.Errorf("no form of %s takes operands %v", mnemonic, operands)
}

// match reports whether operands fit descriptor d and returns the encoding.
func match(d inst.Descriptor, ops []string) ([]byte, bool) {
	enc := []byte{d.Opcode}
	want := map[inst.Shape]int{
		inst.ShapeNone: 0, inst.ShapeReg: 1, inst.ShapeRegReg: 2, inst.ShapePair: 1,
		inst.ShapeImm8: 1, inst.ShapeRegImm8: 2, inst.ShapeImm16: 1, inst.ShapePairImm16: 2,
		inst.ShapeVector: 1,
	}[d.Shape]
	if len(ops) != want {
		return nil, false
	}

	switch d.Shape {
	case inst.ShapeNone:
		return enc, true
	case inst.ShapeReg:
		return enc, ops[0] == d.Src.String()
	case inst.ShapeRegReg:
		return enc, ops[0] == d.Dst.String() && ops[1] == d.Src.String()
	case inst.ShapePair:
		return enc, ops[0] == d.Pair.String()
	case inst.ShapeImm8:
		v, err := parseNumber(ops[0], 0xFF)
		return append(enc, uint8(v)), err == nil
	case inst.ShapeRegImm8:
		if ops[0] != d.Dst.String() {
			return nil, false
		}
		v, err := parseNumber(ops[1], 0xFF)
		return append(enc, uint8(v)), err == nil
	case inst.ShapeImm16:
		v, err := parseNumber(ops[0], 0xFFFF)
		return append(enc, uint8(v), uint8(v>>8)), err == nil
	case inst.ShapePairImm16:
		if ops[0] != d.Pair.String() {
			return nil, false
		}
		v, err := parseNumber(ops[1], 0xFFFF)
		return append(enc, uint8(v), uint8(v>>8)), err == nil
	case inst.ShapeVector:
		return enc, ops[0] == string('0'+rune(d.Vector))
	}
	return nil, false
}

// parseNumber reads a hex number: 42, 0x42 or 42h.
func parseNumber(s string, limit uint64) (uint64, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "0X"):
		s = s[2:]
	case strings.HasSuffix(s, "H") && len(s) > 1:
		s = s[:len(s)-1]
	}
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, err
	}
	if v > limit {
		return 0, fmt.Errorf("%s exceeds %x", s, limit)
	}
	return v, nil
}
