package verify

import (
	"github.com/oisee/i8080/pkg/cpu"
	"github.com/oisee/i8080/pkg/inst"
	"github.com/oisee/i8080/pkg/result"
	"github.com/sirupsen/logrus"
)

// scratch is the address HL points at when an instruction reads M.
const scratch = 0x80

// TestVectors are fixed inputs used by QuickCheck. They hit the nibble and
// byte boundaries where carry and half-carry change.
var TestVectors = []Input{
	{A: 0x00, Operand: 0x00},
	{A: 0xFF, Operand: 0xFF, Flags: cpu.Flags{Carry: true, AuxCarry: true}},
	{A: 0x01, Operand: 0x02},
	{A: 0x80, Operand: 0x40, Flags: cpu.Flags{Carry: true}},
	{A: 0x55, Operand: 0xAA},
	{A: 0xAA, Operand: 0x55, Flags: cpu.Flags{Carry: true}},
	{A: 0x0F, Operand: 0x01, Flags: cpu.Flags{AuxCarry: true}},
	{A: 0x7F, Operand: 0x80, Flags: cpu.Flags{Carry: true}},
	{A: 0x9A, Operand: 0x66},
	{A: 0x3C, Operand: 0xC3, Flags: cpu.Flags{Zero: true, Sign: true, Parity: true}},
}

// newMachine returns a small machine for checking single instructions. Its
// logger is capped at warnings so a debug run does not trace every input.
func newMachine(log *logrus.Logger) *cpu.Machine {
	quiet := logrus.New()
	quiet.SetLevel(logrus.WarnLevel)
	if log != nil {
		quiet.SetOutput(log.Out)
		quiet.SetFormatter(log.Formatter)
	}
	return cpu.New(cpu.Config{MemSize: 0x100, Log: quiet})
}

// execOne runs d once on m starting from in.
func execOne(m *cpu.Machine, d inst.Descriptor, in Input) (Output, error) {
	m.Reset(0)
	m.A = in.A
	m.Flags = in.Flags
	m.H, m.L = 0, scratch
	m.Memory[0], m.Memory[1] = d.Opcode, in.Operand

	if usesOperand(d) {
		switch d.Src {
		case inst.RegM:
			m.Memory[scratch] = in.Operand
		case inst.RegImm:
		default:
			m.SetReg(d.Src, in.Operand)
		}
	}
	if _, err := m.Step(); err != nil {
		return Output{}, err
	}

	dst := inst.RegA
	if d.Op == inst.OpINR || d.Op == inst.OpDCR {
		dst = d.Dst
	}
	v := m.Reg(dst)
	if dst == inst.RegM {
		v = m.Memory[scratch]
	}
	return Output{Value: v, Flags: m.Flags}, nil
}

// compare runs d on in and reports a mismatch against the reference model.
func compare(m *cpu.Machine, d inst.Descriptor, in Input) (result.Mismatch, bool) {
	want := Reference(d, in)
	got, err := execOne(m, d, in)
	if err == nil && got == want {
		return result.Mismatch{}, true
	}
	mm := result.Mismatch{
		Opcode:    d.Opcode,
		Mnemonic:  d.Mnemonic,
		A:         in.A,
		Operand:   in.Operand,
		InFlags:   in.Flags.Byte(),
		Got:       got.Value,
		Want:      want.Value,
		GotFlags:  got.Flags.Byte(),
		WantFlags: want.Flags.Byte(),
	}
	if err != nil {
		mm.Err = err.Error()
	}
	return mm, false
}

// QuickCheck runs d on the fixed test vectors and reports whether every
// result agrees with the reference model.
func QuickCheck(m *cpu.Machine, d inst.Descriptor) bool {
	for _, in := range TestVectors {
		if _, ok := compare(m, d, in); !ok {
			return false
		}
	}
	return true
}

// ExhaustiveCheck runs d over every input it can observe and calls report
// for each mismatch; report returns false to stop early. It returns the
// number of inputs checked.
//
// The sweep covers carry and aux carry in all four combinations, A when the
// instruction reads it, and the operand when it reads one. An instruction
// whose source is A only sweeps the operand, which doubles as A.
func ExhaustiveCheck(m *cpu.Machine, d inst.Descriptor, report func(result.Mismatch) bool) int {
	sweepA := 256
	sweepOp := 1
	if usesOperand(d) {
		sweepOp = 256
		if d.Src == inst.RegA || d.Op == inst.OpINR || d.Op == inst.OpDCR {
			sweepA = 1
		}
	}

	checked := 0
	for flags := 0; flags < 4; flags++ {
		f := cpu.Flags{Carry: flags&1 != 0, AuxCarry: flags&2 != 0}
		for a := 0; a < sweepA; a++ {
			for op := 0; op < sweepOp; op++ {
				in := Input{A: uint8(a), Operand: uint8(op), Flags: f}
				checked++
				if mm, ok := compare(m, d, in); !ok && !report(mm) {
					return checked
				}
			}
		}
	}
	return checked
}
