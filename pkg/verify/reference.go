package verify

import (
	"math/bits"

	"github.com/oisee/i8080/pkg/cpu"
	"github.com/oisee/i8080/pkg/inst"
)

// Input is one starting condition for a checked instruction.
type Input struct {
	A       uint8
	Operand uint8 // source register, (HL) byte or immediate
	Flags   cpu.Flags
}

// Output is what a checked instruction leaves behind: the value of its
// destination (A for accumulator ops, the register for INR/DCR) and the flags.
type Output struct {
	Value uint8
	Flags cpu.Flags
}

// Checkable reports whether the reference model covers d.
func Checkable(d inst.Descriptor) bool {
	switch d.Op {
	case inst.OpADD, inst.OpADC, inst.OpSUB, inst.OpSBB,
		inst.OpANA, inst.OpXRA, inst.OpORA, inst.OpCMP,
		inst.OpINR, inst.OpDCR, inst.OpDAA,
		inst.OpRLC, inst.OpRRC, inst.OpRAL, inst.OpRAR,
		inst.OpCMA, inst.OpSTC, inst.OpCMC:
		return true
	}
	return false
}

// usesOperand reports whether d reads Input.Operand.
func usesOperand(d inst.Descriptor) bool {
	switch d.Op {
	case inst.OpADD, inst.OpADC, inst.OpSUB, inst.OpSBB,
		inst.OpANA, inst.OpXRA, inst.OpORA, inst.OpCMP,
		inst.OpINR, inst.OpDCR:
		return true
	}
	return false
}

// Reference computes the documented 8080 result of d on in. It is written
// independently of the executor: plain integer arithmetic, nibble sums and
// the manual's two-step DAA.
func Reference(d inst.Descriptor, in Input) Output {
	a, b := in.A, in.Operand
	if usesOperand(d) && d.Src == inst.RegA {
		a = b
	}
	f := in.Flags
	cin := 0
	if f.Carry {
		cin = 1
	}

	switch d.Op {
	case inst.OpADD, inst.OpADC:
		c := 0
		if d.Op == inst.OpADC {
			c = cin
		}
		sum := int(a) + int(b) + c
		r := uint8(sum)
		f = zsp(f, r)
		f.Carry = sum > 0xFF
		f.AuxCarry = int(a&0x0F)+int(b&0x0F)+c > 0x0F
		return Output{r, f}

	case inst.OpSUB, inst.OpSBB, inst.OpCMP:
		c := 0
		if d.Op == inst.OpSBB {
			c = cin
		}
		diff := int(a) - int(b) - c
		r := uint8(diff)
		f = zsp(f, r)
		f.Carry = diff < 0
		f.AuxCarry = int(a&0x0F)-int(b&0x0F)-c >= 0
		if d.Op == inst.OpCMP {
			return Output{a, f}
		}
		return Output{r, f}

	case inst.OpANA, inst.OpXRA, inst.OpORA:
		var r uint8
		switch d.Op {
		case inst.OpANA:
			r = a & b
		case inst.OpXRA:
			r = a ^ b
		default:
			r = a | b
		}
		f = zsp(f, r)
		f.Carry = false
		return Output{r, f}

	case inst.OpINR:
		r := b + 1
		f = zsp(f, r)
		f.AuxCarry = b&0x0F == 0x0F
		return Output{r, f}

	case inst.OpDCR:
		r := b - 1
		f = zsp(f, r)
		f.AuxCarry = b&0x0F != 0
		return Output{r, f}

	case inst.OpDAA:
		// Step 1 corrects the low digit, step 2 the high digit.
		r := uint16(a)
		carry := f.Carry
		f.AuxCarry = false
		if a&0x0F > 9 || in.Flags.AuxCarry {
			f.AuxCarry = a&0x0F+6 > 0x0F
			r += 0x06
		}
		if r>>4 > 9 || carry {
			r += 0x60
			carry = true
		}
		f = zsp(f, uint8(r))
		f.Carry = carry || r > 0xFF
		return Output{uint8(r), f}

	case inst.OpRLC:
		f.Carry = a >= 0x80
		return Output{a<<1 | a>>7, f}
	case inst.OpRRC:
		f.Carry = a&1 == 1
		return Output{a>>1 | a<<7, f}
	case inst.OpRAL:
		r := a << 1
		if f.Carry {
			r |= 1
		}
		f.Carry = a >= 0x80
		return Output{r, f}
	case inst.OpRAR:
		r := a >> 1
		if f.Carry {
			r |= 0x80
		}
		f.Carry = a&1 == 1
		return Output{r, f}
	case inst.OpCMA:
		return Output{^a, f}
	case inst.OpSTC:
		f.Carry = true
		return Output{a, f}
	case inst.OpCMC:
		f.Carry = !f.Carry
		return Output{a, f}
	}
	return Output{a, f}
}

func zsp(f cpu.Flags, r uint8) cpu.Flags {
	f.Zero = r == 0
	f.Sign = r >= 0x80
	f.Parity = bits.OnesCount8(r)%2 == 0
	return f
}
