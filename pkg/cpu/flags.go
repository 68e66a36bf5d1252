package cpu

import "math/bits"

// 8080 flag bit positions in the PSW low byte.
const (
	FlagC  uint8 = 0x01 // Carry
	Flag1  uint8 = 0x02 // Always 1 in a pushed PSW
	FlagP  uint8 = 0x04 // Parity (even)
	FlagAC uint8 = 0x10 // Auxiliary carry
	FlagZ  uint8 = 0x40 // Zero
	FlagS  uint8 = 0x80 // Sign
)

// Flags is the 8080 condition flag set.
type Flags struct {
	Zero     bool
	Sign     bool
	Parity   bool
	Carry    bool
	AuxCarry bool
}

// ParityTable holds the even-parity flag for each byte value.
var ParityTable [256]bool

func init() {
	for i := 0; i < 256; i++ {
		ParityTable[i] = Parity(uint64(i), 8)
	}
}

// Byte packs the flags into the PSW layout S Z 0 AC 0 P 1 C.
func (f Flags) Byte() uint8 {
	b := Flag1 |
		bsel(f.Sign, FlagS, 0) |
		bsel(f.Zero, FlagZ, 0) |
		bsel(f.AuxCarry, FlagAC, 0) |
		bsel(f.Parity, FlagP, 0) |
		bsel(f.Carry, FlagC, 0)
	return b
}

// FlagsFromByte unpacks a PSW low byte. Bits 1, 3 and 5 are ignored.
func FlagsFromByte(b uint8) Flags {
	return Flags{
		Zero:     b&FlagZ != 0,
		Sign:     b&FlagS != 0,
		Parity:   b&FlagP != 0,
		Carry:    b&FlagC != 0,
		AuxCarry: b&FlagAC != 0,
	}
}

// setZSP sets zero, sign and parity from an 8-bit result.
func (f *Flags) setZSP(v uint8) {
	f.Zero = Zero(v)
	f.Sign = Sign(v)
	f.Parity = ParityTable[v]
}

// Zero reports whether an 8-bit result is zero.
func Zero(v uint8) bool {
	return v == 0
}

// Sign reports whether bit 7 of a result is set.
func Sign(v uint8) bool {
	return v&0x80 != 0
}

// Parity reports even parity over the low width bits of v.
func Parity(v uint64, width uint) bool {
	if width < 64 {
		v &= 1<<width - 1
	}
	return bits.OnesCount64(v)&1 == 0
}

// CarryAdd reports a carry out of bit 7 of a + b + c.
func CarryAdd(a, b, c uint8) bool {
	return uint16(a)+uint16(b)+uint16(c) > 0xFF
}

// AuxCarryAdd reports a carry out of bit 3 of a + b + c.
func AuxCarryAdd(a, b, c uint8) bool {
	return a&0x0F+b&0x0F+c > 0x0F
}

// BorrowSub reports a borrow into bit 7 of a - b - c.
func BorrowSub(a, b, c uint8) bool {
	return uint16(b)+uint16(c) > uint16(a)
}

// AuxCarrySub computes AC for a - b - c. The 8080 subtracts by adding the
// two's complement, so AC is the carry out of bit 3 of a + ^b + (1-c): it is
// set when the low nibble did NOT borrow.
func AuxCarrySub(a, b, c uint8) bool {
	return a&0x0F+^b&0x0F+(1-c) > 0x0F
}

// CarryDAD reports a carry out of bit 15 of a 16-bit pair sum.
func CarryDAD(a, b uint16) bool {
	return uint32(a)+uint32(b) > 0xFFFF
}

// bsel returns a if cond is true, else b.
func bsel(cond bool, a, b uint8) uint8 {
	if cond {
		return a
	}
	return b
}
