package disasm

import "github.com/oisee/i8080/pkg/inst"

// Format returns the text of an instruction as MNEMONIC<tab>OPERANDS.
// lo and hi are the operand bytes in stream order; 16-bit operands are
// written high byte first. Numbers are bare two- or four-digit hex.
func Format(d inst.Descriptor, lo, hi uint8) string {
	buf := make([]byte, 0, len(d.Mnemonic)+8)
	buf = append(buf, d.Mnemonic...)
	if d.Shape == inst.ShapeNone {
		return string(buf)
	}
	buf = append(buf, '\t')
	switch d.Shape {
	case inst.ShapeReg:
		buf = append(buf, d.Src.String()...)
	case inst.ShapeRegReg:
		buf = append(buf, d.Dst.String()...)
		buf = append(buf, ',')
		buf = append(buf, d.Src.String()...)
	case inst.ShapePair:
		buf = append(buf, d.Pair.String()...)
	case inst.ShapeImm8:
		buf = appendHex8(buf, lo)
	case inst.ShapeRegImm8:
		buf = append(buf, d.Dst.String()...)
		buf = append(buf, ',')
		buf = appendHex8(buf, lo)
	case inst.ShapeImm16:
		buf = appendHex8(buf, hi)
		buf = appendHex8(buf, lo)
	case inst.ShapePairImm16:
		buf = append(buf, d.Pair.String()...)
		buf = append(buf, ',')
		buf = appendHex8(buf, hi)
		buf = appendHex8(buf, lo)
	case inst.ShapeVector:
		buf = append(buf, '0'+d.Vector)
	}
	return string(buf)
}

const hexDigits = "0123456789abcdef"

func appendHex8(buf []byte, v uint8) []byte {
	return append(buf, hexDigits[v>>4], hexDigits[v&0x0F])
}
