package inst

// table holds one descriptor per opcode byte. It is filled once by init and
// only ever handed out by value.
var table [256]Descriptor

// Lookup returns the descriptor for an opcode byte. Bytes without a
// definition resolve to a one-byte undefined descriptor.
func Lookup(opcode uint8) Descriptor {
	d := table[opcode]
	if !d.Defined() {
		return Undefined(opcode)
	}
	return d
}

// Undefined returns the descriptor used for an opcode with no semantics.
func Undefined(opcode uint8) Descriptor {
	return Descriptor{Opcode: opcode, Mnemonic: "???", Op: OpUndefined, Length: 1, Cycles: 4}
}

// Table returns a copy of the full instruction table, indexed by opcode.
func Table() [256]Descriptor {
	return table
}

// ByMnemonic returns every descriptor with the given mnemonic, in opcode order.
func ByMnemonic(mnemonic string) []Descriptor {
	return byMnemonic[mnemonic]
}

var byMnemonic = map[string][]Descriptor{}

var aluMnemonics = [8]string{"ADD", "ADC", "SUB", "SBB", "ANA", "XRA", "ORA", "CMP"}
var aluImmMnemonics = [8]string{"ADI", "ACI", "SUI", "SBI", "ANI", "XRI", "ORI", "CPI"}
var aluOps = [8]Op{OpADD, OpADC, OpSUB, OpSBB, OpANA, OpXRA, OpORA, OpCMP}

func set(d Descriptor) {
	table[d.Opcode] = d
}

func init() {
	// === Machine control ===
	set(Descriptor{Opcode: 0x00, Mnemonic: "NOP", Op: OpNOP, Length: 1, Cycles: 4})
	for _, opc := range []uint8{0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38} {
		set(Descriptor{Opcode: opc, Mnemonic: "NOP", Op: OpNOP, Length: 1, Cycles: 4, Undocumented: true})
	}
	set(Descriptor{Opcode: 0x76, Mnemonic: "HLT", Op: OpHLT, Length: 1, Cycles: 7})
	set(Descriptor{Opcode: 0xF3, Mnemonic: "DI", Op: OpDI, Length: 1, Cycles: 4})
	set(Descriptor{Opcode: 0xFB, Mnemonic: "EI", Op: OpEI, Length: 1, Cycles: 4})
	set(Descriptor{Opcode: 0xDB, Mnemonic: "IN", Op: OpIN, Shape: ShapeImm8, Length: 2, Cycles: 10})
	set(Descriptor{Opcode: 0xD3, Mnemonic: "OUT", Op: OpOUT, Shape: ShapeImm8, Length: 2, Cycles: 10})

	// === 8-bit moves: MOV 40-7F (76 is HLT), MVI 06-3E ===
	for dst := RegB; dst <= RegA; dst++ {
		for src := RegB; src <= RegA; src++ {
			opc := 0x40 | uint8(dst)<<3 | uint8(src)
			if opc == 0x76 {
				continue
			}
			cycles := 5
			if dst == RegM || src == RegM {
				cycles = 7
			}
			set(Descriptor{Opcode: opc, Mnemonic: "MOV", Op: OpMOV, Shape: ShapeRegReg,
				Dst: dst, Src: src, Length: 1, Cycles: cycles})
		}
		cycles := 7
		if dst == RegM {
			cycles = 10
		}
		set(Descriptor{Opcode: 0x06 | uint8(dst)<<3, Mnemonic: "MVI", Op: OpMVI, Shape: ShapeRegImm8,
			Dst: dst, Src: RegImm, Length: 2, Cycles: cycles})
	}

	// === INR/DCR: 04/05 + r<<3, read-modify-write on one register ===
	for r := RegB; r <= RegA; r++ {
		cycles := 5
		if r == RegM {
			cycles = 10
		}
		set(Descriptor{Opcode: 0x04 | uint8(r)<<3, Mnemonic: "INR", Op: OpINR, Shape: ShapeReg,
			Dst: r, Src: r, Length: 1, Cycles: cycles})
		set(Descriptor{Opcode: 0x05 | uint8(r)<<3, Mnemonic: "DCR", Op: OpDCR, Shape: ShapeReg,
			Dst: r, Src: r, Length: 1, Cycles: cycles})
	}

	// === Accumulator arithmetic/logic: 80-BF register, C6-FE immediate ===
	for i, op := range aluOps {
		for src := RegB; src <= RegA; src++ {
			cycles := 4
			if src == RegM {
				cycles = 7
			}
			set(Descriptor{Opcode: 0x80 | uint8(i)<<3 | uint8(src), Mnemonic: aluMnemonics[i], Op: op,
				Shape: ShapeReg, Dst: RegA, Src: src, Length: 1, Cycles: cycles})
		}
		set(Descriptor{Opcode: 0xC6 | uint8(i)<<3, Mnemonic: aluImmMnemonics[i], Op: op,
			Shape: ShapeImm8, Dst: RegA, Src: RegImm, Length: 2, Cycles: 7})
	}

	// === Register pairs: LXI, INX, DCX, DAD on B, D, H, SP ===
	for p := PairBC; p <= PairSP; p++ {
		hi := uint8(p) << 4
		set(Descriptor{Opcode: 0x01 | hi, Mnemonic: "LXI", Op: OpLXI, Shape: ShapePairImm16, Pair: p, Length: 3, Cycles: 10})
		set(Descriptor{Opcode: 0x03 | hi, Mnemonic: "INX", Op: OpINX, Shape: ShapePair, Pair: p, Length: 1, Cycles: 5})
		set(Descriptor{Opcode: 0x0B | hi, Mnemonic: "DCX", Op: OpDCX, Shape: ShapePair, Pair: p, Length: 1, Cycles: 5})
		set(Descriptor{Opcode: 0x09 | hi, Mnemonic: "DAD", Op: OpDAD, Shape: ShapePair, Pair: p, Length: 1, Cycles: 10})
	}

	// === Memory transfers ===
	set(Descriptor{Opcode: 0x02, Mnemonic: "STAX", Op: OpSTAX, Shape: ShapePair, Pair: PairBC, Length: 1, Cycles: 7})
	set(Descriptor{Opcode: 0x12, Mnemonic: "STAX", Op: OpSTAX, Shape: ShapePair, Pair: PairDE, Length: 1, Cycles: 7})
	set(Descriptor{Opcode: 0x0A, Mnemonic: "LDAX", Op: OpLDAX, Shape: ShapePair, Pair: PairBC, Length: 1, Cycles: 7})
	set(Descriptor{Opcode: 0x1A, Mnemonic: "LDAX", Op: OpLDAX, Shape: ShapePair, Pair: PairDE, Length: 1, Cycles: 7})
	set(Descriptor{Opcode: 0x22, Mnemonic: "SHLD", Op: OpSHLD, Shape: ShapeImm16, Length: 3, Cycles: 16})
	set(Descriptor{Opcode: 0x2A, Mnemonic: "LHLD", Op: OpLHLD, Shape: ShapeImm16, Length: 3, Cycles: 16})
	set(Descriptor{Opcode: 0x32, Mnemonic: "STA", Op: OpSTA, Shape: ShapeImm16, Length: 3, Cycles: 13})
	set(Descriptor{Opcode: 0x3A, Mnemonic: "LDA", Op: OpLDA, Shape: ShapeImm16, Length: 3, Cycles: 13})
	set(Descriptor{Opcode: 0xEB, Mnemonic: "XCHG", Op: OpXCHG, Length: 1, Cycles: 4})

	// === Rotates, DAA and carry ops ===
	set(Descriptor{Opcode: 0x07, Mnemonic: "RLC", Op: OpRLC, Length: 1, Cycles: 4})
	set(Descriptor{Opcode: 0x0F, Mnemonic: "RRC", Op: OpRRC, Length: 1, Cycles: 4})
	set(Descriptor{Opcode: 0x17, Mnemonic: "RAL", Op: OpRAL, Length: 1, Cycles: 4})
	set(Descriptor{Opcode: 0x1F, Mnemonic: "RAR", Op: OpRAR, Length: 1, Cycles: 4})
	set(Descriptor{Opcode: 0x27, Mnemonic: "DAA", Op: OpDAA, Length: 1, Cycles: 4})
	set(Descriptor{Opcode: 0x2F, Mnemonic: "CMA", Op: OpCMA, Length: 1, Cycles: 4})
	set(Descriptor{Opcode: 0x37, Mnemonic: "STC", Op: OpSTC, Length: 1, Cycles: 4})
	set(Descriptor{Opcode: 0x3F, Mnemonic: "CMC", Op: OpCMC, Length: 1, Cycles: 4})

	// === Branches: Rcc C0, Jcc C2, Ccc C4, RST C7 + n<<3 ===
	for c := CondNZ; c <= CondM; c++ {
		cc := uint8(c-1) << 3
		set(Descriptor{Opcode: 0xC0 | cc, Mnemonic: "R" + c.String(), Op: OpRET, Cond: c,
			Length: 1, Cycles: 5, CyclesTaken: 11})
		set(Descriptor{Opcode: 0xC2 | cc, Mnemonic: "J" + c.String(), Op: OpJMP, Shape: ShapeImm16, Cond: c,
			Length: 3, Cycles: 10})
		set(Descriptor{Opcode: 0xC4 | cc, Mnemonic: "C" + c.String(), Op: OpCALL, Shape: ShapeImm16, Cond: c,
			Length: 3, Cycles: 11, CyclesTaken: 17})
	}
	for n := uint8(0); n < 8; n++ {
		set(Descriptor{Opcode: 0xC7 | n<<3, Mnemonic: "RST", Op: OpRST, Shape: ShapeVector, Vector: n,
			Length: 1, Cycles: 11})
	}
	set(Descriptor{Opcode: 0xC3, Mnemonic: "JMP", Op: OpJMP, Shape: ShapeImm16, Length: 3, Cycles: 10})
	set(Descriptor{Opcode: 0xCB, Mnemonic: "JMP", Op: OpJMP, Shape: ShapeImm16, Length: 3, Cycles: 10, Undocumented: true})
	set(Descriptor{Opcode: 0xC9, Mnemonic: "RET", Op: OpRET, Length: 1, Cycles: 10})
	set(Descriptor{Opcode: 0xD9, Mnemonic: "RET", Op: OpRET, Length: 1, Cycles: 10, Undocumented: true})
	set(Descriptor{Opcode: 0xCD, Mnemonic: "CALL", Op: OpCALL, Shape: ShapeImm16, Length: 3, Cycles: 17})
	for _, opc := range []uint8{0xDD, 0xED, 0xFD} {
		set(Descriptor{Opcode: opc, Mnemonic: "CALL", Op: OpCALL, Shape: ShapeImm16, Length: 3, Cycles: 17, Undocumented: true})
	}
	set(Descriptor{Opcode: 0xE9, Mnemonic: "PCHL", Op: OpPCHL, Length: 1, Cycles: 5})

	// === Stack: PUSH/POP on B, D, H, PSW ===
	for _, p := range []Pair{PairBC, PairDE, PairHL, PairPSW} {
		enc := uint8(p)
		if p == PairPSW {
			enc = 3
		}
		set(Descriptor{Opcode: 0xC1 | enc<<4, Mnemonic: "POP", Op: OpPOP, Shape: ShapePair, Pair: p, Length: 1, Cycles: 10})
		set(Descriptor{Opcode: 0xC5 | enc<<4, Mnemonic: "PUSH", Op: OpPUSH, Shape: ShapePair, Pair: p, Length: 1, Cycles: 11})
	}
	set(Descriptor{Opcode: 0xE3, Mnemonic: "XTHL", Op: OpXTHL, Length: 1, Cycles: 18})
	set(Descriptor{Opcode: 0xF9, Mnemonic: "SPHL", Op: OpSPHL, Length: 1, Cycles: 5})

	for i := range table {
		if d := table[i]; d.Defined() {
			byMnemonic[d.Mnemonic] = append(byMnemonic[d.Mnemonic], d)
		}
	}
}
