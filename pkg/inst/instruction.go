package inst

// Op identifies the semantic action of an instruction. Every opcode in a
// family shares one Op (e.g. all 63 register moves are OpMOV); the operand
// fields of the Descriptor say which registers the action applies to.
type Op uint8

// Op constants, grouped the way the 8080 manual groups them.
const (
	OpUndefined Op = iota // no 8080 meaning; fatal on execute

	// Data transfer
	OpMOV
	OpMVI
	OpLXI
	OpLDA
	OpSTA
	OpLHLD
	OpSHLD
	OpLDAX
	OpSTAX
	OpXCHG

	// Arithmetic and logic. The register and immediate forms share an Op;
	// immediate forms have Src == RegImm.
	OpADD
	OpADC
	OpSUB
	OpSBB
	OpANA
	OpXRA
	OpORA
	OpCMP
	OpINR
	OpDCR
	OpINX
	OpDCX
	OpDAD
	OpDAA

	// Rotate and carry
	OpRLC
	OpRRC
	OpRAL
	OpRAR
	OpCMA
	OpSTC
	OpCMC

	// Branch
	OpJMP
	OpCALL
	OpRET
	OpRST
	OpPCHL

	// Stack
	OpPUSH
	OpPOP
	OpXTHL
	OpSPHL

	// I/O and machine control
	OpIN
	OpOUT
	OpEI
	OpDI
	OpHLT
	OpNOP

	OpCount
)

// Reg is an 8-bit operand in the 8080's 3-bit register encoding.
type Reg uint8

// Register encodings. RegM is the memory byte addressed by HL.
const (
	RegB Reg = iota
	RegC
	RegD
	RegE
	RegH
	RegL
	RegM
	RegA

	RegImm Reg = 0xFF // operand comes from the instruction's immediate byte
)

var regNames = [8]string{"B", "C", "D", "E", "H", "L", "M", "A"}

func (r Reg) String() string {
	if r < 8 {
		return regNames[r]
	}
	if r == RegImm {
		return "imm"
	}
	return "?"
}

// Pair is a 16-bit register pair operand.
type Pair uint8

// Pair encodings. PairSP and PairPSW share encoding 3: LXI/INX/DCX/DAD use
// SP, PUSH/POP use PSW.
const (
	PairBC Pair = iota
	PairDE
	PairHL
	PairSP
	PairPSW
)

var pairNames = [5]string{"B", "D", "H", "SP", "PSW"}

func (p Pair) String() string {
	if int(p) < len(pairNames) {
		return pairNames[p]
	}
	return "?"
}

// Cond is the condition tested by conditional jumps, calls and returns.
type Cond uint8

// Condition codes. The 3-bit encoding of a condition is c-1.
const (
	Always Cond = iota
	CondNZ
	CondZ
	CondNC
	CondC
	CondPO
	CondPE
	CondP
	CondM
)

var condNames = [9]string{"", "NZ", "Z", "NC", "C", "PO", "PE", "P", "M"}

func (c Cond) String() string {
	if int(c) < len(condNames) {
		return condNames[c]
	}
	return "?"
}

// Shape describes how an instruction's operands are encoded and written.
type Shape uint8

const (
	ShapeNone      Shape = iota // NOP
	ShapeReg                    // INR B, ADD C (register in Src)
	ShapeRegReg                 // MOV B,C
	ShapePair                   // PUSH B, LDAX D
	ShapeImm8                   // ADI 42, IN 01
	ShapeRegImm8                // MVI B,42 (register in Dst)
	ShapeImm16                  // JMP 0800
	ShapePairImm16              // LXI SP,2400
	ShapeVector                 // RST 1
)

// Descriptor is the static definition of one opcode byte.
type Descriptor struct {
	Opcode   uint8
	Mnemonic string
	Op       Op
	Shape    Shape

	Dst, Src Reg
	Pair     Pair
	Cond     Cond
	Vector   uint8 // RST number, 0-7

	Length      int // total bytes including the opcode, 1-3
	Cycles      int // states; for conditional CALL/RET the not-taken count
	CyclesTaken int // states when a conditional CALL/RET is taken, else 0

	// Undocumented marks the alias encodings (08h, 0CBh, 0D9h, 0DDh ...)
	// that real parts execute as their documented twins.
	Undocumented bool
}

// OperandLength returns the number of bytes following the opcode.
func (d Descriptor) OperandLength() int {
	return d.Length - 1
}

// Defined reports whether the descriptor has 8080 semantics.
func (d Descriptor) Defined() bool {
	return d.Op != OpUndefined
}

// Conditional reports whether a branch depends on a flag.
func (d Descriptor) Conditional() bool {
	return d.Cond != Always
}
