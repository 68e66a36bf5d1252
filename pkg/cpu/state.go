package cpu

import (
	"fmt"

	"github.com/oisee/i8080/pkg/inst"
	"github.com/sirupsen/logrus"
)

// MaxMemory is the size of the 8080 address space.
const MaxMemory = 0x10000

// State is the 8080 register file. It is a plain value: copying it is cheap
// and two States compare equal with ==.
type State struct {
	A, B, C, D, E, H, L uint8
	SP, PC              uint16
	Flags               Flags
	InterruptEnable     bool
}

// Config holds the reset values for a new Machine.
type Config struct {
	MemSize int    // bytes of memory, 1..MaxMemory; 0 means MaxMemory
	Origin  uint16 // initial PC
	SP      uint16 // initial stack pointer
	Ports   Ports  // nil leaves IN pending until CompletePortRead
	Log     *logrus.Logger
}

// Machine is one 8080: registers, memory and run state. A Machine must be
// driven from a single goroutine; run one Machine per goroutine for
// parallel emulation.
type Machine struct {
	State
	Memory []byte
	Ports  Ports
	Log    *logrus.Logger

	// Cycles accumulates documented instruction states. Informational only.
	Cycles uint64
	Steps  uint64

	halted  bool
	pending bool    // IN executed without a Ports hook
	err     error   // sticky fatal error
	last    Outcome // outcome returned while pending or stopped

	curPC uint16 // instruction being executed, for error reports
	curOp uint8
}

// New returns a machine in its reset state.
func New(cfg Config) *Machine {
	size := cfg.MemSize
	if size <= 0 || size > MaxMemory {
		size = MaxMemory
	}
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	m := &Machine{
		Memory: make([]byte, size),
		Ports:  cfg.Ports,
		Log:    log,
	}
	m.PC = cfg.Origin
	m.SP = cfg.SP
	return m
}

// Load copies image into memory starting at addr.
func (m *Machine) Load(addr uint16, image []byte) error {
	end := int(addr) + len(image)
	if end > len(m.Memory) {
		return fmt.Errorf("cpu: load %d bytes at %04x: %w", len(image), addr, &MemoryError{
			PC: m.PC, Addr: max(int(addr), len(m.Memory)), Size: len(m.Memory)})
	}
	copy(m.Memory[addr:], image)
	return nil
}

// Reset clears registers, flags and run state and sets PC. Memory is kept.
func (m *Machine) Reset(pc uint16) {
	m.State = State{PC: pc}
	m.Cycles = 0
	m.Steps = 0
	m.halted = false
	m.pending = false
	m.err = nil
	m.last = Outcome{}
}

// Running reports whether the machine will execute another instruction.
func (m *Machine) Running() bool {
	return !m.halted && m.err == nil
}

// Halted reports whether HLT stopped the machine.
func (m *Machine) Halted() bool {
	return m.halted
}

// Err returns the fatal error that stopped the machine, if any.
func (m *Machine) Err() error {
	return m.err
}

// Snapshot is a complete copy of a machine, suitable for checkpoints.
type Snapshot struct {
	State  State
	Memory []byte
	Halted bool
	// PendingRead is the IN outcome awaiting CompletePortRead, if any.
	PendingRead *Outcome
	Cycles      uint64
	Steps       uint64
}

// Snapshot copies the machine's state and memory.
func (m *Machine) Snapshot() Snapshot {
	mem := make([]byte, len(m.Memory))
	copy(mem, m.Memory)
	s := Snapshot{
		State:  m.State,
		Memory: mem,
		Halted: m.halted,
		Cycles: m.Cycles,
		Steps:  m.Steps,
	}
	if m.pending {
		out := m.last
		s.PendingRead = &out
	}
	return s
}

// Restore replaces the machine's state with a snapshot. Any fatal error is
// cleared.
func (m *Machine) Restore(s Snapshot) error {
	if len(s.Memory) == 0 || len(s.Memory) > MaxMemory {
		return fmt.Errorf("cpu: snapshot memory size %d out of range", len(s.Memory))
	}
	m.State = s.State
	m.Memory = make([]byte, len(s.Memory))
	copy(m.Memory, s.Memory)
	m.halted = s.Halted
	m.pending = s.PendingRead != nil
	m.last = Outcome{}
	if m.pending {
		m.last = *s.PendingRead
	}
	m.Cycles = s.Cycles
	m.Steps = s.Steps
	m.err = nil
	return nil
}

// BC returns the B:C register pair.
func (s *State) BC() uint16 { return uint16(s.B)<<8 | uint16(s.C) }

// DE returns the D:E register pair.
func (s *State) DE() uint16 { return uint16(s.D)<<8 | uint16(s.E) }

// HL returns the H:L register pair.
func (s *State) HL() uint16 { return uint16(s.H)<<8 | uint16(s.L) }

// PSW returns A in the high byte and the packed flags in the low byte.
func (s *State) PSW() uint16 { return uint16(s.A)<<8 | uint16(s.Flags.Byte()) }

// Pair returns a 16-bit register pair.
func (s *State) Pair(p inst.Pair) uint16 {
	switch p {
	case inst.PairBC:
		return s.BC()
	case inst.PairDE:
		return s.DE()
	case inst.PairHL:
		return s.HL()
	case inst.PairSP:
		return s.SP
	case inst.PairPSW:
		return s.PSW()
	}
	return 0
}

// SetPair writes a 16-bit register pair.
func (s *State) SetPair(p inst.Pair, v uint16) {
	hi, lo := uint8(v>>8), uint8(v)
	switch p {
	case inst.PairBC:
		s.B, s.C = hi, lo
	case inst.PairDE:
		s.D, s.E = hi, lo
	case inst.PairHL:
		s.H, s.L = hi, lo
	case inst.PairSP:
		s.SP = v
	case inst.PairPSW:
		s.A = hi
		s.Flags = FlagsFromByte(lo)
	}
}

// regPtr returns the storage for a register; nil for RegM and RegImm.
func (s *State) regPtr(r inst.Reg) *uint8 {
	switch r {
	case inst.RegB:
		return &s.B
	case inst.RegC:
		return &s.C
	case inst.RegD:
		return &s.D
	case inst.RegE:
		return &s.E
	case inst.RegH:
		return &s.H
	case inst.RegL:
		return &s.L
	case inst.RegA:
		return &s.A
	}
	return nil
}

// Reg returns an 8-bit register. RegM and RegImm read as 0; use the
// machine's memory for M.
func (s *State) Reg(r inst.Reg) uint8 {
	if p := s.regPtr(r); p != nil {
		return *p
	}
	return 0
}

// SetReg writes an 8-bit register. RegM and RegImm are ignored.
func (s *State) SetReg(r inst.Reg, v uint8) {
	if p := s.regPtr(r); p != nil {
		*p = v
	}
}
