package cpu

import (
	"context"
	"errors"
	"fmt"

	"github.com/oisee/i8080/pkg/inst"
	"github.com/sirupsen/logrus"
)

// Step fetches the opcode at PC and executes exactly one instruction.
//
// PC is advanced past the instruction before its action runs, so jumps,
// calls and returns simply overwrite it. If the action fails, PC is left
// at the failing instruction. Fatal and unimplemented conditions are
// sticky: later calls return the same outcome and error. A port hook
// rejecting a port (ErrInvalidPort) is returned but does not stop the
// machine.
func (m *Machine) Step() (Outcome, error) {
	switch {
	case m.err != nil:
		return m.last, m.err
	case m.pending:
		return m.last, ErrPortPending
	case m.halted:
		return Outcome{Kind: Halted, PC: m.PC}, nil
	}

	pc := m.PC
	m.curPC, m.curOp = pc, 0
	opcode, err := m.read(pc)
	if err != nil {
		return m.fail(Outcome{PC: pc}, err)
	}
	m.curOp = opcode
	d := inst.Lookup(opcode)

	if int(pc)+d.Length > len(m.Memory) {
		return m.fail(Outcome{PC: pc, Opcode: opcode}, m.fault(len(m.Memory)))
	}
	var imm uint16
	switch d.Length {
	case 2:
		lo, err := m.read(pc + 1)
		if err != nil {
			return m.fail(Outcome{PC: pc, Opcode: opcode}, err)
		}
		imm = uint16(lo)
	case 3:
		if imm, err = m.read16(pc + 1); err != nil {
			return m.fail(Outcome{PC: pc, Opcode: opcode}, err)
		}
	}

	log := m.logger()
	if log.IsLevelEnabled(logrus.DebugLevel) {
		log.WithFields(logrus.Fields{
			"pc":       fmt.Sprintf("%04x", pc),
			"opcode":   fmt.Sprintf("%02x", opcode),
			"mnemonic": d.Mnemonic,
		}).Debug("step")
	}

	m.PC = pc + uint16(d.Length)
	out, err := m.exec(d, imm)
	out.PC, out.Opcode = pc, opcode
	if err != nil {
		m.PC = pc
		if errors.Is(err, ErrInvalidPort) {
			log.WithFields(logrus.Fields{
				"pc":   fmt.Sprintf("%04x", pc),
				"port": fmt.Sprintf("%02x", out.Port),
			}).WithError(err).Warn("port rejected")
			return out, err
		}
		return m.fail(out, err)
	}

	m.Steps++
	switch {
	case out.Kind == Halted:
		m.halted = true
	case out.Pending:
		m.pending = true
		m.last = out
	}
	return out, nil
}

// fail records a fatal (or unimplemented) outcome and stops the machine.
func (m *Machine) fail(out Outcome, err error) (Outcome, error) {
	out.Kind = Fatal
	if errors.Is(err, ErrUnimplemented) {
		out.Kind = Unimplemented
	}
	m.err = err
	m.last = out
	m.logger().WithFields(logrus.Fields{
		"pc":      fmt.Sprintf("%04x", out.PC),
		"opcode":  fmt.Sprintf("%02x", out.Opcode),
		"outcome": out.Kind.String(),
	}).WithError(err).Warn("execution stopped")
	return out, err
}

func (m *Machine) exec(d inst.Descriptor, imm uint16) (Outcome, error) {
	out := Outcome{Kind: Continue}
	cycles := d.Cycles
	lo := uint8(imm)

	switch d.Op {
	// === Data transfer ===
	case inst.OpNOP:
		// nop
	case inst.OpMOV:
		v, err := m.load(d.Src)
		if err != nil {
			return out, err
		}
		if err := m.store(d.Dst, v); err != nil {
			return out, err
		}
	case inst.OpMVI:
		if err := m.store(d.Dst, lo); err != nil {
			return out, err
		}
	case inst.OpLXI:
		m.SetPair(d.Pair, imm)
	case inst.OpLDA:
		v, err := m.read(imm)
		if err != nil {
			return out, err
		}
		m.A = v
	case inst.OpSTA:
		if err := m.write(imm, m.A); err != nil {
			return out, err
		}
	case inst.OpLHLD:
		v, err := m.read16(imm)
		if err != nil {
			return out, err
		}
		m.SetPair(inst.PairHL, v)
	case inst.OpSHLD:
		if err := m.write16(imm, m.HL()); err != nil {
			return out, err
		}
	case inst.OpLDAX:
		v, err := m.read(m.Pair(d.Pair))
		if err != nil {
			return out, err
		}
		m.A = v
	case inst.OpSTAX:
		if err := m.write(m.Pair(d.Pair), m.A); err != nil {
			return out, err
		}
	case inst.OpXCHG:
		m.D, m.E, m.H, m.L = m.H, m.L, m.D, m.E

	// === Arithmetic and logic ===
	case inst.OpADD, inst.OpADC, inst.OpSUB, inst.OpSBB,
		inst.OpANA, inst.OpXRA, inst.OpORA, inst.OpCMP:
		v := lo
		if d.Src != inst.RegImm {
			var err error
			if v, err = m.load(d.Src); err != nil {
				return out, err
			}
		}
		m.alu(d.Op, v)
	case inst.OpINR:
		v, err := m.load(d.Dst)
		if err != nil {
			return out, err
		}
		r := v + 1
		if err := m.store(d.Dst, r); err != nil {
			return out, err
		}
		m.Flags.setZSP(r)
		m.Flags.AuxCarry = AuxCarryAdd(v, 1, 0)
	case inst.OpDCR:
		v, err := m.load(d.Dst)
		if err != nil {
			return out, err
		}
		r := v - 1 // wraps 00 -> FF
		if err := m.store(d.Dst, r); err != nil {
			return out, err
		}
		m.Flags.setZSP(r)
		m.Flags.AuxCarry = AuxCarrySub(v, 1, 0)
	case inst.OpINX:
		m.SetPair(d.Pair, m.Pair(d.Pair)+1)
	case inst.OpDCX:
		m.SetPair(d.Pair, m.Pair(d.Pair)-1)
	case inst.OpDAD:
		hl, rp := m.HL(), m.Pair(d.Pair)
		m.Flags.Carry = CarryDAD(hl, rp)
		m.SetPair(inst.PairHL, hl+rp)
	case inst.OpDAA:
		m.daa()

	// === Rotate and carry ===
	case inst.OpRLC:
		m.Flags.Carry = m.A&0x80 != 0
		m.A = m.A<<1 | m.A>>7
	case inst.OpRRC:
		m.Flags.Carry = m.A&0x01 != 0
		m.A = m.A>>1 | m.A<<7
	case inst.OpRAL:
		c := bsel(m.Flags.Carry, 0x01, 0)
		m.Flags.Carry = m.A&0x80 != 0
		m.A = m.A<<1 | c
	case inst.OpRAR:
		c := bsel(m.Flags.Carry, 0x80, 0)
		m.Flags.Carry = m.A&0x01 != 0
		m.A = m.A>>1 | c
	case inst.OpCMA:
		m.A = ^m.A
	case inst.OpSTC:
		m.Flags.Carry = true
	case inst.OpCMC:
		m.Flags.Carry = !m.Flags.Carry

	// === Branch ===
	case inst.OpJMP:
		if m.cond(d.Cond) {
			m.PC = imm
		}
	case inst.OpCALL:
		if m.cond(d.Cond) {
			if err := m.push(m.PC); err != nil {
				return out, err
			}
			m.PC = imm
			if d.CyclesTaken != 0 {
				cycles = d.CyclesTaken
			}
		}
	case inst.OpRET:
		if m.cond(d.Cond) {
			v, err := m.pop()
			if err != nil {
				return out, err
			}
			m.PC = v
			if d.CyclesTaken != 0 {
				cycles = d.CyclesTaken
			}
		}
	case inst.OpRST:
		if err := m.push(m.PC); err != nil {
			return out, err
		}
		m.PC = uint16(d.Vector) << 3
	case inst.OpPCHL:
		m.PC = m.HL()

	// === Stack ===
	case inst.OpPUSH:
		if err := m.push(m.Pair(d.Pair)); err != nil {
			return out, err
		}
	case inst.OpPOP:
		v, err := m.pop()
		if err != nil {
			return out, err
		}
		m.SetPair(d.Pair, v)
	case inst.OpXTHL:
		v, err := m.read16(m.SP)
		if err != nil {
			return out, err
		}
		if err := m.write16(m.SP, m.HL()); err != nil {
			return out, err
		}
		m.SetPair(inst.PairHL, v)
	case inst.OpSPHL:
		m.SP = m.HL()

	// === I/O and machine control ===
	case inst.OpIN:
		out.Kind, out.Port = PortRead, lo
		if m.Ports == nil {
			out.Pending = true
			break
		}
		v, err := m.Ports.ReadPort(lo)
		if err != nil {
			return out, &PortError{PC: m.curPC, Port: lo, Err: err}
		}
		m.A = v
		out.Value = v
	case inst.OpOUT:
		out.Kind, out.Port, out.Value = PortWrite, lo, m.A
		if m.Ports != nil {
			if err := m.Ports.WritePort(lo, m.A); err != nil {
				return out, &PortError{PC: m.curPC, Port: lo, Write: true, Err: err}
			}
		}
	case inst.OpEI:
		m.InterruptEnable = true
	case inst.OpDI:
		m.InterruptEnable = false
	case inst.OpHLT:
		out.Kind = Halted

	case inst.OpUndefined:
		return out, &OpcodeError{PC: m.curPC, Opcode: d.Opcode, Mnemonic: d.Mnemonic, Err: ErrUndefined}
	default:
		return out, &OpcodeError{PC: m.curPC, Opcode: d.Opcode, Mnemonic: d.Mnemonic, Err: ErrUnimplemented}
	}

	m.Cycles += uint64(cycles)
	return out, nil
}

// alu runs one of the eight accumulator operations with operand v.
func (m *Machine) alu(op inst.Op, v uint8) {
	c := bsel(m.Flags.Carry, 1, 0)
	switch op {
	case inst.OpADD:
		m.A = m.add(m.A, v, 0)
	case inst.OpADC:
		m.A = m.add(m.A, v, c)
	case inst.OpSUB:
		m.A = m.sub(m.A, v, 0)
	case inst.OpSBB:
		m.A = m.sub(m.A, v, c)
	case inst.OpCMP:
		m.sub(m.A, v, 0)
	case inst.OpANA:
		m.A = m.logic(m.A & v)
	case inst.OpXRA:
		m.A = m.logic(m.A ^ v)
	case inst.OpORA:
		m.A = m.logic(m.A | v)
	}
}

func (m *Machine) add(a, b, c uint8) uint8 {
	r := a + b + c
	m.Flags.Carry = CarryAdd(a, b, c)
	m.Flags.AuxCarry = AuxCarryAdd(a, b, c)
	m.Flags.setZSP(r)
	return r
}

func (m *Machine) sub(a, b, c uint8) uint8 {
	r := a - b - c
	m.Flags.Carry = BorrowSub(a, b, c)
	m.Flags.AuxCarry = AuxCarrySub(a, b, c)
	m.Flags.setZSP(r)
	return r
}

// logic sets flags for ANA/XRA/ORA: carry cleared, AC left unchanged.
func (m *Machine) logic(r uint8) uint8 {
	m.Flags.Carry = false
	m.Flags.setZSP(r)
	return r
}

// daa adjusts A to two BCD digits after an addition.
func (m *Machine) daa() {
	a := m.A
	carry := m.Flags.Carry
	var corr uint8
	if m.Flags.AuxCarry || a&0x0F > 9 {
		corr = 0x06
	}
	if carry || a>>4 > 9 || (a>>4 >= 9 && a&0x0F > 9) {
		corr |= 0x60
		carry = true
	}
	m.A = m.add(a, corr, 0)
	m.Flags.Carry = carry
}

func (m *Machine) cond(c inst.Cond) bool {
	f := m.Flags
	switch c {
	case inst.Always:
		return true
	case inst.CondNZ:
		return !f.Zero
	case inst.CondZ:
		return f.Zero
	case inst.CondNC:
		return !f.Carry
	case inst.CondC:
		return f.Carry
	case inst.CondPO:
		return !f.Parity
	case inst.CondPE:
		return f.Parity
	case inst.CondP:
		return !f.Sign
	case inst.CondM:
		return f.Sign
	}
	return false
}

// === Memory and stack ===

func (m *Machine) fault(addr int) error {
	return &MemoryError{PC: m.curPC, Opcode: m.curOp, Addr: addr, Size: len(m.Memory)}
}

func (m *Machine) read(addr uint16) (uint8, error) {
	if int(addr) >= len(m.Memory) {
		return 0, m.fault(int(addr))
	}
	return m.Memory[addr], nil
}

// checkWord fails unless both bytes of the word at addr lie in memory.
// addr+1 never wraps to 0000.
func (m *Machine) checkWord(addr uint16) error {
	if int(addr) >= len(m.Memory) {
		return m.fault(int(addr))
	}
	if int(addr)+1 >= len(m.Memory) {
		return m.fault(int(addr) + 1)
	}
	return nil
}

// read16 reads a little-endian word.
func (m *Machine) read16(addr uint16) (uint16, error) {
	if err := m.checkWord(addr); err != nil {
		return 0, err
	}
	return uint16(m.Memory[addr+1])<<8 | uint16(m.Memory[addr]), nil
}

func (m *Machine) write(addr uint16, v uint8) error {
	if int(addr) >= len(m.Memory) {
		return m.fault(int(addr))
	}
	m.Memory[addr] = v
	return nil
}

// write16 stores a little-endian word. Both addresses are checked before
// either byte is written.
func (m *Machine) write16(addr uint16, v uint16) error {
	if err := m.checkWord(addr); err != nil {
		return err
	}
	m.Memory[addr] = uint8(v)
	m.Memory[addr+1] = uint8(v >> 8)
	return nil
}

// push decrements SP by 2 and stores v there, high byte at SP+1.
func (m *Machine) push(v uint16) error {
	sp := m.SP - 2
	if err := m.write16(sp, v); err != nil {
		return err
	}
	m.SP = sp
	return nil
}

// pop loads the word at SP and increments SP by 2.
func (m *Machine) pop() (uint16, error) {
	v, err := m.read16(m.SP)
	if err != nil {
		return 0, err
	}
	m.SP += 2
	return v, nil
}

func (m *Machine) load(r inst.Reg) (uint8, error) {
	if r == inst.RegM {
		return m.read(m.HL())
	}
	return m.Reg(r), nil
}

func (m *Machine) store(r inst.Reg, v uint8) error {
	if r == inst.RegM {
		return m.write(m.HL(), v)
	}
	m.SetReg(r, v)
	return nil
}

func (m *Machine) logger() *logrus.Logger {
	if m.Log == nil {
		return logrus.StandardLogger()
	}
	return m.Log
}

// === Interrupts, pending I/O and the run loop ===

// Interrupt delivers RST n between instructions. While interrupts are
// disabled it does nothing and returns false. Delivery pushes PC, jumps to
// n*8, disables interrupts and wakes a halted machine.
func (m *Machine) Interrupt(n uint8) (bool, error) {
	if n > 7 {
		return false, fmt.Errorf("cpu: interrupt vector %d out of range 0-7", n)
	}
	switch {
	case m.err != nil:
		return false, m.err
	case m.pending:
		return false, ErrPortPending
	case !m.InterruptEnable:
		return false, nil
	}
	m.curPC, m.curOp = m.PC, 0xC7|n<<3
	if err := m.push(m.PC); err != nil {
		_, err = m.fail(Outcome{PC: m.curPC, Opcode: m.curOp}, err)
		return false, err
	}
	m.PC = uint16(n) << 3
	m.InterruptEnable = false
	m.halted = false
	m.Cycles += 11
	return true, nil
}

// CompletePortRead supplies the value for a pending IN.
func (m *Machine) CompletePortRead(v uint8) error {
	if !m.pending {
		return errors.New("cpu: no port read pending")
	}
	m.A = v
	m.pending = false
	m.last = Outcome{}
	return nil
}

// Run steps until the machine halts, stops on an error, waits on a pending
// port read, has run maxSteps instructions (0 means no limit), or ctx is
// done. ctx is only checked between instructions.
func (m *Machine) Run(ctx context.Context, maxSteps int) (Outcome, error) {
	var out Outcome
	for n := 0; maxSteps <= 0 || n < maxSteps; n++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		var err error
		if out, err = m.Step(); err != nil {
			return out, err
		}
		if out.Kind == Halted || out.Pending {
			return out, nil
		}
	}
	return out, nil
}
