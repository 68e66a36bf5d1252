package verify

import (
	"github.com/oisee/i8080/pkg/cpu"
	"github.com/sirupsen/logrus"
)

// Coverage executes every opcode once on a fresh machine and returns the
// outcome kind for each. A decoded opcode with no execution semantics shows
// up as cpu.Unimplemented; undefined opcodes as cpu.Fatal.
func Coverage(log *logrus.Logger) [256]cpu.OutcomeKind {
	var kinds [256]cpu.OutcomeKind
	for op := 0; op < 256; op++ {
		m := newMachine(log)
		m.Ports = cpu.PortFuncs{}
		m.SP = 0x80
		m.H, m.L = 0x00, 0x50
		m.Memory[0], m.Memory[1], m.Memory[2] = uint8(op), 0x40, 0x00

		out, _ := m.Step()
		kinds[op] = out.Kind
	}
	return kinds
}

// Unimplemented returns the opcodes Coverage reports as not executable,
// either unimplemented or fatal on a well-formed machine.
func Unimplemented(kinds [256]cpu.OutcomeKind) []uint8 {
	var ops []uint8
	for op, k := range kinds {
		if k == cpu.Unimplemented || k == cpu.Fatal {
			ops = append(ops, uint8(op))
		}
	}
	return ops
}
