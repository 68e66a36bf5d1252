package cpu

import "fmt"

// OutcomeKind classifies the result of one Step.
type OutcomeKind uint8

const (
	Continue      OutcomeKind = iota // instruction executed, keep stepping
	Halted                           // HLT executed, or the machine is halted
	PortRead                         // IN executed (or is pending, see Outcome.Pending)
	PortWrite                        // OUT executed
	Fatal                            // execution stopped on an error
	Unimplemented                    // decoded opcode with no execution semantics
)

var outcomeNames = [...]string{"continue", "halted", "port-read", "port-write", "fatal", "unimplemented"}

func (k OutcomeKind) String() string {
	if int(k) < len(outcomeNames) {
		return outcomeNames[k]
	}
	return fmt.Sprintf("outcome(%d)", k)
}

// Outcome describes what a Step did.
type Outcome struct {
	Kind   OutcomeKind
	PC     uint16 // address of the instruction
	Opcode uint8
	Port   uint8 // PortRead, PortWrite
	Value  uint8 // value read or written
	// Pending is set on PortRead when no Ports hook is installed; the
	// caller must supply the value with CompletePortRead.
	Pending bool
}
