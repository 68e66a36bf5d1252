package cpu

import (
	"errors"
	"fmt"
)

// Sentinel errors. Step and Interrupt wrap them so callers can use errors.Is.
var (
	ErrOutOfBounds   = errors.New("memory access out of bounds")
	ErrUndefined     = errors.New("undefined opcode")
	ErrUnimplemented = errors.New("unimplemented opcode")
	ErrInvalidPort   = errors.New("invalid port")
	ErrPortPending   = errors.New("port read pending")
)

// MemoryError reports an effective address or PC outside the memory array.
type MemoryError struct {
	PC     uint16 // address of the faulting instruction
	Opcode uint8  // meaningless when the opcode fetch itself failed
	Addr   int    // first byte outside memory; 10000 when a word straddles FFFF
	Size   int    // memory length at the time of the access
}

func (e *MemoryError) Error() string {
	return fmt.Sprintf("cpu: address %04x outside %d-byte memory (pc=%04x opcode=%02x)",
		e.Addr, e.Size, e.PC, e.Opcode)
}

func (e *MemoryError) Unwrap() error { return ErrOutOfBounds }

// OpcodeError reports an opcode the executor cannot run.
type OpcodeError struct {
	PC       uint16
	Opcode   uint8
	Mnemonic string
	Err      error // ErrUndefined or ErrUnimplemented
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("cpu: %v %02x (%s) at %04x", e.Err, e.Opcode, e.Mnemonic, e.PC)
}

func (e *OpcodeError) Unwrap() error { return e.Err }

// PortError wraps a port hook failure with the port and direction.
type PortError struct {
	PC    uint16
	Port  uint8
	Write bool
	Err   error
}

func (e *PortError) Error() string {
	dir := "read"
	if e.Write {
		dir = "write"
	}
	return fmt.Sprintf("cpu: port %02x %s at %04x: %v", e.Port, dir, e.PC, e.Err)
}

func (e *PortError) Unwrap() error { return e.Err }
