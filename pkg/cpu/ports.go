package cpu

// Ports is the I/O capability the executor calls for IN and OUT. A hook
// rejects a port by returning an error wrapping ErrInvalidPort.
type Ports interface {
	ReadPort(port uint8) (uint8, error)
	WritePort(port, value uint8) error
}

// PortFuncs adapts a pair of functions to Ports. A nil In reads 0 and a nil
// Out discards the value.
type PortFuncs struct {
	In  func(port uint8) (uint8, error)
	Out func(port, value uint8) error
}

// ReadPort implements Ports.
func (p PortFuncs) ReadPort(port uint8) (uint8, error) {
	if p.In == nil {
		return 0, nil
	}
	return p.In(port)
}

// WritePort implements Ports.
func (p PortFuncs) WritePort(port, value uint8) error {
	if p.Out == nil {
		return nil
	}
	return p.Out(port, value)
}
