// Package script implements the 8080 port hook in Lua. A script defines
// either or both of
//
//	function read_port(port)          -- returns 0-255, or nil to reject
//	function write_port(port, value)  -- returns false to reject
//
// and may call log(msg) to write through the host's logger.
package script

import (
	"fmt"
	"math"
	"sync"

	"github.com/oisee/i8080/pkg/cpu"
	"github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"
)

// Ports is a cpu.Ports backed by a Lua state.
type Ports struct {
	mu  sync.Mutex
	L   *lua.LState
	log *logrus.Entry
}

// Load runs the script at path and returns a port hook bound to it.
func Load(path string, log *logrus.Logger) (*Ports, error) {
	p := newPorts(log, path)
	if err := p.L.DoFile(path); err != nil {
		p.L.Close()
		return nil, fmt.Errorf("script: %s: %w", path, err)
	}
	return p, nil
}

// LoadString is like Load but takes the script source.
func LoadString(src string, log *logrus.Logger) (*Ports, error) {
	p := newPorts(log, "<string>")
	if err := p.L.DoString(src); err != nil {
		p.L.Close()
		return nil, fmt.Errorf("script: %w", err)
	}
	return p, nil
}

func newPorts(log *logrus.Logger, name string) *Ports {
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &Ports{
		L:   lua.NewState(),
		log: log.WithField("script", name),
	}
	p.L.SetGlobal("log", p.L.NewFunction(func(L *lua.LState) int {
		p.log.Info(L.CheckString(1))
		return 0
	}))
	return p
}

// ReadPort calls read_port(port). A script without read_port reads 0.
func (p *Ports) ReadPort(port uint8) (uint8, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fn := p.L.GetGlobal("read_port")
	if fn.Type() != lua.LTFunction {
		return 0, nil
	}
	if err := p.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LNumber(port)); err != nil {
		return 0, fmt.Errorf("script: read_port(%02x): %w", port, err)
	}
	ret := p.L.Get(-1)
	p.L.Pop(1)

	n, ok := ret.(lua.LNumber)
	if !ok {
		if ret == lua.LNil {
			return 0, fmt.Errorf("script: read_port(%02x) returned nil: %w", port, cpu.ErrInvalidPort)
		}
		return 0, fmt.Errorf("script: read_port(%02x) returned %s, want number", port, ret.Type())
	}
	if n < 0 || n > 255 {
		return 0, fmt.Errorf("script: read_port(%02x) returned %v, out of byte range", port, n)
	}
	if n != lua.LNumber(math.Trunc(float64(n))) {
		return 0, fmt.Errorf("script: read_port(%02x) returned %v, not an integer", port, n)
	}
	return uint8(n), nil
}

// WritePort calls write_port(port, value). A script without write_port
// accepts every write.
func (p *Ports) WritePort(port, value uint8) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	fn := p.L.GetGlobal("write_port")
	if fn.Type() != lua.LTFunction {
		return nil
	}
	if err := p.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
		lua.LNumber(port), lua.LNumber(value)); err != nil {
		return fmt.Errorf("script: write_port(%02x): %w", port, err)
	}
	ret := p.L.Get(-1)
	p.L.Pop(1)
	if ret == lua.LFalse {
		return fmt.Errorf("script: write_port(%02x) rejected: %w", port, cpu.ErrInvalidPort)
	}
	return nil
}

// Close releases the Lua state.
func (p *Ports) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.L.Close()
}
