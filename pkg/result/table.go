package result

import (
	"sort"
	"sync"
)

// Mismatch records one input on which the executor disagreed with the
// reference model.
type Mismatch struct {
	Opcode   uint8  `json:"opcode"`
	Mnemonic string `json:"mnemonic"`

	// Input
	A       uint8 `json:"a"`
	Operand uint8 `json:"operand"`
	InFlags uint8 `json:"in_flags"` // PSW flag byte before execution

	// Output
	Got       uint8 `json:"got"`
	Want      uint8 `json:"want"`
	GotFlags  uint8 `json:"got_flags"`
	WantFlags uint8 `json:"want_flags"`

	// Err is set when the instruction failed to execute at all.
	Err string `json:"error,omitempty"`
}

// Table collects mismatches from concurrent verification workers.
type Table struct {
	mu         sync.Mutex
	mismatches []Mismatch
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// Add inserts a mismatch into the table.
func (t *Table) Add(m Mismatch) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mismatches = append(t.mismatches, m)
}

// Mismatches returns a copy of all mismatches, sorted by opcode then input.
func (t *Table) Mismatches() []Mismatch {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Mismatch, len(t.mismatches))
	copy(out, t.mismatches)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Opcode != b.Opcode {
			return a.Opcode < b.Opcode
		}
		if a.A != b.A {
			return a.A < b.A
		}
		if a.Operand != b.Operand {
			return a.Operand < b.Operand
		}
		return a.InFlags < b.InFlags
	})
	return out
}

// ByOpcode returns the number of mismatches per opcode.
func (t *Table) ByOpcode() map[uint8]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	counts := make(map[uint8]int)
	for _, m := range t.mismatches {
		counts[m.Opcode]++
	}
	return counts
}

// Len returns the number of mismatches.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.mismatches)
}
