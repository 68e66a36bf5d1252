// Package verify checks the executor's arithmetic and flag behavior against
// an independent reference model, opcode by opcode, across every input the
// instruction can observe.
package verify

import (
	"fmt"
	"time"

	"github.com/oisee/i8080/pkg/inst"
	"github.com/oisee/i8080/pkg/result"
	"github.com/sirupsen/logrus"
)

// Config controls a verification run.
type Config struct {
	NumWorkers    int     // 0 means runtime.NumCPU()
	Opcodes       []uint8 // nil means every checkable documented opcode
	Quick         bool    // test vectors only
	MaxMismatches int     // per opcode; 0 means 16
	Log           *logrus.Logger
}

// Stats summarizes a verification run.
type Stats struct {
	Opcodes int
	Checked int64
	Failed  int64
	Elapsed time.Duration
}

// Tasks builds the task list for cfg. Opcodes the reference model does not
// cover are skipped.
func Tasks(cfg Config) []Task {
	limit := cfg.MaxMismatches
	if limit == 0 {
		limit = 16
	}
	var tasks []Task
	add := func(d inst.Descriptor) {
		if Checkable(d) {
			tasks = append(tasks, Task{Desc: d, Quick: cfg.Quick, Limit: limit})
		}
	}
	if cfg.Opcodes != nil {
		for _, op := range cfg.Opcodes {
			add(inst.Lookup(op))
		}
		return tasks
	}
	for _, d := range inst.Table() {
		if !d.Undocumented {
			add(d)
		}
	}
	return tasks
}

// Run checks every task in cfg and returns the mismatches found.
func Run(cfg Config) (*result.Table, Stats) {
	start := time.Now()
	wp := NewWorkerPool(cfg.NumWorkers, cfg.Log)
	tasks := Tasks(cfg)

	wp.Log.WithFields(logrus.Fields{
		"opcodes": len(tasks),
		"workers": wp.NumWorkers,
		"quick":   cfg.Quick,
	}).Info("verifying")

	wp.RunTasks(tasks)

	checked, failed := wp.Stats()
	st := Stats{
		Opcodes: len(tasks),
		Checked: checked,
		Failed:  failed,
		Elapsed: time.Since(start),
	}
	wp.Log.WithFields(logrus.Fields{
		"checked":    st.Checked,
		"failed":     st.Failed,
		"mismatches": wp.Results.Len(),
		"elapsed":    st.Elapsed.Round(time.Millisecond),
	}).Info("verification done")
	return wp.Results, st
}

func hex8(v uint8) string { return fmt.Sprintf("%02x", v) }
