package verify

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/oisee/i8080/pkg/cpu"
	"github.com/oisee/i8080/pkg/inst"
	"github.com/oisee/i8080/pkg/result"
	"github.com/sirupsen/logrus"
)

// WorkerPool checks opcodes in parallel. Each worker owns its own Machine.
type WorkerPool struct {
	NumWorkers int
	Results    *result.Table
	Log        *logrus.Logger
	checked    atomic.Int64
	failed     atomic.Int64
}

// NewWorkerPool creates a pool with the given number of workers.
func NewWorkerPool(numWorkers int, log *logrus.Logger) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &WorkerPool{
		NumWorkers: numWorkers,
		Results:    result.NewTable(),
		Log:        log,
	}
}

// Task is a unit of work: check one opcode against the reference model.
type Task struct {
	Desc  inst.Descriptor
	Quick bool // test vectors only
	Limit int  // mismatches recorded before giving up on the opcode
}

// Stats returns the number of inputs checked and opcodes that failed.
func (wp *WorkerPool) Stats() (checked, failed int64) {
	return wp.checked.Load(), wp.failed.Load()
}

// RunTasks distributes tasks across workers and waits for them.
func (wp *WorkerPool) RunTasks(tasks []Task) {
	ch := make(chan Task, len(tasks))
	for _, t := range tasks {
		ch <- t
	}
	close(ch)

	var wg sync.WaitGroup
	for i := 0; i < wp.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m := newMachine(wp.Log)
			for task := range ch {
				wp.processTask(m, task)
			}
		}()
	}
	wg.Wait()
}

func (wp *WorkerPool) processTask(m *cpu.Machine, task Task) {
	d := task.Desc
	log := wp.Log.WithFields(logrus.Fields{"opcode": hex8(d.Opcode), "mnemonic": d.Mnemonic})

	if task.Quick {
		wp.checked.Add(int64(len(TestVectors)))
		for _, in := range TestVectors {
			if mm, ok := compare(m, d, in); !ok {
				wp.Results.Add(mm)
				wp.failed.Add(1)
				log.Warn("mismatch on test vector")
				return
			}
		}
		log.Debug("ok")
		return
	}

	found := 0
	n := ExhaustiveCheck(m, d, func(mm result.Mismatch) bool {
		wp.Results.Add(mm)
		found++
		return task.Limit <= 0 || found < task.Limit
	})
	wp.checked.Add(int64(n))
	if found > 0 {
		wp.failed.Add(1)
		log.WithField("mismatches", found).Warn("opcode disagrees with reference")
		return
	}
	log.WithField("inputs", n).Debug("ok")
}
