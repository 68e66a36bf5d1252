package result

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/oisee/i8080/pkg/cpu"
)

// Checkpoint holds a machine snapshot for resuming a run.
type Checkpoint struct {
	Image    string // ROM path the run started from, informational
	Origin   uint16
	Snapshot cpu.Snapshot
}

func init() {
	// Register types for gob encoding
	gob.Register(cpu.Snapshot{})
	gob.Register(cpu.Outcome{})
}

// SaveCheckpoint writes a checkpoint to a file.
func SaveCheckpoint(path string, ckpt *Checkpoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(ckpt); err != nil {
		f.Close()
		return fmt.Errorf("checkpoint: encode %s: %w", path, err)
	}
	return f.Close()
}

// LoadCheckpoint loads a checkpoint from a file.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var ckpt Checkpoint
	if err := gob.NewDecoder(f).Decode(&ckpt); err != nil {
		return nil, fmt.Errorf("checkpoint: decode %s: %w", path, err)
	}
	return &ckpt, nil
}
