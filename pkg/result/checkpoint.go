package result

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
)

// Checkpoint holds state for resuming a sweep.
type Checkpoint struct {
	Lo, Hi    uint32
	Chunk     uint32
	Completed []uint32 // indices of fully checked chunks
	Checked   int64
	Findings  []Finding
	Counts    map[string]int64
}

// Matches reports whether the checkpoint was taken for the same sweep range.
func (c *Checkpoint) Matches(lo, hi, chunk uint32) bool {
	return c.Lo == lo && c.Hi == hi && c.Chunk == chunk
}

// SaveCheckpoint writes sweep state to a file. The file is written next to
// path and renamed into place so a crash never leaves a torn checkpoint.
func SaveCheckpoint(path string, ckpt *Checkpoint) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(ckpt); err != nil {
		f.Close()
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadCheckpoint loads sweep state from a file. A missing file returns
// (nil, nil) so a fresh sweep can start.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var ckpt Checkpoint
	if err := gob.NewDecoder(f).Decode(&ckpt); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return &ckpt, nil
}
