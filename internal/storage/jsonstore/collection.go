package jsonstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// envelope is the on-disk layout of one collection: the monotonic id counter
// plus the full record list. Legacy files that contain a bare JSON array are
// accepted on load; the counter is then seeded past the highest id seen.
type envelope[T any] struct {
	NextID int64 `json:"next_id"`
	Items  []T   `json:"items"`
}

// collection keeps one record list in memory and rewrites the whole backing
// file on every mutation. All access goes through the collection's own
// mutex; cross-collection ordering is the engine's concern.
type collection[T any] struct {
	path string

	mu     sync.RWMutex
	nextID int64
	items  []T
}

func openCollection[T any](dir, name string, seed func(T) int64) (*collection[T], error) {
	c := &collection[T]{
		path:   filepath.Join(dir, name),
		nextID: 1,
	}
	raw, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("read %s: %w", c.path, err)
	}

	var env envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		// Legacy layout: a bare array with no counter.
		if arrErr := json.Unmarshal(raw, &env.Items); arrErr != nil {
			return nil, fmt.Errorf("decode %s: %w", c.path, err)
		}
	}
	c.items = env.Items
	c.nextID = env.NextID
	if seed != nil {
		for _, item := range c.items {
			if id := seed(item); id >= c.nextID {
				c.nextID = id + 1
			}
		}
	}
	if c.nextID < 1 {
		c.nextID = 1
	}
	return c, nil
}

// snapshot returns a copy of the record list for lock-free iteration by the
// caller.
func (c *collection[T]) snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// update applies fn to a working copy of the records and persists the result.
// The in-memory state advances only after the file write succeeds, so a
// failed write leaves the collection unchanged.
func (c *collection[T]) update(fn func(items []T, nextID int64) ([]T, int64, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	work := make([]T, len(c.items))
	copy(work, c.items)

	next, nextID, err := fn(work, c.nextID)
	if err != nil {
		return err
	}
	if err := c.persist(next, nextID); err != nil {
		return err
	}
	c.items = next
	c.nextID = nextID
	return nil
}

// persist rewrites the backing file through a temp file and rename so a
// crash mid-write never leaves a truncated collection behind.
func (c *collection[T]) persist(items []T, nextID int64) error {
	env := envelope[T]{NextID: nextID, Items: items}
	if env.Items == nil {
		env.Items = []T{}
	}
	raw, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", c.path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", c.path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", c.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", c.path, err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", c.path, err)
	}
	return nil
}
