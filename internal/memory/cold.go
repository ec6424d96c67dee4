package memory

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/hectorcore/hectorcore/internal/types"
	bolt "go.etcd.io/bbolt"
)

var entriesBucket = []byte("entries")

// coldTier is the on-disk, memory-mapped portion of semantic memory
// (spec §4.1/§9). bbolt memory-maps its backing file on Open, so the
// cold tier is effectively an mmap view over consolidated entries;
// waking re-opens the file, hibernating closes it and releases the
// mapping. Consolidate is the only operation that moves ownership of
// an entry from hot to cold: it writes a new cold file then
// atomically swaps this handle, so an entry is never owned by both
// tiers at once.
type coldTier struct {
	mu   sync.RWMutex
	path string
	db   *bolt.DB // nil while hibernating
}

func newColdTier(path string) (*coldTier, error) {
	c := &coldTier{path: path}
	if err := c.wake(); err != nil {
		return nil, err
	}
	return c, nil
}

// wake reopens the mmap'd bbolt file, creating it if absent.
func (c *coldTier) wake() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		return nil
	}
	db, err := bolt.Open(c.path, 0o644, nil)
	if err != nil {
		return fmt.Errorf("open cold tier %s: %w", c.path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(entriesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("init cold tier bucket: %w", err)
	}
	c.db = db
	return nil
}

// hibernate releases the mmap.
func (c *coldTier) hibernate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// snapshot returns every entry currently in the cold tier. If the
// tier is hibernating or deserialization fails, it logs and returns
// an empty view rather than aborting the caller (spec §4.1 failure
// semantics).
func (c *coldTier) snapshot() []types.MemoryEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.db == nil {
		slog.Warn("cold tier snapshot requested while hibernating")
		return nil
	}

	var out []types.MemoryEntry
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var e types.MemoryEntry
			if err := gobDecode(v, &e); err != nil {
				slog.Warn("cold tier: skipping undecodable entry", "error", err)
				return nil
			}
			out = append(out, e)
			return nil
		})
	})
	if err != nil {
		slog.Warn("cold tier snapshot failed, returning empty view", "error", err)
		return nil
	}
	return out
}

// replaceAll atomically swaps the cold tier's contents with entries,
// used by consolidate. It writes to a fresh temp file, then renames
// over the live path and reopens — the classic temp-and-rename swap
// spec §9 calls for.
func (c *coldTier) replaceAll(existing []types.MemoryEntry, adding []types.MemoryEntry) error {
	tmpPath := c.path + ".tmp"
	os.Remove(tmpPath)

	tmpDB, err := bolt.Open(tmpPath, 0o644, nil)
	if err != nil {
		return fmt.Errorf("open cold tier tmp file: %w", err)
	}
	err = tmpDB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(entriesBucket)
		if err != nil {
			return err
		}
		for _, e := range append(append([]types.MemoryEntry{}, existing...), adding...) {
			data, err := gobEncode(e)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(e.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	tmpDB.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("populate cold tier tmp file: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		c.db.Close()
		c.db = nil
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("swap cold tier file: %w", err)
	}
	db, err := bolt.Open(c.path, 0o644, nil)
	if err != nil {
		return fmt.Errorf("reopen cold tier: %w", err)
	}
	c.db = db
	return nil
}

// prune removes ids from the cold tier in place.
func (c *coldTier) prune(ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return fmt.Errorf("cold tier is hibernating")
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		if b == nil {
			return nil
		}
		for _, id := range ids {
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
}

func gobEncode(e types.MemoryEntry) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte, out *types.MemoryEntry) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(out)
}
