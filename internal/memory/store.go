// Package memory implements the tiered semantic Memory Store (spec
// §4.1): a hot, in-RAM tier for recent/high-value entries and a cold,
// memory-mapped tier for consolidated ones, plus session-scoped
// Episodic Memory (spec §3/§6).
//
// Grounded on the teacher's pkg/memory/vector_memory.go
// (VectorMemoryStrategy composing a vector db with an embedder) and
// pkg/registry/registry.go (mutex-protected registry idiom).
package memory

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hectorcore/hectorcore/internal/config"
	"github.com/hectorcore/hectorcore/internal/embedding"
	"github.com/hectorcore/hectorcore/internal/types"
)

// Store is the tiered semantic memory described in spec §4.1.
type Store struct {
	cfg      config.MemoryConfig
	embedder embedding.Provider

	hot  *hotTier
	cold *coldTier

	mu          sync.Mutex // serializes consolidate/hibernate/wake/persist
	hibernating bool
}

// NewStore builds a Store with a fresh hot tier and an awake cold
// tier rooted at cfg.ColdPath.
func NewStore(cfg config.MemoryConfig, embedder embedding.Provider) (*Store, error) {
	hot, err := newHotTier("hot")
	if err != nil {
		return nil, err
	}
	cold, err := newColdTier(cfg.ColdPath)
	if err != nil {
		return nil, err
	}
	return &Store{cfg: cfg, embedder: embedder, hot: hot, cold: cold}, nil
}

// Store embeds (if necessary) and upserts an entry into the hot tier.
// Entries always land hot first; consolidate is what moves them cold.
func (s *Store) Store(ctx context.Context, e types.MemoryEntry) (types.MemoryEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if len(e.Embedding) == 0 {
		text := e.Content
		if e.Query != "" {
			text = e.Query + "\n" + e.Content
		}
		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			return types.MemoryEntry{}, fmt.Errorf("memory store: embed entry %s: %w", e.ID, err)
		}
		e.Embedding = vec
	}
	if err := s.hot.upsert(ctx, e); err != nil {
		return types.MemoryEntry{}, err
	}
	return e, nil
}

// scored pairs an entry with its similarity to the active query, used
// internally to merge hot and cold scan results before truncating to k.
type scored struct {
	entry types.MemoryEntry
	score float64
}

// Search embeds query, scans both tiers, and returns the top k entries
// by cosine similarity (ties broken by most-recently-created first).
// contextTag and kind are optional filters: when non-empty/non-zero
// they restrict results to matching metadata, mirroring spec §4.1's
// "restrict search to a context tag or knowledge kind" capability.
func (s *Store) Search(ctx context.Context, query string, k int, contextTag string, kind types.KnowledgeKind) ([]types.MemoryEntry, error) {
	if k <= 0 {
		k = 10
	}
	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("memory search: embed query: %w", err)
	}

	candidates := make([]scored, 0, 256)
	consider := func(e types.MemoryEntry) {
		if contextTag != "" && !hasTag(e, contextTag) {
			return
		}
		if kind != "" && e.Metadata.Knowledge != kind {
			return
		}
		candidates = append(candidates, scored{entry: e, score: embedding.Dot(qvec, e.Embedding)})
	}
	for _, e := range s.hot.snapshot() {
		consider(e)
	}
	for _, e := range s.cold.snapshot() {
		consider(e)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].entry.CreatedAt.After(candidates[j].entry.CreatedAt)
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	out := make([]types.MemoryEntry, 0, k)
	for _, c := range candidates[:k] {
		result := c.entry.WithSimilarity(c.score)
		out = append(out, result)
		s.touchAccess(ctx, c.entry)
	}
	return out, nil
}

func hasTag(e types.MemoryEntry, tag string) bool {
	for _, t := range e.Metadata.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// touchAccess increments an entry's access count, the signal
// consolidate later reads. Cold-tier entries are not touched here;
// their access counts only matter before consolidation.
func (s *Store) touchAccess(_ context.Context, e types.MemoryEntry) {
	if hot, ok := s.hot.get(e.ID); ok {
		hot.Metadata.AccessCount++
		s.hot.touchAccess(e.ID, hot)
	}
}

// GetRecent returns up to n of the most recently stored hot entries,
// newest first.
func (s *Store) GetRecent(n int) []types.MemoryEntry {
	all := s.hot.snapshot()
	if n > len(all) {
		n = len(all)
	}
	out := make([]types.MemoryEntry, n)
	for i := 0; i < n; i++ {
		out[i] = all[len(all)-1-i]
	}
	return out
}

// Persist snapshots the hot tier to cfg.SnapshotPath via a
// temp-file-then-rename swap, so a crash mid-write never corrupts the
// previous snapshot (spec §9).
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.hot.snapshot()
	if err := os.MkdirAll(filepath.Dir(s.cfg.SnapshotPath), 0o755); err != nil {
		return fmt.Errorf("persist memory: mkdir: %w", err)
	}
	tmpPath := s.cfg.SnapshotPath + ".tmp"
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entries); err != nil {
		return fmt.Errorf("persist memory: encode: %w", err)
	}
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("persist memory: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.cfg.SnapshotPath); err != nil {
		return fmt.Errorf("persist memory: rename: %w", err)
	}
	return nil
}

// LoadSnapshot restores the hot tier from a previous Persist call, if
// any snapshot exists.
func (s *Store) LoadSnapshot(ctx context.Context) error {
	data, err := os.ReadFile(s.cfg.SnapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("load memory snapshot: %w", err)
	}
	var entries []types.MemoryEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entries); err != nil {
		return fmt.Errorf("load memory snapshot: decode: %w", err)
	}
	for _, e := range entries {
		if err := s.hot.upsert(ctx, e); err != nil {
			return fmt.Errorf("load memory snapshot: %w", err)
		}
	}
	return nil
}

// Consolidate moves qualifying hot entries to the cold tier: entries
// with AccessCount <= ConsolidateMinK1 and Importance < ConsolidateMaxImp,
// and only once the hot tier holds at least ConsolidateBatch entries
// (spec §4.1/§8.6). It is a no-op below that threshold.
func (s *Store) Consolidate(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.hot.snapshot()
	if len(all) < s.cfg.ConsolidateBatch {
		return 0, nil
	}

	var qualifying []types.MemoryEntry
	for _, e := range all {
		if e.Metadata.AccessCount <= s.cfg.ConsolidateMinK1 && e.Metadata.Importance < s.cfg.ConsolidateMaxImp {
			qualifying = append(qualifying, e)
		}
	}
	if len(qualifying) == 0 {
		return 0, nil
	}

	existing := s.cold.snapshot()
	if err := s.cold.replaceAll(existing, qualifying); err != nil {
		return 0, fmt.Errorf("consolidate: %w", err)
	}

	ids := make([]string, len(qualifying))
	for i, e := range qualifying {
		ids[i] = e.ID
	}
	s.hot.remove(ctx, ids)

	slog.Info("memory: consolidated entries to cold tier", "count", len(qualifying))
	return len(qualifying), nil
}

// Prune removes entries from both tiers by id — used when an entry is
// retracted or superseded.
func (s *Store) Prune(ctx context.Context, ids []string) error {
	s.hot.remove(ctx, ids)
	if err := s.cold.prune(ids); err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	return nil
}

// Hibernate releases the cold tier's memory-mapped file, freeing memory
// when the store is idle (spec §9 "hibernate / wake"). The embedding
// provider and the hot tier stay loaded.
func (s *Store) Hibernate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hibernating {
		return nil
	}
	if err := s.cold.hibernate(); err != nil {
		return fmt.Errorf("hibernate: %w", err)
	}
	s.hibernating = true
	return nil
}

// Wake reopens the cold tier, reversing Hibernate.
func (s *Store) Wake() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hibernating {
		return nil
	}
	if err := s.cold.wake(); err != nil {
		return fmt.Errorf("wake: %w", err)
	}
	s.hibernating = false
	return nil
}

// HotCount reports the number of entries currently held hot, mostly
// for tests and metrics.
func (s *Store) HotCount() int {
	return s.hot.count()
}
