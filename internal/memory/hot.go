package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/hectorcore/hectorcore/internal/types"
	chromem "github.com/philippgille/chromem-go"
)

// hotTier is the in-RAM portion of semantic memory (spec §4.1). It is
// backed by an in-process chromem-go collection for the vector index,
// plus an insertion-ordered id list used for get_recent and for
// insertion-recency tie-breaks in search.
//
// Single-writer semantics: all mutation goes through mu. Readers take
// an RLock only long enough to copy the entries (snapshot); Store.Search
// then scores that copy itself without querying chromem-go, satisfying
// the "searches may proceed concurrently with stores" requirement of §5.
type hotTier struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	order      []string // insertion order, oldest first
	byID       map[string]types.MemoryEntry
	collName   string
}

func newHotTier(collName string) (*hotTier, error) {
	db := chromem.NewDB()
	coll, err := db.CreateCollection(collName, nil, nopEmbeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("create hot collection: %w", err)
	}
	return &hotTier{
		db:         db,
		collection: coll,
		byID:       make(map[string]types.MemoryEntry),
		collName:   collName,
	}, nil
}

// nopEmbeddingFunc satisfies chromem.EmbeddingFunc; the Store always
// supplies precomputed embeddings, so the collection never needs to
// compute its own.
func nopEmbeddingFunc(_ context.Context, _ string) ([]float32, error) {
	return nil, fmt.Errorf("hot tier: embeddings must be precomputed")
}

// upsert replaces (or inserts) an entry. Never fails on duplicate id.
func (h *hotTier) upsert(ctx context.Context, e types.MemoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	doc := chromem.Document{
		ID:        e.ID,
		Content:   e.Content,
		Embedding: e.Embedding,
		Metadata:  metadataToStrings(e),
	}
	if _, exists := h.byID[e.ID]; exists {
		_ = h.collection.Delete(ctx, nil, nil, e.ID)
	} else {
		h.order = append(h.order, e.ID)
	}
	if err := h.collection.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("hot tier upsert %s: %w", e.ID, err)
	}
	h.byID[e.ID] = e
	return nil
}

// remove deletes entries by id.
func (h *hotTier) remove(ctx context.Context, ids []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	toDelete := make(map[string]bool, len(ids))
	for _, id := range ids {
		toDelete[id] = true
	}
	if len(toDelete) == 0 {
		return
	}
	_ = h.collection.Delete(ctx, nil, nil, ids...)
	for id := range toDelete {
		delete(h.byID, id)
	}
	kept := h.order[:0:0]
	for _, id := range h.order {
		if !toDelete[id] {
			kept = append(kept, id)
		}
	}
	h.order = kept
}

// snapshot returns a read-only copy of every entry currently held,
// oldest first, safe to call concurrently with upsert/remove (it
// clones under RLock and releases before the caller inspects it).
func (h *hotTier) snapshot() []types.MemoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]types.MemoryEntry, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.byID[id])
	}
	return out
}

func (h *hotTier) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.order)
}

func (h *hotTier) get(id string) (types.MemoryEntry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.byID[id]
	return e, ok
}

func (h *hotTier) touchAccess(id string, e types.MemoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byID[id] = e
}

func metadataToStrings(e types.MemoryEntry) map[string]string {
	return map[string]string{
		"source":    string(e.Metadata.Source),
		"agent":     e.Metadata.Agent,
		"knowledge": string(e.Metadata.Knowledge),
	}
}
