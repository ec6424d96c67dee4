package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hectorcore/hectorcore/internal/types"
)

// SessionService owns per-session Episodic Memory (spec §3/§6): a
// bounded turn history plus the last Plan the Supervisor produced for
// that session, JSON-encoded and written atomically after every turn.
// Grounded on the teacher's pkg/memory/session_service.go
// (map[sessionID]*SessionData under a registry mutex, per-session
// metadata), adapted so each session additionally serializes its own
// updates and persists to its own file rather than staying purely
// in-memory.
type SessionService struct {
	dir       string
	maxTurns  int
	maxTokens int

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	mu       sync.Mutex // serializes updates for this one session
	episodic *types.EpisodicMemory
	lastPlan json.RawMessage
}

// onDisk is the JSON shape written per session file.
type onDisk struct {
	Turns    []types.EpisodicTurn `json:"turns"`
	LastPlan json.RawMessage      `json:"last_plan,omitempty"`
}

// NewSessionService creates a service rooted at dir, creating it if
// necessary.
func NewSessionService(dir string, maxTurns, maxTokens int) (*SessionService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("session service: mkdir %s: %w", dir, err)
	}
	return &SessionService{
		dir:       dir,
		maxTurns:  maxTurns,
		maxTokens: maxTokens,
		sessions:  make(map[string]*sessionEntry),
	}, nil
}

func (s *SessionService) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}

// entry returns the in-memory entry for sessionID, loading it from
// disk on first access within this process.
func (s *SessionService) entry(sessionID string) (*sessionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[sessionID]; ok {
		return e, nil
	}

	e := &sessionEntry{episodic: types.NewEpisodicMemory(s.maxTurns, s.maxTokens)}
	data, err := os.ReadFile(s.path(sessionID))
	switch {
	case os.IsNotExist(err):
		// fresh session
	case err != nil:
		return nil, fmt.Errorf("session service: read %s: %w", sessionID, err)
	default:
		var d onDisk
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("session service: decode %s: %w", sessionID, err)
		}
		e.episodic.Replace(d.Turns)
		e.lastPlan = d.LastPlan
	}
	s.sessions[sessionID] = e
	return e, nil
}

// AppendTurn appends a turn to sessionID's episodic history and
// persists the session atomically.
func (s *SessionService) AppendTurn(sessionID string, turn types.EpisodicTurn) error {
	e, err := s.entry(sessionID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.episodic.Append(turn)
	return s.persistLocked(sessionID, e)
}

// SetLastPlan records the Supervisor's most recent plan for
// sessionID, as an already-marshaled JSON value, and persists.
func (s *SessionService) SetLastPlan(sessionID string, plan json.RawMessage) error {
	e, err := s.entry(sessionID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastPlan = plan
	return s.persistLocked(sessionID, e)
}

// Episodic returns a read-only copy of sessionID's turn history.
func (s *SessionService) Episodic(sessionID string) ([]types.EpisodicTurn, error) {
	e, err := s.entry(sessionID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.episodic.Turns(), nil
}

// LastPlan returns sessionID's last recorded plan, or nil if none.
func (s *SessionService) LastPlan(sessionID string) (json.RawMessage, error) {
	e, err := s.entry(sessionID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastPlan, nil
}

// Compact replaces a session's turn history with a compacted one
// (e.g. summary-splice over the middle, preserving the first and
// last turns), as used by the Supervisor's compaction step when
// episodic size crosses the configured token threshold.
func (s *SessionService) Compact(sessionID string, turns []types.EpisodicTurn) error {
	e, err := s.entry(sessionID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.episodic.Replace(turns)
	return s.persistLocked(sessionID, e)
}

// persistLocked writes sessionID's state via a temp-file-then-rename
// swap; callers must hold e.mu.
func (s *SessionService) persistLocked(sessionID string, e *sessionEntry) error {
	d := onDisk{Turns: e.episodic.Turns(), LastPlan: e.lastPlan}
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("session service: encode %s: %w", sessionID, err)
	}

	path := s.path(sessionID)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("session service: write temp file for %s: %w", sessionID, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("session service: rename for %s: %w", sessionID, err)
	}
	return nil
}

// DeleteSession drops a session from memory and disk.
func (s *SessionService) DeleteSession(sessionID string) error {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if err := os.Remove(s.path(sessionID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session service: delete %s: %w", sessionID, err)
	}
	return nil
}
