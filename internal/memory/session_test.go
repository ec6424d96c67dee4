package memory

import (
	"encoding/json"
	"testing"

	"github.com/hectorcore/hectorcore/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionService_AppendTurnPersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	svc1, err := NewSessionService(dir, 200, 3200)
	require.NoError(t, err)

	require.NoError(t, svc1.AppendTurn("sess-1", types.EpisodicTurn{Role: types.RoleUser, Content: "hello"}))
	require.NoError(t, svc1.AppendTurn("sess-1", types.EpisodicTurn{Role: types.RoleAssistant, Content: "hi there"}))

	svc2, err := NewSessionService(dir, 200, 3200)
	require.NoError(t, err)

	turns, err := svc2.Episodic("sess-1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "hello", turns[0].Content)
	assert.Equal(t, "hi there", turns[1].Content)
}

func TestSessionService_SetLastPlanRoundTrips(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewSessionService(dir, 200, 3200)
	require.NoError(t, err)

	plan := json.RawMessage(`{"scale":"tiny"}`)
	require.NoError(t, svc.SetLastPlan("sess-1", plan))

	got, err := svc.LastPlan("sess-1")
	require.NoError(t, err)
	assert.JSONEq(t, string(plan), string(got))
}

func TestSessionService_CompactReplacesHistory(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewSessionService(dir, 200, 3200)
	require.NoError(t, err)

	require.NoError(t, svc.AppendTurn("sess-1", types.EpisodicTurn{Role: types.RoleUser, Content: "one"}))
	require.NoError(t, svc.AppendTurn("sess-1", types.EpisodicTurn{Role: types.RoleUser, Content: "two"}))

	compacted := []types.EpisodicTurn{{Role: types.RoleSystem, Content: "summary of one and two"}}
	require.NoError(t, svc.Compact("sess-1", compacted))

	turns, err := svc.Episodic("sess-1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "summary of one and two", turns[0].Content)
}

func TestSessionService_DeleteSessionRemovesFile(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewSessionService(dir, 200, 3200)
	require.NoError(t, err)

	require.NoError(t, svc.AppendTurn("sess-1", types.EpisodicTurn{Role: types.RoleUser, Content: "hi"}))
	require.NoError(t, svc.DeleteSession("sess-1"))

	turns, err := svc.Episodic("sess-1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}
