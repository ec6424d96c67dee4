package reasoning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStep_ExtractsThoughtAndAction(t *testing.T) {
	response := "[THOUGHT]\nI should list the directory.\n[ACTION]\n{\"name\": \"list_directory\", \"parameters\": {\"path\": \".\"}}\n"
	step, err := parseStep("list the files here", response)
	require.NoError(t, err)
	assert.Equal(t, "I should list the directory.", step.Thought)
	assert.False(t, step.IsTerminal)
	require.Len(t, step.Actions, 1)
	assert.Equal(t, "list_directory", step.Actions[0].Name)
	assert.Equal(t, ".", step.Actions[0].Params["path"])
}

func TestParseStep_MultipleActionsAreParallel(t *testing.T) {
	response := `[THOUGHT]
Running two checks.
[ACTION]
{"name": "a", "parameters": {}}
[ACTION]
{"name": "b", "parameters": {}}
`
	step, err := parseStep("run a and b", response)
	require.NoError(t, err)
	require.Len(t, step.Actions, 2)
	assert.Equal(t, "a", step.Actions[0].Name)
	assert.Equal(t, "b", step.Actions[1].Name)
}

func TestParseStep_ExtractsAnswer(t *testing.T) {
	response := "[THOUGHT]\nThis is simple.\n[ANSWER]\nHello there!\n"
	step, err := parseStep("hi", response)
	require.NoError(t, err)
	assert.True(t, step.IsTerminal)
	assert.Equal(t, "Hello there!", step.Answer)
}

func TestParseStep_ActionTakesPriorityOverAnswer(t *testing.T) {
	response := `[THOUGHT]
thinking
[ACTION]
{"name": "search", "parameters": {"q": "x"}}
[ANSWER]
premature answer
`
	step, err := parseStep("search for x", response)
	require.NoError(t, err)
	assert.False(t, step.IsTerminal)
	require.Len(t, step.Actions, 1)
}

func TestParseStep_ConversationalFallbackWhenNoTags(t *testing.T) {
	step, err := parseStep("hi there", "Hello! How can I help you today?")
	require.NoError(t, err)
	assert.True(t, step.IsTerminal)
	assert.Equal(t, "Hello! How can I help you today?", step.Answer)
}

func TestParseStep_NoTagsOnActionQueryIsParseError(t *testing.T) {
	_, err := parseStep("search the web for something", "I will just do it without tags.")
	assert.Error(t, err)
}

func TestParseStep_FallbackJSONWithoutActionTag(t *testing.T) {
	response := `[THOUGHT]
here goes
{"name": "read_file", "parameters": {"path": "a.txt"}}`
	step, err := parseStep("read a file", response)
	require.NoError(t, err)
	require.Len(t, step.Actions, 1)
	assert.Equal(t, "read_file", step.Actions[0].Name)
}
