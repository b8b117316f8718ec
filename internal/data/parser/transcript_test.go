package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTranscriptFileNormalization(t *testing.T) {
	transcriptJSON := `{
		"activities": [
			{"type": "message", "text": "hello", "from": {"role": 1}, "timestamp": 1735689600.5},
			{"type": "message", "text": "hi there", "from": {"role": 0}, "timestamp": 1735689601.0},
			{"type": "trace", "name": "VariableAssignment", "value": {"id": "Global.x"}}
		]
	}`
	path := writeFile(t, "transcript.json", transcriptJSON)

	activities, metadata, err := ParseTranscriptFile(path)

	require.NoError(t, err)
	require.Len(t, activities, 3)
	require.NotNil(t, metadata)

	assert.Equal(t, "user", string(activities[0].From.Role))
	assert.Equal(t, "bot", string(activities[1].From.Role))

	// Epoch seconds become ISO timestamps.
	assert.Equal(t, "2025-01-01T00:00:00.5Z", activities[0].Timestamp.Raw)
	assert.Equal(t, "2025-01-01T00:00:01Z", activities[1].Timestamp.Raw)

	// Missing positions are synthesized from the array index so the sort
	// contract holds for transcripts too.
	assert.Equal(t, 0, activities[0].ChannelData.Position)
	assert.Equal(t, 1000, activities[1].ChannelData.Position)
	assert.Equal(t, 2000, activities[2].ChannelData.Position)

	// Trace name fills in a missing valueType.
	assert.Equal(t, "VariableAssignment", activities[2].ValueType)
}

func TestParseTranscriptFileSessionInfo(t *testing.T) {
	transcriptJSON := `{
		"activities": [
			{"type": "trace", "valueType": "SessionInfo", "value": {
				"startTimeUTC": "2025-01-01T00:00:00Z",
				"endTimeUTC": "2025-01-01T00:01:30Z",
				"type": "Conversation",
				"outcome": "Resolved",
				"outcomeReason": "AgentAnswered",
				"turnCount": 4,
				"impliedSuccess": true
			}},
			{"type": "trace", "valueType": "ConversationInfo", "value": {"id": "conv-42"}}
		]
	}`
	path := writeFile(t, "transcript.json", transcriptJSON)

	_, metadata, err := ParseTranscriptFile(path)

	require.NoError(t, err)
	require.NotNil(t, metadata.Session)
	assert.Equal(t, "2025-01-01T00:00:00Z", metadata.Session.StartTimeUTC)
	assert.Equal(t, "Resolved", metadata.Session.Outcome)
	assert.Equal(t, "AgentAnswered", metadata.Session.OutcomeReason)
	require.NotNil(t, metadata.Session.TurnCount)
	assert.Equal(t, 4, *metadata.Session.TurnCount)
	require.NotNil(t, metadata.Session.ImpliedSuccess)
	assert.True(t, *metadata.Session.ImpliedSuccess)

	require.NotNil(t, metadata.Conversation)
	assert.Equal(t, "conv-42", metadata.Conversation.ID)
}

func TestParseTranscriptFileKeepsExistingFields(t *testing.T) {
	transcriptJSON := `{
		"activities": [
			{"type": "message", "text": "x", "from": {"role": "user"}, "timestamp": "2025-01-01T00:00:00Z", "channelData": {"webchat:internal:position": 5000}}
		]
	}`
	path := writeFile(t, "transcript.json", transcriptJSON)

	activities, _, err := ParseTranscriptFile(path)

	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "user", string(activities[0].From.Role))
	assert.Equal(t, "2025-01-01T00:00:00Z", activities[0].Timestamp.Raw)
	assert.Equal(t, 5000, activities[0].ChannelData.Position)
}

func TestParseTranscriptFileExplicitZeroPositionKept(t *testing.T) {
	transcriptJSON := `{
		"activities": [
			{"type": "message", "text": "a", "from": {"role": 1}},
			{"type": "message", "text": "b", "from": {"role": 0}, "channelData": {"webchat:internal:position": 0}}
		]
	}`
	path := writeFile(t, "transcript.json", transcriptJSON)

	activities, _, err := ParseTranscriptFile(path)

	require.NoError(t, err)
	require.Len(t, activities, 2)

	// An activity carrying a real position 0 keeps it; only activities with
	// no hint at all get a synthetic one.
	assert.Equal(t, 0, activities[1].ChannelData.Position)
	assert.True(t, activities[1].ChannelData.PositionSet)
	assert.Equal(t, 0, activities[0].ChannelData.Position)
}

func TestParseTranscriptFileMalformed(t *testing.T) {
	path := writeFile(t, "transcript.json", `[]`)

	_, _, err := ParseTranscriptFile(path)

	assert.Error(t, err)
}
