package timeline

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botscope/botscope/internal/core/model"
)

func userMessage(text, timestamp string) model.Activity {
	return model.Activity{
		Type:      "message",
		Text:      text,
		From:      model.Sender{Role: "user"},
		Timestamp: model.FlexibleTime{Raw: timestamp},
	}
}

func botMessage(text, timestamp string) model.Activity {
	return model.Activity{
		Type:      "message",
		Text:      text,
		From:      model.Sender{Role: "bot", Name: "Support Bot"},
		Timestamp: model.FlexibleTime{Raw: timestamp},
	}
}

func stepTriggered(stepID, taskDialogID, timestamp string) model.Activity {
	return model.Activity{
		Type:      "event",
		ValueType: "DynamicPlanStepTriggered",
		Timestamp: model.FlexibleTime{Raw: timestamp},
		Value: model.ActivityPayload{
			StepID:       stepID,
			TaskDialogID: taskDialogID,
			Type:         "Task",
		},
	}
}

func stepFinished(stepID, taskDialogID, state, timestamp string) model.Activity {
	return model.Activity{
		Type:      "event",
		ValueType: "DynamicPlanStepFinished",
		Timestamp: model.FlexibleTime{Raw: timestamp},
		Value: model.ActivityPayload{
			StepID:       stepID,
			TaskDialogID: taskDialogID,
			State:        state,
		},
	}
}

func TestBuildSingleUserMessage(t *testing.T) {
	tl := Build([]model.Activity{userMessage("Hi", "2024-03-01T10:00:00Z")}, nil)

	require.Len(t, tl.Events, 1)
	assert.Empty(t, tl.Phases)
	assert.Empty(t, tl.Errors)
	assert.Equal(t, "Hi", tl.UserQuery)
	assert.Equal(t, model.EventUserMessage, tl.Events[0].EventType)
	assert.Equal(t, `User: "Hi"`, tl.Events[0].Summary)
	assert.Zero(t, tl.TotalElapsedMs, "single timestamp leaves elapsed unknown")
}

func TestBuildEmptyInput(t *testing.T) {
	tl := Build(nil, nil)

	require.NotNil(t, tl)
	assert.Empty(t, tl.Events)
	assert.Empty(t, tl.Phases)
	assert.Empty(t, tl.Errors)
	assert.Zero(t, tl.TotalElapsedMs)
}

func TestBuildStepPairDuration(t *testing.T) {
	tl := Build([]model.Activity{
		stepTriggered("s1", "bot.topic.Lookup", "2024-03-01T10:00:00Z"),
		stepFinished("s1", "bot.topic.Lookup", "completed", "2024-03-01T10:00:01.500Z"),
	}, nil)

	require.Len(t, tl.Phases, 1)
	phase := tl.Phases[0]
	assert.Equal(t, "Lookup", phase.Label)
	assert.InDelta(t, 1500.0, phase.DurationMs, 0.001)
	assert.Equal(t, "completed", phase.State)
	assert.Empty(t, tl.Errors)

	require.Len(t, tl.Events, 2)
	assert.Equal(t, model.EventStepTriggered, tl.Events[0].EventType)
	assert.Equal(t, "inProgress", tl.Events[0].State)
	assert.Equal(t, model.EventStepFinished, tl.Events[1].EventType)
	assert.Contains(t, tl.Events[1].Summary, "(1500ms)")
}

func TestBuildFinishWithoutTrigger(t *testing.T) {
	tl := Build([]model.Activity{
		stepFinished("orphan", "bot.topic.Lost", "failed", "2024-03-01T10:00:05Z"),
	}, nil)

	require.Len(t, tl.Phases, 1)
	assert.Zero(t, tl.Phases[0].DurationMs)
	assert.Equal(t, "failed", tl.Phases[0].State)
	require.Len(t, tl.Errors, 1)
	assert.Equal(t, "Lost: failed", tl.Errors[0])
}

func TestBuildStepFinishedErrorObject(t *testing.T) {
	finish := stepFinished("s1", "bot.topic.Call", "failed", "2024-03-01T10:00:05Z")
	finish.Value.Error = &model.FlexibleError{Message: "connector timed out"}

	tl := Build([]model.Activity{finish}, nil)

	require.Len(t, tl.Errors, 1)
	assert.Equal(t, "Call: connector timed out", tl.Errors[0])
	require.Len(t, tl.Events, 1)
	assert.Equal(t, "connector timed out", tl.Events[0].Error)
}

func TestBuildRepeatedTriggerLastWins(t *testing.T) {
	// A reused step id joins the finish against the most recent trigger.
	tl := Build([]model.Activity{
		stepTriggered("s1", "bot.topic.Retry", "2024-03-01T10:00:00Z"),
		stepTriggered("s1", "bot.topic.Retry", "2024-03-01T10:00:02Z"),
		stepFinished("s1", "bot.topic.Retry", "completed", "2024-03-01T10:00:03Z"),
	}, nil)

	require.Len(t, tl.Phases, 1)
	assert.InDelta(t, 1000.0, tl.Phases[0].DurationMs, 0.001)
	assert.Equal(t, "2024-03-01T10:00:02Z", tl.Phases[0].Start)
}

func TestBuildDialogTraceActionsFanOut(t *testing.T) {
	tl := Build([]model.Activity{{
		Type:      "event",
		ValueType: "DialogTracingInfo",
		Value: model.ActivityPayload{
			Actions: []model.TraceAction{
				{TopicID: "bot.topic.X", ActionType: "HttpRequestAction"},
				{TopicID: "bot.topic.X", ActionType: "BeginDialog"},
				{TopicID: "bot.topic.X", ActionType: "SendActivity"},
			},
		},
	}}, nil)

	require.Len(t, tl.Events, 3)
	assert.Equal(t, model.EventActionHTTPRequest, tl.Events[0].EventType)
	assert.Equal(t, model.EventActionBeginDialog, tl.Events[1].EventType)
	assert.Equal(t, model.EventActionSendActivity, tl.Events[2].EventType)
	for _, event := range tl.Events {
		assert.Equal(t, "X", event.TopicName)
	}
}

func TestBuildDialogTraceUnknownActionFallsBack(t *testing.T) {
	tl := Build([]model.Activity{{
		Type:      "event",
		ValueType: "DialogTracingInfo",
		Value: model.ActivityPayload{
			Actions: []model.TraceAction{
				{TopicID: "bot.topic.X", ActionType: "SomethingNew"},
			},
		},
	}}, nil)

	require.Len(t, tl.Events, 1)
	assert.Equal(t, model.EventDialogTracing, tl.Events[0].EventType)
	assert.Equal(t, "SomethingNew", tl.Events[0].RawType)
	assert.Contains(t, tl.Events[0].Summary, "SomethingNew")
}

func TestBuildDialogTraceExceptionCollected(t *testing.T) {
	tl := Build([]model.Activity{{
		Type:      "event",
		ValueType: "DialogTracingInfo",
		Value: model.ActivityPayload{
			Actions: []model.TraceAction{
				{TopicID: "bot.topic.X", ActionType: "HttpRequestAction", Exception: "boom"},
				{TopicID: "bot.topic.X", ActionType: "SendActivity"},
			},
		},
	}}, nil)

	require.Len(t, tl.Errors, 1)
	assert.Equal(t, "X.HttpRequestAction: boom", tl.Errors[0])
	assert.Equal(t, "boom", tl.Events[0].Error)
	assert.Empty(t, tl.Events[1].Error)
}

func TestBuildBotMessageFromCard(t *testing.T) {
	activity := botMessage("", "2024-03-01T10:00:00Z")
	activity.Attachments = []model.Attachment{
		cardAttachment(
			model.CardElement{Type: "TextBlock", Text: "a"},
			model.CardElement{Type: "TextBlock", Text: "b"},
		),
	}

	tl := Build([]model.Activity{activity}, nil)

	require.Len(t, tl.Events, 1)
	assert.Equal(t, model.EventBotMessage, tl.Events[0].EventType)
	assert.Contains(t, tl.Events[0].Summary, "a | b")
	assert.NotContains(t, tl.Events[0].Summary, "[Adaptive Card]")
}

func TestBuildBotMessageStripsNewlines(t *testing.T) {
	tl := Build([]model.Activity{botMessage("line one\nline two\r", "")}, nil)

	require.Len(t, tl.Events, 1)
	assert.NotContains(t, tl.Events[0].Summary, "\n")
	assert.Contains(t, tl.Events[0].Summary, "line one line two")
}

func TestBuildBotMessageMultibyteUnderCap(t *testing.T) {
	// 61 characters but well over 120 bytes; the cap counts characters.
	text := "x" + strings.Repeat("界", 60)
	tl := Build([]model.Activity{botMessage(text, "")}, nil)

	require.Len(t, tl.Events, 1)
	assert.Equal(t, "Bot: "+text, tl.Events[0].Summary)
}

func TestBuildBotMessageTruncatesByRune(t *testing.T) {
	text := strings.Repeat("界", botSummaryMaxLen+10)
	tl := Build([]model.Activity{botMessage(text, "")}, nil)

	require.Len(t, tl.Events, 1)
	summary := tl.Events[0].Summary
	assert.True(t, utf8.ValidString(summary))
	assert.Equal(t, "Bot: "+strings.Repeat("界", botSummaryMaxLen)+"...", summary)
}

func TestBuildNonUserRoleTreatedAsAgent(t *testing.T) {
	activity := model.Activity{
		Type: "message",
		Text: "from a skill",
		From: model.Sender{Role: "skill"},
	}

	tl := Build([]model.Activity{activity}, nil)

	require.Len(t, tl.Events, 1)
	assert.Equal(t, model.EventBotMessage, tl.Events[0].EventType)
}

func TestBuildTypingIgnored(t *testing.T) {
	tl := Build([]model.Activity{
		{Type: "typing", From: model.Sender{Role: "bot"}},
		userMessage("Hi", ""),
	}, nil)

	require.Len(t, tl.Events, 1)
	assert.Equal(t, model.EventUserMessage, tl.Events[0].EventType)
}

func TestBuildFirstWriteWins(t *testing.T) {
	activities := []model.Activity{
		{
			Type:         "message",
			Text:         "first",
			From:         model.Sender{Role: "user"},
			Conversation: model.Conversation{ID: "conv-1"},
		},
		{
			Type:         "message",
			Text:         "reply",
			From:         model.Sender{Role: "bot", Name: "Bot One"},
			Conversation: model.Conversation{ID: "conv-2"},
		},
		{
			Type: "message",
			Text: "second",
			From: model.Sender{Role: "user"},
		},
		{
			Type: "message",
			Text: "reply again",
			From: model.Sender{Role: "bot", Name: "Bot Two"},
		},
	}

	tl := Build(activities, nil)

	assert.Equal(t, "first", tl.UserQuery)
	assert.Equal(t, "Bot One", tl.BotName)
	assert.Equal(t, "conv-1", tl.ConversationID)
}

func TestBuildPlanReceivedResolvesSteps(t *testing.T) {
	lookup := map[string]string{"bot.topic.Billing": "Billing Questions"}
	tl := Build([]model.Activity{{
		Type:      "event",
		ValueType: "DynamicPlanReceived",
		Value: model.ActivityPayload{
			Steps:          []string{"bot.topic.Billing", "bot.topic.Other"},
			PlanIdentifier: "plan-7",
		},
	}}, lookup)

	require.Len(t, tl.Events, 1)
	assert.Equal(t, model.EventPlanReceived, tl.Events[0].EventType)
	assert.Equal(t, "Plan: [Billing Questions, Other]", tl.Events[0].Summary)
	assert.Equal(t, "plan-7", tl.Events[0].PlanIdentifier)
}

func TestBuildPlanReceivedEmptySteps(t *testing.T) {
	tl := Build([]model.Activity{{
		Type:      "event",
		ValueType: "DynamicPlanReceived",
	}}, nil)

	require.Len(t, tl.Events, 1)
	assert.Equal(t, "Plan: [unknown]", tl.Events[0].Summary)
}

func TestBuildPlanFinished(t *testing.T) {
	tl := Build([]model.Activity{{
		Type:      "event",
		ValueType: "DynamicPlanFinished",
		Value:     model.ActivityPayload{WasCancelled: true, PlanID: "plan-7"},
	}}, nil)

	require.Len(t, tl.Events, 1)
	assert.Equal(t, model.EventPlanFinished, tl.Events[0].EventType)
	assert.Equal(t, "Plan finished (cancelled=true)", tl.Events[0].Summary)
	assert.Equal(t, "plan-7", tl.Events[0].PlanIdentifier)
}

func TestBuildKnowledgeSearchOverflow(t *testing.T) {
	tl := Build([]model.Activity{{
		Type:      "event",
		ValueType: "UniversalSearchToolTraceData",
		Value: model.ActivityPayload{
			KnowledgeSources: []string{"kb.a.One", "kb.a.Two", "kb.a.Three", "kb.a.Four", "kb.a.Five"},
		},
	}}, nil)

	require.Len(t, tl.Events, 1)
	assert.Equal(t, "Knowledge search: [One, Two, Three] (+2)", tl.Events[0].Summary)
}

func TestBuildUnknownEventTagKeptAsOther(t *testing.T) {
	tl := Build([]model.Activity{{
		Type:      "event",
		ValueType: "BrandNewTelemetry",
	}}, nil)

	require.Len(t, tl.Events, 1)
	assert.Equal(t, model.EventOther, tl.Events[0].EventType)
	assert.Equal(t, "BrandNewTelemetry", tl.Events[0].RawType)
}

func TestBuildValueTypeFallsBackToName(t *testing.T) {
	tl := Build([]model.Activity{{
		Type: "event",
		Name: "DynamicPlanReceivedDebug",
		Value: model.ActivityPayload{
			Ask: "reset my password",
		},
	}}, nil)

	require.Len(t, tl.Events, 1)
	assert.Equal(t, model.EventPlanReceivedDebug, tl.Events[0].EventType)
	assert.Equal(t, `Ask: "reset my password"`, tl.Events[0].Summary)
}

func TestBuildVariableAssignment(t *testing.T) {
	tl := Build([]model.Activity{{
		Type:      "trace",
		ValueType: "VariableAssignment",
		Value: model.ActivityPayload{
			Type:     "global",
			ID:       "Global.UserName",
			NewValue: "Ada",
		},
	}}, nil)

	require.Len(t, tl.Events, 1)
	assert.Equal(t, model.EventVariableAssignment, tl.Events[0].EventType)
	assert.Equal(t, "Global Global.UserName = Ada", tl.Events[0].Summary)
}

func TestBuildVariableAssignmentStripsNewlines(t *testing.T) {
	tl := Build([]model.Activity{{
		Type:      "trace",
		ValueType: "VariableAssignment",
		Value: model.ActivityPayload{
			Type:     "global",
			ID:       "Global.Address",
			NewValue: "line one\nline two\r",
		},
	}}, nil)

	require.Len(t, tl.Events, 1)
	assert.NotContains(t, tl.Events[0].Summary, "\n")
	assert.Equal(t, "Global Global.Address = line one line two", tl.Events[0].Summary)
}

func TestBuildVariableAssignmentTruncatesByRune(t *testing.T) {
	tl := Build([]model.Activity{{
		Type:      "trace",
		ValueType: "VariableAssignment",
		Value: model.ActivityPayload{
			Type:     "global",
			ID:       "Global.Note",
			NewValue: strings.Repeat("値", variableValueMaxLen+5),
		},
	}}, nil)

	require.Len(t, tl.Events, 1)
	summary := tl.Events[0].Summary
	assert.True(t, utf8.ValidString(summary))
	assert.Equal(t, "Global Global.Note = "+strings.Repeat("値", variableValueMaxLen), summary)
}

func TestBuildDialogRedirectTruncated(t *testing.T) {
	long := "bot.topic." + strings.Repeat("LongTarget", 8)
	tl := Build([]model.Activity{{
		Type:      "trace",
		ValueType: "DialogRedirect",
		Value:     model.ActivityPayload{TargetDialogID: long},
	}}, nil)

	require.Len(t, tl.Events, 1)
	assert.Equal(t, model.EventDialogRedirect, tl.Events[0].EventType)
	assert.LessOrEqual(t, len(tl.Events[0].Summary), len("Redirect → ")+redirectTargetMaxLen)
}

func TestBuildTraceErrorCode(t *testing.T) {
	tl := Build([]model.Activity{{
		Type:  "trace",
		Value: model.ActivityPayload{ErrorCode: "SystemError"},
	}}, nil)

	require.Len(t, tl.Events, 1)
	assert.Equal(t, model.EventError, tl.Events[0].EventType)
	require.Len(t, tl.Errors, 1)
	assert.Equal(t, "ErrorCode: SystemError", tl.Errors[0])
}

func TestBuildUnrecognizedTraceIgnored(t *testing.T) {
	tl := Build([]model.Activity{{
		Type:      "trace",
		ValueType: "SomeDiagnostic",
	}}, nil)

	assert.Empty(t, tl.Events)
}

func TestBuildTotalElapsed(t *testing.T) {
	tl := Build([]model.Activity{
		userMessage("Hi", "2024-03-01T10:00:00Z"),
		botMessage("Hello", "2024-03-01T10:00:04Z"),
	}, nil)

	assert.InDelta(t, 4000.0, tl.TotalElapsedMs, 0.001)
}

func TestBuildDeterministic(t *testing.T) {
	activities := []model.Activity{
		userMessage("Hi", "2024-03-01T10:00:00Z"),
		stepTriggered("s1", "bot.topic.Lookup", "2024-03-01T10:00:01Z"),
		stepFinished("s1", "bot.topic.Lookup", "completed", "2024-03-01T10:00:02Z"),
		botMessage("Done", "2024-03-01T10:00:03Z"),
	}
	lookup := map[string]string{"bot.topic.Lookup": "Lookup Topic"}

	first := Build(activities, lookup)
	second := Build(activities, lookup)

	assert.Equal(t, first, second)
}
