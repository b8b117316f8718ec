package timeline

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/botscope/botscope/internal/core/model"
)

const (
	botSummaryMaxLen      = 120
	variableValueMaxLen   = 80
	redirectTargetMaxLen  = 40
	knowledgeSourcesShown = 3
)

// summaryReplacer strips line breaks so event summaries stay single-line.
var summaryReplacer = strings.NewReplacer("\n", " ", "\r", "")

// traceActionEvents maps a dialog-trace sub-action's actionType tag to its
// event type. Tags outside the table fall back to a generic dialog-trace
// event carrying the raw tag, so nothing is silently dropped.
var traceActionEvents = map[string]model.EventType{
	"HttpRequestAction":  model.EventActionHTTPRequest,
	"Question":           model.EventActionQA,
	"AdaptiveCardPrompt": model.EventActionQA,
	"ConditionGroup":     model.EventActionTriggerEval,
	"BeginDialog":        model.EventActionBeginDialog,
	"SendActivity":       model.EventActionSendActivity,
}

// builder accumulates one reconstruction. All state is private to a single
// Build call; concurrent Build invocations are independent.
type builder struct {
	lookup     map[string]string
	correlator *stepCorrelator

	events []model.TimelineEvent
	phases []model.ExecutionPhase
	errors []string

	botName        string
	conversationID string
	userQuery      string
	firstTimestamp string
	lastTimestamp  string
}

// Build reconstructs a ConversationTimeline from an activity sequence
// already ordered by the source's position hint. Input order is treated as
// chronological truth for event sequencing; timestamps only drive duration
// math and the first/last elapsed bound. Malformed individual activities
// contribute nothing instead of failing the reconstruction. Deterministic
// for identical input.
func Build(activities []model.Activity, lookup map[string]string) *model.ConversationTimeline {
	b := &builder{
		lookup:     lookup,
		correlator: newStepCorrelator(),
		events:     make([]model.TimelineEvent, 0, len(activities)),
	}

	for _, activity := range activities {
		b.consume(activity)
	}

	return &model.ConversationTimeline{
		BotName:        b.botName,
		ConversationID: b.conversationID,
		UserQuery:      b.userQuery,
		Events:         b.events,
		Phases:         b.phases,
		Errors:         b.errors,
		TotalElapsedMs: MsBetween(b.firstTimestamp, b.lastTimestamp),
	}
}

// consume classifies one raw activity and folds it into the accumulators.
func (b *builder) consume(activity model.Activity) {
	role := string(activity.From.Role)
	timestamp := activityTimestamp(activity)
	position := activity.ChannelData.Position

	// First writer wins for identity fields, regardless of later conflicts.
	if b.botName == "" && role == "bot" && activity.From.Name != "" {
		b.botName = activity.From.Name
	}
	if b.conversationID == "" && activity.Conversation.ID != "" {
		b.conversationID = activity.Conversation.ID
	}

	if timestamp != "" {
		if b.firstTimestamp == "" {
			b.firstTimestamp = timestamp
		}
		b.lastTimestamp = timestamp
	}

	switch activity.Type {
	case "typing":
		// Typing indicators carry no signal.
		return
	case "message":
		b.consumeMessage(activity, role, timestamp, position)
	case "event":
		b.consumeEvent(activity, timestamp, position)
	case "trace":
		b.consumeTrace(activity, timestamp, position)
	}
}

func (b *builder) consumeMessage(activity model.Activity, role, timestamp string, position int) {
	if role == "user" {
		text := activity.Text
		if b.userQuery == "" && text != "" {
			b.userQuery = text
		}
		summary := "User message"
		if text != "" {
			summary = fmt.Sprintf("User: %q", text)
		}
		b.append(model.TimelineEvent{
			Timestamp: timestamp,
			Position:  position,
			EventType: model.EventUserMessage,
			Summary:   summary,
		})
		return
	}

	// Any non-user sender is treated as the agent.
	text := activity.Text
	if text == "" && len(activity.Attachments) > 0 {
		text = ExtractCardText(activity.Attachments)
	}
	clean := summaryReplacer.Replace(text)
	if clipped, ok := capRunes(clean, botSummaryMaxLen); ok {
		clean = clipped + "..."
	}
	summary := "Bot message"
	if clean != "" {
		summary = "Bot: " + clean
	}
	b.append(model.TimelineEvent{
		Timestamp: timestamp,
		Position:  position,
		EventType: model.EventBotMessage,
		Summary:   summary,
	})
}

func (b *builder) consumeEvent(activity model.Activity, timestamp string, position int) {
	value := activity.Value

	switch valueType(activity) {
	case "DynamicPlanReceived":
		stepNames := make([]string, 0, len(value.Steps))
		for _, step := range value.Steps {
			stepNames = append(stepNames, ResolveTopicName(step, b.lookup))
		}
		stepsSummary := "unknown"
		if len(stepNames) > 0 {
			stepsSummary = strings.Join(stepNames, ", ")
		}
		b.append(model.TimelineEvent{
			Timestamp:      timestamp,
			Position:       position,
			EventType:      model.EventPlanReceived,
			Summary:        fmt.Sprintf("Plan: [%s]", stepsSummary),
			PlanIdentifier: value.PlanIdentifier,
		})

	case "DynamicPlanReceivedDebug":
		b.append(model.TimelineEvent{
			Timestamp:      timestamp,
			Position:       position,
			EventType:      model.EventPlanReceivedDebug,
			Summary:        fmt.Sprintf("Ask: %q", value.Ask),
			PlanIdentifier: value.PlanIdentifier,
		})

	case "DynamicPlanStepTriggered":
		topic := ResolveTopicName(value.TaskDialogID, b.lookup)
		b.correlator.recordTrigger(value.StepID, timestamp)
		b.append(model.TimelineEvent{
			Timestamp:      timestamp,
			Position:       position,
			EventType:      model.EventStepTriggered,
			TopicName:      topic,
			Summary:        fmt.Sprintf("Step start: %s (%s)", topic, value.Type),
			State:          "inProgress",
			StepID:         value.StepID,
			PlanIdentifier: value.PlanIdentifier,
		})

	case "DynamicPlanStepFinished":
		b.finishStep(value, timestamp, position)

	case "DynamicPlanFinished":
		b.append(model.TimelineEvent{
			Timestamp:      timestamp,
			Position:       position,
			EventType:      model.EventPlanFinished,
			Summary:        fmt.Sprintf("Plan finished (cancelled=%v)", value.WasCancelled),
			PlanIdentifier: value.PlanID,
		})

	case "DialogTracingInfo":
		for _, action := range value.Actions {
			b.traceAction(action, timestamp, position)
		}

	case "UniversalSearchToolTraceData":
		names := make([]string, 0, len(value.KnowledgeSources))
		for _, source := range value.KnowledgeSources {
			names = append(names, shortName(source))
		}
		shown := names
		overflow := ""
		if len(names) > knowledgeSourcesShown {
			shown = names[:knowledgeSourcesShown]
			overflow = fmt.Sprintf(" (+%d)", len(names)-knowledgeSourcesShown)
		}
		b.append(model.TimelineEvent{
			Timestamp: timestamp,
			Position:  position,
			EventType: model.EventKnowledgeSearch,
			Summary:   fmt.Sprintf("Knowledge search: [%s]%s", strings.Join(shown, ", "), overflow),
		})

	case "ErrorCode":
		code := string(value.ErrorCode)
		if code == "" {
			code = "Unknown"
		}
		b.appendError("ErrorCode: " + code)
		b.append(model.TimelineEvent{
			Timestamp: timestamp,
			Position:  position,
			EventType: model.EventError,
			Summary:   "Error: " + code,
			Error:     code,
		})

	default:
		// Unrecognized inner tag under a recognized outer type: keep the
		// raw tag visible instead of dropping the record.
		tag := valueType(activity)
		summary := "Event"
		if tag != "" {
			summary = "Event: " + tag
		}
		b.append(model.TimelineEvent{
			Timestamp: timestamp,
			Position:  position,
			EventType: model.EventOther,
			Summary:   summary,
			RawType:   tag,
		})
	}
}

// finishStep joins a step-finished record against its recorded trigger,
// derives the execution phase, and collects any reported failure.
func (b *builder) finishStep(value model.ActivityPayload, timestamp string, position int) {
	topic := ResolveTopicName(value.TaskDialogID, b.lookup)

	triggerTimestamp := b.correlator.lookup(value.StepID)
	durationMs := 0.0
	if triggerTimestamp != "" && timestamp != "" {
		durationMs = MsBetween(triggerTimestamp, timestamp)
	}

	errorMsg := ""
	if value.Error != nil {
		errorMsg = value.Error.Message
		if errorMsg == "" {
			errorMsg = "unknown error"
		}
		b.appendError(fmt.Sprintf("%s: %s", topic, errorMsg))
	} else if value.State == "failed" {
		errorMsg = "Step failed"
		b.appendError(topic + ": failed")
	}

	summary := fmt.Sprintf("Step end: %s [%s]", topic, value.State)
	if durationMs > 0 {
		summary += fmt.Sprintf(" (%.0fms)", durationMs)
	}

	b.append(model.TimelineEvent{
		Timestamp:      timestamp,
		Position:       position,
		EventType:      model.EventStepFinished,
		TopicName:      topic,
		Summary:        summary,
		State:          value.State,
		Error:          errorMsg,
		StepID:         value.StepID,
		PlanIdentifier: value.PlanIdentifier,
	})

	b.phases = append(b.phases, model.ExecutionPhase{
		Label:      topic,
		PhaseType:  value.Type,
		Start:      triggerTimestamp,
		End:        timestamp,
		DurationMs: durationMs,
		State:      value.State,
	})
}

// traceAction emits one action-specific event per dialog-trace sub-action.
func (b *builder) traceAction(action model.TraceAction, timestamp string, position int) {
	topic := ResolveTopicName(action.TopicID, b.lookup)

	if action.Exception != "" {
		b.appendError(fmt.Sprintf("%s.%s: %s", topic, action.ActionType, action.Exception))
	}

	event := model.TimelineEvent{
		Timestamp: timestamp,
		Position:  position,
		TopicName: topic,
		Error:     action.Exception,
	}

	eventType, known := traceActionEvents[action.ActionType]
	if !known {
		event.EventType = model.EventDialogTracing
		event.RawType = action.ActionType
		event.Summary = fmt.Sprintf("Action %s in %s", action.ActionType, topic)
		b.append(event)
		return
	}

	event.EventType = eventType
	switch eventType {
	case model.EventActionHTTPRequest:
		event.Summary = "HTTP request in " + topic
	case model.EventActionQA:
		event.Summary = "Question to user in " + topic
	case model.EventActionTriggerEval:
		event.Summary = "Condition evaluated in " + topic
	case model.EventActionBeginDialog:
		event.Summary = "Begin dialog from " + topic
	case model.EventActionSendActivity:
		event.Summary = "Send activity from " + topic
	}
	b.append(event)
}

func (b *builder) consumeTrace(activity model.Activity, timestamp string, position int) {
	value := activity.Value

	switch {
	case valueType(activity) == "VariableAssignment":
		newValue := fmt.Sprintf("%v", value.NewValue)
		if value.NewValue == nil {
			newValue = ""
		}
		newValue = summaryReplacer.Replace(newValue)
		if clipped, ok := capRunes(newValue, variableValueMaxLen); ok {
			newValue = clipped
		}
		b.append(model.TimelineEvent{
			Timestamp: timestamp,
			Position:  position,
			EventType: model.EventVariableAssignment,
			Summary:   fmt.Sprintf("%s %s = %s", titleCase(value.Type), value.ID, newValue),
		})

	case valueType(activity) == "DialogRedirect":
		target := value.TargetDialogID
		if clipped, ok := capRunes(target, redirectTargetMaxLen); ok {
			target = clipped
		}
		b.append(model.TimelineEvent{
			Timestamp: timestamp,
			Position:  position,
			EventType: model.EventDialogRedirect,
			Summary:   "Redirect → " + target,
		})

	case value.ErrorCode != "":
		code := string(value.ErrorCode)
		b.appendError("ErrorCode: " + code)
		b.append(model.TimelineEvent{
			Timestamp: timestamp,
			Position:  position,
			EventType: model.EventError,
			Summary:   "Error: " + code,
			Error:     code,
		})
	}
	// Other trace records are diagnostics noise and produce no event.
}

func (b *builder) append(event model.TimelineEvent) {
	b.events = append(b.events, event)
}

func (b *builder) appendError(message string) {
	b.errors = append(b.errors, message)
}

// valueType returns the inner tag, sourced from the alternate name field
// when valueType itself is absent.
func valueType(activity model.Activity) string {
	if activity.ValueType != "" {
		return activity.ValueType
	}
	return activity.Name
}

// activityTimestamp returns the best available raw timestamp string for an
// activity, falling back to the channel-data received-at instant.
func activityTimestamp(activity model.Activity) string {
	if activity.Timestamp.Raw != "" {
		return activity.Timestamp.Raw
	}
	if activity.Timestamp.Epoch > 0 {
		return EpochSecondsToISO(activity.Timestamp.Epoch)
	}
	if activity.ChannelData.ReceivedAt > 0 {
		return EpochMillisToISO(activity.ChannelData.ReceivedAt)
	}
	return ""
}

// capRunes truncates s to at most limit characters. Caps count runes, not
// bytes, so multibyte text is never split mid code point.
func capRunes(s string, limit int) (string, bool) {
	runes := []rune(s)
	if len(runes) <= limit {
		return s, false
	}
	return string(runes[:limit]), true
}

// titleCase upper-cases the first rune, matching how variable scopes are
// displayed ("global" -> "Global").
func titleCase(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
