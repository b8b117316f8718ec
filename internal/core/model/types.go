package model

// EventType classifies one normalized timeline event. The taxonomy is
// closed; anything a classification rule does not match falls back to
// EventOther rather than being dropped.
type EventType string

const (
	EventUserMessage        EventType = "UserMessage"
	EventBotMessage         EventType = "BotMessage"
	EventPlanReceived       EventType = "PlanReceived"
	EventPlanReceivedDebug  EventType = "PlanReceivedDebug"
	EventStepTriggered      EventType = "StepTriggered"
	EventStepFinished       EventType = "StepFinished"
	EventPlanFinished       EventType = "PlanFinished"
	EventDialogTracing      EventType = "DialogTracing"
	EventKnowledgeSearch    EventType = "KnowledgeSearch"
	EventVariableAssignment EventType = "VariableAssignment"
	EventDialogRedirect     EventType = "DialogRedirect"
	EventActionHTTPRequest  EventType = "ActionHttpRequest"
	EventActionQA           EventType = "ActionQA"
	EventActionTriggerEval  EventType = "ActionTriggerEval"
	EventActionBeginDialog  EventType = "ActionBeginDialog"
	EventActionSendActivity EventType = "ActionSendActivity"
	EventError              EventType = "Error"
	EventOther              EventType = "Other"
)

// TimelineEvent is one classified occurrence in the reconstructed
// conversation. Summary is always a single line; downstream table renderers
// depend on that.
type TimelineEvent struct {
	Timestamp      string    `json:"timestamp,omitempty"`
	Position       int       `json:"position"`
	EventType      EventType `json:"event_type"`
	TopicName      string    `json:"topic_name,omitempty"`
	Summary        string    `json:"summary"`
	State          string    `json:"state,omitempty"`
	Error          string    `json:"error,omitempty"`
	StepID         string    `json:"step_id,omitempty"`
	PlanIdentifier string    `json:"plan_identifier,omitempty"`
	RawType        string    `json:"raw_type,omitempty"`
}

// ExecutionPhase is the derived, time-bounded summary of one completed (or
// failed) step. DurationMs is 0 when either bound could not be parsed;
// callers must display that as unknown, not instantaneous.
type ExecutionPhase struct {
	Label      string  `json:"label"`
	PhaseType  string  `json:"phase_type,omitempty"`
	Start      string  `json:"start,omitempty"`
	End        string  `json:"end,omitempty"`
	DurationMs float64 `json:"duration_ms"`
	State      string  `json:"state"`
}

// ConversationTimeline is the complete reconstruction of one conversation's
// execution. Built once per input pair, read-only afterwards.
type ConversationTimeline struct {
	BotName        string           `json:"bot_name"`
	ConversationID string           `json:"conversation_id"`
	UserQuery      string           `json:"user_query"`
	Events         []TimelineEvent  `json:"events"`
	Phases         []ExecutionPhase `json:"phases"`
	Errors         []string         `json:"errors"`
	TotalElapsedMs float64          `json:"total_elapsed_ms"`
}
