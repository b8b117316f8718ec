package model

import (
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"
)

// Activity is one record of a conversation trace export. Both the dialog
// export and the transcript export (after normalization) decode into this
// shape. Every field is optional in practice; exports are inconsistently
// populated across bot versions, so zero values always stand in for absent
// data.
type Activity struct {
	Type         string          `json:"type"`
	ValueType    string          `json:"valueType,omitempty"`
	Name         string          `json:"name,omitempty"`
	Text         string          `json:"text,omitempty"`
	From         Sender          `json:"from,omitempty"`
	Conversation Conversation    `json:"conversation,omitempty"`
	Timestamp    FlexibleTime    `json:"timestamp,omitempty"`
	ChannelData  ChannelData     `json:"channelData,omitempty"`
	Attachments  []Attachment    `json:"attachments,omitempty"`
	Value        ActivityPayload `json:"value,omitempty"`
}

// Sender describes who produced an activity.
type Sender struct {
	Role FlexibleRole `json:"role,omitempty"`
	Name string       `json:"name,omitempty"`
}

// Conversation carries the conversation identifier.
type Conversation struct {
	ID string `json:"id,omitempty"`
}

// ChannelData carries the webchat ordering hint and the fallback
// received-at instant (epoch milliseconds). PositionSet distinguishes an
// explicit position 0 from an absent hint, so the transcript normalizer
// only synthesizes positions for activities that carry none.
type ChannelData struct {
	Position    int
	PositionSet bool
	ReceivedAt  float64
}

func (c *ChannelData) UnmarshalJSON(data []byte) error {
	var raw struct {
		Position   *int    `json:"webchat:internal:position"`
		ReceivedAt float64 `json:"webchat:internal:received-at"`
	}
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Position != nil {
		c.Position = *raw.Position
		c.PositionSet = true
	}
	c.ReceivedAt = raw.ReceivedAt
	return nil
}

// FlexibleRole accepts either a string role ("user", "bot") or the numeric
// role codes used by transcript exports. Numeric codes are kept verbatim
// ("0", "1"); the transcript normalizer maps them to role names.
type FlexibleRole string

func (r *FlexibleRole) UnmarshalJSON(data []byte) error {
	var s string
	if err := sonic.Unmarshal(data, &s); err == nil {
		*r = FlexibleRole(s)
		return nil
	}

	var n float64
	if err := sonic.Unmarshal(data, &n); err == nil {
		*r = FlexibleRole(strconv.FormatFloat(n, 'f', -1, 64))
		return nil
	}

	return fmt.Errorf("role must be either string or number")
}

// FlexibleTime accepts either an ISO timestamp string or an epoch-seconds
// number. Epoch values are kept raw; the transcript normalizer converts
// them to ISO strings before the timeline ever sees them.
type FlexibleTime struct {
	Raw   string
	Epoch float64
}

func (t *FlexibleTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := sonic.Unmarshal(data, &s); err == nil {
		t.Raw = s
		return nil
	}

	var n float64
	if err := sonic.Unmarshal(data, &n); err == nil {
		t.Epoch = n
		return nil
	}

	return fmt.Errorf("timestamp must be either string or number")
}

func (t FlexibleTime) MarshalJSON() ([]byte, error) {
	if t.Raw != "" {
		return sonic.Marshal(t.Raw)
	}
	if t.Epoch != 0 {
		return sonic.Marshal(t.Epoch)
	}
	return []byte(`""`), nil
}

// Attachment is a card-like structure on a message activity.
type Attachment struct {
	ContentType string      `json:"contentType,omitempty"`
	Content     CardContent `json:"content,omitempty"`
}

// CardContent is the body of an Adaptive Card attachment.
type CardContent struct {
	Body []CardElement `json:"body,omitempty"`
}

// CardElement is one node of an Adaptive Card body tree. Containers nest
// children under items, columns, or body.
type CardElement struct {
	Type    string        `json:"type,omitempty"`
	Text    string        `json:"text,omitempty"`
	Items   []CardElement `json:"items,omitempty"`
	Columns []CardElement `json:"columns,omitempty"`
	Body    []CardElement `json:"body,omitempty"`
}

// ActivityPayload is the merged shape of every nested value payload the
// trace exports carry. Which fields are populated depends on the activity's
// inner value-type tag; unknown fields are ignored and absent fields stay
// zero.
type ActivityPayload struct {
	// DynamicPlanReceived
	Steps []string `json:"steps,omitempty"`
	// DynamicPlanReceived / DynamicPlanStepTriggered / DynamicPlanStepFinished
	PlanIdentifier string `json:"planIdentifier,omitempty"`
	// DynamicPlanFinished
	PlanID       string `json:"planId,omitempty"`
	WasCancelled bool   `json:"wasCancelled,omitempty"`
	// DynamicPlanReceivedDebug
	Ask string `json:"ask,omitempty"`
	// Step records
	TaskDialogID string         `json:"taskDialogId,omitempty"`
	Type         string         `json:"type,omitempty"`
	StepID       string         `json:"stepId,omitempty"`
	State        string         `json:"state,omitempty"`
	Error        *FlexibleError `json:"error,omitempty"`
	// DialogTracingInfo
	Actions []TraceAction `json:"actions,omitempty"`
	// UniversalSearchToolTraceData
	KnowledgeSources []string `json:"knowledgeSources,omitempty"`
	// Error events and traces
	ErrorCode FlexibleString `json:"ErrorCode,omitempty"`
	// VariableAssignment
	ID       string `json:"id,omitempty"`
	NewValue any    `json:"newValue,omitempty"`
	// DialogRedirect
	TargetDialogID string `json:"targetDialogId,omitempty"`
	// SessionInfo / ConversationInfo (transcript exports)
	StartTimeUTC   string `json:"startTimeUtc,omitempty"`
	EndTimeUTC     string `json:"endTimeUtc,omitempty"`
	Outcome        string `json:"outcome,omitempty"`
	OutcomeReason  string `json:"outcomeReason,omitempty"`
	TurnCount      *int   `json:"turnCount,omitempty"`
	ImpliedSuccess *bool  `json:"impliedSuccess,omitempty"`
}

// TraceAction is one sub-action inside a DialogTracingInfo payload.
type TraceAction struct {
	TopicID    string `json:"topicId,omitempty"`
	ActionType string `json:"actionType,omitempty"`
	Exception  string `json:"exception,omitempty"`
}

// FlexibleError accepts either an error object carrying a message or a bare
// string, and exposes a single message either way.
type FlexibleError struct {
	Message string `json:"message,omitempty"`
}

func (e *FlexibleError) UnmarshalJSON(data []byte) error {
	type errorObject FlexibleError
	var obj errorObject
	if err := sonic.Unmarshal(data, &obj); err == nil {
		*e = FlexibleError(obj)
		return nil
	}

	var s string
	if err := sonic.Unmarshal(data, &s); err == nil {
		e.Message = s
		return nil
	}

	return fmt.Errorf("error must be either object or string")
}

// FlexibleString accepts a string, number, or boolean and keeps its text
// form. Error codes show up as both strings and numbers across exports.
type FlexibleString string

func (s *FlexibleString) UnmarshalJSON(data []byte) error {
	var str string
	if err := sonic.Unmarshal(data, &str); err == nil {
		*s = FlexibleString(str)
		return nil
	}

	var v any
	if err := sonic.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*s = ""
		return nil
	}
	*s = FlexibleString(fmt.Sprintf("%v", v))
	return nil
}
