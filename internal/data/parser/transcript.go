package parser

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"

	"github.com/botscope/botscope/internal/core/model"
	"github.com/botscope/botscope/internal/core/timeline"
	"github.com/botscope/botscope/internal/util"
)

// TranscriptMetadata carries the session and conversation records a
// transcript export embeds as trace events.
type TranscriptMetadata struct {
	Session      *SessionInfo
	Conversation *model.ActivityPayload
}

// SessionInfo summarises one recorded session.
type SessionInfo struct {
	StartTimeUTC   string
	EndTimeUTC     string
	Type           string
	Outcome        string
	OutcomeReason  string
	TurnCount      *int
	ImpliedSuccess *bool
}

type transcriptExport struct {
	Activities []model.Activity `json:"activities"`
}

// ParseTranscriptFile reads a transcript export and normalizes it into the
// activity contract the timeline engine expects:
//
//  1. numeric role codes 0/1 become "bot"/"user"
//  2. epoch-second timestamps become ISO strings
//  3. activities without a position hint get a synthetic one from their
//     array index
//  4. a missing valueType is defaulted from the name field
//  5. SessionInfo / ConversationInfo trace events are lifted into metadata
func ParseTranscriptFile(path string) ([]model.Activity, *TranscriptMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	var export transcriptExport
	if err := sonic.Unmarshal(data, &export); err != nil {
		return nil, nil, fmt.Errorf("failed to parse transcript %s: %w", path, err)
	}

	metadata := &TranscriptMetadata{}
	activities := export.Activities

	for idx := range activities {
		activity := &activities[idx]

		switch activity.From.Role {
		case "0":
			activity.From.Role = "bot"
		case "1":
			activity.From.Role = "user"
		}

		if activity.Timestamp.Raw == "" && activity.Timestamp.Epoch > 0 {
			activity.Timestamp.Raw = timeline.EpochSecondsToISO(activity.Timestamp.Epoch)
			activity.Timestamp.Epoch = 0
		}

		if !activity.ChannelData.PositionSet {
			activity.ChannelData.Position = idx * 1000
			activity.ChannelData.PositionSet = true
		}

		if activity.ValueType == "" && activity.Name != "" {
			activity.ValueType = activity.Name
		}

		switch activity.ValueType {
		case "SessionInfo":
			metadata.Session = &SessionInfo{
				StartTimeUTC:   activity.Value.StartTimeUTC,
				EndTimeUTC:     activity.Value.EndTimeUTC,
				Type:           activity.Value.Type,
				Outcome:        activity.Value.Outcome,
				OutcomeReason:  activity.Value.OutcomeReason,
				TurnCount:      activity.Value.TurnCount,
				ImpliedSuccess: activity.Value.ImpliedSuccess,
			}
		case "ConversationInfo":
			value := activity.Value
			metadata.Conversation = &value
		}
	}

	util.LogDebugf("Transcript %s: %d activities", path, len(activities))
	return activities, metadata, nil
}
