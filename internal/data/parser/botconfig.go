package parser

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/botscope/botscope/internal/core/model"
	"github.com/botscope/botscope/internal/core/timeline"
	"github.com/botscope/botscope/internal/util"
)

// botContent mirrors the parts of the exported bot definition the analyser
// consumes. Exports carry much more; unknown keys are ignored.
type botContent struct {
	Entity struct {
		SchemaName    string `yaml:"schemaName"`
		DisplayName   string `yaml:"displayName"`
		CdsBotID      string `yaml:"cdsBotId"`
		Configuration struct {
			Channels []struct {
				ChannelID string `yaml:"channelId"`
			} `yaml:"channels"`
			AISettings struct {
				UseModelKnowledge     bool   `yaml:"useModelKnowledge"`
				IsFileAnalysisEnabled bool   `yaml:"isFileAnalysisEnabled"`
				IsSemanticSearch      bool   `yaml:"isSemanticSearchEnabled"`
				ContentModeration     string `yaml:"contentModeration"`
				OptInUseLatestModels  bool   `yaml:"optInUseLatestModels"`
			} `yaml:"aISettings"`
			Recognizer struct {
				Kind string `yaml:"kind"`
			} `yaml:"recognizer"`
		} `yaml:"configuration"`
	} `yaml:"entity"`
	Components []componentNode `yaml:"components"`
}

type componentNode struct {
	Kind        string       `yaml:"kind"`
	DisplayName string       `yaml:"displayName"`
	SchemaName  string       `yaml:"schemaName"`
	State       string       `yaml:"state"`
	Description string       `yaml:"description"`
	Dialog      dialogNode   `yaml:"dialog"`
	Metadata    metadataNode `yaml:"metadata"`
}

type dialogNode struct {
	Kind        string          `yaml:"kind"`
	BeginDialog beginDialogNode `yaml:"beginDialog"`
	Action      struct {
		Kind string `yaml:"kind"`
	} `yaml:"action"`
}

type beginDialogNode struct {
	Kind    string       `yaml:"kind"`
	Actions []actionNode `yaml:"actions"`
}

// actionNode is one node of the recursive dialog action tree. The dialog
// and condition fields vary in shape across exports, so they stay raw
// nodes and are read as scalars when they are scalars.
type actionNode struct {
	Kind        string          `yaml:"kind"`
	Dialog      yaml.Node       `yaml:"dialog"`
	Conditions  []conditionNode `yaml:"conditions"`
	Actions     []actionNode    `yaml:"actions"`
	ElseActions []actionNode    `yaml:"elseActions"`
}

type conditionNode struct {
	Condition yaml.Node    `yaml:"condition"`
	Actions   []actionNode `yaml:"actions"`
}

type metadataNode struct {
	DisplayName  string `yaml:"displayName"`
	Instructions string `yaml:"instructions"`
	AISettings   struct {
		Model struct {
			ModelNameHint string `yaml:"modelNameHint"`
		} `yaml:"model"`
	} `yaml:"aISettings"`
	GptCapabilities struct {
		WebBrowsing     bool `yaml:"webBrowsing"`
		CodeInterpreter bool `yaml:"codeInterpreter"`
	} `yaml:"gptCapabilities"`
	KnowledgeSources struct {
		Kind string `yaml:"kind"`
	} `yaml:"knowledgeSources"`
}

var (
	bareAtKey   = regexp.MustCompile(`(?m)^(\s*)(@[a-zA-Z0-9_.]+)(\s*:)`)
	bareAtValue = regexp.MustCompile(`(?m)(:\s+)(@[^\n]+)$`)
)

// sanitizeYAML fixes constructs the exports contain that a YAML parser
// rejects: tab indentation and bare @-prefixed keys or values.
func sanitizeYAML(text string) string {
	text = strings.ReplaceAll(text, "\t", "    ")
	text = bareAtKey.ReplaceAllString(text, `$1"$2"$3`)
	text = bareAtValue.ReplaceAllString(text, `$1"$2"`)
	return text
}

func scalarValue(node yaml.Node) string {
	if node.Kind == yaml.ScalarNode {
		return node.Value
	}
	return ""
}

// ParseBotConfig parses an exported bot definition into a BotProfile plus
// the schema-name to display-name lookup the timeline engine consumes.
func ParseBotConfig(path string) (*model.BotProfile, map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read bot definition: %w", err)
	}

	var content botContent
	if err := yaml.Unmarshal([]byte(sanitizeYAML(string(raw))), &content); err != nil {
		return nil, nil, fmt.Errorf("failed to parse bot definition %s: %w", path, err)
	}

	config := content.Entity.Configuration

	channels := make([]string, 0, len(config.Channels))
	for _, ch := range config.Channels {
		channels = append(channels, ch.ChannelID)
	}

	recognizerKind := config.Recognizer.Kind
	if recognizerKind == "" {
		recognizerKind = "Unknown"
	}
	contentModeration := config.AISettings.ContentModeration
	if contentModeration == "" {
		contentModeration = "Unknown"
	}

	components := make([]model.ComponentSummary, 0, len(content.Components))
	lookup := make(map[string]string)
	isOrchestrator := false

	for _, comp := range content.Components {
		kind := comp.Kind
		if kind == "" {
			kind = "Unknown"
		}
		state := comp.State
		if state == "" {
			state = "Active"
		}
		displayName := comp.DisplayName

		triggerKind := comp.Dialog.BeginDialog.Kind
		actionKind := ""
		if comp.Dialog.Kind == "TaskDialog" || comp.Dialog.Kind == "AgentDialog" {
			isOrchestrator = true
			actionKind = comp.Dialog.Action.Kind
		}

		if kind == "GptComponent" && displayName == "" {
			displayName = comp.Metadata.DisplayName
			if displayName == "" {
				displayName = comp.SchemaName
			}
		}

		components = append(components, model.ComponentSummary{
			Kind:        kind,
			DisplayName: displayName,
			SchemaName:  comp.SchemaName,
			State:       state,
			TriggerKind: triggerKind,
			DialogKind:  comp.Dialog.Kind,
			ActionKind:  actionKind,
			Description: comp.Description,
		})

		if comp.SchemaName != "" && displayName != "" {
			lookup[comp.SchemaName] = displayName
		}
	}

	// Prefer the entity display name, then the GPT component's, then the
	// entity schema name.
	botDisplayName := content.Entity.DisplayName
	if botDisplayName == "" {
		for _, comp := range components {
			if comp.Kind == "GptComponent" {
				botDisplayName = comp.DisplayName
				break
			}
		}
	}
	if botDisplayName == "" {
		botDisplayName = content.Entity.SchemaName
	}
	if botDisplayName == "" {
		botDisplayName = "Unknown Bot"
	}

	var gptInfo *model.GptInfo
	var topicConnections []model.TopicConnection

	for _, comp := range content.Components {
		if comp.Kind == "GptComponent" && gptInfo == nil {
			gptInfo = extractGptInfo(comp)
		}

		if comp.Kind == "DialogComponent" {
			sourceDisplay := lookup[comp.SchemaName]
			if sourceDisplay == "" {
				sourceDisplay = comp.DisplayName
			}
			if sourceDisplay == "" {
				sourceDisplay = comp.SchemaName
			}
			topicConnections = append(topicConnections, extractBeginDialogs(
				comp.Dialog.BeginDialog.Actions, comp.SchemaName, sourceDisplay, lookup, "")...)
		}
	}

	profile := &model.BotProfile{
		SchemaName:  content.Entity.SchemaName,
		BotID:       content.Entity.CdsBotID,
		DisplayName: botDisplayName,
		Channels:    channels,
		AISettings: model.AISettings{
			UseModelKnowledge: config.AISettings.UseModelKnowledge,
			FileAnalysis:      config.AISettings.IsFileAnalysisEnabled,
			SemanticSearch:    config.AISettings.IsSemanticSearch,
			ContentModeration: contentModeration,
			OptInLatestModels: config.AISettings.OptInUseLatestModels,
		},
		RecognizerKind:   recognizerKind,
		Components:       components,
		IsOrchestrator:   isOrchestrator,
		GptInfo:          gptInfo,
		TopicConnections: topicConnections,
	}

	util.LogDebugf("Bot definition %s: %d components, %d topic connections",
		path, len(components), len(topicConnections))
	return profile, lookup, nil
}

func extractGptInfo(comp componentNode) *model.GptInfo {
	displayName := comp.Metadata.DisplayName
	if displayName == "" {
		displayName = comp.DisplayName
	}

	return &model.GptInfo{
		DisplayName:          displayName,
		Description:          comp.Description,
		Instructions:         comp.Metadata.Instructions,
		ModelHint:            comp.Metadata.AISettings.Model.ModelNameHint,
		KnowledgeSourcesKind: comp.Metadata.KnowledgeSources.Kind,
		WebBrowsing:          comp.Metadata.GptCapabilities.WebBrowsing,
		CodeInterpreter:      comp.Metadata.GptCapabilities.CodeInterpreter,
	}
}

// extractBeginDialogs walks a dialog action tree and collects BeginDialog
// edges, carrying condition expressions down through ConditionGroup arms.
func extractBeginDialogs(actions []actionNode, sourceSchema, sourceDisplay string, lookup map[string]string, condition string) []model.TopicConnection {
	var connections []model.TopicConnection

	for _, action := range actions {
		switch action.Kind {
		case "BeginDialog":
			if targetSchema := scalarValue(action.Dialog); targetSchema != "" {
				targetDisplay := lookup[targetSchema]
				if targetDisplay == "" {
					targetDisplay = timeline.ResolveTopicName(targetSchema, nil)
				}
				connections = append(connections, model.TopicConnection{
					SourceSchema:  sourceSchema,
					SourceDisplay: sourceDisplay,
					TargetSchema:  targetSchema,
					TargetDisplay: targetDisplay,
					Condition:     condition,
				})
			}

		case "ConditionGroup":
			for _, cond := range action.Conditions {
				connections = append(connections, extractBeginDialogs(
					cond.Actions, sourceSchema, sourceDisplay, lookup, scalarValue(cond.Condition))...)
			}
			connections = append(connections, extractBeginDialogs(
				action.ElseActions, sourceSchema, sourceDisplay, lookup, "else")...)
			continue
		}

		// Other action kinds can nest further actions.
		if action.Kind != "ConditionGroup" {
			connections = append(connections, extractBeginDialogs(
				action.Actions, sourceSchema, sourceDisplay, lookup, condition)...)
			connections = append(connections, extractBeginDialogs(
				action.ElseActions, sourceSchema, sourceDisplay, lookup, condition)...)
		}
	}

	return connections
}
