// Package render turns parsed bot profiles and reconstructed timelines into
// Markdown reports with embedded Mermaid diagrams.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/botscope/botscope/internal/core/model"
	"github.com/botscope/botscope/internal/data/parser"
)

// BotProfile renders the report heading and the AI configuration section.
func BotProfile(profile *model.BotProfile) string {
	lines := []string{fmt.Sprintf("# %s\n", profile.DisplayName)}

	if gpt := profile.GptInfo; gpt != nil {
		lines = append(lines,
			"## AI Configuration\n",
			"| Property | Value |",
			"| --- | --- |",
		)
		if gpt.ModelHint != "" {
			lines = append(lines, fmt.Sprintf("| Model | %s |", gpt.ModelHint))
		}
		if gpt.KnowledgeSourcesKind != "" {
			lines = append(lines, fmt.Sprintf("| Knowledge Sources | %s |", gpt.KnowledgeSourcesKind))
		}
		lines = append(lines,
			fmt.Sprintf("| Web Browsing | %v |", gpt.WebBrowsing),
			fmt.Sprintf("| Code Interpreter | %v |", gpt.CodeInterpreter),
			"",
		)
		if gpt.Description != "" {
			lines = append(lines, fmt.Sprintf("**Description:** %s\n", gpt.Description))
		}
		if gpt.Instructions != "" {
			lines = append(lines,
				fmt.Sprintf("**System Instructions** (%d chars):\n", len(gpt.Instructions)),
				fmt.Sprintf("```\n%s\n```", gpt.Instructions),
				"",
			)
		}
	}

	return strings.Join(lines, "\n")
}

// BotMetadata renders the bot profile metadata table.
func BotMetadata(profile *model.BotProfile) string {
	channels := "None configured"
	if len(profile.Channels) > 0 {
		channels = strings.Join(profile.Channels, ", ")
	}
	orchestrator := "No"
	if profile.IsOrchestrator {
		orchestrator = "Yes"
	}

	lines := []string{
		"## Bot Profile\n",
		"| Property | Value |",
		"| --- | --- |",
		fmt.Sprintf("| Schema Name | `%s` |", profile.SchemaName),
		fmt.Sprintf("| Bot ID | `%s` |", profile.BotID),
		fmt.Sprintf("| Channels | %s |", channels),
		fmt.Sprintf("| Recognizer | %s |", profile.RecognizerKind),
		fmt.Sprintf("| Orchestrator | %s |", orchestrator),
		fmt.Sprintf("| Use Model Knowledge | %v |", profile.AISettings.UseModelKnowledge),
		fmt.Sprintf("| File Analysis | %v |", profile.AISettings.FileAnalysis),
		fmt.Sprintf("| Semantic Search | %v |", profile.AISettings.SemanticSearch),
		fmt.Sprintf("| Content Moderation | %s |", profile.AISettings.ContentModeration),
		"",
	}
	return strings.Join(lines, "\n")
}

// Components renders the component inventory grouped by kind.
func Components(profile *model.BotProfile) string {
	byKind := make(map[string][]model.ComponentSummary)
	for _, comp := range profile.Components {
		byKind[comp.Kind] = append(byKind[comp.Kind], comp)
	}
	kinds := make([]string, 0, len(byKind))
	for kind := range byKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	total := len(profile.Components)
	active := 0
	for _, comp := range profile.Components {
		if comp.State == "Active" {
			active++
		}
	}

	lines := []string{
		"## Components\n",
		fmt.Sprintf("**%d** components total — **%d** active, **%d** inactive\n", total, active, total-active),
		"| Kind | Count | Active | Inactive |",
		"| --- | --- | --- | --- |",
	}
	for _, kind := range kinds {
		comps := byKind[kind]
		kindActive := 0
		for _, comp := range comps {
			if comp.State == "Active" {
				kindActive++
			}
		}
		lines = append(lines, fmt.Sprintf("| %s | %d | %d | %d |", kind, len(comps), kindActive, len(comps)-kindActive))
	}
	lines = append(lines, "")

	for _, kind := range kinds {
		comps := byKind[kind]
		lines = append(lines,
			fmt.Sprintf("### %s (%d)\n", kind, len(comps)),
			"| Name | Schema | State | Trigger | Dialog Kind |",
			"| --- | --- | --- | --- | --- |",
		)
		for _, comp := range comps {
			trigger := comp.TriggerKind
			if trigger == "" {
				trigger = "—"
			}
			dialog := comp.DialogKind
			if dialog == "" {
				dialog = "—"
			}
			lines = append(lines, fmt.Sprintf("| %s | `%s` | %s | %s | %s |",
				comp.DisplayName, comp.SchemaName, comp.State, trigger, dialog))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// Timeline renders the conversation trace section: metadata table, diagrams,
// phase breakdown, event log, and errors. skipDiagrams suppresses the Mermaid
// blocks when the caller has already emitted them.
func Timeline(timeline *model.ConversationTimeline, skipDiagrams bool) string {
	if len(timeline.Events) == 0 {
		return "## Conversation Trace\n\nNo dialog events recorded.\n"
	}

	userQuery := timeline.UserQuery
	if userQuery == "" {
		userQuery = "N/A"
	}

	lines := []string{
		"## Conversation Trace\n",
		"| Property | Value |",
		"| --- | --- |",
		fmt.Sprintf("| Bot Name | %s |", timeline.BotName),
		fmt.Sprintf("| Conversation ID | `%s` |", timeline.ConversationID),
		fmt.Sprintf("| User Query | %s |", userQuery),
		fmt.Sprintf("| Total Elapsed | %s |", FormatDuration(timeline.TotalElapsedMs)),
		"",
	}

	if !skipDiagrams {
		if hasSequenceContent(timeline) {
			lines = append(lines, MermaidSequence(timeline))
		}
		if gantt := GanttChart(timeline); gantt != "" {
			lines = append(lines, gantt)
		}
	}

	if len(timeline.Phases) > 0 {
		lines = append(lines, PhaseBreakdown(timeline))
	}

	lines = append(lines, EventLog(timeline))

	if len(timeline.Errors) > 0 {
		lines = append(lines, Errors(timeline))
	}

	return strings.Join(lines, "\n")
}

func hasSequenceContent(timeline *model.ConversationTimeline) bool {
	if len(timeline.Phases) > 0 {
		return true
	}
	for _, event := range timeline.Events {
		if event.EventType == model.EventStepTriggered || event.EventType == model.EventUserMessage {
			return true
		}
	}
	return false
}

// PhaseBreakdown renders the per-phase duration table.
func PhaseBreakdown(timeline *model.ConversationTimeline) string {
	lines := []string{
		"### Phase Breakdown\n",
		"| Phase | Type | Duration | % of Total | Status |",
		"| --- | --- | --- | --- | --- |",
	}

	for _, phase := range timeline.Phases {
		status := "✓"
		if phase.State != "completed" {
			status = "✗ " + phase.State
		}
		lines = append(lines, fmt.Sprintf("| %s | %s | %s | %s | %s |",
			phase.Label, phase.PhaseType,
			FormatDuration(phase.DurationMs),
			pct(phase.DurationMs, timeline.TotalElapsedMs),
			status))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// EventLog renders the chronological event table.
func EventLog(timeline *model.ConversationTimeline) string {
	lines := []string{
		"### Event Log\n",
		"| # | Position | Type | Summary |",
		"| --- | --- | --- | --- |",
	}

	for i, event := range timeline.Events {
		summary := strings.ReplaceAll(event.Summary, "\n", " ")
		summary = strings.ReplaceAll(summary, "|", `\|`)
		summary = truncate(summary, 100)
		lines = append(lines, fmt.Sprintf("| %d | %d | %s | %s |", i+1, event.Position, event.EventType, summary))
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// Errors renders the collected error list.
func Errors(timeline *model.ConversationTimeline) string {
	lines := []string{"### Errors\n"}
	for _, err := range timeline.Errors {
		lines = append(lines, "- "+err)
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// Report renders the complete Markdown report for one bot export: profile,
// execution diagrams, metadata, components, topic graph, and the trace.
func Report(profile *model.BotProfile, timeline *model.ConversationTimeline) string {
	sections := []string{BotProfile(profile)}

	// Execution diagrams sit at the top so the flow is visible before the
	// inventory tables.
	if len(timeline.Events) > 0 {
		if hasSequenceContent(timeline) {
			sections = append(sections, MermaidSequence(timeline))
		}
		if gantt := GanttChart(timeline); gantt != "" {
			sections = append(sections, gantt)
		}
	}

	sections = append(sections, BotMetadata(profile), Components(profile))

	if graph := TopicGraph(profile); graph != "" {
		sections = append(sections, graph)
	}

	sections = append(sections, Timeline(timeline, true))

	return strings.Join(sections, "\n")
}

// TranscriptReport renders the Markdown report for a recorded transcript,
// which carries session metadata but no bot definition.
func TranscriptReport(title string, timeline *model.ConversationTimeline, metadata *parser.TranscriptMetadata) string {
	sections := []string{fmt.Sprintf("# %s\n", title)}

	if metadata != nil && metadata.Session != nil {
		session := metadata.Session
		lines := []string{"## Session Summary\n", "| Property | Value |", "| --- | --- |"}
		if session.StartTimeUTC != "" {
			lines = append(lines, fmt.Sprintf("| Start Time | %s |", session.StartTimeUTC))
		}
		if session.EndTimeUTC != "" {
			lines = append(lines, fmt.Sprintf("| End Time | %s |", session.EndTimeUTC))
		}
		if session.Type != "" {
			lines = append(lines, fmt.Sprintf("| Session Type | %s |", session.Type))
		}
		if session.Outcome != "" {
			lines = append(lines, fmt.Sprintf("| Outcome | %s |", session.Outcome))
		}
		if session.OutcomeReason != "" {
			lines = append(lines, fmt.Sprintf("| Outcome Reason | %s |", session.OutcomeReason))
		}
		if session.TurnCount != nil {
			lines = append(lines, fmt.Sprintf("| Turn Count | %d |", *session.TurnCount))
		}
		if session.ImpliedSuccess != nil {
			lines = append(lines, fmt.Sprintf("| Implied Success | %v |", *session.ImpliedSuccess))
		}
		lines = append(lines, "")
		sections = append(sections, strings.Join(lines, "\n"))
	}

	sections = append(sections, Timeline(timeline, false))

	return strings.Join(sections, "\n")
}
