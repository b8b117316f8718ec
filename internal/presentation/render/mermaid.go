package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/botscope/botscope/internal/core/model"
	"github.com/botscope/botscope/internal/core/timeline"
)

const (
	topicGraphMaxBytes = 40_000
	topicGraphMaxNodes = 80
	ganttMinDurationMs = 50
)

// MermaidSequence renders the execution flow as a Mermaid sequence diagram.
// Knowledge-source steps collapse onto one shared participant so retrieval
// traffic reads as a single lane.
func MermaidSequence(tl *model.ConversationTimeline) string {
	lines := []string{"### Execution Flow\n", "```mermaid", "sequenceDiagram"}

	ksStepIDs := make(map[string]bool)
	ksTopics := make(map[string]bool)
	hasKS := false
	for _, event := range tl.Events {
		if event.EventType == model.EventKnowledgeSearch {
			hasKS = true
		}
		if event.EventType == model.EventStepTriggered && strings.Contains(event.Summary, "KnowledgeSource") {
			if event.StepID != "" {
				ksStepIDs[event.StepID] = true
			}
			if event.TopicName != "" {
				ksTopics[event.TopicName] = true
			}
			hasKS = true
		}
	}

	// Participant order matters in sequence diagrams, so keep insertion
	// order rather than a map.
	type participant struct {
		id      string
		display string
	}
	participants := []participant{
		{"User", "User"},
		{"AI", "AI Recognizer"},
	}
	known := map[string]bool{"User": true, "AI": true}

	for _, phase := range tl.Phases {
		if ksTopics[phase.Label] {
			continue
		}
		pid := participantID(phase.Label)
		if !known[pid] {
			known[pid] = true
			participants = append(participants, participant{pid, phase.Label})
		}
	}
	if hasKS {
		known["KS"] = true
		participants = append(participants, participant{"KS", "Knowledge Search"})
	}

	for _, p := range participants {
		if p.id == p.display {
			lines = append(lines, "    participant "+p.id)
		} else {
			lines = append(lines, fmt.Sprintf("    participant %s as %s", p.id, p.display))
		}
	}

	for _, event := range tl.Events {
		switch event.EventType {
		case model.EventUserMessage:
			msg := sanitizeMermaid(strings.Replace(event.Summary, "User: ", "", 1))
			lines = append(lines, "    User->>AI: "+msg)

		case model.EventPlanReceived:
			lines = append(lines, "    Note over AI: "+sanitizeMermaid(event.Summary))

		case model.EventStepTriggered:
			topic := event.TopicName
			if topic == "" {
				topic = "Unknown"
			}
			pid := participantID(topic)
			if strings.Contains(event.Summary, "KnowledgeSource") {
				pid = "KS"
			}
			lines = append(lines, fmt.Sprintf("    AI->>%s: Execute %s", pid, sanitizeMermaid(topic)))

		case model.EventKnowledgeSearch:
			lines = append(lines, "    Note over KS: "+sanitizeMermaid(event.Summary))

		case model.EventStepFinished:
			topic := event.TopicName
			if topic == "" {
				topic = "Unknown"
			}
			pid := participantID(topic)
			if ksStepIDs[event.StepID] {
				pid = "KS"
			}
			for _, phase := range tl.Phases {
				if phase.Label == topic && phase.DurationMs > 0 {
					icon := "✓"
					if phase.State != "completed" {
						icon = "✗"
					}
					lines = append(lines, fmt.Sprintf("    Note over %s: %s %s (%s)",
						pid, icon, FormatDuration(phase.DurationMs), pct(phase.DurationMs, tl.TotalElapsedMs)))
					break
				}
			}
			arrow := "->>"
			if event.State == "failed" {
				arrow = "-->>"
			}
			state := event.State
			if state == "" {
				state = "done"
			}
			lines = append(lines, fmt.Sprintf("    %s%sAI: %s", pid, arrow, state))

		case model.EventBotMessage:
			msg := sanitizeMermaid(strings.Replace(event.Summary, "Bot: ", "", 1))
			lines = append(lines, "    AI->>User: "+msg)

		case model.EventError:
			lines = append(lines, "    Note over AI: ⚠ "+sanitizeMermaid(event.Summary))
		}
	}

	lines = append(lines, "```", "")
	return strings.Join(lines, "\n")
}

func ganttLabel(event model.TimelineEvent) string {
	switch event.EventType {
	case model.EventUserMessage:
		return "User message"
	case model.EventBotMessage:
		return "Bot response"
	case model.EventPlanReceived:
		return "Plan received"
	case model.EventPlanFinished:
		return "Plan finished"
	case model.EventStepTriggered:
		return "Step: " + orUnknown(event.TopicName)
	case model.EventStepFinished:
		return "Done: " + orUnknown(event.TopicName)
	case model.EventKnowledgeSearch:
		return "Knowledge search"
	case model.EventError:
		return "Error: " + clip(event.Summary, 40)
	case model.EventDialogTracing:
		return "Dialog trace"
	}
	if label := clip(event.Summary, 40); label != "" {
		return label
	}
	return "Event"
}

func ganttSection(event model.TimelineEvent) string {
	switch event.EventType {
	case model.EventUserMessage:
		return "User"
	case model.EventBotMessage:
		return "Bot"
	case model.EventPlanReceived, model.EventPlanReceivedDebug, model.EventPlanFinished:
		return "Orchestrator"
	case model.EventKnowledgeSearch:
		return "Knowledge"
	case model.EventError:
		return "Errors"
	}
	if event.TopicName != "" {
		return event.TopicName
	}
	return "System"
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func clip(s string, limit int) string {
	runes := []rune(s)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return s
}

// GanttChart renders the event sequence as a Mermaid Gantt chart. Events
// without a parseable timestamp are left out; each bar runs to the next
// event, widened to a display minimum.
func GanttChart(tl *model.ConversationTimeline) string {
	if len(tl.Events) == 0 {
		return ""
	}

	type timedEvent struct {
		epochMs int64
		event   model.TimelineEvent
	}
	var timed []timedEvent
	for _, event := range tl.Events {
		if t, ok := timeline.ParseTimestamp(event.Timestamp); ok {
			timed = append(timed, timedEvent{t.UnixMilli(), event})
		}
	}
	if len(timed) == 0 {
		return ""
	}
	sort.SliceStable(timed, func(i, j int) bool { return timed[i].epochMs < timed[j].epochMs })

	lines := []string{
		"### Execution Gantt\n",
		"```mermaid",
		"gantt",
		"    dateFormat x",
		"    axisFormat %M:%S",
		fmt.Sprintf("    title %s — Execution Timeline", sanitizeMermaid(tl.BotName)),
	}

	currentSection := ""
	for i, te := range timed {
		endMs := te.epochMs + ganttMinDurationMs
		if i+1 < len(timed) {
			next := timed[i+1].epochMs
			if next-te.epochMs >= ganttMinDurationMs {
				endMs = next
			}
		}

		section := ganttSection(te.event)
		if section != currentSection {
			lines = append(lines, "    section "+section)
			currentSection = section
		}

		crit := ""
		if te.event.State == "failed" || te.event.EventType == model.EventError {
			crit = "crit, "
		}
		label := sanitizeMermaid(ganttLabel(te.event))
		duration := FormatDuration(float64(endMs - te.epochMs))
		lines = append(lines, fmt.Sprintf("    %s (%s) :%se%d, %d, %d", label, duration, crit, i, te.epochMs, endMs))
	}

	lines = append(lines, "```", "")
	return strings.Join(lines, "\n")
}

type topicEdge struct {
	src       string
	tgt       string
	condition string
}

// TopicGraph renders the BeginDialog connections as a Mermaid flowchart.
// Large bots get truncated to the most-connected nodes so the diagram stays
// renderable.
func TopicGraph(profile *model.BotProfile) string {
	if len(profile.TopicConnections) == 0 {
		return ""
	}

	nodes := make(map[string]string)
	var edges []topicEdge
	seen := make(map[[2]string]int)

	for _, conn := range profile.TopicConnections {
		srcID := participantID(conn.SourceDisplay)
		tgtID := participantID(conn.TargetDisplay)
		nodes[srcID] = conn.SourceDisplay
		nodes[tgtID] = conn.TargetDisplay

		key := [2]string{srcID, tgtID}
		if _, ok := seen[key]; !ok {
			seen[key] = 1
			edges = append(edges, topicEdge{srcID, tgtID, conn.Condition})
			continue
		}
		// Multiple conditions between the same pair: drop the label.
		seen[key]++
		for i := range edges {
			if edges[i].src == srcID && edges[i].tgt == tgtID {
				edges[i].condition = ""
				break
			}
		}
	}

	truncated := false
	if len(nodes) > topicGraphMaxNodes {
		connectionCount := make(map[string]int, len(nodes))
		for _, edge := range edges {
			connectionCount[edge.src]++
			connectionCount[edge.tgt]++
		}
		ranked := make([]string, 0, len(nodes))
		for nid := range nodes {
			ranked = append(ranked, nid)
		}
		sort.Slice(ranked, func(i, j int) bool {
			if connectionCount[ranked[i]] != connectionCount[ranked[j]] {
				return connectionCount[ranked[i]] > connectionCount[ranked[j]]
			}
			return ranked[i] < ranked[j]
		})
		keep := make(map[string]bool, topicGraphMaxNodes)
		for _, nid := range ranked[:topicGraphMaxNodes] {
			keep[nid] = true
		}
		for nid := range nodes {
			if !keep[nid] {
				delete(nodes, nid)
			}
		}
		kept := edges[:0]
		for _, edge := range edges {
			if keep[edge.src] && keep[edge.tgt] {
				kept = append(kept, edge)
			}
		}
		edges = kept
		truncated = true
	}

	sortedIDs := make([]string, 0, len(nodes))
	for nid := range nodes {
		sortedIDs = append(sortedIDs, nid)
	}
	sort.Strings(sortedIDs)

	lines := []string{"## Topic Connection Graph\n", "```mermaid", "graph TD"}
	if truncated {
		lines = append(lines, fmt.Sprintf("    %%%% Diagram truncated to %d most-connected nodes", topicGraphMaxNodes))
	}
	for _, nid := range sortedIDs {
		lines = append(lines, fmt.Sprintf("    %s[%s]", nid, sanitizeMermaid(nodes[nid])))
	}
	for _, edge := range edges {
		lines = append(lines, edgeLine(edge))
	}
	lines = append(lines, "```", "")

	result := strings.Join(lines, "\n")
	if len(result) <= topicGraphMaxBytes {
		return result
	}

	// Still too big: keep every node but only as many edges as fit.
	trimmed := []string{"## Topic Connection Graph\n", "```mermaid", "graph TD",
		"    %% Diagram truncated to fit size limit"}
	for _, nid := range sortedIDs {
		trimmed = append(trimmed, fmt.Sprintf("    %s[%s]", nid, sanitizeMermaid(nodes[nid])))
	}
	budget := topicGraphMaxBytes - len(strings.Join(trimmed, "\n")) - 50
	for _, edge := range edges {
		line := edgeLine(edge)
		budget -= len(line) + 1
		if budget < 0 {
			break
		}
		trimmed = append(trimmed, line)
	}
	trimmed = append(trimmed, "```", "")
	return strings.Join(trimmed, "\n")
}

func edgeLine(edge topicEdge) string {
	if edge.condition != "" {
		return fmt.Sprintf("    %s -->|%s| %s", edge.src, sanitizeMermaid(edge.condition), edge.tgt)
	}
	return fmt.Sprintf("    %s --> %s", edge.src, edge.tgt)
}
