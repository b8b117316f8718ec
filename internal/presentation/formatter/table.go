// Package formatter prints reconstructed timelines to the terminal.
package formatter

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/botscope/botscope/internal/core/model"
	"github.com/botscope/botscope/internal/presentation/render"
)

const (
	minSummaryWidth  = 20
	defaultTermWidth = 120
)

type TableFormatter struct {
	phaseHeaders []string
	eventHeaders []string
}

func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		phaseHeaders: []string{"Phase", "Type", "Duration", "% of Total", "Status"},
		eventHeaders: []string{"#", "Position", "Type", "Summary"},
	}
}

// Format prints the conversation summary, the phase breakdown, and the event
// log as box-drawn tables.
func (f *TableFormatter) Format(tl *model.ConversationTimeline) error {
	fmt.Printf("Bot: %s\n", tl.BotName)
	fmt.Printf("Conversation: %s\n", tl.ConversationID)
	if tl.UserQuery != "" {
		fmt.Printf("User query: %s\n", tl.UserQuery)
	}
	fmt.Printf("Total elapsed: %s\n\n", render.FormatDuration(tl.TotalElapsedMs))

	if len(tl.Phases) > 0 {
		f.printPhases(tl)
		fmt.Println()
	}

	f.printEvents(tl)

	if len(tl.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range tl.Errors {
			fmt.Println("  - " + e)
		}
	}

	return nil
}

func (f *TableFormatter) printPhases(tl *model.ConversationTimeline) {
	rows := make([][]string, 0, len(tl.Phases))
	for _, phase := range tl.Phases {
		status := "ok"
		if phase.State != "completed" {
			status = phase.State
		}
		rows = append(rows, []string{
			phase.Label,
			phase.PhaseType,
			render.FormatDuration(phase.DurationMs),
			formatPct(phase.DurationMs, tl.TotalElapsedMs),
			status,
		})
	}
	printTable(f.phaseHeaders, rows, []bool{false, false, true, true, false})
}

func (f *TableFormatter) printEvents(tl *model.ConversationTimeline) {
	// Summary gets whatever width the terminal leaves after the fixed
	// columns; runewidth keeps wide characters from breaking the borders.
	typeWidth := runewidth.StringWidth(f.eventHeaders[2])
	for _, event := range tl.Events {
		if w := runewidth.StringWidth(string(event.EventType)); w > typeWidth {
			typeWidth = w
		}
	}
	summaryWidth := terminalWidth() - typeWidth - 30
	if summaryWidth < minSummaryWidth {
		summaryWidth = minSummaryWidth
	}

	rows := make([][]string, 0, len(tl.Events))
	for i, event := range tl.Events {
		summary := strings.ReplaceAll(event.Summary, "\n", " ")
		summary = runewidth.Truncate(summary, summaryWidth, "...")
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", event.Position),
			string(event.EventType),
			summary,
		})
	}
	printTable(f.eventHeaders, rows, []bool{true, true, false, false})
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return defaultTermWidth
}

func formatPct(part, total float64) string {
	if total <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", part/total*100)
}

// printTable renders one box-drawn table. rightAlign marks numeric columns.
func printTable(headers []string, rows [][]string, rightAlign []bool) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	printBorder(widths, "top")
	printRow(headers, widths, rightAlign)
	printBorder(widths, "middle")
	for _, row := range rows {
		printRow(row, widths, rightAlign)
	}
	printBorder(widths, "bottom")
}

func printBorder(widths []int, borderType string) {
	var left, middle, right string
	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	fmt.Print(left)
	for i, width := range widths {
		fmt.Print(strings.Repeat("─", width+2))
		if i < len(widths)-1 {
			fmt.Print(middle)
		}
	}
	fmt.Println(right)
}

func printRow(values []string, widths []int, rightAlign []bool) {
	fmt.Print("│")
	for i, value := range values {
		pad := widths[i] - runewidth.StringWidth(value)
		if pad < 0 {
			pad = 0
		}
		if rightAlign[i] {
			fmt.Printf(" %s%s │", strings.Repeat(" ", pad), value)
		} else {
			fmt.Printf(" %s%s │", value, strings.Repeat(" ", pad))
		}
	}
	fmt.Println()
}
