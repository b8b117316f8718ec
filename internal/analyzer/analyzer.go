// Package analyzer drives the batch analysis of bot export folders.
package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/botscope/botscope/internal/core/model"
	"github.com/botscope/botscope/internal/core/timeline"
	"github.com/botscope/botscope/internal/data/parser"
	"github.com/botscope/botscope/internal/presentation/formatter"
	"github.com/botscope/botscope/internal/presentation/render"
	"github.com/botscope/botscope/internal/util"
)

type Config struct {
	Path         string // export folder, or a parent folder with All
	All          bool
	OutputPath   string // custom report path, single-folder mode only
	OutputFormat string // markdown (default, writes report.md), table, json
}

type Analyzer struct {
	config *Config
}

func New(config *Config) *Analyzer {
	if config.OutputFormat == "" {
		config.OutputFormat = "markdown"
	}
	return &Analyzer{config: config}
}

func (a *Analyzer) Run() error {
	start := time.Now()

	path, err := filepath.Abs(a.config.Path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %s", path)
	}

	if a.config.All {
		err = a.runAll(path)
	} else {
		if !info.IsDir() {
			return fmt.Errorf("not a directory: %s", path)
		}
		err = a.processFolder(path, a.config.OutputPath)
	}

	util.LogDebugf("Analysis finished in %v", time.Since(start))
	return err
}

// AnalyzeFolder parses one export folder and reconstructs its timeline.
// Shared by the batch driver, the watch loop, and the web surface.
func AnalyzeFolder(folder string) (*model.BotProfile, *model.ConversationTimeline, error) {
	yamlPath := filepath.Join(folder, "botContent.yml")
	jsonPath := filepath.Join(folder, "dialog.json")

	if _, err := os.Stat(yamlPath); err != nil {
		return nil, nil, fmt.Errorf("botContent.yml not found in %s", folder)
	}
	if _, err := os.Stat(jsonPath); err != nil {
		return nil, nil, fmt.Errorf("dialog.json not found in %s", folder)
	}

	profile, lookup, err := parser.ParseBotConfig(yamlPath)
	if err != nil {
		return nil, nil, err
	}
	util.LogInfo(fmt.Sprintf("Bot: %s (%d components)", profile.DisplayName, len(profile.Components)))

	activities, err := parser.ParseDialogFile(jsonPath)
	if err != nil {
		return nil, nil, err
	}
	util.LogInfo(fmt.Sprintf("Dialog: %d activities", len(activities)))

	tl := timeline.Build(activities, lookup)
	util.LogInfo(fmt.Sprintf("Timeline: %d events, %d phases, %d errors",
		len(tl.Events), len(tl.Phases), len(tl.Errors)))

	return profile, tl, nil
}

// AnalyzeTranscript parses one recorded transcript and reconstructs its
// timeline. Transcripts carry no bot definition, so topic names stay raw.
func AnalyzeTranscript(path string) (*model.ConversationTimeline, *parser.TranscriptMetadata, error) {
	activities, metadata, err := parser.ParseTranscriptFile(path)
	if err != nil {
		return nil, nil, err
	}

	tl := timeline.Build(activities, nil)
	util.LogInfo(fmt.Sprintf("Timeline: %d events, %d phases, %d errors",
		len(tl.Events), len(tl.Phases), len(tl.Errors)))

	return tl, metadata, nil
}

func (a *Analyzer) processFolder(folder, output string) error {
	util.LogInfo(fmt.Sprintf("Parsing %s...", filepath.Base(folder)))

	profile, tl, err := AnalyzeFolder(folder)
	if err != nil {
		return err
	}

	switch a.config.OutputFormat {
	case "table":
		return formatter.NewTableFormatter().Format(tl)
	case "json":
		return formatter.NewJSONFormatter().Format(tl)
	default:
		report := render.Report(profile, tl)
		if output == "" {
			output = filepath.Join(folder, "report.md")
		}
		if err := os.WriteFile(output, []byte(report), 0644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		util.LogInfo("Report written to " + output)
		return nil
	}
}

func (a *Analyzer) processTranscript(path string) error {
	util.LogInfo(fmt.Sprintf("Parsing transcript %s...", filepath.Base(path)))

	tl, metadata, err := AnalyzeTranscript(path)
	if err != nil {
		return err
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	report := render.TranscriptReport(title, tl, metadata)

	output := strings.TrimSuffix(path, filepath.Ext(path)) + ".md"
	if err := os.WriteFile(output, []byte(report), 0644); err != nil {
		return fmt.Errorf("failed to write transcript report: %w", err)
	}
	util.LogInfo("Transcript report written to " + output)
	return nil
}

// runAll walks every export subfolder of root, then any Transcripts
// directory. A failing folder is logged and skipped; the batch never aborts.
func (a *Analyzer) runAll(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", root, err)
	}

	var folders []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		folder := filepath.Join(root, entry.Name())
		if _, err := os.Stat(filepath.Join(folder, "botContent.yml")); err == nil {
			folders = append(folders, folder)
		}
	}
	if len(folders) == 0 {
		return fmt.Errorf("no bot export folders found in %s", root)
	}

	util.LogInfo(fmt.Sprintf("Found %d bot export folders", len(folders)))
	for _, folder := range folders {
		if err := a.processFolder(folder, ""); err != nil {
			util.LogError(fmt.Sprintf("Failed to process %s: %v", filepath.Base(folder), err))
		}
	}

	transcriptsDir := filepath.Join(root, "Transcripts")
	if info, err := os.Stat(transcriptsDir); err == nil && info.IsDir() {
		files, _ := filepath.Glob(filepath.Join(transcriptsDir, "*.json"))
		sort.Strings(files)
		if len(files) > 0 {
			util.LogInfo(fmt.Sprintf("Found %d transcript files", len(files)))
			for _, file := range files {
				if err := a.processTranscript(file); err != nil {
					util.LogError(fmt.Sprintf("Failed to process transcript %s: %v", filepath.Base(file), err))
				}
			}
		}
	}

	util.LogInfo("All done.")
	return nil
}
