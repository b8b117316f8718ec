package commands

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/botscope/botscope/internal/analyzer"
	"github.com/botscope/botscope/internal/util"
)

var (
	// Logging related
	debug bool

	// Batch and output
	allFolders   bool
	outputPath   string
	outputFormat string

	rootCmd = &cobra.Command{
		Use:   "botscope [flags] PATH",
		Short: "Copilot Studio bot export analyser",
		Long: `botscope reconstructs conversation timelines from Copilot Studio bot
exports and generates Markdown reports with Mermaid diagrams.

PATH is a bot export folder containing botContent.yml and dialog.json, or a
parent folder when --all is given.

Examples:
  botscope ./exports/support-bot              # Analyse one export folder
  botscope --all ./exports                    # Analyse every subfolder plus Transcripts/
  botscope -o out.md ./exports/support-bot    # Custom report path
  botscope --format table ./exports/support-bot  # Terminal table instead of report.md
  botscope --format json ./exports/support-bot   # Timeline JSON on stdout`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyse,
	}
)

const defaultLogFile = "~/.botscope/logs/app.log"

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")

	rootCmd.Flags().BoolVarP(&allFolders, "all", "a", false,
		"Process all subfolders containing bot exports")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "",
		"Custom output path for the report (single-folder mode)")
	rootCmd.Flags().StringVar(&outputFormat, "format", "markdown",
		"Output format (markdown, table, json)")
}

func runAnalyse(cmd *cobra.Command, args []string) error {
	initLogging()

	config := &analyzer.Config{
		Path:         args[0],
		All:          allFolders,
		OutputPath:   outputPath,
		OutputFormat: outputFormat,
	}

	return analyzer.New(config).Run()
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func initLogging() {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}
	logFile := expandPath(defaultLogFile)
	ensureDir(filepath.Dir(logFile))
	util.InitLogger(logLevel, logFile, debug)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
