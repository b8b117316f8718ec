package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/botscope/botscope/internal/data/parser"
	"github.com/botscope/botscope/internal/lint"
	"github.com/botscope/botscope/internal/util"
)

var lintAPIKey string

var lintCmd = &cobra.Command{
	Use:   "lint PATH",
	Short: "Audit a bot's instructions and topology with an LLM",
	Long: `lint sends the bot definition (instructions, components, topic graph) to
the OpenAI API and writes a structured audit report.

The API key is read from --api-key or the OPENAI_API_KEY environment
variable.`,
	Args: cobra.ExactArgs(1),
	RunE: runLint,
}

func init() {
	lintCmd.Flags().StringVar(&lintAPIKey, "api-key", "", "OpenAI API key (defaults to OPENAI_API_KEY)")
	rootCmd.AddCommand(lintCmd)
}

func runLint(cmd *cobra.Command, args []string) error {
	initLogging()

	apiKey := lintAPIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set --api-key or OPENAI_API_KEY")
	}

	folder := expandPath(args[0])
	profile, _, err := parser.ParseBotConfig(filepath.Join(folder, "botContent.yml"))
	if err != nil {
		return err
	}

	report, modelID, err := lint.Run(cmd.Context(), profile, apiKey)
	if err != nil {
		return err
	}

	output := filepath.Join(folder, "lint_report.md")
	if err := os.WriteFile(output, []byte(report), 0644); err != nil {
		return fmt.Errorf("failed to write lint report: %w", err)
	}
	util.LogInfo(fmt.Sprintf("Lint report (%s) written to %s", modelID, output))
	return nil
}
