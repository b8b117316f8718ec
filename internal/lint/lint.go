// Package lint audits a bot's instructions and topology with an LLM.
package lint

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"github.com/botscope/botscope/internal/core/model"
	"github.com/botscope/botscope/internal/util"
)

// modelHintMap maps bot-definition model hints to OpenAI model IDs. One line
// per new hint as they show up in exports.
var modelHintMap = map[string]string{
	"GPT41":      "gpt-4.1",
	"GPT4o":      "gpt-4.1",
	"GPT4oMini":  "gpt-4.1-mini",
	"GPT35Turbo": "gpt-3.5-turbo",
}

const fallbackModel = "gpt-4.1"

// apiURL is a variable so tests can point it at a local server.
var apiURL = "https://api.openai.com/v1/chat/completions"

const requestTimeout = 120 * time.Second

// ResolveModel maps a model hint to an OpenAI model ID. The second return
// reports whether the fallback was used.
func ResolveModel(hint string) (string, bool) {
	if id, ok := modelHintMap[hint]; ok {
		return id, false
	}
	util.LogWarn(fmt.Sprintf("Unknown model hint %q, falling back to %s", hint, fallbackModel))
	return fallbackModel, true
}

type payload struct {
	BotName          string                   `json:"bot_name"`
	IsOrchestrator   bool                     `json:"is_orchestrator"`
	ModelHint        string                   `json:"model_hint,omitempty"`
	Instructions     string                   `json:"instructions,omitempty"`
	GptDescription   string                   `json:"gpt_description,omitempty"`
	Components       []model.ComponentSummary `json:"components"`
	TopicConnections []model.TopicConnection  `json:"topic_connections"`
}

// BuildPayload assembles the JSON document the LLM audits.
func BuildPayload(profile *model.BotProfile) ([]byte, error) {
	p := payload{
		BotName:          profile.DisplayName,
		IsOrchestrator:   profile.IsOrchestrator,
		Components:       profile.Components,
		TopicConnections: profile.TopicConnections,
	}
	if profile.GptInfo != nil {
		p.ModelHint = profile.GptInfo.ModelHint
		p.Instructions = profile.GptInfo.Instructions
		p.GptDescription = profile.GptInfo.Description
	}
	return sonic.MarshalIndent(p, "", "  ")
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Run audits the profile against the OpenAI chat-completions API and returns
// the Markdown report plus the model used.
func Run(ctx context.Context, profile *model.BotProfile, apiKey string) (string, string, error) {
	hint := ""
	if profile.GptInfo != nil {
		hint = profile.GptInfo.ModelHint
	}
	modelID, wasFallback := ResolveModel(hint)

	userContent, err := BuildPayload(profile)
	if err != nil {
		return "", "", fmt.Errorf("failed to build lint payload: %w", err)
	}

	body, err := sonic.Marshal(chatRequest{
		Model:       modelID,
		Temperature: 0.3,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(userContent)},
		},
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to encode lint request: %w", err)
	}

	util.LogInfo(fmt.Sprintf("Running lint with model %s (fallback=%v)", modelID, wasFallback))

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("lint request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("failed to read lint response: %w", err)
	}

	var parsed chatResponse
	if err := sonic.Unmarshal(data, &parsed); err != nil {
		return "", "", fmt.Errorf("failed to parse lint response: %w", err)
	}
	if parsed.Error != nil {
		return "", "", fmt.Errorf("lint API error: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("lint API returned status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", "", fmt.Errorf("lint API returned no choices")
	}

	fallbackNote := ""
	if wasFallback {
		fallbackNote = " (fallback, unknown model hint)"
	}
	header := fmt.Sprintf("> Lint performed by `%s`%s\n\n", modelID, fallbackNote)

	return header + parsed.Choices[0].Message.Content, modelID, nil
}
