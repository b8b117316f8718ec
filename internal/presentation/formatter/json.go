package formatter

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"

	"github.com/botscope/botscope/internal/core/model"
)

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format writes the timeline to stdout as indented JSON.
func (f *JSONFormatter) Format(tl *model.ConversationTimeline) error {
	data, err := sonic.MarshalIndent(tl, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode timeline: %w", err)
	}
	data = append(data, '\n')
	_, err = os.Stdout.Write(data)
	return err
}
