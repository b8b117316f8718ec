package parser

import (
	"fmt"
	"os"
	"sort"

	"github.com/bytedance/sonic"

	"github.com/botscope/botscope/internal/core/model"
	"github.com/botscope/botscope/internal/util"
)

type dialogExport struct {
	Activities []model.Activity `json:"activities"`
}

// ParseDialogFile reads a dialog export and returns its activities ordered
// by the webchat position hint. The timeline engine relies on that order as
// chronological truth.
func ParseDialogFile(path string) ([]model.Activity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dialog export: %w", err)
	}

	var export dialogExport
	if err := sonic.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse dialog export %s: %w", path, err)
	}

	activities := export.Activities
	sort.SliceStable(activities, func(i, j int) bool {
		return activities[i].ChannelData.Position < activities[j].ChannelData.Position
	})

	util.LogDebugf("Dialog export %s: %d activities", path, len(activities))
	return activities, nil
}
