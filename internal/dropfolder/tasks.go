// Package dropfolder processes documents deposited in a local folder
// outside the live conversation, running the same extraction, assembly and
// publishing pipeline with placeholder metadata.
package dropfolder

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskScan = "dropfolder.scan"

const TaskProcessFile = "dropfolder.process"

// ProcessFilePayload identifies one deposited file to run through the
// pipeline.
type ProcessFilePayload struct {
	Path string `json:"path"`
}

// NewScanTask builds the periodic folder-scan task.
func NewScanTask() *asynq.Task {
	return asynq.NewTask(TaskScan, nil)
}

// NewProcessFileTask builds a per-file pipeline task.
func NewProcessFileTask(payload ProcessFilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProcessFile, data), nil
}

// ParseProcessFilePayload decodes a per-file task payload.
func ParseProcessFilePayload(task *asynq.Task) (ProcessFilePayload, error) {
	var payload ProcessFilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ProcessFilePayload{}, err
	}
	return payload, nil
}
