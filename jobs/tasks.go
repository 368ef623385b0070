package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRefDataWarm reloads the cached reference data snapshot.
	TaskRefDataWarm = "refdata:warm"
)

// warmUniqueTTL collapses bursts of invalidations into one warm run.
const warmUniqueTTL = 30 * time.Second

// RefDataWarmPayload describes why a warm run was requested.
type RefDataWarmPayload struct {
	Reason string `json:"reason"`
}

// NewRefDataWarmTask constructs the warm task.
func NewRefDataWarmTask(reason string) (*asynq.Task, error) {
	if reason == "" {
		reason = "manual"
	}
	data, err := json.Marshal(RefDataWarmPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRefDataWarm, data), nil
}
