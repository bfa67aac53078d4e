package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStatementExport renders a statement file.
	TaskStatementExport = "statement:export"
)

// StatementExportPayload describes one export request.
type StatementExportPayload struct {
	ExportID    string `json:"export_id"`
	PartyID     int64  `json:"party_id"`
	From        string `json:"from"`
	To          string `json:"to"`
	Format      string `json:"format"`
	Opening     string `json:"opening,omitempty"`
	RequestedBy int64  `json:"requested_by"`
}

// NewStatementExportTask constructs an Asynq task. The export id doubles as
// the task id so a retried enqueue cannot duplicate work.
func NewStatementExportTask(payload StatementExportPayload) (*asynq.Task, error) {
	if payload.ExportID == "" {
		return nil, fmt.Errorf("jobs: statement export without id")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatementExport, data, asynq.TaskID(payload.ExportID), asynq.MaxRetry(3)), nil
}

// ParseStatementExportPayload decodes a task payload. Decoding errors wrap
// asynq.SkipRetry since retrying cannot fix them.
func ParseStatementExportPayload(t *asynq.Task) (StatementExportPayload, error) {
	var payload StatementExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("jobs: decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	if payload.ExportID == "" || payload.PartyID <= 0 {
		return payload, fmt.Errorf("jobs: incomplete %s payload: %w", t.Type(), asynq.SkipRetry)
	}
	return payload, nil
}
