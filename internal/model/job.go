// internal/model/job.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ConnectionType represents how the printer is connected
type ConnectionType string

const (
	ConnectionTypeBluetooth ConnectionType = "BLUETOOTH"
	ConnectionTypeSerial    ConnectionType = "SERIAL"
	ConnectionTypeUSB       ConnectionType = "USB"
)

// JobStatus represents the status of a print job
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusSuccess    JobStatus = "SUCCESS"
	JobStatusFailed     JobStatus = "FAILED"
)

// PrintJob is the journal record of one receipt transmission. Success means
// every command buffer was handed to the transport; the printer offers no
// end-to-end acknowledgment beyond that.
type PrintJob struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Status         JobStatus  `json:"status" db:"status"`
	Receipt        JSONObject `json:"receipt" db:"receipt"`
	PaperProfile   string     `json:"paper_profile" db:"paper_profile"`
	CommandCount   int        `json:"command_count" db:"command_count"`
	FailedCommand  *int       `json:"failed_command,omitempty" db:"failed_command"`
	ErrorKind      *string    `json:"error_kind,omitempty" db:"error_kind"`
	ErrorMessage   *string    `json:"error_message,omitempty" db:"error_message"`
	StartedAt      time.Time  `json:"started_at" db:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	DurationMs     *int       `json:"duration_ms,omitempty" db:"duration_ms"`
	ConnectionType string     `json:"connection_type" db:"connection_type"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// IsCompleted checks if the job reached a terminal state
func (j *PrintJob) IsCompleted() bool {
	return j.Status == JobStatusSuccess || j.Status == JobStatusFailed
}

// JSONObject type for PostgreSQL JSONB columns
type JSONObject map[string]interface{}

func (j *JSONObject) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

func (j JSONObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}
