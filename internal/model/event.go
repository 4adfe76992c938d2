// internal/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of printer event
type EventType string

const (
	EventPrinterConnected    EventType = "PRINTER_CONNECTED"
	EventPrinterDisconnected EventType = "PRINTER_DISCONNECTED"
	EventJobStarted          EventType = "JOB_STARTED"
	EventJobCompleted        EventType = "JOB_COMPLETED"
	EventJobFailed           EventType = "JOB_FAILED"
)

// PrinterEvent is broadcast to websocket subscribers as printer and job
// state changes
type PrinterEvent struct {
	ID        uuid.UUID  `json:"id"`
	EventType EventType  `json:"event_type"`
	JobID     *uuid.UUID `json:"job_id,omitempty"`
	Data      JSONObject `json:"data,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewPrinterEvent creates a timestamped event
func NewPrinterEvent(eventType EventType, jobID *uuid.UUID, data JSONObject) PrinterEvent {
	return PrinterEvent{
		ID:        uuid.New(),
		EventType: eventType,
		JobID:     jobID,
		Data:      data,
		Timestamp: time.Now(),
	}
}
