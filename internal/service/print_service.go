// internal/service/print_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"receipt-service/internal/model"
	"receipt-service/internal/printer"
	"receipt-service/internal/repository"
	"receipt-service/internal/transport"
	"receipt-service/internal/utils"
)

// Error kinds recorded in the job journal. They mirror the transport
// sentinels so a caller can tell "printer was never reachable" from
// "printer died mid-receipt" without parsing messages.
const (
	ErrorKindNotConnected = "LINK_NOT_CONNECTED"
	ErrorKindChunkWrite   = "CHUNK_WRITE_FAILED"
	ErrorKindDisconnected = "LINK_DISCONNECTED"
	ErrorKindJobInFlight  = "JOB_IN_FLIGHT"
	ErrorKindInternal     = "INTERNAL"
)

// EventPublisher broadcasts printer events to subscribers
type EventPublisher interface {
	Publish(event model.PrinterEvent)
}

// PrintService runs print jobs end to end: journal entry, rendering,
// transmission, outcome recording, events. A job that fails partway is
// recorded with the index of the failing command so the operator knows how
// much paper came out. Jobs are never retried automatically.
type PrintService struct {
	printer      *printer.Printer
	jobRepo      repository.JobRepository
	events       EventPublisher
	connType     model.ConnectionType
	logger       *zap.Logger
	writeTimeout time.Duration
}

// NewPrintService creates a new print service
func NewPrintService(
	p *printer.Printer,
	jobRepo repository.JobRepository,
	events EventPublisher,
	connType model.ConnectionType,
	writeTimeout time.Duration,
	logger *zap.Logger,
) *PrintService {
	return &PrintService{
		printer:      p,
		jobRepo:      jobRepo,
		events:       events,
		connType:     connType,
		logger:       logger.With(zap.String("service", "print")),
		writeTimeout: writeTimeout,
	}
}

// Print validates the receipt, journals a job, transmits it, and records
// the outcome. The returned job carries the terminal status; err is non-nil
// only when the transmission itself failed.
func (s *PrintService) Print(ctx context.Context, receipt *model.Receipt, policy model.FormatPolicy) (*model.PrintJob, error) {
	if err := receipt.Validate(); err != nil {
		return nil, fmt.Errorf("invalid receipt: %w", err)
	}

	job := &model.PrintJob{
		ID:             uuid.New(),
		Status:         model.JobStatusProcessing,
		Receipt:        receiptDocument(receipt),
		PaperProfile:   s.printer.Profile().String(),
		StartedAt:      time.Now(),
		ConnectionType: string(s.connType),
		CreatedAt:      time.Now(),
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to journal print job: %w", err)
	}

	jobLog := utils.NewJobLogger(s.logger, job.ID.String())
	jobLog.Start(zap.Int("items", len(receipt.Items)))
	s.publishEvent(model.EventJobStarted, job.ID, model.JSONObject{
		"paper_profile": job.PaperProfile,
	})

	printCtx := ctx
	if s.writeTimeout > 0 {
		var cancel context.CancelFunc
		printCtx, cancel = context.WithTimeout(ctx, s.writeTimeout)
		defer cancel()
	}

	count, printErr := s.printer.Print(printCtx, receipt, policy)
	job.CommandCount = count

	if printErr != nil {
		s.recordFailure(ctx, job, printErr)
		jobLog.Error(printErr, zap.Int("commands", count))
		return job, printErr
	}

	s.recordSuccess(ctx, job)
	jobLog.Success(zap.Int("commands", count))
	return job, nil
}

// GetJob returns a journal entry by ID
func (s *PrintService) GetJob(ctx context.Context, id uuid.UUID) (*model.PrintJob, error) {
	return s.jobRepo.GetByID(ctx, id)
}

// ListJobs returns recent journal entries, newest first
func (s *PrintService) ListJobs(ctx context.Context, limit, offset int) ([]*model.PrintJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.jobRepo.List(ctx, limit, offset)
}

// PurgeJobs deletes journal entries older than the given number of days
func (s *PrintService) PurgeJobs(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("retention days must be positive")
	}
	deleted, err := s.jobRepo.DeleteOlderThan(ctx, days)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("Purged old print jobs",
			zap.Int64("deleted", deleted),
			zap.Int("older_than_days", days),
		)
	}
	return deleted, nil
}

func (s *PrintService) recordSuccess(ctx context.Context, job *model.PrintJob) {
	now := time.Now()
	durationMs := int(now.Sub(job.StartedAt).Milliseconds())

	job.Status = model.JobStatusSuccess
	job.CompletedAt = &now
	job.DurationMs = &durationMs

	if err := s.jobRepo.Update(ctx, job); err != nil {
		s.logger.Error("Failed to record job success",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}

	s.publishEvent(model.EventJobCompleted, job.ID, model.JSONObject{
		"command_count": job.CommandCount,
		"duration_ms":   durationMs,
	})
}

func (s *PrintService) recordFailure(ctx context.Context, job *model.PrintJob, printErr error) {
	now := time.Now()
	durationMs := int(now.Sub(job.StartedAt).Milliseconds())
	kind := ClassifyError(printErr)
	message := printErr.Error()

	job.Status = model.JobStatusFailed
	job.CompletedAt = &now
	job.DurationMs = &durationMs
	job.ErrorKind = &kind
	job.ErrorMessage = &message

	var seqErr *transport.SequenceError
	if errors.As(printErr, &seqErr) {
		failed := seqErr.Index
		job.FailedCommand = &failed
	}

	if err := s.jobRepo.Update(ctx, job); err != nil {
		s.logger.Error("Failed to record job failure",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
	}

	data := model.JSONObject{
		"error_kind": kind,
		"error":      message,
	}
	if job.FailedCommand != nil {
		data["failed_command"] = *job.FailedCommand
	}
	s.publishEvent(model.EventJobFailed, job.ID, data)
}

func (s *PrintService) publishEvent(eventType model.EventType, jobID uuid.UUID, data model.JSONObject) {
	if s.events == nil {
		return
	}
	s.events.Publish(model.NewPrinterEvent(eventType, &jobID, data))
}

// ClassifyError maps a print failure onto a journal error kind
func ClassifyError(err error) string {
	switch {
	case errors.Is(err, printer.ErrJobInFlight):
		return ErrorKindJobInFlight
	case errors.Is(err, transport.ErrNotConnected):
		return ErrorKindNotConnected
	case errors.Is(err, transport.ErrDisconnected):
		return ErrorKindDisconnected
	default:
		var chunkErr *transport.ChunkWriteError
		if errors.As(err, &chunkErr) {
			return ErrorKindChunkWrite
		}
		return ErrorKindInternal
	}
}

// receiptDocument converts the receipt into a JSONB document for the
// journal, preserving the wire representation rather than Go field names
func receiptDocument(receipt *model.Receipt) model.JSONObject {
	raw, err := json.Marshal(receipt)
	if err != nil {
		return model.JSONObject{}
	}
	var doc model.JSONObject
	if err := json.Unmarshal(raw, &doc); err != nil {
		return model.JSONObject{}
	}
	return doc
}
