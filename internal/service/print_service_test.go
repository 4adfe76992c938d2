package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"receipt-service/internal/escpos"
	"receipt-service/internal/model"
	"receipt-service/internal/printer"
	"receipt-service/internal/transport"
)

// memoryJobRepo is an in-memory JobRepository for service tests
type memoryJobRepo struct {
	mutex sync.Mutex
	jobs  map[uuid.UUID]*model.PrintJob
}

func newMemoryJobRepo() *memoryJobRepo {
	return &memoryJobRepo{jobs: make(map[uuid.UUID]*model.PrintJob)}
}

func (r *memoryJobRepo) Create(ctx context.Context, job *model.PrintJob) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *memoryJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, errors.New("print job not found")
	}
	copied := *job
	return &copied, nil
}

func (r *memoryJobRepo) Update(ctx context.Context, job *model.PrintJob) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		return errors.New("print job not found")
	}
	copied := *job
	r.jobs[job.ID] = &copied
	return nil
}

func (r *memoryJobRepo) List(ctx context.Context, limit, offset int) ([]*model.PrintJob, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	jobs := make([]*model.PrintJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		copied := *job
		jobs = append(jobs, &copied)
	}
	return jobs, nil
}

func (r *memoryJobRepo) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	return 0, nil
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mutex  sync.Mutex
	events []model.PrinterEvent
}

func (p *recordingPublisher) Publish(event model.PrinterEvent) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []model.EventType {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	types := make([]model.EventType, len(p.events))
	for i, event := range p.events {
		types[i] = event.EventType
	}
	return types
}

// scriptedLink succeeds until write N, then fails every write
type scriptedLink struct {
	writes       int
	failFrom     int // 1-based write index, 0 disables
	disconnected chan struct{}
}

func newScriptedLink() *scriptedLink {
	return &scriptedLink{disconnected: make(chan struct{})}
}

func (l *scriptedLink) WriteChunk(ctx context.Context, chunk []byte) error {
	l.writes++
	if l.failFrom > 0 && l.writes >= l.failFrom {
		return errors.New("device rejected write")
	}
	return nil
}

func (l *scriptedLink) ChunkLimit() int               { return 512 }
func (l *scriptedLink) IsConnected() bool             { return true }
func (l *scriptedLink) Disconnected() <-chan struct{} { return l.disconnected }
func (l *scriptedLink) Close() error                  { return nil }

func testReceipt() *model.Receipt {
	return &model.Receipt{
		Header: "ACME OFFICE",
		Date:   time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC),
		Items: []model.ReceiptItem{
			{Name: "Envelopes", Price: decimal.NewFromFloat(3.25)},
		},
	}
}

func newTestService(link *scriptedLink, repo *memoryJobRepo, events *recordingPublisher) *PrintService {
	logger := zap.NewNop()
	p := printer.New(link, escpos.PaperNarrow, logger)
	return NewPrintService(p, repo, events, model.ConnectionTypeBluetooth, 10*time.Second, logger)
}

func TestPrintSuccessIsJournaled(t *testing.T) {
	repo := newMemoryJobRepo()
	events := &recordingPublisher{}
	svc := newTestService(newScriptedLink(), repo, events)

	job, err := svc.Print(context.Background(), testReceipt(), model.DefaultFormatPolicy())

	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, model.JobStatusSuccess, job.Status)
	assert.True(t, job.IsCompleted())
	assert.Greater(t, job.CommandCount, 0)
	assert.Nil(t, job.FailedCommand)
	assert.Nil(t, job.ErrorKind)
	require.NotNil(t, job.CompletedAt)

	stored, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusSuccess, stored.Status)

	assert.Equal(t, []model.EventType{model.EventJobStarted, model.EventJobCompleted}, events.types())
}

func TestPrintFailureRecordsFailedCommand(t *testing.T) {
	link := newScriptedLink()
	link.failFrom = 4 // first three commands deliver, the fourth fails
	repo := newMemoryJobRepo()
	events := &recordingPublisher{}
	svc := newTestService(link, repo, events)

	job, err := svc.Print(context.Background(), testReceipt(), model.DefaultFormatPolicy())

	require.Error(t, err)
	require.NotNil(t, job)
	assert.Equal(t, model.JobStatusFailed, job.Status)

	require.NotNil(t, job.FailedCommand)
	assert.Equal(t, 3, *job.FailedCommand)

	require.NotNil(t, job.ErrorKind)
	assert.Equal(t, ErrorKindChunkWrite, *job.ErrorKind)
	require.NotNil(t, job.ErrorMessage)

	stored, getErr := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, getErr)
	assert.Equal(t, model.JobStatusFailed, stored.Status)

	assert.Equal(t, []model.EventType{model.EventJobStarted, model.EventJobFailed}, events.types())
}

func TestPrintRejectsInvalidReceipt(t *testing.T) {
	repo := newMemoryJobRepo()
	events := &recordingPublisher{}
	svc := newTestService(newScriptedLink(), repo, events)

	t.Run("MissingHeader", func(t *testing.T) {
		receipt := testReceipt()
		receipt.Header = ""

		job, err := svc.Print(context.Background(), receipt, model.DefaultFormatPolicy())

		assert.Error(t, err)
		assert.Nil(t, job)
	})

	t.Run("NoItems", func(t *testing.T) {
		receipt := testReceipt()
		receipt.Items = nil

		job, err := svc.Print(context.Background(), receipt, model.DefaultFormatPolicy())

		assert.Error(t, err)
		assert.Nil(t, job)
	})

	// Nothing was journaled and no events fired
	assert.Empty(t, repo.jobs)
	assert.Empty(t, events.events)
}

func TestClassifyError(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected string
	}{
		{"NotConnected", transport.ErrNotConnected, ErrorKindNotConnected},
		{"Disconnected", transport.ErrDisconnected, ErrorKindDisconnected},
		{"JobInFlight", printer.ErrJobInFlight, ErrorKindJobInFlight},
		{
			"ChunkWrite",
			&transport.ChunkWriteError{Chunk: 2, Err: errors.New("rejected")},
			ErrorKindChunkWrite,
		},
		{
			"WrappedInSequence",
			&transport.SequenceError{Index: 1, Err: transport.ErrDisconnected},
			ErrorKindDisconnected,
		},
		{"Unknown", errors.New("boom"), ErrorKindInternal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ClassifyError(tc.err))
		})
	}
}
