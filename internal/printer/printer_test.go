package printer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"receipt-service/internal/escpos"
	"receipt-service/internal/model"
	"receipt-service/internal/transport"
)

// stubLink collects everything written to it. An optional gate blocks each
// write so tests can hold a job in flight.
type stubLink struct {
	mutex        sync.Mutex
	written      []byte
	writes       int
	disconnected chan struct{}
	gate         chan struct{}
	started      chan struct{}
	startedOnce  sync.Once
	failAlways   error
}

func newStubLink() *stubLink {
	return &stubLink{
		disconnected: make(chan struct{}),
		started:      make(chan struct{}),
	}
}

func (l *stubLink) WriteChunk(ctx context.Context, chunk []byte) error {
	l.startedOnce.Do(func() { close(l.started) })
	if l.gate != nil {
		<-l.gate
	}
	if l.failAlways != nil {
		return l.failAlways
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.written = append(l.written, chunk...)
	l.writes++
	return nil
}

func (l *stubLink) ChunkLimit() int               { return 512 }
func (l *stubLink) IsConnected() bool             { return true }
func (l *stubLink) Disconnected() <-chan struct{} { return l.disconnected }
func (l *stubLink) Close() error                  { return nil }

func TestPrintDeliversFullReceipt(t *testing.T) {
	link := newStubLink()
	p := New(link, escpos.PaperNarrow, zap.NewNop())

	count, err := p.Print(context.Background(), sampleReceipt(), model.DefaultFormatPolicy())

	require.NoError(t, err)
	expected := len(BuildReceipt(sampleReceipt(), escpos.PaperNarrow, model.DefaultFormatPolicy()))
	assert.Equal(t, expected, count)
	assert.Equal(t, expected, link.writes)

	// Initialize comes first on the wire
	require.GreaterOrEqual(t, len(link.written), 2)
	assert.Equal(t, []byte{0x1B, 0x40}, link.written[:2])
}

func TestPrintRejectsConcurrentJob(t *testing.T) {
	link := newStubLink()
	link.gate = make(chan struct{})
	p := New(link, escpos.PaperNarrow, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := p.Print(context.Background(), sampleReceipt(), model.DefaultFormatPolicy())
		done <- err
	}()

	// Wait until the first job holds the link
	select {
	case <-link.started:
	case <-time.After(time.Second):
		t.Fatal("first job never started writing")
	}

	_, err := p.Print(context.Background(), sampleReceipt(), model.DefaultFormatPolicy())
	assert.ErrorIs(t, err, ErrJobInFlight)

	close(link.gate)
	require.NoError(t, <-done)

	// Link is free again after the first job finished
	_, err = p.Print(context.Background(), sampleReceipt(), model.DefaultFormatPolicy())
	assert.NoError(t, err)
}

func TestPrintSurfacesTransportFailure(t *testing.T) {
	link := newStubLink()
	link.failAlways = errors.New("device rejected write")
	p := New(link, escpos.PaperNarrow, zap.NewNop())

	_, err := p.Print(context.Background(), sampleReceipt(), model.DefaultFormatPolicy())

	var seqErr *transport.SequenceError
	require.ErrorAs(t, err, &seqErr)
	// The very first command failed, nothing was delivered
	assert.Equal(t, 0, seqErr.Index)
	assert.Equal(t, 0, link.writes)
}
