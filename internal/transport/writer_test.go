package transport

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeLink records chunk writes and can be scripted to fail or drop the
// connection at a given write
type fakeLink struct {
	limit        int
	connected    bool
	disconnected chan struct{}

	chunks  [][]byte
	failAt  int   // fail on the Nth write (1-based), 0 disables
	failErr error // error returned at failAt
	dropAt  int   // drop the link after the Nth successful write, 0 disables
}

func newFakeLink(limit int) *fakeLink {
	return &fakeLink{
		limit:        limit,
		connected:    true,
		disconnected: make(chan struct{}),
		failErr:      errors.New("write rejected"),
	}
}

func (l *fakeLink) WriteChunk(ctx context.Context, chunk []byte) error {
	if !l.connected {
		return errors.New("link is down")
	}
	if len(chunk) > l.limit {
		return fmt.Errorf("chunk of %d bytes exceeds limit %d", len(chunk), l.limit)
	}

	if l.failAt > 0 && len(l.chunks)+1 == l.failAt {
		return l.failErr
	}

	copied := make([]byte, len(chunk))
	copy(copied, chunk)
	l.chunks = append(l.chunks, copied)

	if l.dropAt > 0 && len(l.chunks) == l.dropAt {
		l.drop()
	}
	return nil
}

func (l *fakeLink) drop() {
	if l.connected {
		l.connected = false
		close(l.disconnected)
	}
}

func (l *fakeLink) ChunkLimit() int                 { return l.limit }
func (l *fakeLink) IsConnected() bool               { return l.connected }
func (l *fakeLink) Disconnected() <-chan struct{}   { return l.disconnected }
func (l *fakeLink) Close() error                    { l.drop(); return nil }

func (l *fakeLink) written() []byte {
	var all []byte
	for _, chunk := range l.chunks {
		all = append(all, chunk...)
	}
	return all
}

func makeBuffer(size int) []byte {
	buffer := make([]byte, size)
	for i := range buffer {
		buffer[i] = byte(i % 251)
	}
	return buffer
}

func TestSendFragmentsToChunkLimit(t *testing.T) {
	testCases := []struct {
		name           string
		limit          int
		bufferSize     int
		expectedChunks int
	}{
		{"ExactFit", 512, 512, 1},
		{"OneOver", 512, 513, 2},
		{"Small", 512, 42, 1},
		{"Multiple", 20, 100, 5},
		{"Remainder", 20, 101, 6},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			link := newFakeLink(tc.limit)
			writer := NewWriter(link, zap.NewNop())
			buffer := makeBuffer(tc.bufferSize)

			err := writer.Send(context.Background(), buffer)

			require.NoError(t, err)
			require.Len(t, link.chunks, tc.expectedChunks)
			for _, chunk := range link.chunks {
				assert.LessOrEqual(t, len(chunk), tc.limit)
			}
			// Concatenated chunks reproduce the buffer exactly
			assert.Equal(t, buffer, link.written())
		})
	}
}

func TestSendNotConnected(t *testing.T) {
	link := newFakeLink(512)
	link.connected = false // closed on our side, no device drop signal
	writer := NewWriter(link, zap.NewNop())

	err := writer.Send(context.Background(), []byte("data"))

	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Empty(t, link.chunks)
}

func TestSendAfterDeviceDrop(t *testing.T) {
	link := newFakeLink(512)
	link.drop()
	writer := NewWriter(link, zap.NewNop())

	err := writer.Send(context.Background(), []byte("data"))

	assert.ErrorIs(t, err, ErrDisconnected)
	assert.Empty(t, link.chunks)
}

func TestSendChunkWriteFailure(t *testing.T) {
	link := newFakeLink(10)
	link.failAt = 3
	writer := NewWriter(link, zap.NewNop())

	err := writer.Send(context.Background(), makeBuffer(45))

	var chunkErr *ChunkWriteError
	require.ErrorAs(t, err, &chunkErr)
	assert.Equal(t, 2, chunkErr.Chunk)
	// The two chunks before the failure went out, nothing after
	assert.Len(t, link.chunks, 2)
}

func TestSendDisconnectMidBuffer(t *testing.T) {
	link := newFakeLink(10)
	link.dropAt = 2
	writer := NewWriter(link, zap.NewNop())

	err := writer.Send(context.Background(), makeBuffer(50))

	assert.ErrorIs(t, err, ErrDisconnected)
	// No writes after the link dropped
	assert.Len(t, link.chunks, 2)
}

func TestSendSequenceDelivery(t *testing.T) {
	link := newFakeLink(512)
	writer := NewWriter(link, zap.NewNop())

	// Init, AlignCenter, text, Feed as a typical short job
	buffers := [][]byte{
		{0x1B, 0x40},
		{0x1B, 0x61, 0x01},
		[]byte("HELLO"),
		{0x0A},
	}

	err := writer.SendSequence(context.Background(), buffers)

	require.NoError(t, err)
	require.Len(t, link.chunks, 4)
	for i, buffer := range buffers {
		assert.Equal(t, buffer, link.chunks[i])
	}
}

func TestSendSequenceStopsAtFirstFailure(t *testing.T) {
	link := newFakeLink(512)
	link.failAt = 2
	writer := NewWriter(link, zap.NewNop())

	buffers := [][]byte{
		[]byte("AAAA"),
		[]byte("BBBB"),
		[]byte("CCCC"),
	}

	err := writer.SendSequence(context.Background(), buffers)

	var seqErr *SequenceError
	require.ErrorAs(t, err, &seqErr)
	assert.Equal(t, 1, seqErr.Index)

	// A was written, B failed, C was never attempted
	require.Len(t, link.chunks, 1)
	assert.Equal(t, []byte("AAAA"), link.chunks[0])
}

func TestSendSequenceDisconnectBetweenCommands(t *testing.T) {
	link := newFakeLink(512)
	link.dropAt = 2
	writer := NewWriter(link, zap.NewNop())

	buffers := [][]byte{
		[]byte("one"),
		[]byte("two"),
		[]byte("three"),
		[]byte("four"),
		[]byte("five"),
	}

	err := writer.SendSequence(context.Background(), buffers)

	var seqErr *SequenceError
	require.ErrorAs(t, err, &seqErr)
	assert.Equal(t, 2, seqErr.Index)
	assert.ErrorIs(t, err, ErrDisconnected)
	assert.Len(t, link.chunks, 2)
}

func TestSendSequenceEmpty(t *testing.T) {
	link := newFakeLink(512)
	writer := NewWriter(link, zap.NewNop())

	err := writer.SendSequence(context.Background(), nil)

	assert.NoError(t, err)
	assert.Empty(t, link.chunks)
}

func TestSendCancelledContext(t *testing.T) {
	link := newFakeLink(512)
	writer := NewWriter(link, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := writer.Send(ctx, []byte("data"))

	var chunkErr *ChunkWriteError
	require.ErrorAs(t, err, &chunkErr)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, link.chunks)
}

func TestNewWriterFallsBackOnBadLimit(t *testing.T) {
	link := newFakeLink(0)
	link.limit = 1024 // accept anything; only the reported limit is broken

	writer := NewWriter(&zeroLimitLink{link}, zap.NewNop())

	err := writer.Send(context.Background(), makeBuffer(600))

	require.NoError(t, err)
	// Fragmented at the 512 default, not sent whole
	assert.Len(t, link.chunks, 2)
}

// zeroLimitLink reports a nonsensical chunk limit
type zeroLimitLink struct {
	*fakeLink
}

func (l *zeroLimitLink) ChunkLimit() int { return 0 }
