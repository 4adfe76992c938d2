package link

import (
	"context"
	"errors"
	"testing"

	"github.com/go-ble/ble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeGATTWriter stands in for a connected ble.Client
type fakeGATTWriter struct {
	writes       [][]byte
	writeErr     error
	disconnected chan struct{}
	cancelled    bool
}

func newFakeGATTWriter() *fakeGATTWriter {
	return &fakeGATTWriter{disconnected: make(chan struct{})}
}

func (w *fakeGATTWriter) WriteCharacteristic(c *ble.Characteristic, value []byte, noRsp bool) error {
	if w.writeErr != nil {
		return w.writeErr
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	w.writes = append(w.writes, copied)
	return nil
}

func (w *fakeGATTWriter) Disconnected() <-chan struct{} {
	return w.disconnected
}

func (w *fakeGATTWriter) CancelConnection() error {
	w.cancelled = true
	return nil
}

func testCharacteristic() *ble.Characteristic {
	return ble.NewCharacteristic(ble.UUID16(0x2AF1))
}

func TestNewBLELinkChunkLimit(t *testing.T) {
	testCases := []struct {
		name     string
		attMTU   int
		expected int
	}{
		{"NegotiatedMTU", 512, 509},
		{"MinimumMTU", 23, 20},
		{"NoExchange", 0, 20},
		{"BelowMinimum", 10, 20},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l := NewBLELink(newFakeGATTWriter(), testCharacteristic(), tc.attMTU, zap.NewNop())
			assert.Equal(t, tc.expected, l.ChunkLimit())
		})
	}
}

func TestBLELinkWriteChunk(t *testing.T) {
	client := newFakeGATTWriter()
	l := NewBLELink(client, testCharacteristic(), 512, zap.NewNop())

	err := l.WriteChunk(context.Background(), []byte{0x1B, 0x40})

	require.NoError(t, err)
	require.Len(t, client.writes, 1)
	assert.Equal(t, []byte{0x1B, 0x40}, client.writes[0])
}

func TestBLELinkRejectsOversizedChunk(t *testing.T) {
	client := newFakeGATTWriter()
	l := NewBLELink(client, testCharacteristic(), 23, zap.NewNop())

	err := l.WriteChunk(context.Background(), make([]byte, 21))

	assert.Error(t, err)
	assert.Empty(t, client.writes)
}

func TestBLELinkWriteAfterDisconnect(t *testing.T) {
	client := newFakeGATTWriter()
	l := NewBLELink(client, testCharacteristic(), 512, zap.NewNop())

	close(client.disconnected)

	assert.False(t, l.IsConnected())
	err := l.WriteChunk(context.Background(), []byte{0x0A})
	assert.Error(t, err)
	assert.Empty(t, client.writes)
}

func TestBLELinkWriteError(t *testing.T) {
	client := newFakeGATTWriter()
	client.writeErr = errors.New("att timeout")
	l := NewBLELink(client, testCharacteristic(), 512, zap.NewNop())

	err := l.WriteChunk(context.Background(), []byte{0x0A})

	assert.Error(t, err)
}

func TestBLELinkClose(t *testing.T) {
	client := newFakeGATTWriter()
	l := NewBLELink(client, testCharacteristic(), 512, zap.NewNop())

	require.NoError(t, l.Close())
	assert.True(t, client.cancelled)
	assert.False(t, l.IsConnected())

	// Idempotent
	assert.NoError(t, l.Close())
}
