// internal/link/ble_link.go
package link

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-ble/ble"
	"go.uber.org/zap"
)

// GATTWriter is the slice of ble.Client the link needs: acknowledged
// characteristic writes plus disconnect signalling. Kept narrow so tests can
// stand in a fake without a radio.
type GATTWriter interface {
	WriteCharacteristic(c *ble.Characteristic, value []byte, noRsp bool) error
	Disconnected() <-chan struct{}
	CancelConnection() error
}

// BLELink drives a writable GATT characteristic on an already-connected
// peripheral. The pairing collaborator resolves the service/characteristic
// and negotiates the ATT MTU; this type only writes.
type BLELink struct {
	client GATTWriter
	char   *ble.Characteristic
	limit  int
	logger *zap.Logger

	mutex  sync.Mutex
	closed bool
}

// attHeaderSize is the ATT write request overhead subtracted from the
// negotiated MTU to get the usable payload per write.
const attHeaderSize = 3

// blePayloadFloor is the payload of the mandatory minimum ATT MTU (23).
const blePayloadFloor = 20

// NewBLELink wraps a connected client and writable characteristic. attMTU is
// the negotiated ATT MTU; pass 0 when no exchange happened and the link
// falls back to the minimum payload every peripheral must accept.
func NewBLELink(client GATTWriter, char *ble.Characteristic, attMTU int, logger *zap.Logger) *BLELink {
	limit := attMTU - attHeaderSize
	if limit < blePayloadFloor {
		limit = blePayloadFloor
	}

	return &BLELink{
		client: client,
		char:   char,
		limit:  limit,
		logger: logger.With(
			zap.String("link", "ble"),
			zap.String("characteristic", char.UUID.String()),
			zap.Int("chunk_limit", limit),
		),
	}
}

// WriteChunk performs one acknowledged characteristic write
func (l *BLELink) WriteChunk(ctx context.Context, chunk []byte) error {
	if len(chunk) > l.limit {
		return fmt.Errorf("chunk of %d bytes exceeds link limit %d", len(chunk), l.limit)
	}

	if !l.IsConnected() {
		return fmt.Errorf("ble link not connected")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := l.client.WriteCharacteristic(l.char, chunk, false); err != nil {
		l.logger.Error("Characteristic write failed", zap.Error(err), zap.Int("bytes", len(chunk)))
		return fmt.Errorf("characteristic write failed: %w", err)
	}

	l.logger.Debug("Characteristic write completed", zap.Int("bytes", len(chunk)))
	return nil
}

// ChunkLimit returns the negotiated ATT payload size
func (l *BLELink) ChunkLimit() int {
	return l.limit
}

// IsConnected reports whether the peripheral is still attached
func (l *BLELink) IsConnected() bool {
	l.mutex.Lock()
	closed := l.closed
	l.mutex.Unlock()
	if closed {
		return false
	}

	select {
	case <-l.client.Disconnected():
		return false
	default:
		return true
	}
}

// Disconnected exposes the client's device-initiated disconnect signal
func (l *BLELink) Disconnected() <-chan struct{} {
	return l.client.Disconnected()
}

// Close cancels the GATT connection
func (l *BLELink) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	if err := l.client.CancelConnection(); err != nil {
		l.logger.Error("Failed to cancel connection", zap.Error(err))
		return fmt.Errorf("failed to cancel connection: %w", err)
	}

	l.logger.Info("BLE link closed")
	return nil
}
