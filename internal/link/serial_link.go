// internal/link/serial_link.go
package link

import (
	"context"
	"fmt"
	"sync"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// SerialLink drives an RS-232 attached printer. Serial lines carry writes of
// any size, but the link still enforces the uniform chunked write contract so
// the transport writer behaves identically across transports.
type SerialLink struct {
	config *SerialConfig
	port   serial.Port
	logger *zap.Logger

	mutex        sync.Mutex
	closed       bool
	disconnected chan struct{}
	discOnce     sync.Once
}

// OpenSerialLink opens the configured serial port and returns a connected link
func OpenSerialLink(config *SerialConfig, logger *zap.Logger) (*SerialLink, error) {
	mode := &serial.Mode{
		BaudRate: config.BaudRate,
		DataBits: config.DataBits,
		StopBits: serial.StopBits(config.StopBits),
	}

	switch config.Parity {
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	default:
		mode.Parity = serial.NoParity
	}

	port, err := serial.Open(config.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	if err := port.SetReadTimeout(config.Timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	l := &SerialLink{
		config: config,
		port:   port,
		logger: logger.With(
			zap.String("link", "serial"),
			zap.String("port", config.Port),
		),
		disconnected: make(chan struct{}),
	}

	l.logger.Info("Serial link opened", zap.Int("baud_rate", config.BaudRate))
	return l, nil
}

// WriteChunk writes one chunk to the serial port
func (l *SerialLink) WriteChunk(ctx context.Context, chunk []byte) error {
	if !l.IsConnected() {
		return fmt.Errorf("serial link not connected")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	n, err := l.port.Write(chunk)
	if err != nil {
		l.logger.Error("Serial write failed", zap.Error(err))
		l.markDisconnected()
		return fmt.Errorf("failed to write to serial port: %w", err)
	}

	if n != len(chunk) {
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(chunk))
	}

	l.logger.Debug("Serial write completed", zap.Int("bytes", n))
	return nil
}

// ChunkLimit returns the write size bound for this link
func (l *SerialLink) ChunkLimit() int {
	return DefaultChunkLimit
}

// IsConnected reports whether the port is still usable
func (l *SerialLink) IsConnected() bool {
	l.mutex.Lock()
	closed := l.closed
	l.mutex.Unlock()
	if closed {
		return false
	}

	select {
	case <-l.disconnected:
		return false
	default:
		return true
	}
}

// Disconnected is closed when a write error reveals the line is gone
func (l *SerialLink) Disconnected() <-chan struct{} {
	return l.disconnected
}

// Close closes the serial port
func (l *SerialLink) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	if err := l.port.Close(); err != nil {
		l.logger.Error("Failed to close serial port", zap.Error(err))
		return fmt.Errorf("failed to close serial port: %w", err)
	}

	l.logger.Info("Serial link closed")
	return nil
}

func (l *SerialLink) markDisconnected() {
	l.discOnce.Do(func() { close(l.disconnected) })
}
