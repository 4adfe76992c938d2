// internal/link/link.go
package link

import (
	"context"
	"time"
)

// PrinterLink is a connected write capability to a physical printer. The
// service never performs discovery or pairing; it consumes a link some
// collaborator already established. A link is either connected or
// disconnected, and disconnection can happen at any time, device-initiated,
// including mid-job.
type PrinterLink interface {
	// WriteChunk writes a single chunk to the device. Callers guarantee
	// len(chunk) <= ChunkLimit(); the link performs exactly one transport
	// write and does not fragment further.
	WriteChunk(ctx context.Context, chunk []byte) error

	// ChunkLimit returns the maximum payload size a single write may carry.
	ChunkLimit() int

	// IsConnected reports whether the link is still usable.
	IsConnected() bool

	// Disconnected returns a channel closed when the device side drops the
	// link. It stays valid for the lifetime of the link.
	Disconnected() <-chan struct{}

	// Close releases the link. Idempotent.
	Close() error
}

// DefaultChunkLimit bounds a single write when the transport reports no
// negotiated limit of its own.
const DefaultChunkLimit = 512

// SerialConfig represents serial link configuration
type SerialConfig struct {
	Port     string        `json:"port"`
	BaudRate int           `json:"baud_rate"`
	DataBits int           `json:"data_bits"`
	StopBits int           `json:"stop_bits"`
	Parity   string        `json:"parity"`
	Timeout  time.Duration `json:"timeout"`
}

// USBConfig represents USB link configuration
type USBConfig struct {
	VendorID  string        `json:"vendor_id"`
	ProductID string        `json:"product_id"`
	Endpoint  int           `json:"endpoint"`
	MaxChunk  int           `json:"max_chunk"`
	Timeout   time.Duration `json:"timeout"`
}
