// internal/transport/errors.go
package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected means the writer was invoked without an active link.
	// Nothing was written.
	ErrNotConnected = errors.New("printer link not connected")

	// ErrDisconnected means the device dropped the link during a sequence.
	// Everything before the failing command was written.
	ErrDisconnected = errors.New("printer link disconnected")
)

// ChunkWriteError reports a single chunk write that was rejected or timed
// out by the transport
type ChunkWriteError struct {
	Chunk int
	Err   error
}

func (e *ChunkWriteError) Error() string {
	return fmt.Sprintf("chunk %d write failed: %v", e.Chunk, e.Err)
}

func (e *ChunkWriteError) Unwrap() error {
	return e.Err
}

// SequenceError identifies which command buffer in a sequence failed. The
// buffers before Index were handed to the transport; the ones after were
// never attempted.
type SequenceError struct {
	Index int
	Err   error
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("command %d failed: %v", e.Index, e.Err)
}

func (e *SequenceError) Unwrap() error {
	return e.Err
}
