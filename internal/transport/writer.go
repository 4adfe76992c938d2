// internal/transport/writer.go
package transport

import (
	"context"

	"go.uber.org/zap"

	"receipt-service/internal/link"
)

// Writer delivers encoded command buffers to a printer link, in order,
// fragmented to the link's chunk limit. A thermal printer is a stateful
// device with a single input stream: the writer never reorders, merges or
// drops a buffer, and never starts buffer N+1 before buffer N completed.
//
// Success means "bytes handed to the transport". The printer offers no
// application-level acknowledgment, so a completed Send does not prove ink
// hit paper.
type Writer struct {
	link   link.PrinterLink
	limit  int
	logger *zap.Logger
}

// NewWriter creates a writer bound to one link. The chunk limit comes from
// the link; links that report a nonsensical limit fall back to the default.
func NewWriter(l link.PrinterLink, logger *zap.Logger) *Writer {
	limit := l.ChunkLimit()
	if limit <= 0 {
		limit = link.DefaultChunkLimit
	}

	return &Writer{
		link:   l,
		limit:  limit,
		logger: logger.With(zap.Int("chunk_limit", limit)),
	}
}

// Send writes one buffer to the link, split into sequential chunks no larger
// than the link limit. Each chunk is awaited before the next begins; the
// physical transport silently truncates oversized single writes, so
// fragmentation is not optional.
func (w *Writer) Send(ctx context.Context, buffer []byte) error {
	// A device-initiated drop is reported as such even before the first
	// write; ErrNotConnected covers links closed on our side.
	select {
	case <-w.link.Disconnected():
		return ErrDisconnected
	default:
	}
	if !w.link.IsConnected() {
		return ErrNotConnected
	}

	for chunk := 0; len(buffer) > 0; chunk++ {
		if err := w.checkLink(ctx, chunk); err != nil {
			return err
		}

		n := len(buffer)
		if n > w.limit {
			n = w.limit
		}

		if err := w.link.WriteChunk(ctx, buffer[:n]); err != nil {
			if !w.link.IsConnected() {
				return ErrDisconnected
			}
			return &ChunkWriteError{Chunk: chunk, Err: err}
		}

		buffer = buffer[n:]
	}

	return nil
}

// SendSequence writes buffers strictly in order, stopping at the first
// failure. The returned SequenceError names the failed buffer; the remaining
// ones are abandoned, never retried. There is no rollback: whatever printed
// before the failure stays on paper, and retry policy belongs to the caller,
// who knows what already came out of the slot.
func (w *Writer) SendSequence(ctx context.Context, buffers [][]byte) error {
	for i, buffer := range buffers {
		if err := w.Send(ctx, buffer); err != nil {
			w.logger.Error("Command sequence aborted",
				zap.Int("failed_command", i),
				zap.Int("total_commands", len(buffers)),
				zap.Error(err),
			)
			return &SequenceError{Index: i, Err: err}
		}
	}

	w.logger.Debug("Command sequence delivered", zap.Int("commands", len(buffers)))
	return nil
}

// checkLink enforces "never write after disconnect" between chunks
func (w *Writer) checkLink(ctx context.Context, chunk int) error {
	select {
	case <-w.link.Disconnected():
		return ErrDisconnected
	case <-ctx.Done():
		return &ChunkWriteError{Chunk: chunk, Err: ctx.Err()}
	default:
		return nil
	}
}
