// internal/printer/printer.go
package printer

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"receipt-service/internal/escpos"
	"receipt-service/internal/link"
	"receipt-service/internal/model"
	"receipt-service/internal/transport"
)

// ErrJobInFlight means a print was requested while another job holds the
// link. The printer has one input stream and no multiplexing, so two jobs'
// command streams must never interleave.
var ErrJobInFlight = errors.New("another print job is in flight on this link")

// Printer turns receipts into command sequences and drives them through the
// transport writer. Exactly one job runs at a time per link.
type Printer struct {
	writer  *transport.Writer
	profile escpos.PaperProfile
	logger  *zap.Logger

	busy sync.Mutex
}

// New creates a printer bound to a connected link
func New(l link.PrinterLink, profile escpos.PaperProfile, logger *zap.Logger) *Printer {
	return &Printer{
		writer:  transport.NewWriter(l, logger),
		profile: profile,
		logger: logger.With(
			zap.String("component", "printer"),
			zap.String("paper", profile.String()),
		),
	}
}

// Profile returns the paper profile this printer is loaded with
func (p *Printer) Profile() escpos.PaperProfile {
	return p.profile
}

// Print renders the receipt and transmits it. It fails immediately with
// ErrJobInFlight if another job holds the link, and surfaces transport
// failures unchanged, including which command index failed. It never
// retries: the engine cannot know what already printed.
func (p *Printer) Print(ctx context.Context, receipt *model.Receipt, policy model.FormatPolicy) (int, error) {
	if !p.busy.TryLock() {
		return 0, ErrJobInFlight
	}
	defer p.busy.Unlock()

	commands := BuildReceipt(receipt, p.profile, policy)
	buffers := escpos.EncodeAll(commands)

	p.logger.Info("Starting print job",
		zap.Int("commands", len(buffers)),
		zap.Int("items", len(receipt.Items)),
	)

	if err := p.writer.SendSequence(ctx, buffers); err != nil {
		return len(buffers), err
	}

	p.logger.Info("Print job delivered", zap.Int("commands", len(buffers)))
	return len(buffers), nil
}
