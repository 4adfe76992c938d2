// internal/link/usb_link.go
package link

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/gousb"
	"go.uber.org/zap"
)

// USBLink drives a USB attached printer through its bulk OUT endpoint
type USBLink struct {
	config   *USBConfig
	usbCtx   *gousb.Context
	device   *gousb.Device
	intfDone func()
	endpoint *gousb.OutEndpoint
	limit    int
	logger   *zap.Logger

	mutex        sync.Mutex
	closed       bool
	disconnected chan struct{}
	discOnce     sync.Once
}

// OpenUSBLink finds and claims the configured device and returns a connected link
func OpenUSBLink(config *USBConfig, logger *zap.Logger) (*USBLink, error) {
	vendorID, err := parseHexID(config.VendorID)
	if err != nil {
		return nil, fmt.Errorf("invalid vendor ID: %w", err)
	}
	productID, err := parseHexID(config.ProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid product ID: %w", err)
	}

	usbCtx := gousb.NewContext()

	device, err := usbCtx.OpenDeviceWithVIDPID(vendorID, productID)
	if err != nil || device == nil {
		usbCtx.Close()
		if err == nil {
			err = fmt.Errorf("device not found (VID: %04X, PID: %04X)", uint16(vendorID), uint16(productID))
		}
		return nil, fmt.Errorf("failed to open USB device: %w", err)
	}

	intf, done, err := device.DefaultInterface()
	if err != nil {
		device.Close()
		usbCtx.Close()
		return nil, fmt.Errorf("failed to claim interface: %w", err)
	}

	endpoint, err := intf.OutEndpoint(config.Endpoint)
	if err != nil {
		done()
		device.Close()
		usbCtx.Close()
		return nil, fmt.Errorf("failed to get out endpoint: %w", err)
	}

	limit := config.MaxChunk
	if limit <= 0 {
		limit = DefaultChunkLimit
	}

	l := &USBLink{
		config:   config,
		usbCtx:   usbCtx,
		device:   device,
		intfDone: done,
		endpoint: endpoint,
		limit:    limit,
		logger: logger.With(
			zap.String("link", "usb"),
			zap.String("vendor_id", config.VendorID),
			zap.String("product_id", config.ProductID),
		),
		disconnected: make(chan struct{}),
	}

	l.logger.Info("USB link opened", zap.Int("chunk_limit", limit))
	return l, nil
}

// WriteChunk performs one bulk transfer
func (l *USBLink) WriteChunk(ctx context.Context, chunk []byte) error {
	if !l.IsConnected() {
		return fmt.Errorf("usb link not connected")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	n, err := l.endpoint.WriteContext(ctx, chunk)
	if err != nil {
		l.logger.Error("USB write failed", zap.Error(err))
		l.markDisconnected()
		return fmt.Errorf("failed to write to USB device: %w", err)
	}

	if n != len(chunk) {
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(chunk))
	}

	l.logger.Debug("USB write completed", zap.Int("bytes", n))
	return nil
}

// ChunkLimit returns the configured bulk transfer size
func (l *USBLink) ChunkLimit() int {
	return l.limit
}

// IsConnected reports whether the device is still attached
func (l *USBLink) IsConnected() bool {
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

// Disconnected is closed when a transfer error reveals the device is gone
func (l *USBLink) Disconnected() <-chan struct{} {
	return l.disconnected
}

// Close releases the interface, device and context
func (l *USBLink) Close() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	if l.intfDone != nil {
		l.intfDone()
	}
	if l.device != nil {
		l.device.Close()
	}
	if l.usbCtx != nil {
		l.usbCtx.Close()
	}

	l.logger.Info("USB link closed")
	return nil
}

func (l *USBLink) markDisconnected() {
	l.discOnce.Do(func() { close(l.disconnected) })
}

// parseHexID parses a hex ID string (0x1234 or 1234)
func parseHexID(hexStr string) (gousb.ID, error) {
	hexStr = strings.TrimPrefix(hexStr, "0x")

	id, err := strconv.ParseUint(hexStr, 16, 16)
	if err != nil {
		return 0, err
	}
	return gousb.ID(id), nil
}
