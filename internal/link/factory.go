// internal/link/factory.go
package link

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"receipt-service/internal/model"
)

// CreateLink opens a cable-attached link from its connection config. BLE
// links are not created here: the pairing collaborator hands the service an
// already-connected client and characteristic, which go through NewBLELink.
func CreateLink(connectionType model.ConnectionType, config map[string]interface{}, logger *zap.Logger) (PrinterLink, error) {
	switch connectionType {
	case model.ConnectionTypeSerial:
		return createSerialLink(config, logger)
	case model.ConnectionTypeUSB:
		return createUSBLink(config, logger)
	case model.ConnectionTypeBluetooth:
		return nil, fmt.Errorf("bluetooth links are created from a connected GATT client, not from config")
	default:
		return nil, fmt.Errorf("unsupported connection type: %s", connectionType)
	}
}

func createSerialLink(config map[string]interface{}, logger *zap.Logger) (PrinterLink, error) {
	serialConfig := &SerialConfig{
		BaudRate: 9600,
		DataBits: 8,
		StopBits: 1,
		Parity:   "none",
		Timeout:  5 * time.Second,
	}

	if port, ok := config["port"].(string); ok {
		serialConfig.Port = port
	} else {
		return nil, fmt.Errorf("serial port is required")
	}

	if baudRate, ok := config["baud_rate"]; ok {
		serialConfig.BaudRate = toInt(baudRate, serialConfig.BaudRate)
	}
	if dataBits, ok := config["data_bits"]; ok {
		serialConfig.DataBits = toInt(dataBits, serialConfig.DataBits)
	}
	if stopBits, ok := config["stop_bits"]; ok {
		serialConfig.StopBits = toInt(stopBits, serialConfig.StopBits)
	}
	if parity, ok := config["parity"].(string); ok {
		serialConfig.Parity = parity
	}
	if timeout, ok := config["timeout"].(string); ok {
		if dur, err := time.ParseDuration(timeout); err == nil {
			serialConfig.Timeout = dur
		}
	}

	return OpenSerialLink(serialConfig, logger)
}

func createUSBLink(config map[string]interface{}, logger *zap.Logger) (PrinterLink, error) {
	usbConfig := &USBConfig{
		Endpoint: 1,
		MaxChunk: DefaultChunkLimit,
		Timeout:  5 * time.Second,
	}

	if vendorID, ok := config["vendor_id"].(string); ok {
		usbConfig.VendorID = vendorID
	} else {
		return nil, fmt.Errorf("USB vendor_id is required")
	}
	if productID, ok := config["product_id"].(string); ok {
		usbConfig.ProductID = productID
	} else {
		return nil, fmt.Errorf("USB product_id is required")
	}

	if endpoint, ok := config["endpoint"]; ok {
		usbConfig.Endpoint = toInt(endpoint, usbConfig.Endpoint)
	}
	if maxChunk, ok := config["max_chunk"]; ok {
		usbConfig.MaxChunk = toInt(maxChunk, usbConfig.MaxChunk)
	}
	if timeout, ok := config["timeout"].(string); ok {
		if dur, err := time.ParseDuration(timeout); err == nil {
			usbConfig.Timeout = dur
		}
	}

	return OpenUSBLink(usbConfig, logger)
}

// toInt handles the float64 that JSON decoding produces for numbers
func toInt(v interface{}, fallback int) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return fallback
	}
}
