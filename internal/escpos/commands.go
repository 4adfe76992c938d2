// internal/escpos/commands.go
package escpos

// CONTROL_SEQUENCES contains the ESC/POS byte literals used by the encoder
var CONTROL_SEQUENCES = struct {
	// Basic commands
	INITIALIZE []byte

	// Text formatting
	TEXT_BOLD_ON  []byte
	TEXT_BOLD_OFF []byte

	// Text size
	TEXT_SIZE_NORMAL        []byte
	TEXT_SIZE_DOUBLE_HEIGHT []byte
	TEXT_SIZE_DOUBLE_BOTH   []byte

	// Text alignment
	ALIGN_LEFT   []byte
	ALIGN_CENTER []byte

	// Paper handling
	LINE_FEED []byte
}{
	// Basic commands
	INITIALIZE: []byte{0x1B, 0x40}, // ESC @

	// Text formatting
	TEXT_BOLD_ON:  []byte{0x1B, 0x45, 0x01}, // ESC E 1
	TEXT_BOLD_OFF: []byte{0x1B, 0x45, 0x00}, // ESC E 0

	// Text size
	TEXT_SIZE_NORMAL:        []byte{0x1D, 0x21, 0x00}, // GS ! 0
	TEXT_SIZE_DOUBLE_HEIGHT: []byte{0x1D, 0x21, 0x10}, // GS ! 16
	TEXT_SIZE_DOUBLE_BOTH:   []byte{0x1D, 0x21, 0x30}, // GS ! 48

	// Text alignment
	ALIGN_LEFT:   []byte{0x1B, 0x61, 0x00}, // ESC a 0
	ALIGN_CENTER: []byte{0x1B, 0x61, 0x01}, // ESC a 1

	// Paper handling
	LINE_FEED: []byte{0x0A}, // LF
}
