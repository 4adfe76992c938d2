// internal/escpos/encoder.go
package escpos

import (
	"bytes"

	"golang.org/x/text/encoding/charmap"
)

// Opcode identifies an ESC/POS operation
type Opcode int

const (
	OpInit Opcode = iota
	OpAlignLeft
	OpAlignCenter
	OpBoldOn
	OpBoldOff
	OpFontNormal
	OpFontLarge
	OpFontDoubleHeight
	OpText
	OpFeed
)

// Command is a single printer operation. Control commands carry no payload;
// OpText carries the text to print.
type Command struct {
	Op   Opcode
	Text string
}

// Constructors for the closed command set

func Init() Command             { return Command{Op: OpInit} }
func AlignLeft() Command        { return Command{Op: OpAlignLeft} }
func AlignCenter() Command      { return Command{Op: OpAlignCenter} }
func BoldOn() Command           { return Command{Op: OpBoldOn} }
func BoldOff() Command          { return Command{Op: OpBoldOff} }
func FontNormal() Command       { return Command{Op: OpFontNormal} }
func FontLarge() Command        { return Command{Op: OpFontLarge} }
func FontDoubleHeight() Command { return Command{Op: OpFontDoubleHeight} }
func Text(s string) Command     { return Command{Op: OpText, Text: s} }
func Feed() Command             { return Command{Op: OpFeed} }

// FallbackByte replaces runes the printer's code page cannot represent.
// Partial readable output beats an aborted job, so text encoding never fails.
const FallbackByte = '?'

// textCharmap is the single-byte character set the printer is initialized
// with (ESC t 0 selects PC437 on EPSON-compatible firmware).
var textCharmap = charmap.CodePage437

// Encode translates a command into the exact byte sequence the printer
// expects. It is pure and total: control commands return fixed literals,
// text falls back to FallbackByte for unrepresentable runes. Every call
// returns a fresh buffer the caller owns.
func Encode(cmd Command) []byte {
	switch cmd.Op {
	case OpInit:
		return cloned(CONTROL_SEQUENCES.INITIALIZE)
	case OpAlignLeft:
		return cloned(CONTROL_SEQUENCES.ALIGN_LEFT)
	case OpAlignCenter:
		return cloned(CONTROL_SEQUENCES.ALIGN_CENTER)
	case OpBoldOn:
		return cloned(CONTROL_SEQUENCES.TEXT_BOLD_ON)
	case OpBoldOff:
		return cloned(CONTROL_SEQUENCES.TEXT_BOLD_OFF)
	case OpFontNormal:
		return cloned(CONTROL_SEQUENCES.TEXT_SIZE_NORMAL)
	case OpFontLarge:
		return cloned(CONTROL_SEQUENCES.TEXT_SIZE_DOUBLE_BOTH)
	case OpFontDoubleHeight:
		return cloned(CONTROL_SEQUENCES.TEXT_SIZE_DOUBLE_HEIGHT)
	case OpText:
		return encodeText(cmd.Text)
	case OpFeed:
		return cloned(CONTROL_SEQUENCES.LINE_FEED)
	default:
		return nil
	}
}

// cloned keeps the shared sequence table out of reach of callers that
// append to or mutate an encoded buffer
func cloned(seq []byte) []byte {
	out := make([]byte, len(seq))
	copy(out, seq)
	return out
}

// EncodeAll maps a command sequence to its buffer list, preserving order.
func EncodeAll(commands []Command) [][]byte {
	buffers := make([][]byte, 0, len(commands))
	for _, cmd := range commands {
		buffers = append(buffers, Encode(cmd))
	}
	return buffers
}

// encodeText converts text to the printer's single-byte character set
func encodeText(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := textCharmap.EncodeRune(r)
		if !ok {
			b = FallbackByte
		}
		out = append(out, b)
	}
	return out
}

// PaperProfile is the receipt stock width class
type PaperProfile int

const (
	PaperNarrow PaperProfile = iota // 58mm stock
	PaperWide                       // 80mm stock
)

// Printable column counts are fixed per stock width; callers select a
// profile, never a raw width.
const (
	narrowColumns = 32
	wideColumns   = 48
)

// Width returns the printable column count for the profile
func (p PaperProfile) Width() int {
	if p == PaperWide {
		return wideColumns
	}
	return narrowColumns
}

func (p PaperProfile) String() string {
	if p == PaperWide {
		return "80mm"
	}
	return "58mm"
}

// Separator returns a full-width dash rule terminated with a line feed
func Separator(profile PaperProfile) []byte {
	sep := bytes.Repeat([]byte{'-'}, profile.Width())
	return append(sep, CONTROL_SEQUENCES.LINE_FEED...)
}
