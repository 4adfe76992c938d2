package escpos

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeControlCommands(t *testing.T) {
	testCases := []struct {
		name     string
		command  Command
		expected []byte
	}{
		{"Init", Init(), []byte{0x1B, 0x40}},
		{"AlignLeft", AlignLeft(), []byte{0x1B, 0x61, 0x00}},
		{"AlignCenter", AlignCenter(), []byte{0x1B, 0x61, 0x01}},
		{"BoldOn", BoldOn(), []byte{0x1B, 0x45, 0x01}},
		{"BoldOff", BoldOff(), []byte{0x1B, 0x45, 0x00}},
		{"FontNormal", FontNormal(), []byte{0x1D, 0x21, 0x00}},
		{"FontLarge", FontLarge(), []byte{0x1D, 0x21, 0x30}},
		{"FontDoubleHeight", FontDoubleHeight(), []byte{0x1D, 0x21, 0x10}},
		{"Feed", Feed(), []byte{0x0A}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Encode(tc.command))
		})
	}
}

func TestEncodeReturnsFreshBuffers(t *testing.T) {
	feed := Encode(Feed())
	feed[0] = 0xFF

	assert.Equal(t, []byte{0x0A}, Encode(Feed()))

	init := Encode(Init())
	_ = append(init, 0x00)

	assert.Equal(t, []byte{0x1B, 0x40}, Encode(Init()))
}

func TestEncodeIsDeterministic(t *testing.T) {
	cmd := Text("RECEIPT #42")

	first := Encode(cmd)
	second := Encode(cmd)

	assert.Equal(t, first, second)
}

func TestEncodeTextASCII(t *testing.T) {
	encoded := Encode(Text("TOTAL: 12.50"))

	// ASCII passes through the code page unchanged
	assert.Equal(t, []byte("TOTAL: 12.50"), encoded)
}

func TestEncodeTextFallback(t *testing.T) {
	t.Run("UnmappableRune", func(t *testing.T) {
		// U+20AC euro sign has no PC437 slot
		encoded := Encode(Text("5€"))

		require.Len(t, encoded, 2)
		assert.Equal(t, byte('5'), encoded[0])
		assert.Equal(t, byte(FallbackByte), encoded[1])
	})

	t.Run("MappableNonASCII", func(t *testing.T) {
		// U+00E9 is a PC437 character, it must not degrade
		encoded := Encode(Text("café"))

		require.Len(t, encoded, 4)
		assert.Equal(t, byte(0x82), encoded[3])
	})

	t.Run("NeverFails", func(t *testing.T) {
		encoded := Encode(Text("中文 \U0001F600"))

		// One byte per rune, unknowns replaced
		assert.Equal(t, []byte{'?', '?', ' ', '?'}, encoded)
	})

	t.Run("EmptyText", func(t *testing.T) {
		assert.Empty(t, Encode(Text("")))
	})
}

func TestEncodeAllPreservesOrder(t *testing.T) {
	commands := []Command{Init(), BoldOn(), Text("HELLO"), Feed()}

	buffers := EncodeAll(commands)

	require.Len(t, buffers, len(commands))
	assert.Equal(t, []byte{0x1B, 0x40}, buffers[0])
	assert.Equal(t, []byte{0x1B, 0x45, 0x01}, buffers[1])
	assert.Equal(t, []byte("HELLO"), buffers[2])
	assert.Equal(t, []byte{0x0A}, buffers[3])
}

func TestPaperProfileWidth(t *testing.T) {
	assert.Equal(t, 32, PaperNarrow.Width())
	assert.Equal(t, 48, PaperWide.Width())
	assert.Equal(t, "58mm", PaperNarrow.String())
	assert.Equal(t, "80mm", PaperWide.String())
}

func TestSeparator(t *testing.T) {
	t.Run("Narrow", func(t *testing.T) {
		sep := Separator(PaperNarrow)

		require.Len(t, sep, 33)
		assert.Equal(t, bytes.Repeat([]byte{'-'}, 32), sep[:32])
		assert.Equal(t, byte(0x0A), sep[32])
	})

	t.Run("Wide", func(t *testing.T) {
		sep := Separator(PaperWide)

		require.Len(t, sep, 49)
		assert.Equal(t, bytes.Repeat([]byte{'-'}, 48), sep[:48])
		assert.Equal(t, byte(0x0A), sep[48])
	})
}
