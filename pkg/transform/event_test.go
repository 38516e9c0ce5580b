package transform

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeScript(t *testing.T) {
	src := `[
		{"type":"drag","dx":40,"dy":-12.5},
		{"type":"drag_end"},
		{"type":"pinch","scale":1.8},
		{"type":"pinch_end"},
		{"type":"end"}
	]`
	events, err := DecodeScript(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []Event{
		DragChanged{DX: 40, DY: -12.5},
		DragEnded{},
		PinchChanged{Magnification: 1.8},
		PinchEnded{},
		InteractionEnded{},
	}, events)
}

func TestDecodeScriptRejectsUnknownType(t *testing.T) {
	_, err := DecodeScript(strings.NewReader(`[{"type":"rotate"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gesture 0")

	_, err = DecodeScript(strings.NewReader(`{"type":"drag"}`))
	assert.Error(t, err)
}

func TestEncodeScriptRoundTrip(t *testing.T) {
	in := []Event{DragChanged{DX: 3, DY: 4}, PinchChanged{Magnification: 2}, InteractionEnded{}}
	var buf bytes.Buffer
	require.NoError(t, EncodeScript(&buf, in))

	out, err := DecodeScript(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
