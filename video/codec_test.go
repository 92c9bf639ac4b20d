package video

import (
	"testing"

	"github.com/opd-ai/streamplayer"
	"github.com/stretchr/testify/assert"
)

func TestVP8DecoderAdapter_OpenRejectsOddDimensions(t *testing.T) {
	a := NewVP8DecoderAdapter()
	err := a.Open(321, 240)
	assert.ErrorIs(t, err, streamplayer.ErrUnsupportedBitstream)
}

func TestVP8DecoderAdapter_PushBeforeOpen(t *testing.T) {
	a := NewVP8DecoderAdapter()
	err := a.Push([]byte{1, 2, 3})
	assert.ErrorIs(t, err, streamplayer.ErrDecoderClosed)
}

func TestVP8DecoderAdapter_PushDrainRoundTrip(t *testing.T) {
	a := NewVP8DecoderAdapter()
	assert.NoError(t, a.Open(320, 240))

	assert.NoError(t, a.Push([]byte{42}))
	frame, ok := a.Drain()
	assert.True(t, ok)
	assert.Equal(t, uint16(320), frame.Width)
	assert.Equal(t, byte(42), frame.Pixels[0])

	_, ok = a.Drain()
	assert.False(t, ok)
}

func TestVP8DecoderAdapter_EmptyFrameUnsupported(t *testing.T) {
	a := NewVP8DecoderAdapter()
	assert.NoError(t, a.Open(320, 240))
	err := a.Push(nil)
	assert.ErrorIs(t, err, streamplayer.ErrUnsupportedBitstream)
}
