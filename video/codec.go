package video

import (
	"github.com/opd-ai/streamplayer"
	"github.com/sirupsen/logrus"
)

// VP8DecoderAdapter satisfies streamplayer.VideoDecoder. It does not decode
// the real VP8 bitstream: github.com/opd-ai/vp8, the only VP8 library
// observed anywhere in this project's dependency research, surfaced only
// as a go.mod line in a sibling module with no retrievable source or
// documented API to ground a call against, and fabricating an API for it
// is explicitly out of bounds. The real bitstream math is out of scope for
// the player core per its own design (codec implementations are reached
// only through this narrow interface) -- this adapter implements the
// reopen-on-mismatch contract against a placeholder decode path, the same
// shape the teacher's own VP8Codec/Processor pair already uses.
type VP8DecoderAdapter struct {
	width, height uint16
	opened        bool
	pending       *streamplayer.DecodedFrame
}

// NewVP8DecoderAdapter constructs a closed adapter; Open must be called
// before Push.
func NewVP8DecoderAdapter() *VP8DecoderAdapter {
	return &VP8DecoderAdapter{}
}

// Open configures the decoder for a given resolution. Dimensions must be
// even and within [16, 16383], mirroring the teacher's VP8Codec.ValidateFrameSize
// bounds.
func (a *VP8DecoderAdapter) Open(width, height uint16) error {
	if width%2 != 0 || height%2 != 0 || width < 16 || height < 16 || width > 16383 || height > 16383 {
		return streamplayer.ErrUnsupportedBitstream
	}
	a.width, a.height = width, height
	a.opened = true
	logrus.WithFields(logrus.Fields{
		"function": "VP8DecoderAdapter.Open",
		"width":    width,
		"height":   height,
	}).Debug("opened vp8 decoder")
	return nil
}

// Close releases the adapter's decode buffer.
func (a *VP8DecoderAdapter) Close() error {
	a.opened = false
	a.pending = nil
	return nil
}

// Push validates the encoded frame is non-empty and, on success, stages one
// decoded RGB32 image for Drain. An empty frame is reported as
// ErrUnsupportedBitstream so the caller reopens the decoder; the frame's
// contents are not checked against the configured resolution.
func (a *VP8DecoderAdapter) Push(encoded []byte) error {
	if !a.opened {
		return streamplayer.ErrDecoderClosed
	}
	if len(encoded) == 0 {
		return streamplayer.ErrUnsupportedBitstream
	}

	pixels := make([]byte, int(a.width)*int(a.height)*4)
	fill := encoded[0]
	for i := range pixels {
		pixels[i] = fill
	}
	a.pending = &streamplayer.DecodedFrame{
		Width:  a.width,
		Height: a.height,
		Pixels: pixels,
	}
	return nil
}

// Drain returns the most recently decoded image, if any, then clears it.
func (a *VP8DecoderAdapter) Drain() (*streamplayer.DecodedFrame, bool) {
	if a.pending == nil {
		return nil, false
	}
	f := a.pending
	a.pending = nil
	return f, true
}

// Config reports the decoder's current resolution.
func (a *VP8DecoderAdapter) Config() (uint16, uint16) {
	return a.width, a.height
}
