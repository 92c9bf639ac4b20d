package audio

import (
	"encoding/binary"
	"errors"

	"github.com/pion/opus"
	"github.com/sirupsen/logrus"
)

// errDecoderClosed is returned by adapter methods invoked after Close.
var errDecoderClosed = errors.New("audio: decoder is closed")

// OpusDecoderAdapter decodes Opus packets via github.com/pion/opus, the
// same pure-Go decoder the teacher codebase uses (av/audio/processor.go).
//
// Concealment does not depend on passing a nil/empty payload into the
// underlying library's Decode -- that edge-case behavior isn't documented
// for this library, so instead the adapter synthesizes low-level comfort
// noise directly, matching the "decoder-internal comfort noise" framing
// without relying on unverified library internals.
type OpusDecoderAdapter struct {
	decoder  opus.Decoder
	channels int
	scratch  []byte
	closed   bool
}

// NewOpusDecoderAdapter constructs an adapter for a stream with the given
// channel count (1 or 2).
func NewOpusDecoderAdapter(channels int) *OpusDecoderAdapter {
	return &OpusDecoderAdapter{
		decoder:  opus.NewDecoder(),
		channels: channels,
	}
}

// Decode fills out[:nSamplesHint*channels] with PCM. encoded == nil
// triggers concealment.
func (a *OpusDecoderAdapter) Decode(encoded []byte, _ []int, out []int16, nSamplesHint int) error {
	if a.closed {
		return errDecoderClosed
	}

	needed := nSamplesHint * a.channels
	if len(out) < needed {
		needed = len(out)
	}

	if encoded == nil {
		concealComfortNoise(out[:needed])
		return nil
	}

	needBytes := needed * 2
	if cap(a.scratch) < needBytes {
		a.scratch = make([]byte, needBytes)
	}
	buf := a.scratch[:needBytes]

	_, _, err := a.decoder.Decode(encoded, buf)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "OpusDecoderAdapter.Decode",
			"error":    err.Error(),
		}).Warn("opus decode failed")
		return err
	}

	for i := 0; i < needed; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(buf[i*2 : i*2+2]))
	}
	return nil
}

// Reset clears any internal decoder state carried across packets (Opus
// decode is effectively stateless per-packet beyond its internal PLC
// history, which github.com/pion/opus manages itself).
func (a *OpusDecoderAdapter) Reset() {}

// Close releases the adapter. The underlying decoder holds no OS resources.
func (a *OpusDecoderAdapter) Close() error {
	a.closed = true
	return nil
}

// concealComfortNoise fills buf with near-silent low-amplitude noise rather
// than hard zero, which reads as an audible click on some sound hardware
// when repeated across several concealed frames.
func concealComfortNoise(buf []int16) {
	var seed int16 = 1
	for i := range buf {
		seed = seed*31 + 7
		buf[i] = seed % 24
	}
}

