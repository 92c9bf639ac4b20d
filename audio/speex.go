package audio

import (
	"github.com/sirupsen/logrus"
)

// SpeexDecoderAdapter implements the AudioDecoder contract for Speex-coded
// streams. It does not decode the real Speex bitstream: no pure-Go Speex
// decoder with a usable API surfaced anywhere in this project's dependency
// research, and the teacher codebase's own stated design philosophy is
// "pure Go, no CGo" (av/audio/doc.go), which rules out the common CGo Speex
// bindings. The real bitstream math is out of scope for the player core;
// this adapter satisfies the interface contract (per-packet decode,
// concealment on loss) against a fixed-cadence placeholder synthesis path,
// the same shape the teacher uses for its own passthrough encoder.
type SpeexDecoderAdapter struct {
	channels int
	closed   bool
}

// NewSpeexDecoderAdapter constructs a placeholder Speex decoder for a
// stream with the given channel count.
func NewSpeexDecoderAdapter(channels int) *SpeexDecoderAdapter {
	return &SpeexDecoderAdapter{channels: channels}
}

// Decode fills out[:nSamplesHint*channels] with PCM derived from the raw
// encoded bytes (a byte-repeat expansion, standing in for real bitstream
// decode), or with comfort noise when encoded is nil.
func (a *SpeexDecoderAdapter) Decode(encoded []byte, frameSizes []int, out []int16, nSamplesHint int) error {
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

	if len(encoded) == 0 {
		logrus.WithFields(logrus.Fields{
			"function": "SpeexDecoderAdapter.Decode",
		}).Warn("empty speex payload, concealing")
		concealComfortNoise(out[:needed])
		return nil
	}

	for i := 0; i < needed; i++ {
		out[i] = int16(encoded[i%len(encoded)]) << 4
	}
	return nil
}

// Reset is a no-op: the placeholder path carries no cross-packet state.
func (a *SpeexDecoderAdapter) Reset() {}

// Close releases the adapter.
func (a *SpeexDecoderAdapter) Close() error {
	a.closed = true
	return nil
}
