package streamplayer

// AudioDecoder is the narrow contract an audio codec adapter must satisfy.
// Implementations live in the audio subpackage; AudioJitterBuffer depends
// only on this interface, never on a concrete codec type, so new codecs can
// be added without touching the player core.
//
// Decode must fill out[:nSamplesHint] with PCM. When encoded is nil, Decode
// performs packet-loss concealment (decoder-internal comfort synthesis)
// instead of failing.
type AudioDecoder interface {
	Decode(encoded []byte, frameSizes []int, out []int16, nSamplesHint int) error
	Reset()
	Close() error
}

// VideoDecoder is the narrow contract a video codec adapter must satisfy.
// Open is lazy: it is called once the first frame's resolution is known.
// Push may return ErrUnsupportedBitstream, in which case the caller closes
// the decoder, drops that frame, and reopens the decoder at the current
// configuration on its next pull.
type VideoDecoder interface {
	Open(width, height uint16) error
	Close() error
	Push(encoded []byte) error
	Drain() (frame *DecodedFrame, ok bool)
	Config() (width, height uint16)
}
