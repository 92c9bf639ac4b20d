package streamplayer

import "errors"

// Sentinel errors returned by the video decoder adapter contract. Errors
// never escape Push/Pull on the player types
// themselves -- those are handled locally per the error taxonomy and surface
// only through counters.
var (
	// ErrUnsupportedBitstream is returned by a VideoDecoder when the pushed
	// bytes do not match the decoder's currently configured resolution or
	// profile. The caller closes and reopens the decoder in response.
	ErrUnsupportedBitstream = errors.New("streamplayer: unsupported bitstream for current decoder configuration")

	// ErrDecoderClosed is returned by the video decoder adapter's Push when
	// the decoder is not open (before Open or after Close). The audio
	// adapters return their own closed-decoder error.
	ErrDecoderClosed = errors.New("streamplayer: decoder is closed")
)
