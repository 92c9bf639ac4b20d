package streamplayer

// Seq16Less reports whether a precedes b in 16-bit wrap-aware modular order.
// The comparison treats the 16-bit space as a circle: a is "less" than b iff
// the signed difference a-b is negative, i.e. b lies in the forward half of
// the circle from a.
func Seq16Less(a, b uint16) bool {
	return int16(a-b) < 0
}

// Seq16LEQ reports whether a precedes or equals b in 16-bit wrap-aware order.
func Seq16LEQ(a, b uint16) bool {
	return a == b || Seq16Less(a, b)
}

// Seq32Less is the 32-bit analogue of Seq16Less, used for video packet
// numbers and presentation timestamps.
func Seq32Less(a, b uint32) bool {
	return int32(a-b) < 0
}

// Seq32LEQ is the 32-bit analogue of Seq16LEQ.
func Seq32LEQ(a, b uint32) bool {
	return a == b || Seq32Less(a, b)
}

// CodecKind identifies an audio stream's codec family. AudioJitterBuffer
// does not dispatch on it: Pull decodes through the AudioDecoder interface
// passed to NewAudioJitterBuffer, whatever the tag says.
type CodecKind int

const (
	CodecOpus CodecKind = iota
	CodecSpeexCBR
	CodecSpeexVBR
)

// String returns a human-readable codec name.
func (k CodecKind) String() string {
	switch k {
	case CodecOpus:
		return "opus"
	case CodecSpeexCBR:
		return "speex-cbr"
	case CodecSpeexVBR:
		return "speex-vbr"
	default:
		return "unknown"
	}
}

// StereoMask selects which interleaved channel lanes survive playback.
type StereoMask int

const (
	StereoBoth StereoMask = iota
	StereoLeftOnly
	StereoRightOnly
	StereoNone
)

// StreamType distinguishes live voice (tighter jitter budget) from
// media-file audio (looser budget), matching the buffer-budget distinction
// drawn in the pull algorithm.
type StreamType int

const (
	StreamVoice StreamType = iota
	StreamMediaFileAudio
)

// AudioCodecParams is an immutable description of one audio stream's codec
// configuration. It never changes after a player is constructed.
type AudioCodecParams struct {
	Kind             CodecKind
	Channels         int
	SampleRate       uint32
	SamplesPerCB     int // samples expected per Pull callback
	FramesPerPacket  int
	EncodedFrameSize int // bytes, 0 if variable (VBR)
	CallbackMillis   int
	SimulateStereo   bool // duplicate mono decode into both lanes
}

// AudioPacket is one inbound audio packet or packet fragment.
type AudioPacket struct {
	PacketNo      uint16
	StreamID      uint32
	TimestampMs   uint32
	FragmentNo    uint8
	FragmentCount uint8 // 0 means "not fragmented"
	Encoded       []byte
	FrameSizes    []int // optional; derived from codec params if absent
}

// IsFragment reports whether this packet is part of a multi-fragment set.
func (p AudioPacket) IsFragment() bool {
	return p.FragmentCount > 0
}

// VideoPacket is one inbound video packet or packet fragment.
type VideoPacket struct {
	PacketNo        uint32
	StreamID        uint32
	PresentationMs  uint32
	FragmentNo      uint16
	FragmentCount   uint16
	Encoded         []byte
	Width           uint16 // set on the first packet of a stream
	Height          uint16
}

// IsFragment reports whether this packet is part of a multi-fragment set.
func (p VideoPacket) IsFragment() bool {
	return p.FragmentCount > 0
}

// BufferedAudioFrame is a complete, reassembled audio packet sitting in the
// jitter buffer awaiting playback.
type BufferedAudioFrame struct {
	Encoded     []byte
	FrameSizes  []int
	TimestampMs uint32
	StreamID    uint32
}

// BufferedVideoFrame is a complete, reassembled video frame sitting in the
// frame store awaiting decode.
type BufferedVideoFrame struct {
	Encoded  []byte
	PacketNo uint32
}

// DecodedFrame is a decoded RGB32 video image handed to the renderer.
type DecodedFrame struct {
	Width          uint16
	Height         uint16
	Pixels         []byte // width*height*4, interleaved RGBA
	PresentationMs uint32
}
