package rtpingest

import (
	"errors"

	"github.com/opd-ai/streamplayer"
	"github.com/pion/rtp"
	"github.com/sirupsen/logrus"
)

// ErrMalformedVP8Descriptor is returned when the VP8 payload descriptor
// (RFC 7741) claims more header bytes than the packet actually carries.
var ErrMalformedVP8Descriptor = errors.New("rtpingest: malformed vp8 payload descriptor")

// VideoRTPDecoder unmarshals RTP packets carrying VP8 into
// streamplayer.VideoPacket, extending the wire's 16-bit sequence number
// into the core's 32-bit modular packet number via a per-stream
// SequenceExtender, and deriving fragment position from the VP8 payload
// descriptor's start-of-partition bit the same way the teacher's
// RTPDepacketizer does.
type VideoRTPDecoder struct {
	seq    SequenceExtender
	width  uint16
	height uint16
}

// NewVideoRTPDecoder constructs a decoder. Non-zero width/height are
// attached to every packet decoded before the stream's 16-bit RTP sequence
// number first wraps (while the extended packet number still equals the raw
// one), since VP8's RTP payload carries no resolution -- it is negotiated
// out of band (SDP) in a real deployment.
func NewVideoRTPDecoder(width, height uint16) *VideoRTPDecoder {
	return &VideoRTPDecoder{width: width, height: height}
}

// Decode unmarshals one RTP packet into a VideoPacket.
func (d *VideoRTPDecoder) Decode(raw []byte) (streamplayer.VideoPacket, error) {
	pkt := &rtp.Packet{}
	if err := pkt.Unmarshal(raw); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "VideoRTPDecoder.Decode",
			"error":    err.Error(),
		}).Warn("failed to unmarshal video rtp packet")
		return streamplayer.VideoPacket{}, err
	}

	startOfPartition, headerLen, err := parseVP8Descriptor(pkt.Payload)
	if err != nil {
		return streamplayer.VideoPacket{}, err
	}

	extended := d.seq.Extend(pkt.SequenceNumber)

	out := streamplayer.VideoPacket{
		PacketNo:       extended,
		StreamID:       pkt.SSRC,
		PresentationMs: pkt.Timestamp / 90, // VP8 RTP uses a 90kHz clock
		Encoded:        pkt.Payload[headerLen:],
	}
	if !startOfPartition {
		out.FragmentNo = 1
		out.FragmentCount = 2
	}
	if d.width != 0 && d.height != 0 && extended == uint32(pkt.SequenceNumber) {
		out.Width, out.Height = d.width, d.height
	}
	return out, nil
}

// parseVP8Descriptor parses the leading bytes of a VP8 RTP payload per
// RFC 7741 section 4.2, returning whether this fragment starts a new
// partition (S bit) and how many bytes the descriptor occupies.
func parseVP8Descriptor(payload []byte) (startOfPartition bool, headerLen int, err error) {
	if len(payload) < 1 {
		return false, 0, ErrMalformedVP8Descriptor
	}
	b0 := payload[0]
	extended := b0&0x80 != 0 // X bit
	startOfPartition = b0&0x10 != 0
	headerLen = 1

	if !extended {
		return startOfPartition, headerLen, nil
	}
	if len(payload) < 2 {
		return false, 0, ErrMalformedVP8Descriptor
	}
	b1 := payload[1]
	headerLen = 2

	if b1&0x80 != 0 { // I bit: picture ID present
		if len(payload) < headerLen+1 {
			return false, 0, ErrMalformedVP8Descriptor
		}
		if payload[headerLen]&0x80 != 0 { // M bit: 2-byte picture ID
			headerLen += 2
		} else {
			headerLen++
		}
	}
	if b1&0x40 != 0 { // L bit: TL0PICIDX present
		headerLen++
	}
	if b1&0x30 != 0 { // T or K bits: one more byte
		headerLen++
	}
	if len(payload) < headerLen {
		return false, 0, ErrMalformedVP8Descriptor
	}
	return startOfPartition, headerLen, nil
}
