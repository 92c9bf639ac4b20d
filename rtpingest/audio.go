package rtpingest

import (
	"github.com/opd-ai/streamplayer"
	"github.com/pion/rtp"
	"github.com/sirupsen/logrus"
)

// AudioRTPDecoder unmarshals RTP packets carrying audio into
// streamplayer.AudioPacket. Audio in this protocol is assumed unfragmented
// at the RTP layer (each frame fits one MTU-sized packet), matching what
// the teacher's own AudioDepacketizer.ProcessPacket assumes -- fragmented
// audio is a pre-RTP concern this transport doesn't expose, so
// FragmentCount is always left at its zero value here.
type AudioRTPDecoder struct {
	sampleRate uint32
}

// NewAudioRTPDecoder constructs a decoder for a stream sampled at
// sampleRate (used to convert the RTP clock-rate timestamp into
// milliseconds).
func NewAudioRTPDecoder(sampleRate uint32) *AudioRTPDecoder {
	return &AudioRTPDecoder{sampleRate: sampleRate}
}

// Decode unmarshals one RTP packet into an AudioPacket.
func (d *AudioRTPDecoder) Decode(raw []byte) (streamplayer.AudioPacket, error) {
	pkt := &rtp.Packet{}
	if err := pkt.Unmarshal(raw); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "AudioRTPDecoder.Decode",
			"error":    err.Error(),
		}).Warn("failed to unmarshal audio rtp packet")
		return streamplayer.AudioPacket{}, err
	}

	var tsMs uint32
	if d.sampleRate > 0 {
		tsMs = uint32(uint64(pkt.Timestamp) * 1000 / uint64(d.sampleRate))
	}

	return streamplayer.AudioPacket{
		PacketNo:    pkt.SequenceNumber,
		StreamID:    pkt.SSRC,
		TimestampMs: tsMs,
		Encoded:     pkt.Payload,
	}, nil
}

// AudioRTPEncoder is the inverse of AudioRTPDecoder, used by tests and by
// any local loopback path to produce wire bytes from an AudioPacket.
type AudioRTPEncoder struct {
	sampleRate  uint32
	payloadType uint8
}

// NewAudioRTPEncoder constructs an encoder for the given clock rate and RTP
// payload type.
func NewAudioRTPEncoder(sampleRate uint32, payloadType uint8) *AudioRTPEncoder {
	return &AudioRTPEncoder{sampleRate: sampleRate, payloadType: payloadType}
}

// Encode marshals an AudioPacket into RTP wire bytes.
func (e *AudioRTPEncoder) Encode(p streamplayer.AudioPacket) ([]byte, error) {
	var ts uint32
	if e.sampleRate > 0 {
		ts = uint32(uint64(p.TimestampMs) * uint64(e.sampleRate) / 1000)
	}
	pkt := &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    e.payloadType,
			SequenceNumber: p.PacketNo,
			Timestamp:      ts,
			SSRC:           p.StreamID,
		},
		Payload: p.Encoded,
	}
	return pkt.Marshal()
}
