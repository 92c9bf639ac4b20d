// Package rtpingest adapts wire-format RTP packets, parsed with
// github.com/pion/rtp, into the streamplayer AudioPacket/VideoPacket
// contract. It generalizes the teacher codebase's ad hoc depacketizers
// (av/rtp/packet.go's AudioDepacketizer, av/video/rtp.go's
// RTPDepacketizer) to feed streamplayer's AudioJitterBuffer and VideoPlayer
// instead of duplicating their own buffering logic.
package rtpingest
