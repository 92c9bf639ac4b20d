package streamplayer

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AudioJitterConfig tunes one AudioJitterBuffer's eviction and restart
// behavior.
type AudioJitterConfig struct {
	BufferMsec           int
	StereoMaskMode       StereoMask
	NoRecording          bool
	PlayStoppedDelayMs   int64
	FragmentExpirySlots  int
	SoundGroup           int
}

// DefaultAudioJitterConfig returns the defaults used throughout the original
// player: a one-second budget, both channels enabled, a ten-slot sliding
// fragment expiry.
func DefaultAudioJitterConfig() AudioJitterConfig {
	return AudioJitterConfig{
		BufferMsec:          1000,
		StereoMaskMode:      StereoBoth,
		PlayStoppedDelayMs:  500,
		FragmentExpirySlots: 10,
	}
}

// AudioJitterBuffer reassembles, orders and paces one producer's audio
// packets for a single talkspurt at a time. It is safe for exactly one
// producer goroutine calling Push and one sink goroutine calling Pull
// concurrently.
type AudioJitterBuffer struct {
	mu sync.Mutex

	userID     uint32
	streamType StreamType
	codec      AudioCodecParams
	cfg        AudioJitterConfig

	decoder   AudioDecoder
	muxer     AudioMuxer
	container AudioContainer
	resampler Resampler
	clock     TimeProvider

	buffer    map[uint16]BufferedAudioFrame
	fragments map[uint16]map[uint8]AudioPacket

	playPktNo             uint16
	streamID              uint32
	playedPacketTime      uint32
	lastPlaybackWallclock time.Time
	talking               bool
	samplesPlayedTotal    uint64

	scratch []int16

	counters Counters
}

// NewAudioJitterBuffer constructs a player for one producer. muxer,
// container, resampler and clock may be nil, in which case no-op/default
// implementations are used.
func NewAudioJitterBuffer(userID uint32, streamType StreamType, codec AudioCodecParams, cfg AudioJitterConfig, decoder AudioDecoder, muxer AudioMuxer, container AudioContainer, resampler Resampler, clock TimeProvider) *AudioJitterBuffer {
	if cfg.FragmentExpirySlots <= 0 {
		cfg.FragmentExpirySlots = 10
	}
	if cfg.BufferMsec <= 0 {
		cfg.BufferMsec = 1000
	}
	if muxer == nil {
		muxer = NopAudioMuxer{}
	}
	if container == nil {
		container = NopAudioContainer{}
	}
	if clock == nil {
		clock = DefaultTimeProvider{}
	}

	scratchLen := codec.SamplesPerCB * 2
	if scratchLen < codec.SamplesPerCB {
		scratchLen = codec.SamplesPerCB
	}

	return &AudioJitterBuffer{
		userID:     userID,
		streamType: streamType,
		codec:      codec,
		cfg:        cfg,
		decoder:    decoder,
		muxer:      muxer,
		container:  container,
		resampler:  resampler,
		clock:      clock,
		buffer:     make(map[uint16]BufferedAudioFrame),
		fragments:  make(map[uint16]map[uint8]AudioPacket),
		scratch:    make([]int16, scratchLen),
	}
}

// Counters returns the underlying lock-free counters for this player.
func (b *AudioJitterBuffer) Counters() *Counters {
	return &b.counters
}

// Push admits one packet or packet fragment. It returns the reassembled
// packet and true when the packet resulted in a newly admitted whole
// packet, or (nil, false) when the packet was dropped or is an incomplete
// fragment set.
func (b *AudioJitterBuffer) Push(packet AudioPacket) (*AudioPacket, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{
		"function":  "AudioJitterBuffer.Push",
		"user_id":   b.userID,
		"packet_no": packet.PacketNo,
	})

	if packet.IsFragment() {
		completed, ok := b.reassembleLocked(packet)
		if !ok {
			return nil, false
		}
		packet = completed
	}

	if packet.StreamID == 0 {
		b.counters.incDropped()
		log.Debug("dropped packet with zero stream id")
		return nil, false
	}

	wasIdle := b.streamID == 0
	if !wasIdle && Seq16Less(packet.PacketNo, b.playPktNo) {
		b.counters.incDropped()
		log.Debug("dropped packet older than play cursor")
		return nil, false
	}

	frameSizes, ok := b.resolveFrameSizesLocked(packet)
	if !ok {
		b.counters.incDropped()
		log.Warn("dropped packet with mismatched frame size sum")
		return nil, false
	}

	b.buffer[packet.PacketNo] = BufferedAudioFrame{
		Encoded:     packet.Encoded,
		FrameSizes:  frameSizes,
		TimestampMs: packet.TimestampMs,
		StreamID:    packet.StreamID,
	}
	b.counters.incReceived()

	for b.bufferedMsecLocked() > b.cfg.BufferMsec && len(b.buffer) > 0 {
		smallest, has := audioSmallestKey(b.buffer)
		if !has {
			break
		}
		delete(b.buffer, smallest)
		if next, has2 := audioSmallestKey(b.buffer); has2 {
			b.playPktNo = next
		}
	}

	if wasIdle {
		b.playPktNo = packet.PacketNo
		b.streamID = packet.StreamID
		log.WithField("stream_id", packet.StreamID).Debug("started new talkspurt")
	}

	return &packet, true
}

// reassembleLocked stores one fragment and, if it completes a set,
// concatenates and returns the synthetic whole packet. Must be called with
// mu held.
func (b *AudioJitterBuffer) reassembleLocked(frag AudioPacket) (AudioPacket, bool) {
	if len(b.fragments) >= b.cfg.FragmentExpirySlots {
		threshold := frag.PacketNo - uint16(b.cfg.FragmentExpirySlots)
		for key := range b.fragments {
			if Seq16LEQ(key, threshold) {
				delete(b.fragments, key)
			}
		}
	} else {
		for key := range b.fragments {
			if Seq16LEQ(key, b.playPktNo) {
				delete(b.fragments, key)
			}
		}
	}

	set, ok := b.fragments[frag.PacketNo]
	if !ok {
		set = make(map[uint8]AudioPacket)
		b.fragments[frag.PacketNo] = set
	}
	set[frag.FragmentNo] = frag

	if uint8(len(set)) < frag.FragmentCount {
		return AudioPacket{}, false
	}

	var encoded []byte
	for i := uint8(0); i < frag.FragmentCount; i++ {
		piece, ok := set[i]
		if !ok {
			return AudioPacket{}, false
		}
		encoded = append(encoded, piece.Encoded...)
	}
	delete(b.fragments, frag.PacketNo)

	return AudioPacket{
		PacketNo:    frag.PacketNo,
		StreamID:    frag.StreamID,
		TimestampMs: frag.TimestampMs,
		Encoded:     encoded,
	}, true
}

// resolveFrameSizesLocked derives or validates per-frame size metadata.
func (b *AudioJitterBuffer) resolveFrameSizesLocked(packet AudioPacket) ([]int, bool) {
	if len(packet.FrameSizes) > 0 {
		sum := 0
		for _, s := range packet.FrameSizes {
			sum += s
		}
		if sum != len(packet.Encoded) {
			return nil, false
		}
		return packet.FrameSizes, true
	}
	if b.codec.FramesPerPacket > 1 && b.codec.EncodedFrameSize > 0 {
		sizes := make([]int, b.codec.FramesPerPacket)
		for i := range sizes {
			sizes[i] = b.codec.EncodedFrameSize
		}
		if b.codec.FramesPerPacket*b.codec.EncodedFrameSize != len(packet.Encoded) {
			return nil, false
		}
		return sizes, true
	}
	return []int{len(packet.Encoded)}, true
}

// bufferedMsecLocked estimates the currently buffered duration. Must be
// called with mu held.
func (b *AudioJitterBuffer) bufferedMsecLocked() int {
	if len(b.buffer) == 0 || b.streamID == 0 {
		return 0
	}
	highest, _ := audioLargestKey(b.buffer)
	span := uint16(highest - b.playPktNo)
	slots := int(span) + 1
	return slots * b.codec.CallbackMillis
}

// BufferedMsec returns the current best-effort buffered duration estimate.
func (b *AudioJitterBuffer) BufferedMsec() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bufferedMsecLocked()
}

// Reset flushes both maps and returns the player to idle. The last playback
// wallclock is preserved so callers can measure elapsed idle time.
func (b *AudioJitterBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buffer = make(map[uint16]BufferedAudioFrame)
	b.fragments = make(map[uint16]map[uint8]AudioPacket)
	b.playPktNo = 0
	b.streamID = 0
	b.talking = false
}

// Pull produces one callback's worth of PCM into out (length at least
// nSamples * effective output channels). It returns true iff a real packet
// (not concealment, not silence) was decoded this callback.
func (b *AudioJitterBuffer) Pull(out []int16, nSamples int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{
		"function": "AudioJitterBuffer.Pull",
		"user_id":  b.userID,
	})

	maxBuf := b.cfg.BufferMsec
	if b.streamType == StreamVoice {
		maxBuf = b.cfg.BufferMsec / 2
	}
	for b.streamID != 0 && b.bufferedMsecLocked() > maxBuf {
		smallest, has := audioSmallestKey(b.buffer)
		if !has {
			break
		}
		delete(b.buffer, smallest)
		if next, has2 := audioSmallestKey(b.buffer); has2 {
			b.playPktNo = next
		}
	}

	nativeLen := b.codec.SamplesPerCB * b.codec.Channels
	if nativeLen == 0 {
		nativeLen = nSamples
	}
	scratchNeeded := nativeLen
	if expanded := b.codec.SamplesPerCB * 2; b.codec.SimulateStereo && expanded > scratchNeeded {
		scratchNeeded = expanded
	}
	if len(b.scratch) < scratchNeeded {
		b.scratch = make([]int16, scratchNeeded)
	}
	work := b.scratch[:nativeLen]

	const (
		outcomeNone = iota
		outcomeConcealed
		outcomeDecoded
	)
	outcome := outcomeNone

	if frame, has := b.buffer[b.playPktNo]; has {
		delete(b.buffer, b.playPktNo)
		if err := b.decoder.Decode(frame.Encoded, frame.FrameSizes, work, b.codec.SamplesPerCB); err == nil {
			b.playedPacketTime = frame.TimestampMs
			b.streamID = frame.StreamID
			outcome = outcomeDecoded
		} else {
			b.counters.incDropped()
			log.WithError(err).Warn("decode failed, treating as loss")
			outcome = outcomeNone
		}
	} else if len(b.buffer) > 0 {
		if err := b.decoder.Decode(nil, nil, work, b.codec.SamplesPerCB); err == nil {
			b.counters.incLost()
			outcome = outcomeConcealed
		}
	}

	b.playPktNo++

	if outcome == outcomeNone {
		zeroInt16(out)
		_ = b.muxer.QueueUserAudio(b.userID, nil, b.samplesPlayedTotal, false, b.codec)
		b.updateTalkspurtLocked(false)
		b.samplesPlayedTotal += uint64(nSamples)
		b.counters.addSamplesPlayed(int64(nSamples))
		return false
	}

	monoSamples := b.codec.SamplesPerCB
	// Mirrors the original player's `!m_no_recording || !played` gate: a
	// concealed/lost callback is still queued to the muxer even when
	// no_recording is set, so recordings don't develop silent gaps that
	// don't match what was actually heard live.
	if !b.cfg.NoRecording || outcome != outcomeDecoded {
		_ = b.muxer.QueueUserAudio(b.userID, work[:nativeLen], b.samplesPlayedTotal, false, b.codec)
	}
	if b.container.AddAudio(b.cfg.SoundGroup, int(b.userID), b.streamType, b.streamID, b.codec.SampleRate, b.codec.Channels, work[:nativeLen], monoSamples, b.samplesPlayedTotal) {
		b.counters.incNewBlocks()
	}

	if b.codec.Channels == 2 && !b.codec.SimulateStereo {
		applyStereoMask(work[:nativeLen], b.cfg.StereoMaskMode)
	}
	if b.codec.SimulateStereo {
		nativeLen = monoSamples * 2
		work = b.scratch[:nativeLen]
		duplicateMonoInPlace(work, monoSamples)
	}

	finalWork := b.scratch[:nativeLen]
	if b.resampler != nil {
		produced, err := b.resampler.Resample(finalWork, monoSamples, out, nSamples)
		if err != nil {
			log.WithError(err).Warn("resample failed")
			zeroInt16(out)
		} else if produced < len(out) {
			zeroInt16(out[produced:])
		}
	} else {
		n := copy(out, finalWork)
		if n < len(out) {
			zeroInt16(out[n:])
		}
	}

	b.updateTalkspurtLocked(outcome == outcomeDecoded)
	b.samplesPlayedTotal += uint64(nSamples)
	b.counters.addSamplesPlayed(int64(nSamples))

	return outcome == outcomeDecoded
}

// updateTalkspurtLocked advances or closes out the talking substate. Must
// be called with mu held.
func (b *AudioJitterBuffer) updateTalkspurtLocked(played bool) {
	now := b.clock.Now()
	if played {
		b.talking = true
		b.lastPlaybackWallclock = now
		return
	}
	if b.talking && !b.lastPlaybackWallclock.IsZero() {
		elapsed := now.Sub(b.lastPlaybackWallclock)
		if elapsed >= time.Duration(b.cfg.PlayStoppedDelayMs)*time.Millisecond {
			b.talking = false
			_ = b.muxer.QueueUserAudio(b.userID, nil, b.samplesPlayedTotal, true, b.codec)
			b.resetLocked()
		}
	}
}

// resetLocked is Reset without re-acquiring mu.
func (b *AudioJitterBuffer) resetLocked() {
	b.buffer = make(map[uint16]BufferedAudioFrame)
	b.fragments = make(map[uint16]map[uint8]AudioPacket)
	b.playPktNo = 0
	b.streamID = 0
}

func audioSmallestKey(m map[uint16]BufferedAudioFrame) (uint16, bool) {
	first := true
	var best uint16
	for k := range m {
		if first {
			best = k
			first = false
			continue
		}
		if Seq16Less(k, best) {
			best = k
		}
	}
	return best, !first
}

func audioLargestKey(m map[uint16]BufferedAudioFrame) (uint16, bool) {
	first := true
	var best uint16
	for k := range m {
		if first {
			best = k
			first = false
			continue
		}
		if Seq16Less(best, k) {
			best = k
		}
	}
	return best, !first
}

func zeroInt16(buf []int16) {
	for i := range buf {
		buf[i] = 0
	}
}

func duplicateMonoInPlace(buf []int16, nSamples int) {
	for i := nSamples - 1; i >= 0; i-- {
		v := buf[i]
		buf[2*i] = v
		buf[2*i+1] = v
	}
}

func applyStereoMask(buf []int16, mask StereoMask) {
	switch mask {
	case StereoLeftOnly:
		for i := 1; i < len(buf); i += 2 {
			buf[i] = 0
		}
	case StereoRightOnly:
		for i := 0; i < len(buf); i += 2 {
			buf[i] = 0
		}
	case StereoNone:
		zeroInt16(buf)
	case StereoBoth:
	}
}
