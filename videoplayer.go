package streamplayer

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// VideoPlayerConfig tunes one VideoPlayer's reassembly map caps and age
// eviction window. Defaults are taken from the original implementation's
// tuning constants.
type VideoPlayerConfig struct {
	FragmentCap   int
	FrameCap      int
	AgeEvictionMs uint32
}

// DefaultVideoPlayerConfig returns the original tuning constants: 3000
// pending fragment sets, 3000 decoded frames, a 5 second age window.
func DefaultVideoPlayerConfig() VideoPlayerConfig {
	return VideoPlayerConfig{
		FragmentCap:   3000,
		FrameCap:      3000,
		AgeEvictionMs: 5000,
	}
}

// VideoPlayer reassembles and paces one producer's video packets, lazily
// opening a VideoDecoder once the stream's resolution is known, and
// reopening it whenever the decoder reports a bitstream mismatch.
type VideoPlayer struct {
	mu sync.Mutex

	userID        uint32
	videoStreamID uint32
	cfg           VideoPlayerConfig
	decoder       VideoDecoder

	fragments map[uint32]map[uint16]VideoPacket
	frames    map[uint32]BufferedVideoFrame

	packetNo      uint32 // m_packet_no: highest packet decoded or given up on
	decoderReady  bool
	width, height uint16

	counters Counters
}

// NewVideoPlayer constructs a player for one producer's video stream.
func NewVideoPlayer(userID, videoStreamID uint32, cfg VideoPlayerConfig, decoder VideoDecoder) *VideoPlayer {
	if cfg.FragmentCap <= 0 {
		cfg.FragmentCap = 3000
	}
	if cfg.FrameCap <= 0 {
		cfg.FrameCap = 3000
	}
	if cfg.AgeEvictionMs == 0 {
		cfg.AgeEvictionMs = 5000
	}
	return &VideoPlayer{
		userID:        userID,
		videoStreamID: videoStreamID,
		cfg:           cfg,
		decoder:       decoder,
		fragments:     make(map[uint32]map[uint16]VideoPacket),
		frames:        make(map[uint32]BufferedVideoFrame),
	}
}

// Counters returns the underlying lock-free counters for this player.
func (v *VideoPlayer) Counters() *Counters {
	return &v.counters
}

// Push admits or reassembles one video packet. It returns true iff the
// packet completed a frame that was enqueued into the frame store.
func (v *VideoPlayer) Push(packet VideoPacket) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{
		"function":  "VideoPlayer.Push",
		"user_id":   v.userID,
		"packet_no": packet.PacketNo,
	})

	if Seq32Less(packet.PacketNo, v.packetNo) {
		v.counters.incDropped()
		log.Debug("dropped packet older than cursor")
		return false
	}

	if packet.Width != 0 && packet.Height != 0 {
		v.width, v.height = packet.Width, packet.Height
	}

	var admitted bool
	if !packet.IsFragment() {
		v.frames[packet.PresentationMs] = BufferedVideoFrame{Encoded: packet.Encoded, PacketNo: packet.PacketNo}
		v.counters.incReceived()
		admitted = true
	} else {
		set, ok := v.fragments[packet.PacketNo]
		if !ok {
			set = make(map[uint16]VideoPacket)
			v.fragments[packet.PacketNo] = set
		}
		set[packet.FragmentNo] = packet
		if uint16(len(set)) >= packet.FragmentCount {
			var encoded []byte
			complete := true
			for i := uint16(0); i < packet.FragmentCount; i++ {
				piece, ok := set[i]
				if !ok {
					complete = false
					break
				}
				encoded = append(encoded, piece.Encoded...)
			}
			if complete {
				delete(v.fragments, packet.PacketNo)
				v.frames[packet.PresentationMs] = BufferedVideoFrame{Encoded: encoded, PacketNo: packet.PacketNo}
				v.counters.incReceived()
				admitted = true
			}
		}
	}

	for len(v.fragments) > v.cfg.FragmentCap {
		smallest, has := videoSmallestFragmentKey(v.fragments)
		if !has {
			break
		}
		delete(v.fragments, smallest)
	}
	for len(v.frames) > v.cfg.FrameCap {
		smallest, has := videoSmallestFrameKey(v.frames)
		if !has {
			break
		}
		delete(v.frames, smallest)
	}

	v.ageEvictLocked()
	v.removeObsoleteLocked()

	return admitted
}

// ageEvictLocked walks frames oldest-first and gives up on any frame older
// than AgeEvictionMs relative to the newest frame, advancing the cursor
// past it. Must be called with mu held.
func (v *VideoPlayer) ageEvictLocked() {
	if len(v.frames) < 2 {
		return
	}
	newest, _ := videoLargestFrameKey(v.frames)
	for {
		oldest, has := videoSmallestFrameKey(v.frames)
		if !has {
			return
		}
		if oldest == newest {
			return
		}
		if uint32(newest-oldest) <= v.cfg.AgeEvictionMs {
			return
		}
		v.packetNo = v.frames[oldest].PacketNo
		delete(v.frames, oldest)
	}
}

// removeObsoleteLocked drops fragment sets and frames the cursor has
// already passed, accounting the gap into the lost counter. Must be called
// with mu held.
func (v *VideoPlayer) removeObsoleteLocked() {
	for key := range v.fragments {
		if Seq32LEQ(key, v.packetNo) {
			gap := int64(uint32(v.packetNo - key))
			v.counters.addLost(gap)
			delete(v.fragments, key)
		}
	}
	for key, frame := range v.frames {
		if Seq32Less(frame.PacketNo, v.packetNo) {
			delete(v.frames, key)
		}
	}
}

// PullNext returns the frame with the smallest presentation timestamp not
// after horizon (or any frame, if horizon is nil), decodes it, and returns
// the resulting image. Returns (nil, false) when nothing is ready.
func (v *VideoPlayer) PullNext(horizon *uint32) (*DecodedFrame, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{
		"function": "VideoPlayer.PullNext",
		"user_id":  v.userID,
	})

	if len(v.frames) == 0 {
		return nil, false
	}

	key, has := videoSmallestFrameKey(v.frames)
	if !has {
		return nil, false
	}
	if horizon != nil && Seq32Less(*horizon, key) {
		return nil, false
	}

	frame := v.frames[key]

	if !v.decoderReady {
		if v.width == 0 || v.height == 0 {
			return nil, false
		}
		if err := v.decoder.Open(v.width, v.height); err != nil {
			log.WithError(err).Error("failed to open video decoder")
			return nil, false
		}
		v.decoderReady = true
	}

	err := v.decoder.Push(frame.Encoded)
	if err == ErrUnsupportedBitstream {
		log.Warn("decoder reports unsupported bitstream, reopening")
		_ = v.decoder.Close()
		v.decoderReady = false
		v.packetNo = frame.PacketNo
		delete(v.frames, key)
		return nil, false
	}
	if err != nil {
		log.WithError(err).Warn("video decode failed")
		v.packetNo = frame.PacketNo
		delete(v.frames, key)
		return nil, false
	}

	v.packetNo = frame.PacketNo
	delete(v.frames, key)
	v.removeObsoleteLocked()

	var last *DecodedFrame
	for {
		img, ok := v.decoder.Drain()
		if !ok {
			break
		}
		img.PresentationMs = key
		last = img
	}
	if last == nil {
		return nil, false
	}

	return last, true
}

// PeekNextTime returns the presentation timestamp of the next pullable
// frame, for renderer scheduling.
func (v *VideoPlayer) PeekNextTime() (uint32, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return videoSmallestFrameKey(v.frames)
}

func videoSmallestFragmentKey(m map[uint32]map[uint16]VideoPacket) (uint32, bool) {
	first := true
	var best uint32
	for k := range m {
		if first {
			best = k
			first = false
			continue
		}
		if Seq32Less(k, best) {
			best = k
		}
	}
	return best, !first
}

func videoSmallestFrameKey(m map[uint32]BufferedVideoFrame) (uint32, bool) {
	first := true
	var best uint32
	for k := range m {
		if first {
			best = k
			first = false
			continue
		}
		if Seq32Less(k, best) {
			best = k
		}
	}
	return best, !first
}

func videoLargestFrameKey(m map[uint32]BufferedVideoFrame) (uint32, bool) {
	first := true
	var best uint32
	for k := range m {
		if first {
			best = k
			first = false
			continue
		}
		if Seq32Less(best, k) {
			best = k
		}
	}
	return best, !first
}
