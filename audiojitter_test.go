package streamplayer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeAudioDecoder is a deterministic stand-in for a real codec: decoded
// PCM is the first encoded byte repeated, concealed PCM is -1 repeated.
type fakeAudioDecoder struct {
	closed bool
}

func (f *fakeAudioDecoder) Decode(encoded []byte, _ []int, out []int16, nSamples int) error {
	var v int16 = -1
	if encoded != nil {
		v = int16(encoded[0])
	}
	for i := 0; i < nSamples && i < len(out); i++ {
		out[i] = v
	}
	return nil
}

func (f *fakeAudioDecoder) Reset()      {}
func (f *fakeAudioDecoder) Close() error { f.closed = true; return nil }

type fakeMuxer struct {
	final   bool
	queued  int
}

func (m *fakeMuxer) QueueUserAudio(_ uint32, pcm []int16, _ uint64, streamEnded bool, _ AudioCodecParams) error {
	m.queued++
	if streamEnded {
		m.final = true
	}
	_ = pcm
	return nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCodec() AudioCodecParams {
	return AudioCodecParams{
		Kind:           CodecOpus,
		Channels:       1,
		SampleRate:     48000,
		SamplesPerCB:   4,
		CallbackMillis: 20,
	}
}

func pkt(no uint16, streamID uint32, b byte) AudioPacket {
	return AudioPacket{PacketNo: no, StreamID: streamID, TimestampMs: uint32(no) * 20, Encoded: []byte{b}}
}

// E1: clean voice playback.
func TestAudioJitterBuffer_CleanPlayback(t *testing.T) {
	decoder := &fakeAudioDecoder{}
	cfg := DefaultAudioJitterConfig()
	b := NewAudioJitterBuffer(1, StreamVoice, newTestCodec(), cfg, decoder, nil, nil, nil, nil)

	for i := uint16(100); i < 110; i++ {
		_, admitted := b.Push(pkt(i, 7, byte(i)))
		assert.True(t, admitted)
	}

	out := make([]int16, 4)
	for i := uint16(100); i < 110; i++ {
		played := b.Pull(out, 4)
		assert.True(t, played)
		assert.Equal(t, int16(byte(i)), out[0])
	}

	snap := b.Counters().SnapshotAndReset()
	assert.Equal(t, int64(0), snap.Lost)
	assert.Equal(t, int64(10), snap.Received)
}

// E2: single loss is concealed, not a gap in playback.
func TestAudioJitterBuffer_SingleLossConcealed(t *testing.T) {
	decoder := &fakeAudioDecoder{}
	cfg := DefaultAudioJitterConfig()
	b := NewAudioJitterBuffer(1, StreamVoice, newTestCodec(), cfg, decoder, nil, nil, nil, nil)

	for i := uint16(100); i < 110; i++ {
		if i == 104 {
			continue
		}
		_, admitted := b.Push(pkt(i, 7, byte(i)))
		assert.True(t, admitted)
	}

	out := make([]int16, 4)
	concealedSeen := false
	for i := uint16(100); i < 110; i++ {
		played := b.Pull(out, 4)
		if i == 104 {
			assert.False(t, played)
			assert.Equal(t, int16(-1), out[0])
			concealedSeen = true
			continue
		}
		assert.True(t, played)
	}
	assert.True(t, concealedSeen)

	snap := b.Counters().SnapshotAndReset()
	assert.Equal(t, int64(1), snap.Lost)
	assert.Equal(t, int64(9), snap.Received)
}

// E3: fragmented packet reassembles to exactly one admitted whole packet.
func TestAudioJitterBuffer_FragmentReassembly(t *testing.T) {
	decoder := &fakeAudioDecoder{}
	cfg := DefaultAudioJitterConfig()
	b := NewAudioJitterBuffer(1, StreamVoice, newTestCodec(), cfg, decoder, nil, nil, nil, nil)

	frag0 := AudioPacket{PacketNo: 42, StreamID: 7, TimestampMs: 840, FragmentNo: 0, FragmentCount: 2, Encoded: []byte{9}}
	frag1 := AudioPacket{PacketNo: 42, StreamID: 7, TimestampMs: 840, FragmentNo: 1, FragmentCount: 2, Encoded: []byte{10}}

	_, admitted := b.Push(frag0)
	assert.False(t, admitted, "incomplete fragment set must not admit")

	reassembled, admitted := b.Push(frag1)
	assert.True(t, admitted)
	assert.Equal(t, []byte{9, 10}, reassembled.Encoded)

	out := make([]int16, 4)
	played := b.Pull(out, 4)
	assert.True(t, played)
	assert.Equal(t, uint32(840), b.playedPacketTime)
}

// Duplicate fragments are idempotent: pushing frag0 twice still produces
// exactly one admitted packet.
func TestAudioJitterBuffer_FragmentReassembly_DuplicateIdempotent(t *testing.T) {
	decoder := &fakeAudioDecoder{}
	cfg := DefaultAudioJitterConfig()
	b := NewAudioJitterBuffer(1, StreamVoice, newTestCodec(), cfg, decoder, nil, nil, nil, nil)

	frag0 := AudioPacket{PacketNo: 1, StreamID: 7, FragmentNo: 0, FragmentCount: 2, Encoded: []byte{1}}
	frag1 := AudioPacket{PacketNo: 1, StreamID: 7, FragmentNo: 1, FragmentCount: 2, Encoded: []byte{2}}

	_, a := b.Push(frag0)
	assert.False(t, a)
	_, a = b.Push(frag0)
	assert.False(t, a)
	reassembled, a := b.Push(frag1)
	assert.True(t, a)
	assert.Equal(t, []byte{1, 2}, reassembled.Encoded)
}

// E4: pushing well beyond the budget without pulling evicts down to budget.
func TestAudioJitterBuffer_OverflowEviction(t *testing.T) {
	decoder := &fakeAudioDecoder{}
	cfg := DefaultAudioJitterConfig()
	cfg.BufferMsec = 200
	codec := newTestCodec()
	codec.CallbackMillis = 20
	b := NewAudioJitterBuffer(1, StreamVoice, codec, cfg, decoder, nil, nil, nil, nil)

	for i := uint16(1); i <= 20; i++ {
		b.Push(pkt(i, 7, byte(i)))
	}

	assert.LessOrEqual(t, b.BufferedMsec(), 200)
	assert.GreaterOrEqual(t, b.playPktNo, uint16(10))

	_, has := b.buffer[b.playPktNo]
	assert.True(t, has, "play cursor must point at a surviving slot")
}

// E5: talkspurt end notifies the muxer once and resets stream id.
func TestAudioJitterBuffer_TalkspurtEnd(t *testing.T) {
	decoder := &fakeAudioDecoder{}
	muxer := &fakeMuxer{}
	clock := &fakeClock{now: time.Unix(0, 0)}
	cfg := DefaultAudioJitterConfig()
	cfg.PlayStoppedDelayMs = 100
	b := NewAudioJitterBuffer(1, StreamVoice, newTestCodec(), cfg, decoder, muxer, nil, nil, clock)

	b.Push(pkt(1, 7, 1))

	out := make([]int16, 4)
	assert.True(t, b.Pull(out, 4))

	assert.False(t, muxer.final)
	clock.advance(200 * time.Millisecond)
	b.Pull(out, 4)

	assert.True(t, muxer.final)
	assert.Equal(t, uint32(0), b.streamID)
}

// Wrap safety: packet numbers crossing the 16-bit boundary still play in
// order.
func TestAudioJitterBuffer_WrapSafety(t *testing.T) {
	decoder := &fakeAudioDecoder{}
	cfg := DefaultAudioJitterConfig()
	b := NewAudioJitterBuffer(1, StreamVoice, newTestCodec(), cfg, decoder, nil, nil, nil, nil)

	seqs := []uint16{65530, 65531, 65532, 65533, 65534, 65535, 0, 1, 2, 3}
	for _, s := range seqs {
		_, admitted := b.Push(pkt(s, 7, byte(s)))
		assert.True(t, admitted)
	}

	out := make([]int16, 4)
	for _, s := range seqs {
		played := b.Pull(out, 4)
		assert.True(t, played)
		assert.Equal(t, int16(byte(s)), out[0])
	}
}

// Stream restart: after Reset, a new stream id from the same producer
// plays starting at its own first packet number.
func TestAudioJitterBuffer_StreamRestart(t *testing.T) {
	decoder := &fakeAudioDecoder{}
	cfg := DefaultAudioJitterConfig()
	b := NewAudioJitterBuffer(1, StreamVoice, newTestCodec(), cfg, decoder, nil, nil, nil, nil)

	b.Push(pkt(5, 7, 5))
	out := make([]int16, 4)
	b.Pull(out, 4)

	b.Reset()
	assert.Equal(t, uint32(0), b.streamID)

	_, admitted := b.Push(pkt(900, 9, 9))
	assert.True(t, admitted)
	played := b.Pull(out, 4)
	assert.True(t, played)
	assert.Equal(t, int16(9), out[0])
	assert.Equal(t, uint32(9), b.streamID)
}

func TestAudioJitterBuffer_ZeroStreamIDDropped(t *testing.T) {
	decoder := &fakeAudioDecoder{}
	cfg := DefaultAudioJitterConfig()
	b := NewAudioJitterBuffer(1, StreamVoice, newTestCodec(), cfg, decoder, nil, nil, nil, nil)

	_, admitted := b.Push(pkt(1, 0, 1))
	assert.False(t, admitted)
	snap := b.Counters().SnapshotAndReset()
	assert.Equal(t, int64(1), snap.Dropped)
}

func TestAudioJitterBuffer_LatePacketDropped(t *testing.T) {
	decoder := &fakeAudioDecoder{}
	cfg := DefaultAudioJitterConfig()
	b := NewAudioJitterBuffer(1, StreamVoice, newTestCodec(), cfg, decoder, nil, nil, nil, nil)

	b.Push(pkt(100, 7, 1))
	out := make([]int16, 4)
	b.Pull(out, 4) // advances play_pkt_no to 101

	_, admitted := b.Push(pkt(50, 7, 2))
	assert.False(t, admitted)
}

// A mono codec with SimulateStereo must duplicate each decoded sample into
// both interleaved lanes, not panic on the expanded output length.
func TestAudioJitterBuffer_SimulateStereo(t *testing.T) {
	decoder := &fakeAudioDecoder{}
	codec := newTestCodec()
	codec.Channels = 1
	codec.SimulateStereo = true
	cfg := DefaultAudioJitterConfig()
	b := NewAudioJitterBuffer(1, StreamVoice, codec, cfg, decoder, nil, nil, nil, nil)

	_, admitted := b.Push(pkt(1, 7, 5))
	assert.True(t, admitted)

	out := make([]int16, codec.SamplesPerCB*2)
	played := b.Pull(out, codec.SamplesPerCB*2)
	assert.True(t, played)

	for i := 0; i < codec.SamplesPerCB; i++ {
		assert.Equal(t, int16(5), out[2*i], "left lane sample %d", i)
		assert.Equal(t, int16(5), out[2*i+1], "right lane sample %d", i)
	}
}

// SamplesPlayed must accumulate across pulls, not just the unexported
// running total.
func TestAudioJitterBuffer_SamplesPlayedCounter(t *testing.T) {
	decoder := &fakeAudioDecoder{}
	cfg := DefaultAudioJitterConfig()
	codec := newTestCodec()
	b := NewAudioJitterBuffer(1, StreamVoice, codec, cfg, decoder, nil, nil, nil, nil)

	b.Push(pkt(1, 7, 1))
	out := make([]int16, 4)
	b.Pull(out, 4)
	b.Pull(out, 4)

	snap := b.Counters().SnapshotAndReset()
	assert.Equal(t, int64(8), snap.SamplesPlayed)
}

// A concealed callback under NoRecording must still be queued to the
// muxer; only a real, played packet is skipped.
func TestAudioJitterBuffer_NoRecordingStillMuxesConcealment(t *testing.T) {
	decoder := &fakeAudioDecoder{}
	muxer := &fakeMuxer{}
	cfg := DefaultAudioJitterConfig()
	cfg.NoRecording = true
	b := NewAudioJitterBuffer(1, StreamVoice, newTestCodec(), cfg, decoder, muxer, nil, nil, nil)

	b.Push(pkt(1, 7, 1))
	b.Push(pkt(3, 7, 3)) // packet 2 is missing -> concealed on pull

	out := make([]int16, 4)
	played := b.Pull(out, 4)
	assert.True(t, played)
	assert.Equal(t, 0, muxer.queued, "no_recording must skip a real played packet")

	played = b.Pull(out, 4)
	assert.False(t, played)
	assert.Equal(t, 1, muxer.queued, "no_recording must still queue a concealed callback")
}
