package streamplayer

// AudioMuxer receives post-jitter-buffer PCM for mixing/recording. Queued
// once per audio pull -- with the decoded or concealed PCM, or with nil PCM
// when the pull produced silence -- except a pull that decoded a real packet
// while NoRecording is set, and once more with StreamEnded=true when a
// talkspurt's play-stopped delay expires. Injected at construction time rather than reached through a
// process-wide singleton, generalizing the original source's
// AUDIOCONTAINER::instance() pattern into an explicit dependency.
type AudioMuxer interface {
	QueueUserAudio(userID uint32, pcm []int16, runningSamples uint64, streamEnded bool, codec AudioCodecParams) error
}

// AudioContainer is an optional observer fed every decoded audio block,
// independent of the AudioMuxer. Its return value is used only to bump a
// delivered-blocks counter.
type AudioContainer interface {
	AddAudio(sndGroup, user int, streamType StreamType, streamID uint32, rate uint32, channels int, pcm []int16, nSamples int, currentStreamSamples uint64) bool
}

// Resampler converts decoded PCM from the codec's native sample rate to the
// sink's requested output rate. Installed only when the two differ.
type Resampler interface {
	Resample(in []int16, inSamples int, out []int16, outSamples int) (produced int, err error)
}

// NopAudioMuxer discards everything queued to it. Useful as a default when
// no recording/mixing subsystem is wired up.
type NopAudioMuxer struct{}

func (NopAudioMuxer) QueueUserAudio(uint32, []int16, uint64, bool, AudioCodecParams) error {
	return nil
}

// NopAudioContainer accepts nothing; AddAudio always returns false so the
// delivered-blocks counter never advances for it.
type NopAudioContainer struct{}

func (NopAudioContainer) AddAudio(int, int, StreamType, uint32, uint32, int, []int16, int, uint64) bool {
	return false
}
