// Package video provides the VP8 decoder adapter satisfying
// streamplayer.VideoDecoder: open/close around a resolution, push encoded
// frames, drain decoded RGB32 images, and report ErrUnsupportedBitstream on
// an empty frame so the player can reopen the decoder. Frame contents are
// not checked against the configured resolution or profile.
package video
