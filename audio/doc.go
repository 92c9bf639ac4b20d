// Package audio provides decoder adapters satisfying streamplayer's
// AudioDecoder contract: decode one packet's worth of PCM, or synthesize a
// packet-loss-concealment frame when no packet is available.
//
// OpusDecoderAdapter wraps github.com/pion/opus for real Opus decode.
// SpeexDecoderAdapter implements the same contract against an internal
// placeholder, since no usable pure-Go Speex decoder library surfaced in
// this project's dependency research -- see the design ledger for why.
package audio
