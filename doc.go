// Package streamplayer implements the receiver-side media stream player core
// of a real-time voice/video conferencing SDK.
//
// It turns an unordered, possibly fragmented, possibly lossy sequence of
// encoded audio/video packets into a paced stream of decoded PCM callbacks
// and decoded video frames.
//
// # Architecture
//
//	producer thread                    sink thread
//	      |                                 |
//	   Push()  --> AudioJitterBuffer <--  Pull()
//	      |        (fragment reassembly,     |
//	      |         jitter budget, PLC)       |
//	      v                                  v
//	   Push()  --> VideoPlayer       <-- PullNext()
//	               (frame store, age
//	                eviction, reopen-on-
//	                bitstream-mismatch)
//
// Packets normally arrive through the rtpingest subpackage, which decodes
// raw RTP into the AudioPacket/VideoPacket structs this package consumes;
// any other transport may supply the same structs directly.
//
// # Thread safety
//
// Each AudioJitterBuffer and VideoPlayer guards its mutable state (buffers,
// fragment maps, cursors) with a single mutex, acquired for the duration of
// Push, Pull/PullNext, BufferedMsec and Reset. Two threads are expected: a
// producer calling Push, and a sink calling Pull at a fixed cadence.
//
// # Concealment
//
// When a packet is missing at playback time, the decoder's packet-loss
// concealment path is invoked instead of failing the callback. Video has no
// concealment path; a missing frame simply yields no image for that pull.
package streamplayer
