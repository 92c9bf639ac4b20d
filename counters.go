package streamplayer

import "sync/atomic"

// Counters holds lock-free observability counters for one player. Each
// field is an independent atomic and may be written from both Push and
// Pull: AudioJitterBuffer's Push writes Received/Dropped and its Pull
// writes Lost/NewBlocks/SamplesPlayed plus Dropped on a decode failure;
// VideoPlayer's Push and PullNext both add to Lost. No cross-field
// consistency is promised across a concurrent SnapshotAndReset, matching
// the approximate get-and-reset counters in the original source.
type Counters struct {
	received      atomic.Int64
	lost          atomic.Int64
	dropped       atomic.Int64
	newBlocks     atomic.Int64
	samplesPlayed atomic.Int64
}

// CounterSnapshot is a point-in-time read of Counters.
type CounterSnapshot struct {
	Received      int64
	Lost          int64
	Dropped       int64
	NewBlocks     int64
	SamplesPlayed int64
}

// SnapshotAndReset returns the current counter values and zeroes them
// atomically per-field. Safe for concurrent use, but the returned snapshot
// is not a single atomic transaction across all five fields.
func (c *Counters) SnapshotAndReset() CounterSnapshot {
	return CounterSnapshot{
		Received:      c.received.Swap(0),
		Lost:          c.lost.Swap(0),
		Dropped:       c.dropped.Swap(0),
		NewBlocks:     c.newBlocks.Swap(0),
		SamplesPlayed: c.samplesPlayed.Swap(0),
	}
}

func (c *Counters) incReceived()               { c.received.Add(1) }
func (c *Counters) incLost()                   { c.lost.Add(1) }
func (c *Counters) addLost(n int64)            { c.lost.Add(n) }
func (c *Counters) incDropped()                { c.dropped.Add(1) }
func (c *Counters) incNewBlocks()              { c.newBlocks.Add(1) }
func (c *Counters) addSamplesPlayed(n int64)    { c.samplesPlayed.Add(n) }
