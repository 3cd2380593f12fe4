package stats

import (
	"sync/atomic"
	"time"
)

// Live holds the in-flight tallies for one running test. Each tester owns
// its own Live instance; nothing here is process-global.
type Live struct {
	Requests uint64
	Success  uint64
	Fail     uint64
	Bytes    uint64

	// Latency histogram (microseconds), successes only.
	Elapsed *SafeHistogram
}

// Snapshot is a cheap copy of the live tallies, sent over a channel to
// whatever is rendering progress.
type Snapshot struct {
	Requests uint64
	Success  uint64
	Fail     uint64
	Bytes    uint64

	P50Ms float64
	P90Ms float64
	P99Ms float64
	MaxMs int64
}

// SnapshotChan carries periodic snapshots from a tester to a progress view.
type SnapshotChan chan Snapshot

func NewLive() *Live {
	return &Live{Elapsed: NewSafeHistogram()}
}

func (l *Live) Record(success bool, bytes int64, elapsed time.Duration) {
	atomic.AddUint64(&l.Requests, 1)
	if success {
		atomic.AddUint64(&l.Success, 1)
		l.Elapsed.RecordValue(elapsed.Microseconds())
	} else {
		atomic.AddUint64(&l.Fail, 1)
	}
	if bytes > 0 {
		atomic.AddUint64(&l.Bytes, uint64(bytes))
	}
}

func (l *Live) Snapshot() Snapshot {
	return Snapshot{
		Requests: atomic.LoadUint64(&l.Requests),
		Success:  atomic.LoadUint64(&l.Success),
		Fail:     atomic.LoadUint64(&l.Fail),
		Bytes:    atomic.LoadUint64(&l.Bytes),
		P50Ms:    float64(l.Elapsed.ValueAtQuantile(50)) / 1000.0,
		P90Ms:    float64(l.Elapsed.ValueAtQuantile(90)) / 1000.0,
		P99Ms:    float64(l.Elapsed.ValueAtQuantile(99)) / 1000.0,
		MaxMs:    l.Elapsed.Max() / 1000,
	}
}

func (s Snapshot) ErrorRate() float64 {
	if s.Requests == 0 {
		return 0
	}
	return float64(s.Fail) / float64(s.Requests) * 100
}
