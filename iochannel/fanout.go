package iochannel

import "fmt"

// FanOutSink broadcasts every Write to a set of peer sinks, tracking each
// peer's error independently so one dead replica socket does not abort
// the slave-transfer of the others ("Slave Transfer").
type FanOutSink struct {
	peers   []Sink
	failed  []bool
	lastErr []error
}

// NewFanOutSink wraps the given peer sinks. Order is preserved for
// PeerError/Alive lookups.
func NewFanOutSink(peers ...Sink) *FanOutSink {
	return &FanOutSink{
		peers:   peers,
		failed:  make([]bool, len(peers)),
		lastErr: make([]error, len(peers)),
	}
}

// Write forwards p to every still-alive peer. A peer that errors is
// marked failed and skipped on every subsequent call; Write itself never
// fails as long as at least one peer remains alive.
func (f *FanOutSink) Write(p []byte) (int, error) {
	alive := 0
	for i, peer := range f.peers {
		if f.failed[i] {
			continue
		}
		if _, err := peer.Write(p); err != nil {
			f.failed[i] = true
			f.lastErr[i] = fmt.Errorf("iochannel: peer %d: %w", i, err)

			continue
		}
		alive++
	}

	if alive == 0 && len(f.peers) > 0 {
		return 0, fmt.Errorf("iochannel: all %d peers failed", len(f.peers))
	}

	return len(p), nil
}

// Flush flushes every still-alive peer, same per-peer failure isolation
// as Write.
func (f *FanOutSink) Flush() error {
	for i, peer := range f.peers {
		if f.failed[i] {
			continue
		}
		if err := peer.Flush(); err != nil {
			f.failed[i] = true
			f.lastErr[i] = fmt.Errorf("iochannel: peer %d: %w", i, err)
		}
	}

	return nil
}

// Alive reports whether peer i has not yet failed.
func (f *FanOutSink) Alive(i int) bool { return !f.failed[i] }

// PeerError returns the error that took peer i out, or nil if it is
// still alive or never failed.
func (f *FanOutSink) PeerError(i int) error { return f.lastErr[i] }

// AliveCount returns how many peers have not failed.
func (f *FanOutSink) AliveCount() int {
	n := 0
	for _, failed := range f.failed {
		if !failed {
			n++
		}
	}

	return n
}
