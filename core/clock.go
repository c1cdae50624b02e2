package core

import (
	"sync"
	"time"
)

// HeightSource is the external monotonic block-height clock consumed by the
// ledger. Due dates and profile timestamps are expressed against it; the
// ledger never advances it.
type HeightSource interface {
	Height() uint64
}

// ManualHeightSource is a height clock advanced explicitly by the host.
// Primarily intended for tests and embedded deployments.
type ManualHeightSource struct {
	mu     sync.RWMutex
	height uint64
}

// NewManualHeightSource returns a manual clock starting at the given height.
func NewManualHeightSource(height uint64) *ManualHeightSource {
	return &ManualHeightSource{height: height}
}

// Height returns the current height.
func (s *ManualHeightSource) Height() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.height
}

// SetHeight moves the clock forward. Attempts to move it backwards are
// ignored so the clock stays monotonic.
func (s *ManualHeightSource) SetHeight(height uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if height > s.height {
		s.height = height
	}
}

// Advance moves the clock forward by delta blocks.
func (s *ManualHeightSource) Advance(delta uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.height += delta
}

// IntervalHeightSource derives the height from wall-clock time elapsed since
// a genesis instant, at a fixed block interval.
type IntervalHeightSource struct {
	genesis  time.Time
	interval time.Duration
}

// NewIntervalHeightSource returns an interval clock. Intervals below one
// second are rounded up to one second.
func NewIntervalHeightSource(genesis time.Time, interval time.Duration) *IntervalHeightSource {
	if interval < time.Second {
		interval = time.Second
	}
	return &IntervalHeightSource{genesis: genesis, interval: interval}
}

// Height returns the number of whole intervals elapsed since genesis.
func (s *IntervalHeightSource) Height() uint64 {
	elapsed := time.Since(s.genesis)
	if elapsed <= 0 {
		return 0
	}
	return uint64(elapsed / s.interval)
}
