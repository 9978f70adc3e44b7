package atomic_float

import (
	"math"
	"sync/atomic"
)

// AtomicFloat64 is a float64 readable and writable from multiple goroutines
// without locks. The simulation loop is its only writer in practice; views
// and loggers read it concurrently.
type AtomicFloat64 struct {
	bits atomic.Uint64
}

// NewAtomicFloat64 returns an AtomicFloat64 holding val.
func NewAtomicFloat64(val float64) *AtomicFloat64 {
	af := &AtomicFloat64{}
	af.bits.Store(math.Float64bits(val))
	return af
}

// AtomicRead returns the current value.
func (af *AtomicFloat64) AtomicRead() float64 {
	return math.Float64frombits(af.bits.Load())
}

// AtomicAdd attempts a single compare-and-swap of value+addend.
// If another writer changed the value in between, the add is not applied and
// succeeded is false, leaving the caller to retry or drop the update.
func (af *AtomicFloat64) AtomicAdd(addend float64) (newVal float64, succeeded bool) {
	old := af.bits.Load()
	newVal = math.Float64frombits(old) + addend
	succeeded = af.bits.CompareAndSwap(old, math.Float64bits(newVal))
	return
}

// Accumulate adds addend, retrying until the add lands.
func (af *AtomicFloat64) Accumulate(addend float64) float64 {
	for {
		if newVal, ok := af.AtomicAdd(addend); ok {
			return newVal
		}
	}
}

// AtomicSet overwrites the value.
func (af *AtomicFloat64) AtomicSet(val float64) {
	af.bits.Store(math.Float64bits(val))
}
