package domain

import "sync/atomic"

// IDAllocator hands out sequential integer ids starting at zero. Each owner
// (question bank, dispatcher, matchmaker) keeps its own allocator so ids stay
// deterministic per fixture instead of leaking through process-wide counters.
type IDAllocator struct {
	next int64
}

func NewIDAllocator() *IDAllocator {
	return &IDAllocator{}
}

// Next returns the next id. Safe for concurrent use.
func (a *IDAllocator) Next() int {
	return int(atomic.AddInt64(&a.next, 1) - 1)
}
