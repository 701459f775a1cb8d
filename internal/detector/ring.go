package detector

import "firestige.xyz/microburst/internal/core"

// ring is a fixed-capacity FIFO of packets over a preallocated arena.
// put and get are logical cursors that only grow; the arena slot is the
// cursor modulo capacity.
type ring struct {
	arena []core.Packet
	put   uint64
	get   uint64
}

func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{arena: make([]core.Packet, capacity)}
}

func (r *ring) Len() int { return int(r.put - r.get) }

func (r *ring) Cap() int { return len(r.arena) }

func (r *ring) Full() bool { return r.Len() == len(r.arena) }

// Push appends p. The caller must evict first when the ring is full.
func (r *ring) Push(p core.Packet) {
	r.arena[r.put%uint64(len(r.arena))] = p
	r.put++
}

// Oldest returns the element at the tail. Only valid when Len() > 0.
func (r *ring) Oldest() core.Packet {
	return r.arena[r.get%uint64(len(r.arena))]
}

// Newest returns the most recently pushed element. Only valid when Len() > 0.
func (r *ring) Newest() core.Packet {
	return r.arena[(r.put-1)%uint64(len(r.arena))]
}

// Pop removes and returns the oldest element.
func (r *ring) Pop() core.Packet {
	p := r.Oldest()
	r.get++
	return p
}
