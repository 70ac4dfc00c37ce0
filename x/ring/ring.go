// Package ring is a single-producer, single-consumer byte ring.
//
// The producer is interrupt context, the consumer the main loop. Indices are
// monotonic and published with atomic stores, so neither side masks
// interrupts. There is no wake-up channel: producers notify through the
// scheduler instead.
package ring

import "sync/atomic"

type Ring struct {
	buf  []byte
	mask uint32
	rd   atomic.Uint32 // consumer index
	wr   atomic.Uint32 // producer index

	drops atomic.Uint32
}

// New returns a ring of size bytes. size must be a power of two >= 2.
func New(size int) *Ring {
	if size < 2 || (size&(size-1)) != 0 {
		panic("ring: size must be power of two >= 2")
	}
	return &Ring{buf: make([]byte, size), mask: uint32(size - 1)}
}

func (r *Ring) size() uint32 { return uint32(len(r.buf)) }

// Available is the number of unread bytes.
func (r *Ring) Available() int { return int(r.wr.Load() - r.rd.Load()) }

// Space is the number of bytes that can be written without dropping.
func (r *Ring) Space() int { return int(r.size()) - r.Available() }

// Put stores one byte. A full ring drops it and counts the drop.
func (r *Ring) Put(b byte) bool {
	rd := r.rd.Load()
	wr := r.wr.Load()
	if wr-rd >= r.size() {
		r.drops.Add(1)
		return false
	}
	r.buf[wr&r.mask] = b
	r.wr.Store(wr + 1)
	return true
}

// Write stores as much of src as fits and returns the count stored.
func (r *Ring) Write(src []byte) int {
	n := 0
	for _, b := range src {
		if !r.Put(b) {
			break
		}
		n++
	}
	return n
}

// Read copies up to len(dst) unread bytes into dst.
func (r *Ring) Read(dst []byte) int {
	if len(dst) == 0 {
		return 0
	}
	rd := r.rd.Load()
	wr := r.wr.Load()
	n := int(wr - rd)
	if n > len(dst) {
		n = len(dst)
	}
	if n == 0 {
		return 0
	}
	idx := rd & r.mask
	first := int(r.size() - idx)
	if first > n {
		first = n
	}
	copy(dst[:first], r.buf[idx:idx+uint32(first)])
	if second := n - first; second > 0 {
		copy(dst[first:n], r.buf[:second])
	}
	r.rd.Store(rd + uint32(n))
	return n
}

// Drops counts bytes lost to a full ring.
func (r *Ring) Drops() uint32 { return r.drops.Load() }

// Reset discards unread bytes. Only call while the producer is quiet.
func (r *Ring) Reset() { r.rd.Store(r.wr.Load()) }
