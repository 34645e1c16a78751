package ring

import "errors"

var (
	ErrFull   = errors.New("ring: full")
	ErrNoRoom = errors.New("ring: not enough room")
)

// Ring is a single-producer single-consumer circular byte buffer. head is
// the write cursor, tail the read cursor; the empty flag disambiguates
// head == tail.
type Ring struct {
	data  []byte
	head  uint32
	tail  uint32
	empty bool
}

// New wraps buf as an empty ring. The ring does not own buf; the caller
// allocates it (the data store hands in heap-backed memory).
func New(buf []byte) *Ring {
	return &Ring{data: buf, empty: true}
}

// Push appends p to the ring. It fails without writing anything when the
// ring is full or p does not fit.
func (r *Ring) Push(p []byte) error {
	if r.Full() {
		return ErrFull
	}
	if uint32(len(p)) > uint32(r.Free()) {
		return ErrNoRoom
	}

	capacity := uint32(len(r.data))
	for i := 0; i < len(p); i++ {
		r.data[r.head] = p[i]
		r.head = (r.head + 1) % capacity
	}
	if len(p) > 0 {
		r.empty = false
	}
	return nil
}

// Pull drains up to len(p) bytes into p and returns the count. An empty
// ring returns 0. Draining the last byte rewinds both cursors to zero.
func (r *Ring) Pull(p []byte) int {
	if r.empty {
		return 0
	}

	n := r.Size()
	if n > len(p) {
		n = len(p)
	}

	capacity := uint32(len(r.data))
	for i := 0; i < n; i++ {
		p[i] = r.data[r.tail]
		r.tail = (r.tail + 1) % capacity
	}
	if r.tail == r.head {
		r.tail = 0
		r.head = 0
		r.empty = true
	}
	return n
}

// Size returns the bytes currently buffered.
func (r *Ring) Size() int {
	if r.empty {
		return 0
	}
	size := int(r.head) - int(r.tail)
	if size <= 0 {
		size += len(r.data)
	}
	return size
}

// Free returns the bytes of remaining capacity.
func (r *Ring) Free() int {
	return len(r.data) - r.Size()
}

// Full reports whether no more bytes fit.
func (r *Ring) Full() bool {
	return !r.empty && r.head == r.tail
}

// Capacity returns the total byte capacity.
func (r *Ring) Capacity() int {
	return len(r.data)
}
