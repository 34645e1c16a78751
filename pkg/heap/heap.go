package heap

import (
	"errors"
	"fmt"
)

// HeaderSize is the accounting cost of one block. Every block, free or
// used, consumes HeaderSize bytes of the budget in addition to its payload,
// so the sum of payload sizes plus header costs always equals the total.
const HeaderSize = 12

// Allocation error ids, readable through ErrorID after the last operation.
const (
	errNone      uint8 = 0
	errZeroSize  uint8 = 1
	errExhausted uint8 = 2
	errNotFound  uint8 = 4
)

var (
	ErrZeroSize  = errors.New("heap: zero-size allocation")
	ErrExhausted = errors.New("heap: exhausted")
	ErrNotFound  = errors.New("heap: block not found or already free")
)

type block struct {
	next *block
	off  uint32 // payload offset into data
	size uint32 // payload bytes
	free bool
}

// Heap is a first-fit block allocator over a fixed byte budget. The block
// list is the free list; freeing coalesces with both neighbours so no two
// adjacent free blocks exist.
type Heap struct {
	data  []byte
	list  *block
	size  uint32
	errID uint8
}

// New creates a heap with a total budget of size bytes. The budget must
// exceed one block header.
func New(size uint32) *Heap {
	if size <= HeaderSize {
		panic(fmt.Sprintf("heap: budget %d not above header size", size))
	}
	h := &Heap{
		data: make([]byte, size),
		size: size,
	}
	h.list = &block{
		off:  HeaderSize,
		size: size - HeaderSize,
		free: true,
	}
	return h
}

// Alloc reserves size bytes, rounded up to a 4-byte multiple, and returns
// the payload offset. The first sufficient free block is taken; it is split
// only when the remainder exceeds one header.
func (h *Heap) Alloc(size uint32) (uint32, error) {
	if size == 0 {
		h.errID = errZeroSize
		return 0, ErrZeroSize
	}
	if mod := size % 4; mod != 0 {
		size += 4 - mod
	}

	b := h.list
	for b != nil {
		if b.free && b.size >= size {
			break
		}
		b = b.next
	}
	if b == nil {
		h.errID = errExhausted
		return 0, ErrExhausted
	}

	if b.size-size > HeaderSize {
		nb := &block{
			next: b.next,
			off:  b.off + size + HeaderSize,
			size: b.size - size - HeaderSize,
			free: true,
		}
		b.next = nb
		b.size = size
	}
	b.free = false

	h.errID = errNone
	return b.off, nil
}

// Free releases the block whose payload starts at off. The predecessor is
// found by a forward scan; the freed block is merged with a free
// predecessor and a free successor.
func (h *Heap) Free(off uint32) error {
	var prev *block
	b := h.list
	for b != nil {
		if !b.free && b.off == off {
			break
		}
		prev = b
		b = b.next
	}
	if b == nil {
		h.errID = errNotFound
		return ErrNotFound
	}

	b.free = true
	if prev != nil && prev.free {
		prev.size += b.size + HeaderSize
		prev.next = b.next
		b = prev
	}
	if b.next != nil && b.next.free {
		b.size += b.next.size + HeaderSize
		b.next = b.next.next
	}

	h.errID = errNone
	return nil
}

// Bytes returns the payload of the used block at off.
func (h *Heap) Bytes(off uint32) []byte {
	for b := h.list; b != nil; b = b.next {
		if b.off == off {
			if b.free {
				panic(fmt.Sprintf("heap: offset %d is free", off))
			}
			return h.data[b.off : b.off+b.size]
		}
	}
	panic(fmt.Sprintf("heap: unknown offset %d", off))
}

// ErrorID reports the result of the last operation: 0 ok, 1 zero-size,
// 2 exhausted, 4 double-free or not-found.
func (h *Heap) ErrorID() uint8 {
	return h.errID
}

// Size returns the total budget.
func (h *Heap) Size() uint32 {
	return h.size
}

// Used returns the bytes held by used blocks, headers included.
func (h *Heap) Used() uint32 {
	var used uint32
	for b := h.list; b != nil; b = b.next {
		if !b.free {
			used += b.size + HeaderSize
		}
	}
	return used
}

// Blocks returns the number of blocks in the list.
func (h *Heap) Blocks() int {
	n := 0
	for b := h.list; b != nil; b = b.next {
		n++
	}
	return n
}

// accounted returns the budget covered by the block list. It must equal
// Size at all times.
func (h *Heap) accounted() uint32 {
	var total uint32
	for b := h.list; b != nil; b = b.next {
		total += b.size + HeaderSize
	}
	return total
}
