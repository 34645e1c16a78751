package kernel

import (
	"fmt"

	"github.com/emberos/ember/pkg/ring"
	"github.com/emberos/ember/pkg/types"
)

// DBRegister gives topic a payload: a fixed value buffer or a stream ring
// of size bytes, allocated from the data-store heap. A plain topic may be
// upgraded once; re-registering with a different payload kind is a
// programming error. Registering a stream resets its subscriber set.
func (k *Kernel) DBRegister(key string, size uint32, attr uint8) {
	kind := attr & types.AttrKindMask
	if kind != types.AttrValue && kind != types.AttrStream {
		panic(fmt.Sprintf("kernel: register %q needs exactly one of value/stream, got %#x", key, attr))
	}
	if size == 0 || size > 0xffff {
		panic(fmt.Sprintf("kernel: register %q with invalid size %d", key, size))
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	idx := k.eventSlotAt(key)
	evt := k.objects[idx].evt

	existing := evt.attr & types.AttrKindMask
	if existing != 0 && existing != kind {
		panic(fmt.Sprintf("kernel: %q already registered as %#x, cannot become %#x", key, existing, kind))
	}
	if existing == kind {
		// Redundant registration with a matching attribute.
		evt.attr = attr
		return
	}

	evt.attr = attr
	switch kind {
	case types.AttrValue:
		off, err := k.dheap.Alloc(size)
		if err != nil {
			panic(fmt.Sprintf("kernel: store heap exhausted registering %q: %v", key, err))
		}
		evt.valueOff = off
		evt.hasValue = true
		evt.size = uint16(size)
	case types.AttrStream:
		off, err := k.dheap.Alloc(size)
		if err != nil {
			panic(fmt.Sprintf("kernel: store heap exhausted registering %q: %v", key, err))
		}
		evt.stream = ring.New(k.dheap.Bytes(off)[:size])
		evt.size = uint16(size)
		evt.sub.Reset()
	}

	k.logger.Debug().Str("key", key).Uint32("size", size).Uint8("attr", attr).Msg("Store key registered")
}

// DBGetAttribute returns the attribute byte of a registered key.
func (k *Kernel) DBGetAttribute(key string) uint8 {
	k.mu.Lock()
	defer k.mu.Unlock()

	idx := k.mustEventSlot(key)
	return k.objects[idx].evt.attr
}

// DBSetAttribute replaces the attribute byte of a registered key. The
// payload-kind bits remain mutually exclusive.
func (k *Kernel) DBSetAttribute(key string, attr uint8) {
	if attr&types.AttrKindMask == types.AttrValue|types.AttrStream {
		panic(fmt.Sprintf("kernel: attribute %#x for %q sets both value and stream", attr, key))
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	idx := k.mustEventSlot(key)
	k.objects[idx].evt.attr = attr
}

// DBBlockRead copies a value key's buffer into out. out must hold the
// registered size.
func (k *Kernel) DBBlockRead(key string, out []byte) {
	k.mu.Lock()
	defer k.mu.Unlock()

	evt := k.payloadSlot(key, types.AttrValue)
	if len(out) < int(evt.size) {
		panic(fmt.Sprintf("kernel: block read of %q needs %d bytes, got %d", key, evt.size, len(out)))
	}
	copy(out[:evt.size], k.dheap.Bytes(evt.valueOff))
}

// DBBlockWrite replaces a value key's buffer. data must hold the
// registered size.
func (k *Kernel) DBBlockWrite(key string, data []byte) {
	k.mu.Lock()
	defer k.mu.Unlock()

	evt := k.payloadSlot(key, types.AttrValue)
	if len(data) < int(evt.size) {
		panic(fmt.Sprintf("kernel: block write of %q needs %d bytes, got %d", key, evt.size, len(data)))
	}
	copy(k.dheap.Bytes(evt.valueOff), data[:evt.size])
}

// DBStreamRead drains up to len(out) bytes from a stream key and returns
// the count; an empty stream returns 0.
func (k *Kernel) DBStreamRead(key string, out []byte) int {
	k.mu.Lock()
	defer k.mu.Unlock()

	evt := k.payloadSlot(key, types.AttrStream)
	return evt.stream.Pull(out)
}

// DBStreamWrite pushes data into a stream key. Overflowing the ring is a
// sizing error on the writer's side.
func (k *Kernel) DBStreamWrite(key string, data []byte) {
	k.mu.Lock()
	defer k.mu.Unlock()

	evt := k.payloadSlot(key, types.AttrStream)
	if evt.stream.Free() < len(data) {
		panic(fmt.Sprintf("kernel: stream %q overflow: %d bytes into %d free", key, len(data), evt.stream.Free()))
	}
	if err := evt.stream.Push(data); err != nil {
		panic(fmt.Sprintf("kernel: stream write to %q: %v", key, err))
	}
}

// mustEventSlot resolves key to an existing event slot. Lock held.
func (k *Kernel) mustEventSlot(key string) int {
	idx := k.getIndex(key)
	if idx == slotNone || k.objects[idx].kind != objEvent {
		panic(fmt.Sprintf("kernel: store key %q not registered", key))
	}
	return idx
}

// payloadSlot resolves key and checks it carries the wanted payload kind.
// Lock held.
func (k *Kernel) payloadSlot(key string, want uint8) *eventSlot {
	idx := k.mustEventSlot(key)
	evt := k.objects[idx].evt
	if evt.attr&want == 0 {
		panic(fmt.Sprintf("kernel: store key %q lacks attribute %#x", key, want))
	}
	return evt
}
