package kernel

import "fmt"

// slotNone marks a failed registry lookup.
const slotNone = -1

// hashTime33 is the DJB2 string hash, masked to 31 bits.
func hashTime33(s string) uint32 {
	h := uint32(5381)
	for i := 0; i < len(s); i++ {
		h += (h << 5) + uint32(s[i])
	}
	return h & 0x7fffffff
}

// largestPrime returns the largest prime not above n.
func largestPrime(n int) int {
	for i := n; i > 1; i-- {
		prime := true
		for j := 2; j*j <= i; j++ {
			if i%j == 0 {
				prime = false
				break
			}
		}
		if prime {
			return i
		}
	}
	return 1
}

// getIndex looks up the slot of topic, or slotNone. The probe starts at
// hash mod prime and fans out to (base ± i) mod N, both signs each round,
// giving up after the configured seek budget.
func (k *Kernel) getIndex(topic string) int {
	n := len(k.objects)
	base := int(hashTime33(topic)) % k.prime

	for i := 0; i <= n/2; i++ {
		for _, j := range [2]int{-1, 1} {
			idx := ((base+i*j)%n + n) % n
			if k.objects[idx].key != "" && k.objects[idx].key == topic {
				return idx
			}
		}
		if i >= k.cfg.HashSeekTimes {
			return slotNone
		}
	}
	return slotNone
}

// insert claims a slot for topic, returning the existing slot when the key
// is already present. Exceeding the seek budget is a sizing error.
func (k *Kernel) insert(topic string) int {
	if topic == "" {
		panic("registry: empty topic")
	}
	n := len(k.objects)
	base := int(hashTime33(topic)) % k.prime

	for i := 0; i <= n/2; i++ {
		for _, j := range [2]int{-1, 1} {
			idx := ((base+i*j)%n + n) % n
			if k.objects[idx].key == "" {
				k.objects[idx].key = topic
				return idx
			}
			if k.objects[idx].key == topic {
				return idx
			}
		}
		if i >= k.cfg.HashSeekTimes {
			break
		}
	}
	panic(fmt.Sprintf("registry: no slot for %q within seek budget, enlarge max_objects", topic))
}

// existed reports whether topic already has a slot.
func (k *Kernel) existed(topic string) bool {
	return k.getIndex(topic) != slotNone
}

// eventSlotAt resolves topic to an event slot, inserting a plain topic if
// absent. Lock held.
func (k *Kernel) eventSlotAt(topic string) int {
	idx := k.getIndex(topic)
	if idx == slotNone {
		idx = k.insert(topic)
		k.objects[idx].kind = objEvent
		k.objects[idx].evt = &eventSlot{attr: 0}
		return idx
	}
	if k.objects[idx].kind != objEvent {
		panic(fmt.Sprintf("registry: %q is not an event topic", topic))
	}
	return idx
}
