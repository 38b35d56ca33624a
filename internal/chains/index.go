package chains

import (
	"fmt"
	"strings"
)

// index is a sparse array of handles into the sorted user-chain list. Slot
// i references the chain at sorted position i*bucketLen as of the last
// build; between builds buckets grow on insert and are repaired on delete.
type index struct {
	slots     []Handle
	bucketLen int
	threshold int
	maxSlots  int

	// inserts counts Create calls since the last build.
	inserts int
}

type searchResult struct {
	// pos is where a forward walk should start; headSlot means "from the
	// first user chain".
	pos uint32
	// slot is the index slot pos came from, -1 when pos is headSlot.
	slot   int
	probes int
}

func (x *index) slotsFor(users int) int {
	return (users + x.bucketLen - 1) / x.bucketLen
}

// capacity is the number of user chains the current slots were sized for.
func (x *index) capacity() int {
	return len(x.slots) * x.bucketLen
}

// build replaces the slot array with a fresh one. When the needed size is
// over budget the index is left empty, never partially filled.
func (x *index) build(a *arena, users int) error {
	x.inserts = 0
	n := x.slotsFor(users)
	if x.maxSlots > 0 && n > x.maxSlots {
		x.slots = nil
		return fmt.Errorf("%w: need %d slots, budget %d", ErrIndexAlloc, n, x.maxSlots)
	}
	if n == 0 {
		x.slots = nil
		return nil
	}

	slots := make([]Handle, 0, n)
	i := 0
	for s := a.first(); s != headSlot; s = a.next(s) {
		if i%x.bucketLen == 0 {
			slots = append(slots, a.handle(s))
		}
		i++
	}
	x.slots = slots
	return nil
}

// search finds the index slot whose bucket should contain name. The
// returned position never lies after name's sorted position.
func (x *index) search(a *arena, name string) searchResult {
	res := searchResult{pos: headSlot, slot: -1}
	if len(x.slots) == 0 {
		return res
	}

	end := len(x.slots)
	pos := end / 2
	for {
		cur, ok := a.resolve(x.slots[pos])
		if !ok {
			// Stale slot: give up on the index and walk from the start.
			return searchResult{pos: headSlot, slot: -1, probes: res.probes}
		}
		res.probes++
		cmp := strings.Compare(name, a.chain(cur).Name)

		switch {
		case cmp == 0:
			res.pos, res.slot = cur, pos
			return res
		case cmp < 0:
			end = pos
			pos /= 2
			if end == 0 {
				res.pos, res.slot = cur, 0
				return res
			}
		default:
			if pos == len(x.slots)-1 {
				res.pos, res.slot = cur, pos
				return res
			}
			nxt, ok := a.resolve(x.slots[pos+1])
			if !ok {
				return searchResult{pos: headSlot, slot: -1, probes: res.probes}
			}
			res.probes++
			if strings.Compare(name, a.chain(nxt).Name) < 0 {
				res.pos, res.slot = cur, pos
				return res
			}
			pos = (pos + end) / 2
		}
	}
}

// repair fixes slot after the chain it referenced was unlinked; next is
// that chain's former successor. The unlinked chain must still be resolvable
// so searches can compare against it. It returns DeleteRebuilt when only a
// full build can restore the index; the caller performs it.
func (x *index) repair(a *arena, slot int, next uint32) DeleteResult {
	if next == headSlot {
		// The last user chain went away, so its bucket is empty.
		if slot != len(x.slots)-1 {
			return DeleteRebuilt
		}
		x.slots = x.slots[:slot]
		return DeleteShrunk
	}

	if r := x.search(a, a.chain(next).Name); r.slot == slot {
		x.slots[slot] = a.handle(next)
		return DeleteRepointed
	}
	return DeleteRebuilt
}

// overCapacity reports whether enough chains were inserted beyond the
// index capacity to warrant a rebuild.
func (x *index) overCapacity(users int) bool {
	return users-x.capacity() > x.threshold
}
