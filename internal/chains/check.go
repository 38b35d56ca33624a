package chains

import "fmt"

// Check verifies the registry invariants: list links are consistent, user
// chains are sorted, every index slot references a live user chain in list
// order with slot 0 on the first chain, and searching for a slot's chain
// lands on that slot.
func (r *Registry) Check() error {
	for i, h := range r.builtins {
		slot, ok := r.arena.resolve(h)
		if !ok {
			return fmt.Errorf("%w: built-in %d has a stale handle", ErrIndexCorrupt, i)
		}
		if !r.arena.chain(slot).IsBuiltin() {
			return fmt.Errorf("%w: %q in built-in region is a user chain", ErrIndexCorrupt, r.arena.chain(slot).Name)
		}
	}

	// Map each live user slot to its sorted position.
	pos := make(map[uint32]int, r.users)
	n := 0
	prev := headSlot
	for s := r.arena.first(); s != headSlot; s = r.arena.next(s) {
		if n > r.users {
			return fmt.Errorf("%w: list longer than %d chains", ErrIndexCorrupt, r.users)
		}
		nd := &r.arena.nodes[s]
		if !nd.live || nd.chain == nil {
			return fmt.Errorf("%w: dead node %d linked into the list", ErrIndexCorrupt, s)
		}
		if nd.prev != prev {
			return fmt.Errorf("%w: broken back link at %q", ErrIndexCorrupt, nd.chain.Name)
		}
		if nd.chain.IsBuiltin() {
			return fmt.Errorf("%w: built-in %q in user region", ErrIndexCorrupt, nd.chain.Name)
		}
		if prev != headSlot && r.arena.chain(prev).Name > nd.chain.Name {
			return fmt.Errorf("%w: %q sorts after %q", ErrIndexCorrupt, r.arena.chain(prev).Name, nd.chain.Name)
		}
		pos[s] = n
		n++
		prev = s
	}
	if n != r.users {
		return fmt.Errorf("%w: counted %d user chains, expected %d", ErrIndexCorrupt, n, r.users)
	}
	if r.arena.nodes[headSlot].prev != prev {
		return fmt.Errorf("%w: list tail mismatch", ErrIndexCorrupt)
	}

	last := -1
	for i, h := range r.idx.slots {
		slot, ok := r.arena.resolve(h)
		if !ok {
			return fmt.Errorf("%w: slot %d is stale", ErrIndexCorrupt, i)
		}
		p, linked := pos[slot]
		if !linked {
			return fmt.Errorf("%w: slot %d references unlinked chain %q", ErrIndexCorrupt, i, r.arena.chain(slot).Name)
		}
		if i == 0 && p != 0 {
			return fmt.Errorf("%w: slot 0 references %q, not the first chain", ErrIndexCorrupt, r.arena.chain(slot).Name)
		}
		if p <= last {
			return fmt.Errorf("%w: slot %d out of order", ErrIndexCorrupt, i)
		}
		last = p

		if sr := r.idx.search(&r.arena, r.arena.chain(slot).Name); sr.pos != slot {
			return fmt.Errorf("%w: search for %q lands on slot %d, not %d", ErrIndexCorrupt, r.arena.chain(slot).Name, sr.slot, i)
		}
	}
	return nil
}
