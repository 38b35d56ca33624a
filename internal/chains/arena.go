package chains

// Handle is a stable reference to a chain held by a Registry. It stays
// valid for as long as the chain is in the registry; once the chain is
// deleted the handle goes stale and resolves to nothing, even if its slot is
// later reused.
type Handle struct {
	slot uint32
	gen  uint32
}

// IsZero reports whether h is the zero Handle, which never refers to a chain.
func (h Handle) IsZero() bool {
	return h.gen == 0
}

// headSlot is the sentinel of the circular user-chain list.
const headSlot uint32 = 0

type node struct {
	chain *Chain
	prev  uint32
	next  uint32
	gen   uint32
	live  bool
}

// arena stores chain nodes in a growable table addressed by slot. Freed
// slots are recycled with a bumped generation.
type arena struct {
	nodes []node
	free  []uint32
	live  int
	limit int
}

func newArena(limit, sizeHint int) arena {
	a := arena{
		nodes: make([]node, 1, sizeHint+1),
		limit: limit,
	}
	a.nodes[headSlot] = node{gen: 1, live: true, prev: headSlot, next: headSlot}
	return a
}

func (a *arena) alloc(c *Chain) (uint32, error) {
	if a.limit > 0 && a.live >= a.limit {
		return 0, ErrArenaFull
	}
	var slot uint32
	if n := len(a.free); n > 0 {
		slot = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		slot = uint32(len(a.nodes))
		a.nodes = append(a.nodes, node{gen: 1})
	}
	nd := &a.nodes[slot]
	nd.chain = c
	nd.live = true
	nd.prev, nd.next = slot, slot
	a.live++
	return slot, nil
}

func (a *arena) release(slot uint32) {
	nd := &a.nodes[slot]
	nd.chain = nil
	nd.live = false
	nd.gen++
	if nd.gen == 0 {
		nd.gen = 1
	}
	a.free = append(a.free, slot)
	a.live--
}

func (a *arena) handle(slot uint32) Handle {
	return Handle{slot: slot, gen: a.nodes[slot].gen}
}

// resolve returns the slot behind h if h still refers to a live chain.
func (a *arena) resolve(h Handle) (uint32, bool) {
	if h.IsZero() || h.slot == headSlot || int(h.slot) >= len(a.nodes) {
		return 0, false
	}
	nd := &a.nodes[h.slot]
	if !nd.live || nd.gen != h.gen || nd.chain == nil {
		return 0, false
	}
	return h.slot, true
}

func (a *arena) chain(slot uint32) *Chain {
	return a.nodes[slot].chain
}

// first returns the first user chain, or headSlot for an empty list.
func (a *arena) first() uint32 {
	return a.nodes[headSlot].next
}

func (a *arena) next(slot uint32) uint32 {
	return a.nodes[slot].next
}

// linkBefore splices slot into the user list in front of at.
func (a *arena) linkBefore(slot, at uint32) {
	prev := a.nodes[at].prev
	a.nodes[slot].prev = prev
	a.nodes[slot].next = at
	a.nodes[prev].next = slot
	a.nodes[at].prev = slot
}

// unlink removes slot from the user list and returns its former successor.
func (a *arena) unlink(slot uint32) uint32 {
	nd := &a.nodes[slot]
	prev, next := nd.prev, nd.next
	a.nodes[prev].next = next
	a.nodes[next].prev = prev
	nd.prev, nd.next = slot, slot
	return next
}
