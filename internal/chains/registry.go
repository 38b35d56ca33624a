package chains

import (
	"fmt"
	"iter"
	"strings"

	"grimm.is/chainreg/internal/logging"
)

const (
	// DefaultBucketLen is the number of user chains covered by one index slot.
	DefaultBucketLen = 40

	// DefaultRebuildThreshold is how many chains may be inserted beyond the
	// index capacity before the index is rebuilt.
	DefaultRebuildThreshold = 355
)

// Config tunes a Registry.
type Config struct {
	// BucketLen trades binary search depth against bucket walk length.
	BucketLen int
	// RebuildThreshold trades rebuild frequency against stale bucket length.
	RebuildThreshold int
	// MaxIndexSlots bounds the index array; 0 means unbounded. A rebuild
	// that would need more slots leaves the index empty instead.
	MaxIndexSlots int
	// MaxChains bounds the number of chain records; 0 means unbounded.
	MaxChains int
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		BucketLen:        DefaultBucketLen,
		RebuildThreshold: DefaultRebuildThreshold,
	}
}

// Validate checks that the tuning values are usable.
func (c Config) Validate() error {
	if c.BucketLen < 1 {
		return fmt.Errorf("bucket length must be positive, got %d", c.BucketLen)
	}
	if c.RebuildThreshold < 0 {
		return fmt.Errorf("rebuild threshold must not be negative, got %d", c.RebuildThreshold)
	}
	if c.MaxIndexSlots < 0 {
		return fmt.Errorf("max index slots must not be negative, got %d", c.MaxIndexSlots)
	}
	if c.MaxChains < 0 {
		return fmt.Errorf("max chains must not be negative, got %d", c.MaxChains)
	}
	return nil
}

// DeleteResult describes what Delete did to the registry and its index.
type DeleteResult uint8

const (
	// DeleteNotFound means no user chain had the name.
	DeleteNotFound DeleteResult = iota
	// DeleteUnindexed means the chain was removed and no slot referenced it.
	DeleteUnindexed
	// DeleteRepointed means the slot that referenced the chain now
	// references its successor.
	DeleteRepointed
	// DeleteShrunk means the chain was the last one and its slot was dropped.
	DeleteShrunk
	// DeleteRebuilt means the index had to be rebuilt from scratch.
	DeleteRebuilt
)

func (d DeleteResult) String() string {
	switch d {
	case DeleteNotFound:
		return "not found"
	case DeleteUnindexed:
		return "unindexed"
	case DeleteRepointed:
		return "repointed"
	case DeleteShrunk:
		return "shrunk"
	case DeleteRebuilt:
		return "rebuilt"
	}
	return fmt.Sprintf("DeleteResult(%d)", uint8(d))
}

// Deleted reports whether a chain was removed.
func (d DeleteResult) Deleted() bool {
	return d != DeleteNotFound
}

// Stats is a snapshot of registry bookkeeping.
type Stats struct {
	Builtins            int    `json:"builtins" yaml:"builtins"`
	UserChains          int    `json:"user_chains" yaml:"user_chains"`
	IndexSlots          int    `json:"index_slots" yaml:"index_slots"`
	BucketLen           int    `json:"bucket_len" yaml:"bucket_len"`
	InsertsSinceRebuild int    `json:"inserts_since_rebuild" yaml:"inserts_since_rebuild"`
	Rebuilds            uint64 `json:"rebuilds" yaml:"rebuilds"`
	Repoints            uint64 `json:"repoints" yaml:"repoints"`
	Degraded            bool   `json:"degraded" yaml:"degraded"`
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the diagnostic sink for index maintenance tracing.
func WithLogger(l *logging.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l.WithComponent("chainindex")
		}
	}
}

// WithObserver installs a metrics observer.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.obs = o
		}
	}
}

// Registry is the ordered set of chains of one table: a fixed-order prefix
// of built-in chains followed by user chains sorted by name, with a sparse
// index over the sorted part.
//
// A Registry is not safe for concurrent use.
type Registry struct {
	cfg      Config
	arena    arena
	builtins []Handle
	users    int
	idx      index

	log *logging.Logger
	obs Observer

	rebuilds uint64
	repoints uint64
	degraded bool
}

// New returns an empty registry. A zero BucketLen and negative values fall
// back to the defaults; a zero RebuildThreshold is kept.
func New(cfg Config, opts ...Option) *Registry {
	if cfg.BucketLen < 1 {
		cfg.BucketLen = DefaultBucketLen
	}
	if cfg.RebuildThreshold < 0 {
		cfg.RebuildThreshold = DefaultRebuildThreshold
	}
	if cfg.MaxIndexSlots < 0 {
		cfg.MaxIndexSlots = 0
	}
	if cfg.MaxChains < 0 {
		cfg.MaxChains = 0
	}

	r := &Registry{
		cfg: cfg,
		log: logging.Discard(),
		obs: nopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.reset(0)
	return r
}

func (r *Registry) reset(sizeHint int) {
	r.arena = newArena(r.cfg.MaxChains, sizeHint)
	r.builtins = nil
	r.users = 0
	r.idx = index{
		bucketLen: r.cfg.BucketLen,
		threshold: r.cfg.RebuildThreshold,
		maxSlots:  r.cfg.MaxIndexSlots,
	}
	r.degraded = false
}

// Config returns the tuning in effect.
func (r *Registry) Config() Config {
	return r.cfg
}

// Load replaces the registry contents with chains, which must list the
// built-in chains first, in hook order, followed by the user chains in
// ascending name order. The index is built once everything is appended.
// On error the registry is left empty.
func (r *Registry) Load(chains []*Chain) error {
	r.reset(len(chains))

	var (
		lastHook Hook
		lastName string
		seenUser bool
	)
	for _, c := range chains {
		if c == nil {
			r.reset(0)
			return fmt.Errorf("%w: nil chain", ErrUnsorted)
		}

		if c.IsBuiltin() {
			if seenUser {
				r.reset(0)
				return fmt.Errorf("%w: built-in chain %q follows user chains", ErrUnsorted, c.Name)
			}
			if c.Hook < lastHook {
				r.reset(0)
				return fmt.Errorf("%w: built-in chain %q (%s) follows hook %s", ErrUnsorted, c.Name, c.Hook, lastHook)
			}
			lastHook = c.Hook
			slot, err := r.arena.alloc(c)
			if err != nil {
				r.reset(0)
				return fmt.Errorf("failed to load chain %q: %w", c.Name, err)
			}
			r.builtins = append(r.builtins, r.arena.handle(slot))
			continue
		}

		if seenUser && c.Name < lastName {
			r.reset(0)
			return fmt.Errorf("%w: %q sorts before %q", ErrUnsorted, c.Name, lastName)
		}
		seenUser = true
		lastName = c.Name

		slot, err := r.arena.alloc(c)
		if err != nil {
			r.reset(0)
			return fmt.Errorf("failed to load chain %q: %w", c.Name, err)
		}
		r.arena.linkBefore(slot, headSlot)
		r.users++
	}

	r.rebuild(RebuildLoad)
	r.log.Debug("loaded chains", "builtins", len(r.builtins), "user", r.users, "slots", len(r.idx.slots))
	return nil
}

// Find returns the handle of the chain called name.
func (r *Registry) Find(name string) (Handle, bool) {
	for _, h := range r.builtins {
		if r.arena.chain(h.slot).Name == name {
			r.obs.ChainLookup(true, 0)
			return h, true
		}
	}
	if r.users == 0 {
		r.obs.ChainLookup(false, 0)
		return Handle{}, false
	}

	sr := r.idx.search(&r.arena, name)
	slot, steps, ok := r.walk(sr.pos, name)
	r.obs.ChainLookup(ok, steps)
	if !ok {
		return Handle{}, false
	}
	return r.arena.handle(slot), true
}

// Lookup is Find followed by Get.
func (r *Registry) Lookup(name string) (*Chain, bool) {
	h, ok := r.Find(name)
	if !ok {
		return nil, false
	}
	return r.Get(h)
}

// Get resolves a handle. It fails for stale handles.
func (r *Registry) Get(h Handle) (*Chain, bool) {
	slot, ok := r.arena.resolve(h)
	if !ok {
		return nil, false
	}
	return r.arena.chain(slot), true
}

// walk scans the user list forward from start looking for name. Sorted
// order lets it stop at the first greater name.
func (r *Registry) walk(start uint32, name string) (uint32, int, bool) {
	if start == headSlot {
		start = r.arena.first()
	}
	steps := 0
	for s := start; s != headSlot; s = r.arena.next(s) {
		steps++
		cmp := strings.Compare(r.arena.chain(s).Name, name)
		if cmp == 0 {
			return s, steps, true
		}
		if cmp > 0 {
			break
		}
	}
	return headSlot, steps, false
}

// Create adds an empty user chain called name. Names are not checked for
// uniqueness; callers must Find first.
func (r *Registry) Create(name string) (Handle, error) {
	return r.Insert(&Chain{Name: name})
}

// Insert places c among the user chains at its sorted position. c becomes
// a user chain regardless of its Kind.
func (r *Registry) Insert(c *Chain) (Handle, error) {
	c.Kind = KindUser
	c.Hook = HookNone

	slot, err := r.arena.alloc(c)
	if err != nil {
		return Handle{}, fmt.Errorf("failed to create chain %q: %w", c.Name, err)
	}

	sr := r.idx.search(&r.arena, c.Name)
	if sr.slot == 0 && strings.Compare(c.Name, r.arena.chain(sr.pos).Name) <= 0 {
		// New overall first chain: it takes over slot 0.
		r.arena.linkBefore(slot, r.arena.first())
		r.idx.slots[0] = r.arena.handle(slot)
		r.log.Debug("chain takes index head", "chain", c.Name)
	} else {
		start := sr.pos
		if start == headSlot {
			start = r.arena.first()
		}
		at := headSlot
		for s := start; s != headSlot; s = r.arena.next(s) {
			if strings.Compare(r.arena.chain(s).Name, c.Name) >= 0 {
				at = s
				break
			}
		}
		r.arena.linkBefore(slot, at)
	}
	r.users++

	if sr.slot < 0 && len(r.idx.slots) > 0 {
		// Same repair as Delete: the search gave up on a bad slot.
		r.rebuild(RebuildInsert)
		return r.arena.handle(slot), nil
	}

	r.idx.inserts++
	if r.idx.overCapacity(r.users) {
		r.log.Debug("index capacity exceeded",
			"capacity", r.idx.capacity(),
			"chains", r.users,
			"inserts", r.idx.inserts)
		r.rebuild(RebuildInsert)
	}
	return r.arena.handle(slot), nil
}

// Delete removes the user chain called name. Built-in chains are never
// removed; asking for one reports DeleteNotFound.
func (r *Registry) Delete(name string) DeleteResult {
	if r.users == 0 {
		return DeleteNotFound
	}

	sr := r.idx.search(&r.arena, name)
	target, _, ok := r.walk(sr.pos, name)
	if !ok {
		return DeleteNotFound
	}

	indexed := sr.slot >= 0 && r.idx.slots[sr.slot].slot == target
	next := r.arena.unlink(target)
	r.users--

	res := DeleteUnindexed
	switch {
	case indexed:
		res = r.idx.repair(&r.arena, sr.slot, next)
		switch res {
		case DeleteRepointed:
			r.repoints++
			r.obs.IndexRepointed(sr.slot)
			r.log.Debug("repointed index slot", "slot", sr.slot, "removed", name)
		case DeleteShrunk:
			r.log.Debug("dropped empty index bucket", "slot", sr.slot, "removed", name)
		case DeleteRebuilt:
			r.rebuild(RebuildDelete)
		}
	case sr.slot < 0 && len(r.idx.slots) > 0:
		// The search gave up on a bad slot; the index cannot be trusted.
		r.rebuild(RebuildDelete)
		res = DeleteRebuilt
	}

	r.arena.release(target)
	return res
}

// Rebuild reconstructs the index from the current chain list.
func (r *Registry) Rebuild() error {
	return r.rebuild(RebuildManual)
}

func (r *Registry) rebuild(reason RebuildReason) error {
	err := r.idx.build(&r.arena, r.users)
	r.rebuilds++
	r.obs.IndexRebuilt(reason, len(r.idx.slots), err)

	if err != nil {
		if !r.degraded {
			r.log.Warn("chain index disabled, falling back to linear scans", "reason", string(reason), "error", err)
		}
		r.degraded = true
		return err
	}
	if r.degraded {
		r.log.Info("chain index restored", "slots", len(r.idx.slots))
	}
	r.degraded = false
	r.log.Debug("rebuilt chain index", "reason", string(reason), "slots", len(r.idx.slots), "chains", r.users)
	return nil
}

// Len returns the total number of chains.
func (r *Registry) Len() int {
	return len(r.builtins) + r.users
}

// UserLen returns the number of user-defined chains.
func (r *Registry) UserLen() int {
	return r.users
}

// BuiltinLen returns the number of built-in chains.
func (r *Registry) BuiltinLen() int {
	return len(r.builtins)
}

// All iterates over the built-in chains in hook order, then the user
// chains by name. The registry must not be modified during iteration.
func (r *Registry) All() iter.Seq2[Handle, *Chain] {
	return func(yield func(Handle, *Chain) bool) {
		for h, c := range r.Builtins() {
			if !yield(h, c) {
				return
			}
		}
		for h, c := range r.UserChains() {
			if !yield(h, c) {
				return
			}
		}
	}
}

// Builtins iterates over the built-in chains in hook order.
func (r *Registry) Builtins() iter.Seq2[Handle, *Chain] {
	return func(yield func(Handle, *Chain) bool) {
		for _, h := range r.builtins {
			if !yield(h, r.arena.chain(h.slot)) {
				return
			}
		}
	}
}

// UserChains iterates over the user chains in name order.
func (r *Registry) UserChains() iter.Seq2[Handle, *Chain] {
	return func(yield func(Handle, *Chain) bool) {
		for s := r.arena.first(); s != headSlot; s = r.arena.next(s) {
			if !yield(r.arena.handle(s), r.arena.chain(s)) {
				return
			}
		}
	}
}

// Names returns every chain name in table order.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.Len())
	for _, c := range r.All() {
		names = append(names, c.Name)
	}
	return names
}

// Stats returns a snapshot of the registry bookkeeping.
func (r *Registry) Stats() Stats {
	return Stats{
		Builtins:            len(r.builtins),
		UserChains:          r.users,
		IndexSlots:          len(r.idx.slots),
		BucketLen:           r.idx.bucketLen,
		InsertsSinceRebuild: r.idx.inserts,
		Rebuilds:            r.rebuilds,
		Repoints:            r.repoints,
		Degraded:            r.degraded,
	}
}
