// Package table is the editing session over one table: it guards a chain
// registry with a mutex, validates edits, and journals them for commit.
package table

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"grimm.is/chainreg/internal/chains"
	"grimm.is/chainreg/internal/clock"
	"grimm.is/chainreg/internal/logging"
)

// MaxNameLen is the longest chain name the kernel accepts.
const MaxNameLen = 31

var reservedNames = []string{"ACCEPT", "DROP", "QUEUE", "RETURN"}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. The registry traces through the same
// logger under its own component.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithObserver forwards registry events to o, e.g. a metrics.Registry.
func WithObserver(o chains.Observer) Option {
	return func(s *Session) { s.obs = o }
}

// WithClock sets the clock used to stamp journal entries.
func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clock = clock.Or(c) }
}

// Session edits the chains of a single table. It is safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id      uuid.UUID
	name    string
	reg     *chains.Registry
	changes []Change

	log   *logging.Logger
	obs   chains.Observer
	clock clock.Clock
}

// New returns an empty session for the named table.
func New(name string, cfg chains.Config, opts ...Option) *Session {
	s := &Session{
		id:    uuid.New(),
		name:  name,
		log:   logging.Discard(),
		clock: clock.System,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithFields(map[string]any{"table": name, "session": s.id.String()})
	s.reg = chains.New(cfg, chains.WithLogger(s.log), chains.WithObserver(s.obs))
	return s
}

// ID identifies the session in audit records.
func (s *Session) ID() uuid.UUID { return s.id }

// Name returns the table name.
func (s *Session) Name() string { return s.name }

// Load replaces the session contents with copies of cs, which must be in
// table order. The journal is cleared.
func (s *Session) Load(cs []*chains.Chain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copies := make([]*chains.Chain, len(cs))
	for i, c := range cs {
		if c != nil {
			copies[i] = clone(c)
		}
	}
	if err := s.reg.Load(copies); err != nil {
		return fmt.Errorf("failed to load table %s: %w", s.name, err)
	}
	s.changes = nil
	s.log.Info("table loaded", "chains", s.reg.Len(), "builtin", s.reg.BuiltinLen())
	return nil
}

// IsChain reports whether a chain called name exists.
func (s *Session) IsChain(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.reg.Find(name)
	return ok
}

// IsBuiltin reports whether name is one of the table's built-in chains.
func (s *Session) IsBuiltin(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.reg.Lookup(name)
	return ok && c.IsBuiltin()
}

// Chains returns every chain name in table order.
func (s *Session) Chains() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Names()
}

// Lookup returns a copy of the chain called name.
func (s *Session) Lookup(name string) (*chains.Chain, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.reg.Lookup(name)
	if !ok {
		return nil, false
	}
	return clone(c), true
}

// Snapshot returns copies of every chain in table order.
func (s *Session) Snapshot() []*chains.Chain {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*chains.Chain, 0, s.reg.Len())
	for _, c := range s.reg.All() {
		out = append(out, clone(c))
	}
	return out
}

// CreateChain adds an empty user chain.
func (s *Session) CreateChain(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkNewName(name); err != nil {
		return err
	}
	if _, err := s.reg.Create(name); err != nil {
		return err
	}
	s.record(Change{Kind: ChangeCreated, Chain: name})
	return nil
}

// DeleteChain removes an empty, unreferenced user chain and reports what
// happened to the index.
func (s *Session) DeleteChain(name string) (chains.DeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.reg.Lookup(name)
	switch {
	case !ok:
		return chains.DeleteNotFound, fmt.Errorf("%w: %s", ErrNotFound, name)
	case c.IsBuiltin():
		return chains.DeleteNotFound, fmt.Errorf("%w: %s", ErrBuiltin, name)
	case c.References > 0:
		return chains.DeleteNotFound, fmt.Errorf("%w: %s has %d references", ErrInUse, name, c.References)
	case len(c.Rules) > 0:
		return chains.DeleteNotFound, fmt.Errorf("%w: %s has %d rules", ErrNotEmpty, name, len(c.Rules))
	}

	res := s.reg.Delete(name)
	if !res.Deleted() {
		return res, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	s.log.Debug("chain deleted", "chain", name, "index", res.String())
	s.record(Change{Kind: ChangeDeleted, Chain: name})
	return res, nil
}

// RenameChain gives a user chain a new name, keeping its rules and
// reference count. Rules in other chains that jump to the old name are
// retargeted.
func (s *Session) RenameChain(oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.reg.Lookup(oldName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, oldName)
	}
	if c.IsBuiltin() {
		return fmt.Errorf("%w: %s", ErrBuiltin, oldName)
	}
	if err := s.checkNewName(newName); err != nil {
		return err
	}

	s.reg.Delete(oldName)
	c.Name = newName
	if _, err := s.reg.Insert(c); err != nil {
		return fmt.Errorf("failed to rename %s: %w", oldName, err)
	}

	for _, other := range s.reg.All() {
		for i := range other.Rules {
			if other.Rules[i].Target == oldName {
				other.Rules[i].Target = newName
			}
		}
	}
	s.record(Change{Kind: ChangeRenamed, Chain: oldName, NewName: newName})
	return nil
}

// Policy returns the policy of a built-in chain.
func (s *Session) Policy(name string) (chains.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.reg.Lookup(name)
	if !ok {
		return chains.PolicyNone, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if !c.IsBuiltin() {
		return chains.PolicyNone, fmt.Errorf("%w: %s", ErrNotBuiltin, name)
	}
	return c.Policy, nil
}

// SetPolicy changes the policy of a built-in chain.
func (s *Session) SetPolicy(name string, p chains.Policy) error {
	if p != chains.PolicyAccept && p != chains.PolicyDrop {
		return ErrBadPolicy
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.reg.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if !c.IsBuiltin() {
		return fmt.Errorf("%w: %s", ErrNotBuiltin, name)
	}
	if c.Policy == p {
		return nil
	}
	c.Policy = p
	s.record(Change{Kind: ChangePolicySet, Chain: name, Policy: p})
	return nil
}

// Dirty reports whether there are uncommitted changes.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.changes) > 0
}

// Changes returns the uncommitted journal.
func (s *Session) Changes() []Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.changes)
}

// Commit hands the journal to w and clears it on success. A failed commit
// leaves the journal intact so it can be retried.
func (s *Session) Commit(ctx context.Context, w Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.changes) == 0 {
		return nil
	}
	if err := w.Apply(ctx, s.name, slices.Clone(s.changes)); err != nil {
		return fmt.Errorf("failed to commit table %s: %w", s.name, err)
	}

	s.log.Audit("commit", s.name, map[string]any{
		"changes": len(s.changes),
		"chains":  s.reg.Len(),
	})
	s.changes = nil
	return nil
}

// Stats returns the registry bookkeeping.
func (s *Session) Stats() chains.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Stats()
}

// Check verifies the registry invariants.
func (s *Session) Check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Check()
}

// Rebuild forces a rebuild of the chain index.
func (s *Session) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Rebuild()
}

func (s *Session) checkNewName(name string) error {
	switch {
	case name == "":
		return ErrEmptyName
	case len(name) > MaxNameLen:
		return fmt.Errorf("%w: %q is %d bytes, limit %d", ErrNameTooLong, name, len(name), MaxNameLen)
	case slices.Contains(reservedNames, name):
		return fmt.Errorf("%w: %s", ErrReserved, name)
	}
	if _, ok := s.reg.Find(name); ok {
		return fmt.Errorf("%w: %s", ErrExist, name)
	}
	return nil
}

func (s *Session) record(c Change) {
	c.At = s.clock.Now()
	s.changes = append(s.changes, c)
}

func clone(c *chains.Chain) *chains.Chain {
	out := *c
	out.Rules = slices.Clone(c.Rules)
	return &out
}
