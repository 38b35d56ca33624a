//go:build linux
// +build linux

package nftsource

import (
	"sync"

	"github.com/google/nftables"
	"github.com/stretchr/testify/mock"
)

// MockNFTablesConn is a mock implementation of NFTablesConn for testing.
// When an expectation returns nil for a list call, the in-memory state
// built by AddTable, SeedChain and AddChain is used instead.
type MockNFTablesConn struct {
	mock.Mock
	mu sync.Mutex

	tables []*nftables.Table
	chains []*nftables.Chain
	rules  map[string][]*nftables.Rule
}

// NewMockNFTablesConn creates a new mock nftables connection.
func NewMockNFTablesConn() *MockNFTablesConn {
	return &MockNFTablesConn{rules: make(map[string][]*nftables.Rule)}
}

// AddTable seeds the in-memory state. It is not part of NFTablesConn.
func (m *MockNFTablesConn) AddTable(t *nftables.Table) *nftables.Table {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables = append(m.tables, t)
	return t
}

// SeedChain adds a chain and its rules to the in-memory state without
// recording a call. It is not part of NFTablesConn.
func (m *MockNFTablesConn) SeedChain(c *nftables.Chain, rules ...*nftables.Rule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chains = append(m.chains, c)
	key := c.Table.Name + "/" + c.Name
	m.rules[key] = append(m.rules[key], rules...)
}

func (m *MockNFTablesConn) ListTables() ([]*nftables.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called()
	if args.Get(0) != nil {
		return args.Get(0).([]*nftables.Table), args.Error(1)
	}
	return append([]*nftables.Table(nil), m.tables...), args.Error(1)
}

func (m *MockNFTablesConn) ListChainsOfTableFamily(family nftables.TableFamily) ([]*nftables.Chain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(family)
	if args.Get(0) != nil {
		return args.Get(0).([]*nftables.Chain), args.Error(1)
	}
	var out []*nftables.Chain
	for _, c := range m.chains {
		if c.Table.Family == family {
			out = append(out, c)
		}
	}
	return out, args.Error(1)
}

func (m *MockNFTablesConn) GetRules(t *nftables.Table, c *nftables.Chain) ([]*nftables.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called(t, c)
	if args.Get(0) != nil {
		return args.Get(0).([]*nftables.Rule), args.Error(1)
	}
	return m.rules[t.Name+"/"+c.Name], args.Error(1)
}

func (m *MockNFTablesConn) AddChain(c *nftables.Chain) *nftables.Chain {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Called(c)
	for i, existing := range m.chains {
		if existing.Table.Name == c.Table.Name && existing.Name == c.Name {
			m.chains[i] = c
			return c
		}
	}
	m.chains = append(m.chains, c)
	return c
}

func (m *MockNFTablesConn) DelChain(c *nftables.Chain) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Called(c)
	for i, existing := range m.chains {
		if existing.Table.Name == c.Table.Name && existing.Name == c.Name {
			m.chains = append(m.chains[:i], m.chains[i+1:]...)
			return
		}
	}
}

func (m *MockNFTablesConn) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	args := m.Called()
	return args.Error(0)
}
