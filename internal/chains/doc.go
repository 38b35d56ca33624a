// Package chains implements the in-memory chain registry of a rule table.
//
// # Overview
//
// A table holds a handful of built-in chains, one per traversal hook, and
// any number of user-defined chains. The registry keeps them in table order:
//
//	[built-ins in hook order] ++ [user chains sorted by name]
//
// The two regions are stored separately. Built-ins live in a small slice
// that is scanned linearly. User chains form a doubly linked list threaded
// through an arena of nodes, so every chain has a [Handle] that stays valid
// until the chain is deleted, no matter what else is inserted or removed.
//
// # Index
//
// A sparse index holds a handle to every BucketLen-th user chain. A lookup
// binary searches the index for the bucket that should contain the name and
// walks forward from there, stopping at the first greater name, for
// O(log(n/K) + K) comparisons.
//
// Inserting does not rebuild the index; new chains just lengthen their
// bucket. Only once more than RebuildThreshold chains have been added
// beyond the index capacity is it rebuilt. Deleting a chain that an index
// slot references moves that slot to the successor when the successor still
// belongs to the same bucket, and rebuilds otherwise. [Registry.Delete]
// reports which of these happened.
//
// If the index cannot be sized within MaxIndexSlots it is left empty and
// lookups fall back to walking the whole list.
//
// # Key Types
//
//   - [Registry]: the ordered chain collection and its index
//   - [Chain]: a chain record; its rules are opaque to this package
//   - [Handle]: stable reference to a chain
//   - [Observer]: hook for index maintenance metrics
//
// # Example
//
//	reg := chains.New(chains.DefaultConfig(), chains.WithLogger(logger))
//	if err := reg.Load(decoded); err != nil {
//		return err
//	}
//	if _, ok := reg.Find("web-in"); !ok {
//		reg.Create("web-in")
//	}
//	for _, c := range reg.All() {
//		fmt.Println(c.Name)
//	}
//
// A Registry has no internal locking; callers serialize access.
package chains
