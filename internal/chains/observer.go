package chains

// RebuildReason says why the index was rebuilt.
type RebuildReason string

const (
	RebuildLoad   RebuildReason = "load"
	RebuildInsert RebuildReason = "insert"
	RebuildDelete RebuildReason = "delete"
	RebuildManual RebuildReason = "manual"
)

// Observer receives index maintenance events. Implementations must be cheap;
// they are called inline from registry operations.
type Observer interface {
	// IndexRebuilt is called after every rebuild attempt. err is non-nil
	// when the index fell back to zero length.
	IndexRebuilt(reason RebuildReason, slots int, err error)

	// IndexRepointed is called when a delete repaired one slot in place.
	IndexRepointed(slot int)

	// IndexShrunk is called when a delete dropped the emptied last bucket;
	// slots is the new index length.
	IndexShrunk(slots int)

	// ChainLookup is called after every Find with the number of chain name
	// comparisons spent walking the list.
	ChainLookup(found bool, steps int)
}

type nopObserver struct{}

func (nopObserver) IndexRebuilt(RebuildReason, int, error) {}
func (nopObserver) IndexRepointed(int)                     {}
func (nopObserver) IndexShrunk(int)                        {}
func (nopObserver) ChainLookup(bool, int)                  {}
