package chains

import "errors"

var (
	// ErrUnsorted is returned by Load when the input breaks the
	// built-ins-then-sorted-user-chains layout.
	ErrUnsorted = errors.New("chain sequence is not in table order")

	// ErrArenaFull is returned when the registry has no room for another
	// chain record.
	ErrArenaFull = errors.New("chain arena exhausted")

	// ErrIndexAlloc reports that the index could not be sized within its
	// slot budget; the registry keeps working with a zero-length index.
	ErrIndexAlloc = errors.New("chain index allocation failed")

	// ErrIndexCorrupt is returned by Check when an invariant does not hold.
	ErrIndexCorrupt = errors.New("chain index inconsistent")
)
