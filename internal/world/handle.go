package world

import "fmt"

// Handle is a generation-checked reference to an entity stored in an Arena.
// The zero Handle is invalid. A Handle whose slot has been reused carries a
// stale generation and no longer resolves.
type Handle struct {
	Index uint32
	Gen   uint32
}

// IsZero reports whether h is the zero (invalid) handle.
func (h Handle) IsZero() bool {
	return h.Gen == 0
}

// Less orders handles by index, then generation.
// Used wherever a deterministic tie-break between entities is needed.
func (h Handle) Less(o Handle) bool {
	if h.Index != o.Index {
		return h.Index < o.Index
	}
	return h.Gen < o.Gen
}

// Compare returns -1, 0 or +1 (for slices.SortFunc).
func (h Handle) Compare(o Handle) int {
	switch {
	case h.Less(o):
		return -1
	case o.Less(h):
		return 1
	default:
		return 0
	}
}

func (h Handle) String() string {
	return fmt.Sprintf("%d:%d", h.Index, h.Gen)
}
