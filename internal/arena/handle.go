package arena

import "fmt"

// Handle identifies a slot in an Arena.
// The zero Handle is never issued by an Arena.
type Handle struct {
	Index      uint32
	Generation uint32
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.Generation == 0
}

// String returns the handle as "index:generation".
func (h Handle) String() string {
	return fmt.Sprintf("%d:%d", h.Index, h.Generation)
}

// Uint64 packs the handle into a single integer (generation in the high bits).
func (h Handle) Uint64() uint64 {
	return uint64(h.Generation)<<32 | uint64(h.Index)
}

// HandleFromUint64 is the inverse of Handle.Uint64.
func HandleFromUint64(v uint64) Handle {
	return Handle{Index: uint32(v), Generation: uint32(v >> 32)}
}
