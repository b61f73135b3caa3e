// Package arena implements the generational slot storage used by the reactive
// runtime.
//
// Arena hands out Handles that pair a slot index with a generation counter.
// A slot's generation is even while the slot is vacant and odd while it is
// occupied, so a Handle kept after its slot was freed (and possibly reused)
// never resolves to the new occupant.
//
// SparseMap is a secondary table keyed by the same handle space. It does not
// check generations: callers validate a Handle against the primary Arena
// before touching a SparseMap.
//
// Neither type is safe for concurrent use.
package arena
