package world

import "github.com/terrastream/server/internal/geom"

// Tracker records which reasons currently hold interest in which block
// content. An entry exists while its reason set is non-empty; the entry is
// destroyed the moment the last reason is removed. The tracker does no I/O
// and never talks to the generator — bookkeeping only. Callers (the Loader)
// serialize access.
type Tracker struct {
	entries map[BlockKey]map[LoadReason]struct{}
	// byOwner indexes each owner's held cells by position so an eviction
	// sweep can find every LOD of a leaving cell without scanning.
	byOwner map[OwnerID]map[geom.BlockPos]map[LODIndex]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[BlockKey]map[LoadReason]struct{}),
		byOwner: make(map[OwnerID]map[geom.BlockPos]map[LODIndex]struct{}),
	}
}

// MarkLoaded records a reason's interest in a block. Returns true if the
// reason was newly added, false if it already held interest.
func (t *Tracker) MarkLoaded(key BlockKey, reason LoadReason) bool {
	set := t.entries[key]
	if set == nil {
		set = make(map[LoadReason]struct{}, 1)
		t.entries[key] = set
	}
	if _, ok := set[reason]; ok {
		return false
	}
	set[reason] = struct{}{}

	if reason.Kind == ReasonLocal {
		cells := t.byOwner[reason.Owner]
		if cells == nil {
			cells = make(map[geom.BlockPos]map[LODIndex]struct{})
			t.byOwner[reason.Owner] = cells
		}
		lods := cells[key.Pos]
		if lods == nil {
			lods = make(map[LODIndex]struct{}, 1)
			cells[key.Pos] = lods
		}
		lods[key.LOD] = struct{}{}
	}
	return true
}

// MarkUnloaded removes one reason's interest. Returns true when the entry's
// reason set became empty and the entry was destroyed. Other reasons keep
// the entry (and its content) alive.
func (t *Tracker) MarkUnloaded(key BlockKey, reason LoadReason) bool {
	set := t.entries[key]
	if set == nil {
		return false
	}
	if _, ok := set[reason]; !ok {
		return false
	}
	delete(set, reason)

	if reason.Kind == ReasonLocal {
		if cells := t.byOwner[reason.Owner]; cells != nil {
			if lods := cells[key.Pos]; lods != nil {
				delete(lods, key.LOD)
				if len(lods) == 0 {
					delete(cells, key.Pos)
				}
			}
			if len(cells) == 0 {
				delete(t.byOwner, reason.Owner)
			}
		}
	}

	if len(set) == 0 {
		delete(t.entries, key)
		return true
	}
	return false
}

// HasReasons reports whether any reason still holds interest in the block.
func (t *Tracker) HasReasons(key BlockKey) bool {
	return len(t.entries[key]) > 0
}

// Holds reports whether the given reason holds interest in the block.
func (t *Tracker) Holds(key BlockKey, reason LoadReason) bool {
	_, ok := t.entries[key][reason]
	return ok
}

// HeldLODs returns every LOD at which the owner holds the given cell.
// Evicting a leaving cell must cover all of them.
func (t *Tracker) HeldLODs(owner OwnerID, pos geom.BlockPos) []LODIndex {
	lods := t.byOwner[owner][pos]
	if len(lods) == 0 {
		return nil
	}
	out := make([]LODIndex, 0, len(lods))
	for lod := range lods {
		out = append(out, lod)
	}
	return out
}

// OwnerKeys returns every block key the owner currently holds. Used at
// observer teardown.
func (t *Tracker) OwnerKeys(owner OwnerID) []BlockKey {
	cells := t.byOwner[owner]
	if cells == nil {
		return nil
	}
	var out []BlockKey
	for pos, lods := range cells {
		for lod := range lods {
			out = append(out, BlockKey{Pos: pos, LOD: lod})
		}
	}
	return out
}
