package geometry

// TileSet lists, per level, the tiles retained by region culling.
type TileSet map[uint32][]TileAddress

// Count returns the number of tiles at level.
func (s TileSet) Count(level uint32) int {
	return len(s[level])
}

// Contains reports whether t was retained.
func (s TileSet) Contains(t TileAddress) bool {
	for _, c := range s[t.Level] {
		if c == t {
			return true
		}
	}
	return false
}

// ComputeTileSet walks the TOAST quad-tree from the root down to maxLevel
// and keeps every child whose mesh bound overlaps region. Parents of kept
// tiles are always kept, so each level is closed under Parent.
func ComputeTileSet(region Region, maxLevel uint32) (TileSet, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	if maxLevel > MaxLevel {
		return nil, ErrInvalidAddress
	}
	root := TileAddress{}
	set := TileSet{0: {root}}
	current := set[0]
	for level := uint32(1); level <= maxLevel; level++ {
		next := make([]TileAddress, 0, len(current)*4)
		for _, p := range current {
			for _, c := range p.Children() {
				node, err := NewMeshNode(c)
				if err != nil {
					return nil, err
				}
				if region.Intersects(node.Bound()) {
					next = append(next, c)
				}
			}
		}
		set[level] = next
		current = next
	}
	return set, nil
}
