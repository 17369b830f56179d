// Package geometry maps quad-tree tile addresses onto the sphere.
//
// It carries the TOAST octahedral mesh used for all-sky pyramids, the
// Web-Mercator tile math used for map pyramids, and the region culling that
// decides which tiles of a pyramid touch an area of interest.
package geometry

import (
	"fmt"
)

// MaxLevel is the deepest level a TileAddress can describe.
const MaxLevel = 30

// TileAddress identifies one tile in a complete quad-tree. Level L holds
// 2^L x 2^L tiles.
type TileAddress struct {
	Level uint32
	X     uint32
	Y     uint32
}

// NewTileAddress returns the address (level, x, y).
func NewTileAddress(level, x, y uint32) TileAddress {
	return TileAddress{Level: level, X: x, Y: y}
}

// Valid reports whether the address lies inside its level's grid.
func (t TileAddress) Valid() bool {
	return t.Level <= MaxLevel && t.X < TilesPerSide(t.Level) && t.Y < TilesPerSide(t.Level)
}

// Parent returns the tile one level up that contains t. The root is its own parent.
func (t TileAddress) Parent() TileAddress {
	if t.Level == 0 {
		return t
	}
	return TileAddress{Level: t.Level - 1, X: t.X >> 1, Y: t.Y >> 1}
}

// Quadrant returns t's position inside its parent as qy*2+qx.
func (t TileAddress) Quadrant() int {
	return int(t.Y&1)*2 + int(t.X&1)
}

// Children returns the four tiles one level down, indexed by quadrant.
func (t TileAddress) Children() [4]TileAddress {
	var c [4]TileAddress
	for q := 0; q < 4; q++ {
		c[q] = TileAddress{
			Level: t.Level + 1,
			X:     t.X<<1 + uint32(q&1),
			Y:     t.Y<<1 + uint32(q>>1),
		}
	}
	return c
}

// Ordinal returns the position of t in a level-major, row-major listing of
// every tile of the pyramid.
func (t TileAddress) Ordinal() uint64 {
	return LevelBase(t.Level) + uint64(t.Y)<<t.Level + uint64(t.X)
}

func (t TileAddress) String() string {
	return fmt.Sprintf("L%dX%dY%d", t.Level, t.X, t.Y)
}

// TilesPerSide returns 2^level.
func TilesPerSide(level uint32) uint32 {
	return uint32(1) << level
}

// TilesAtLevel returns 4^level.
func TilesAtLevel(level uint32) uint64 {
	return uint64(1) << (2 * level)
}

// LevelBase returns the number of tiles in levels 0..level-1, i.e. the sum
// of 4^i for i < level.
func LevelBase(level uint32) uint64 {
	return (TilesAtLevel(level) - 1) / 3
}
