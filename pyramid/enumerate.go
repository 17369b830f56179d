package pyramid

import (
	"platetiler/geometry"
)

// Enumerator lists the tile addresses to build at each level.
type Enumerator interface {
	// Count returns the number of addresses at level.
	Count(level uint32) int64
	// Each calls fn for every address at level until fn returns false.
	Each(level uint32, fn func(geometry.TileAddress) bool)
}

// FullGrid enumerates every tile of every level.
type FullGrid struct{}

func (FullGrid) Count(level uint32) int64 {
	return int64(geometry.TilesAtLevel(level))
}

func (FullGrid) Each(level uint32, fn func(geometry.TileAddress) bool) {
	n := geometry.TilesPerSide(level)
	for y := uint32(0); y < n; y++ {
		for x := uint32(0); x < n; x++ {
			if !fn(geometry.TileAddress{Level: level, X: x, Y: y}) {
				return
			}
		}
	}
}

// Rect enumerates an inclusive tile rectangle given at Level. Coarser
// levels use the rectangle's ancestors.
type Rect struct {
	Level                  uint32
	MinX, MinY, MaxX, MaxY uint32
}

// MercatorRect returns the rectangle of Mercator tiles at level covering region.
func MercatorRect(region geometry.Region, level uint32) Rect {
	minX, minY, maxX, maxY := geometry.MercatorTileRange(region, level)
	return Rect{Level: level, MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

func (r Rect) at(level uint32) (minX, minY, maxX, maxY uint32) {
	if level >= r.Level {
		return r.MinX, r.MinY, r.MaxX, r.MaxY
	}
	shift := r.Level - level
	return r.MinX >> shift, r.MinY >> shift, r.MaxX >> shift, r.MaxY >> shift
}

func (r Rect) Count(level uint32) int64 {
	minX, minY, maxX, maxY := r.at(level)
	if maxX < minX || maxY < minY {
		return 0
	}
	return int64(maxX-minX+1) * int64(maxY-minY+1)
}

func (r Rect) Each(level uint32, fn func(geometry.TileAddress) bool) {
	minX, minY, maxX, maxY := r.at(level)
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			if !fn(geometry.TileAddress{Level: level, X: x, Y: y}) {
				return
			}
		}
	}
}

// Culled enumerates a TOAST tile set computed by region culling.
type Culled geometry.TileSet

func (c Culled) Count(level uint32) int64 {
	return int64(len(c[level]))
}

func (c Culled) Each(level uint32, fn func(geometry.TileAddress) bool) {
	for _, t := range c[level] {
		if !fn(t) {
			return
		}
	}
}
