package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// MaxMercatorLatitude is the latitude where the square Web-Mercator world ends.
const MaxMercatorLatitude = 85.05112877980659

// LonToTileX returns the fractional tile column of lon at level.
func LonToTileX(lon float64, level uint32) float64 {
	return (lon + 180) / 360 * float64(TilesPerSide(level))
}

// LatToTileY returns the fractional tile row of lat at level, row 0 at the top.
func LatToTileY(lat float64, level uint32) float64 {
	lat = math.Max(-MaxMercatorLatitude, math.Min(MaxMercatorLatitude, lat))
	r := lat * degToRad
	return (1 - math.Log(math.Tan(r)+1/math.Cos(r))/math.Pi) / 2 * float64(TilesPerSide(level))
}

// TileXToLon is the inverse of LonToTileX.
func TileXToLon(x float64, level uint32) float64 {
	return x/float64(TilesPerSide(level))*360 - 180
}

// TileYToLat is the inverse of LatToTileY.
func TileYToLat(y float64, level uint32) float64 {
	n := math.Pi * (1 - 2*y/float64(TilesPerSide(level)))
	return math.Atan(math.Sinh(n)) * radToDeg
}

// TileToLonLat returns the north-west corner of tile (x, y) at level.
func TileToLonLat(x, y, level uint32) (lon, lat float64) {
	return TileXToLon(float64(x), level), TileYToLat(float64(y), level)
}

// LonLatToTile returns the Mercator tile containing (lon, lat) at level.
// Points on or past the edges of the map clamp to the border tiles.
func LonLatToTile(lon, lat float64, level uint32) (x, y uint32) {
	lon = math.Max(-180, math.Min(180, lon))
	lat = math.Max(-MaxMercatorLatitude, math.Min(MaxMercatorLatitude, lat))
	t := maptile.At(orb.Point{lon, lat}, maptile.Zoom(level))
	last := TilesPerSide(level) - 1
	return min(t.X, last), min(t.Y, last)
}

// MercatorBound returns the longitude/latitude extent of a Mercator tile.
func MercatorBound(t TileAddress) orb.Bound {
	return maptile.New(t.X, t.Y, maptile.Zoom(t.Level)).Bound()
}

// MercatorTileRange returns the inclusive tile range at level covering
// region. An edge lying exactly on a tile boundary does not pull in the
// tile beyond it, and the range always holds at least one tile.
func MercatorTileRange(region Region, level uint32) (minX, minY, maxX, maxY uint32) {
	last := float64(TilesPerSide(level) - 1)
	clamp := func(v float64) uint32 {
		return uint32(math.Max(0, math.Min(last, v)))
	}
	minX = clamp(math.Floor(LonToTileX(math.Max(-180, region.West), level)))
	maxX = clamp(math.Ceil(LonToTileX(math.Min(180, region.East), level)) - 1)
	minY = clamp(math.Floor(LatToTileY(region.North, level)))
	maxY = clamp(math.Ceil(LatToTileY(region.South, level)) - 1)
	maxX = max(maxX, minX)
	maxY = max(maxY, minY)
	return minX, minY, maxX, maxY
}
