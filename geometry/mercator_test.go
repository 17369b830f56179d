package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLonLatToTile(t *testing.T) {
	x, y := LonLatToTile(0.5, 0.5, 1)
	assert.Equal(t, uint32(1), x)
	assert.Equal(t, uint32(0), y)

	x, y = LonLatToTile(-179, 80, 3)
	assert.Equal(t, uint32(0), x)
	assert.Equal(t, uint32(0), y)

	x, y = LonLatToTile(180, -90, 4)
	assert.Equal(t, uint32(15), x)
	assert.Equal(t, uint32(15), y)

	x, y = LonLatToTile(10, 45, 10)
	assert.Equal(t, uint32(LonToTileX(10, 10)), x)
	assert.Equal(t, uint32(LatToTileY(45, 10)), y)
}

func TestTileToLonLatInverse(t *testing.T) {
	lon, lat := TileToLonLat(0, 0, 0)
	assert.InDelta(t, -180, lon, 1e-9)
	assert.InDelta(t, MaxMercatorLatitude, lat, 1e-9)

	lon, lat = TileToLonLat(2, 2, 2)
	assert.InDelta(t, 0, lon, 1e-9)
	assert.InDelta(t, 0, lat, 1e-9)

	for _, lat := range []float64{-60, -12.5, 0, 33.3, 70} {
		assert.InDelta(t, lat, TileYToLat(LatToTileY(lat, 7), 7), 1e-9)
	}
}

func TestMercatorBoundMatchesFormulas(t *testing.T) {
	b := MercatorBound(NewTileAddress(3, 2, 5))
	lon, lat := TileToLonLat(2, 5, 3)
	assert.InDelta(t, lon, b.Min[0], 1e-9)
	assert.InDelta(t, lat, b.Max[1], 1e-9)
}

func TestMercatorTileRange(t *testing.T) {
	// exactly the north-west quarter of the world
	minX, minY, maxX, maxY := MercatorTileRange(Region{West: -180, South: 0, East: 0, North: 85}, 1)
	assert.Equal(t, [4]uint32{0, 0, 0, 0}, [4]uint32{minX, minY, maxX, maxY})

	// a sliver inside one tile still yields that tile
	minX, minY, maxX, maxY = MercatorTileRange(Region{West: 10, South: 10, East: 10.0001, North: 10.0001}, 4)
	assert.Equal(t, minX, maxX)
	assert.Equal(t, minY, maxY)

	// whole world
	minX, minY, maxX, maxY = MercatorTileRange(Region{West: -180, South: -90, East: 180, North: 90}, 3)
	assert.Equal(t, [4]uint32{0, 0, 7, 7}, [4]uint32{minX, minY, maxX, maxY})
}
