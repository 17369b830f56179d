package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTileSetWholeSky(t *testing.T) {
	set, err := ComputeTileSet(WholeSky, 3)
	require.NoError(t, err)
	for level := uint32(0); level <= 3; level++ {
		assert.Equal(t, int(TilesAtLevel(level)), set.Count(level))
	}
}

func TestComputeTileSetIsConservative(t *testing.T) {
	region, err := NewRegion(30, 10, 60, 40)
	require.NoError(t, err)
	const maxLevel = 5
	set, err := ComputeTileSet(region, maxLevel)
	require.NoError(t, err)

	for level := uint32(1); level <= maxLevel; level++ {
		assert.Less(t, set.Count(level), int(TilesAtLevel(level)))
		assert.NotZero(t, set.Count(level))
		for _, parent := range set[level-1] {
			for _, c := range parent.Children() {
				if set.Contains(c) {
					continue
				}
				// a dropped tile must not have a single vertex in the region
				n, err := NewMeshNode(c)
				require.NoError(t, err)
				for i := 0; i < GridSize; i++ {
					for j := 0; j < GridSize; j++ {
						lon, lat := SkyToLonLat(n.SkyAt(i, j))
						assert.False(t, region.Contains(lon, lat), "%s dropped but overlaps", c)
					}
				}
			}
		}
		for _, c := range set[level] {
			assert.True(t, set.Contains(c.Parent()))
		}
	}
}

func TestComputeTileSetRejectsBadRegion(t *testing.T) {
	_, err := ComputeTileSet(Region{West: 10, South: 0, East: 5, North: 1}, 2)
	assert.ErrorIs(t, err, ErrInvalidRegion)
}
