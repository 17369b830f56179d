package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegionValidation(t *testing.T) {
	_, err := NewRegion(10, -10, 20, 10)
	require.NoError(t, err)

	for _, r := range []Region{
		{West: 20, South: -10, East: 10, North: 10},
		{West: 10, South: -10, East: 10, North: 10},
		{West: -180, South: -10, East: 200, North: 10},
		{West: 0, South: 10, East: 10, North: -10},
		{West: 0, South: -91, East: 10, North: 10},
	} {
		_, err := NewRegion(r.West, r.South, r.East, r.North)
		assert.ErrorIs(t, err, ErrInvalidRegion, "%+v", r)
	}
}

func TestRegionIntersectsAcrossWrap(t *testing.T) {
	r, err := NewRegion(-20, -10, 20, 10)
	require.NoError(t, err)
	// a tile expressed in RA [340, 350]
	assert.True(t, r.Intersects(orb.Bound{Min: orb.Point{340, 0}, Max: orb.Point{350, 5}}))
	assert.False(t, r.Intersects(orb.Bound{Min: orb.Point{100, 0}, Max: orb.Point{120, 5}}))
	assert.False(t, r.Intersects(orb.Bound{Min: orb.Point{340, 20}, Max: orb.Point{350, 30}}))
	// containment both ways
	assert.True(t, r.Intersects(orb.Bound{Min: orb.Point{-1, -1}, Max: orb.Point{1, 1}}))
	assert.True(t, r.Intersects(orb.Bound{Min: orb.Point{-90, -45}, Max: orb.Point{90, 45}}))
}

func TestRegionContains(t *testing.T) {
	r := Region{West: 350, South: 0, East: 370, North: 10}
	assert.True(t, r.Contains(5, 5))
	assert.True(t, r.Contains(355, 5))
	assert.False(t, r.Contains(20, 5))
	assert.Equal(t, -10.0, r.Top())
	assert.Equal(t, 0.0, r.Bottom())
}
