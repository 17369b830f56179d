package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVectorArithmetic(t *testing.T) {
	a := Vector3d{1, 2, 3}
	b := Vector3d{0.5, -1, 4}
	assert.Equal(t, Vector3d{0.5, 3, -1}, a.Subtract(b))
	assert.Equal(t, Vector3d{1.5, 1, 7}, a.Add(b))
	assert.True(t, a.Equal(Vector3d{1, 2, 3}))
	assert.False(t, a.Equal(Vector3d{1, 2, 4}))
	assert.InDelta(t, 1, a.Normalize().Length(), 1e-12)
	assert.Equal(t, Vector3d{}, Vector3d{}.Normalize())
}

func TestRaDecRoundTrip(t *testing.T) {
	for _, c := range []Vector2d{{0, 0}, {45, 30}, {190, -60}, {359.5, 89}, {270, -10}} {
		got := FromRaDec(c.X, c.Y).RaDec()
		assert.InDelta(t, c.X, got.X, 1e-9)
		assert.InDelta(t, c.Y, got.Y, 1e-9)
	}
}

func TestLerpWrapsAcrossZero(t *testing.T) {
	got := Lerp(Vector2d{350, 0}, Vector2d{10, 10}, 0.5)
	assert.InDelta(t, 0, math.Min(got.X, 360-got.X), 1e-9)
	assert.InDelta(t, 5, got.Y, 1e-12)

	got = Lerp(Vector2d{10, 0}, Vector2d{350, 0}, 0.25)
	assert.InDelta(t, 5, got.X, 1e-9)

	got = Lerp(Vector2d{10, 0}, Vector2d{50, 0}, 0.5)
	assert.InDelta(t, 30, got.X, 1e-12)
}

func TestSkyToLonLat(t *testing.T) {
	lon, lat := SkyToLonLat(Vector2d{270, 12})
	assert.Equal(t, -90.0, lon)
	assert.Equal(t, 12.0, lat)
	lon, _ = SkyToLonLat(Vector2d{90, 0})
	assert.Equal(t, 90.0, lon)
}

func TestMidpointIsOnSphere(t *testing.T) {
	m := Midpoint(FromRaDec(0, 0), FromRaDec(90, 0))
	assert.InDelta(t, 1, m.Length(), 1e-12)
	sky := m.RaDec()
	assert.InDelta(t, 45, sky.X, 1e-9)
	assert.InDelta(t, 0, sky.Y, 1e-9)
}
