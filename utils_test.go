package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platetiler/geometry"
	"platetiler/pyramid"
)

const regionJSON = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[10,20]}},
{"type":"Feature","properties":{},"geometry":{"type":"LineString","coordinates":[[30,-5],[12,25]]}}
]}`

func TestLoadRegion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.geojson")
	require.NoError(t, os.WriteFile(path, []byte(regionJSON), 0644))
	r, err := loadRegion(path)
	require.NoError(t, err)
	assert.Equal(t, geometry.Region{West: 10, South: -5, East: 30, North: 25}, r)

	empty := filepath.Join(t.TempDir(), "empty.geojson")
	require.NoError(t, os.WriteFile(empty, []byte(`{"type":"FeatureCollection","features":[]}`), 0644))
	_, err = loadRegion(empty)
	assert.Error(t, err)
}

func TestTileEnumerator(t *testing.T) {
	c := &Conf{}
	c.Pyramid.Level = 3

	e, err := tileEnumerator(c, pyramid.Toast)
	require.NoError(t, err)
	assert.Nil(t, e, "whole sky")

	c.Pyramid.Tiles = []uint32{2, 3, 4, 5}
	e, err = tileEnumerator(c, pyramid.Mercator)
	require.NoError(t, err)
	assert.Equal(t, int64(9), e.Count(3))
	assert.Equal(t, int64(4), e.Count(2))

	c.Pyramid.Tiles = []uint32{2, 3, 8, 5}
	_, err = tileEnumerator(c, pyramid.Mercator)
	assert.Error(t, err)

	c.Pyramid.Tiles = nil
	c.Pyramid.Bounds = []float64{0, 0, 90, 60}
	e, err = tileEnumerator(c, pyramid.Mercator)
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.Count(0))
	assert.Less(t, e.Count(3), int64(64))

	e, err = tileEnumerator(c, pyramid.Toast)
	require.NoError(t, err)
	assert.Less(t, e.Count(3), int64(64))
	assert.Greater(t, e.Count(3), int64(0))
}
