package dem

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platetiler/geometry"
	"platetiler/pyramid"
)

type memStore struct {
	mu    sync.Mutex
	tiles map[geometry.TileAddress][]byte
}

func newMemStore() *memStore {
	return &memStore{tiles: make(map[geometry.TileAddress][]byte)}
}

func (m *memStore) Serialize(t geometry.TileAddress, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tiles[t] = data
	return nil
}

func (m *memStore) Deserialize(t geometry.TileAddress) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tiles[t], nil
}

// terrain is smooth and independent of longitude at the poles.
var terrain = SourceFunc(func(lon, lat float64) int16 {
	r := math.Pi / 180
	return int16(math.Round(lat*300 + 2000*math.Cos(lat*r)*math.Sin(lon*r)))
})

func assertClose(t *testing.T, want, got []int16, msg string) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		d := int(want[i]) - int(got[i])
		if d < -1 || d > 1 {
			t.Fatalf("%s: sample %d = %d, want %d", msg, i, got[i], want[i])
		}
	}
}

func TestToastParentMatchesDirectSampling(t *testing.T) {
	store := newMemStore()
	c := NewToastCreator(terrain, store, nil)
	for _, parent := range []geometry.TileAddress{{}, {Level: 1, X: 1, Y: 0}, {Level: 2, X: 2, Y: 3}} {
		for _, child := range parent.Children() {
			require.NoError(t, c.Create(child))
		}
		require.NoError(t, c.CreateParent(parent))

		got, err := Decode(store.tiles[parent])
		require.NoError(t, err)
		want, err := c.Sample(parent)
		require.NoError(t, err)
		assertClose(t, want, got, parent.String())
	}
}

func TestMercatorParentMatchesDirectSampling(t *testing.T) {
	store := newMemStore()
	c := NewMercatorCreator(terrain, store, nil)
	for _, parent := range []geometry.TileAddress{{}, {Level: 3, X: 5, Y: 1}} {
		for _, child := range parent.Children() {
			require.NoError(t, c.Create(child))
		}
		require.NoError(t, c.CreateParent(parent))

		got, err := Decode(store.tiles[parent])
		require.NoError(t, err)
		want, err := c.Sample(parent)
		require.NoError(t, err)
		assertClose(t, want, got, parent.String())
	}
}

func TestMissingChildContributesZero(t *testing.T) {
	store := newMemStore()
	c := NewToastCreator(SourceFunc(func(float64, float64) int16 { return 7 }), store, nil)
	parent := geometry.NewTileAddress(2, 1, 1)
	children := parent.Children()
	for q, child := range children {
		if q != 2 {
			require.NoError(t, c.Create(child))
		}
	}
	store.tiles[children[3]] = []byte("truncated")

	require.NoError(t, c.CreateParent(parent))
	got, err := Decode(store.tiles[parent])
	require.NoError(t, err)
	node, err := geometry.NewMeshNode(parent)
	require.NoError(t, err)
	for i, src := range Mapping(ToastTopology(node)) {
		if src.Quadrant == 2 || src.Quadrant == 3 {
			assert.Zero(t, got[i])
		} else {
			assert.Equal(t, int16(7), got[i])
		}
	}

	err = c.CreateParent(geometry.NewTileAddress(2, 0, 0))
	assert.ErrorIs(t, err, pyramid.ErrNoData)
}

func TestRowLatitudes(t *testing.T) {
	a := geometry.NewTileAddress(3, 0, 1)
	lats := RowLatitudes(a)
	_, north := geometry.TileToLonLat(0, 1, 3)
	_, south := geometry.TileToLonLat(0, 2, 3)
	assert.InDelta(t, north, lats[0], 1e-9)
	assert.InDelta(t, south, lats[GridSize-1], 1e-9)
	for i := 1; i < GridSize; i++ {
		assert.Less(t, lats[i], lats[i-1])
	}
	// spacing narrows toward the pole
	assert.Less(t, lats[0]-lats[1], lats[GridSize-2]-lats[GridSize-1])
}

func TestGeneratedDemPyramid(t *testing.T) {
	store := newMemStore()
	res, err := pyramid.NewGenerator(NewMercatorCreator(terrain, store, nil)).Generate(context.Background(), 2, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(21), res.Created)
	for a, b := range store.tiles {
		assert.Len(t, b, TileBytes, a.String())
	}
}

func TestGridSource(t *testing.T) {
	region, err := geometry.NewRegion(-10, -5, 10, 5)
	require.NoError(t, err)
	const w, h = 4, 2
	raw := make([]byte, 2*w*h)
	for i := 0; i < w*h; i++ {
		binary.LittleEndian.PutUint16(raw[2*i:], uint16(int16(i*10-30)))
	}
	path := filepath.Join(t.TempDir(), "grid.i16")
	require.NoError(t, os.WriteFile(path, raw, 0644))

	g, err := LoadGrid(path, w, h, region)
	require.NoError(t, err)
	assert.Equal(t, int16(-30), g.Elevation(-9, 4))
	assert.Equal(t, int16(0), g.Elevation(9, 4))
	assert.Equal(t, int16(40), g.Elevation(9, -4))
	assert.Equal(t, g.NoData, g.Elevation(20, 0))

	_, err = LoadGrid(path, 5, 5, region)
	assert.Error(t, err)
}
