package imagery

import (
	"image"
	"image/color"
	"image/png"
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

type solid struct {
	region geometry.Region
	c      color.NRGBA
}

func (s solid) Color(lon, lat float64) (color.NRGBA, bool) {
	return s.c, s.region.Contains(lon, lat)
}

func decodeTile(t *testing.T, m *memStore, a geometry.TileAddress) *image.NRGBA {
	t.Helper()
	b, ok := m.tiles[a]
	require.True(t, ok, "tile %s missing", a)
	img, err := Decode(b)
	require.NoError(t, err)
	out := image.NewNRGBA(img.Bounds())
	for y := 0; y < TileSize; y++ {
		for x := 0; x < TileSize; x++ {
			out.Set(x, y, img.At(x, y))
		}
	}
	return out
}

func TestLoadEquirect(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255})
	img.SetNRGBA(3, 1, color.NRGBA{0, 0, 255, 255})
	path := filepath.Join(t.TempDir(), "sky.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	src, err := LoadEquirect(path, geometry.WholeSky)
	require.NoError(t, err)
	c, ok := src.Color(10, 80)
	assert.True(t, ok)
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, c)
	c, ok = src.Color(350, -80)
	assert.True(t, ok)
	assert.Equal(t, color.NRGBA{0, 0, 255, 255}, c)
	_, ok = src.Color(100, 10)
	assert.False(t, ok, "transparent pixel")

	_, err = LoadEquirect(filepath.Join(t.TempDir(), "none.png"), geometry.WholeSky)
	assert.Error(t, err)
}

func TestMercatorCreator(t *testing.T) {
	region, err := geometry.NewRegion(0, 0, 90, 60)
	require.NoError(t, err)
	red := color.NRGBA{200, 10, 10, 255}
	store := newMemStore()
	c := NewMercatorCreator(solid{region, red}, store, nil)

	// north-east quadrant at level 1 overlaps, south-west does not
	require.NoError(t, c.Create(geometry.NewTileAddress(1, 1, 0)))
	assert.ErrorIs(t, c.Create(geometry.NewTileAddress(1, 0, 1)), pyramid.ErrNoData)

	img := decodeTile(t, store, geometry.NewTileAddress(1, 1, 0))
	assert.Equal(t, red, img.NRGBAAt(10, TileSize-10))
	assert.Equal(t, uint8(0), img.NRGBAAt(TileSize-1, 0).A)
}

func TestToastCreatorCoversWholeSky(t *testing.T) {
	blue := color.NRGBA{0, 0, 200, 255}
	store := newMemStore()
	c := NewToastCreator(solid{geometry.WholeSky, blue}, store, nil)
	a := geometry.NewTileAddress(1, 0, 1)
	require.NoError(t, c.Create(a))
	img := decodeTile(t, store, a)
	for _, p := range [][2]int{{0, 0}, {128, 128}, {255, 255}, {3, 250}} {
		assert.Equal(t, blue, img.NRGBAAt(p[0], p[1]))
	}
}

func TestDownsampleQuadrants(t *testing.T) {
	colors := [4]color.NRGBA{
		{255, 0, 0, 255},
		{0, 255, 0, 255},
		{0, 0, 255, 255},
	}
	store := newMemStore()
	parent := geometry.NewTileAddress(2, 1, 2)
	for q, child := range parent.Children() {
		if q == 3 {
			continue
		}
		img := image.NewNRGBA(image.Rect(0, 0, TileSize, TileSize))
		for y := 0; y < TileSize; y++ {
			for x := 0; x < TileSize; x++ {
				img.SetNRGBA(x, y, colors[q])
			}
		}
		// one transparent pixel must not tint its block
		img.SetNRGBA(0, 0, color.NRGBA{})
		b, err := Encode(img)
		require.NoError(t, err)
		store.tiles[child] = b
	}

	c := NewMercatorCreator(solid{}, store, nil)
	require.NoError(t, c.CreateParent(parent))
	out := decodeTile(t, store, parent)
	half := TileSize / 2
	assert.Equal(t, colors[0], out.NRGBAAt(10, 10))
	assert.Equal(t, colors[1], out.NRGBAAt(half+10, 10))
	assert.Equal(t, colors[2], out.NRGBAAt(10, half+10))
	assert.Equal(t, uint8(0), out.NRGBAAt(half+10, half+10).A)

	corner := out.NRGBAAt(0, 0)
	assert.Equal(t, uint8(255), corner.R)
	assert.Equal(t, uint8(191), corner.A)

	assert.ErrorIs(t, c.CreateParent(geometry.NewTileAddress(2, 0, 0)), pyramid.ErrNoData)
}
