package dem

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/pkg/errors"

	"platetiler/geometry"
)

// Source answers elevation queries for longitude/latitude in degrees.
type Source interface {
	Elevation(lon, lat float64) int16
}

// SourceFunc adapts a function to Source.
type SourceFunc func(lon, lat float64) int16

func (f SourceFunc) Elevation(lon, lat float64) int16 { return f(lon, lat) }

// Grid is an equirectangular raster of heights spanning Region, row 0 at
// the north edge. Points outside the region read NoData.
type Grid struct {
	Region geometry.Region
	Width  int
	Height int
	Data   []int16
	NoData int16
}

// LoadGrid reads a raw little-endian int16 raster of width x height samples.
func LoadGrid(path string, width, height int, region geometry.Region) (*Grid, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read elevation grid %s", path)
	}
	if width <= 0 || height <= 0 || len(raw) != 2*width*height {
		return nil, errors.Errorf("elevation grid %s: %d bytes for %dx%d samples", path, len(raw), width, height)
	}
	data := make([]int16, width*height)
	for i := range data {
		data[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return &Grid{Region: region, Width: width, Height: height, Data: data}, nil
}

// Elevation returns the nearest sample to (lon, lat).
func (g *Grid) Elevation(lon, lat float64) int16 {
	r := g.Region
	if !r.Contains(lon, lat) {
		return g.NoData
	}
	for lon < r.West {
		lon += 360
	}
	for lon > r.East {
		lon -= 360
	}
	col := int(math.Floor((lon - r.West) / (r.East - r.West) * float64(g.Width)))
	row := int(math.Floor((r.North - lat) / (r.North - r.South) * float64(g.Height)))
	col = min(max(col, 0), g.Width-1)
	row = min(max(row, 0), g.Height-1)
	return g.Data[row*g.Width+col]
}
