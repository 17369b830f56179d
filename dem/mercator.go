package dem

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"platetiler/geometry"
	"platetiler/pyramid"
)

// MercatorCreator builds elevation tiles of a Mercator pyramid.
type MercatorCreator struct {
	source     Source
	serializer pyramid.TileSerializer
	logger     logrus.FieldLogger
}

// NewMercatorCreator samples source and stores tiles through serializer.
func NewMercatorCreator(source Source, serializer pyramid.TileSerializer, logger logrus.FieldLogger) *MercatorCreator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &MercatorCreator{source: source, serializer: serializer, logger: logger}
}

// RowLatitudes returns the latitude of each sample row of t, north first.
// Rows are evenly spaced in Mercator y, so latitude spacing narrows toward
// the poles; the two halves mirror each other about the tile's centre row.
func RowLatitudes(t geometry.TileAddress) [GridSize]float64 {
	var lats [GridSize]float64
	center := float64(t.Y) + 0.5
	lats[half] = geometry.TileYToLat(center, t.Level)
	for k := 1; k <= half; k++ {
		d := float64(k) / geometry.GridSubdivisions
		lats[half-k] = geometry.TileYToLat(center-d, t.Level)
		lats[half+k] = geometry.TileYToLat(center+d, t.Level)
	}
	return lats
}

// Sample returns the elevation samples of t, row-major from the north-west corner.
func (c *MercatorCreator) Sample(t geometry.TileAddress) ([]int16, error) {
	if !t.Valid() {
		return nil, errors.Wrap(geometry.ErrInvalidAddress, t.String())
	}
	lats := RowLatitudes(t)
	west := geometry.TileXToLon(float64(t.X), t.Level)
	east := geometry.TileXToLon(float64(t.X+1), t.Level)
	step := (east - west) / geometry.GridSubdivisions
	samples := make([]int16, 0, SampleCount)
	for _, p := range SampleOrder(Mercator) {
		samples = append(samples, c.source.Elevation(west+float64(p.X)*step, lats[p.Y]))
	}
	return samples, nil
}

func (c *MercatorCreator) Create(t geometry.TileAddress) error {
	samples, err := c.Sample(t)
	if err != nil {
		return err
	}
	return c.serializer.Serialize(t, Encode(samples))
}

func (c *MercatorCreator) CreateParent(t geometry.TileAddress) error {
	return aggregate(c.serializer, t, Mapping(Mercator), c.logger)
}
