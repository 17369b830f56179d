package dem

import (
	"github.com/sirupsen/logrus"

	"platetiler/geometry"
	"platetiler/pyramid"
)

// ToastCreator builds elevation tiles of a TOAST pyramid.
type ToastCreator struct {
	source     Source
	serializer pyramid.TileSerializer
	logger     logrus.FieldLogger
}

// NewToastCreator samples source and stores tiles through serializer.
func NewToastCreator(source Source, serializer pyramid.TileSerializer, logger logrus.FieldLogger) *ToastCreator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ToastCreator{source: source, serializer: serializer, logger: logger}
}

// Sample returns the elevation samples of t in storage order.
func (c *ToastCreator) Sample(t geometry.TileAddress) ([]int16, error) {
	node, err := geometry.NewMeshNode(t)
	if err != nil {
		return nil, err
	}
	order := SampleOrder(ToastTopology(node))
	samples := make([]int16, len(order))
	for i, p := range order {
		sky := node.PointToSky(float64(p.X)/geometry.GridSubdivisions, float64(p.Y)/geometry.GridSubdivisions)
		lon, lat := geometry.SkyToLonLat(sky)
		samples[i] = c.source.Elevation(lon, lat)
	}
	return samples, nil
}

func (c *ToastCreator) Create(t geometry.TileAddress) error {
	samples, err := c.Sample(t)
	if err != nil {
		return err
	}
	return c.serializer.Serialize(t, Encode(samples))
}

func (c *ToastCreator) CreateParent(t geometry.TileAddress) error {
	node, err := geometry.NewMeshNode(t)
	if err != nil {
		return err
	}
	return aggregate(c.serializer, t, Mapping(ToastTopology(node)), c.logger)
}
