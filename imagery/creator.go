package imagery

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"platetiler/geometry"
	"platetiler/pyramid"
)

// ToastCreator renders image tiles of a TOAST pyramid.
type ToastCreator struct {
	source     ColorSource
	serializer pyramid.TileSerializer
	logger     logrus.FieldLogger
}

func NewToastCreator(source ColorSource, serializer pyramid.TileSerializer, logger logrus.FieldLogger) *ToastCreator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ToastCreator{source: source, serializer: serializer, logger: logger}
}

func (c *ToastCreator) Create(t geometry.TileAddress) error {
	node, err := geometry.NewMeshNode(t)
	if err != nil {
		return err
	}
	img, err := render(c.source, func(px, py int) (float64, float64) {
		sky := node.PointToSky((float64(px)+0.5)/TileSize, (float64(py)+0.5)/TileSize)
		return geometry.SkyToLonLat(sky)
	})
	if err != nil {
		return err
	}
	data, err := Encode(img)
	if err != nil {
		return err
	}
	return c.serializer.Serialize(t, data)
}

func (c *ToastCreator) CreateParent(t geometry.TileAddress) error {
	return downsample(c.serializer, t, c.logger)
}

// MercatorCreator renders image tiles of a Web Mercator pyramid.
type MercatorCreator struct {
	source     ColorSource
	serializer pyramid.TileSerializer
	logger     logrus.FieldLogger
}

func NewMercatorCreator(source ColorSource, serializer pyramid.TileSerializer, logger logrus.FieldLogger) *MercatorCreator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &MercatorCreator{source: source, serializer: serializer, logger: logger}
}

func (c *MercatorCreator) Create(t geometry.TileAddress) error {
	if !t.Valid() {
		return errors.Wrap(geometry.ErrInvalidAddress, t.String())
	}
	x, y := float64(t.X), float64(t.Y)
	img, err := render(c.source, func(px, py int) (float64, float64) {
		lon := geometry.TileXToLon(x+(float64(px)+0.5)/TileSize, t.Level)
		lat := geometry.TileYToLat(y+(float64(py)+0.5)/TileSize, t.Level)
		return lon, lat
	})
	if err != nil {
		return err
	}
	data, err := Encode(img)
	if err != nil {
		return err
	}
	return c.serializer.Serialize(t, data)
}

func (c *MercatorCreator) CreateParent(t geometry.TileAddress) error {
	return downsample(c.serializer, t, c.logger)
}
