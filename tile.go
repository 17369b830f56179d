package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"platetiler/dem"
	"platetiler/imagery"
	"platetiler/pyramid"
)

// Layer 一个数据源生成的一套瓦片
type Layer struct {
	Name       string
	Kind       pyramid.Kind
	Creator    pyramid.TileCreator
	Serializer pyramid.TileSerializer
	closer     io.Closer
}

func (l *Layer) String() string {
	return fmt.Sprintf("%s(%s)", l.Name, l.Kind)
}

// Close 关闭 mbtiles 等需要释放的存储
func (l *Layer) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// newSerializer 按输出格式创建瓦片存储
func newSerializer(c *Conf, kind pyramid.Kind, proj pyramid.Projection) (pyramid.TileSerializer, io.Closer, error) {
	root := c.outputRoot()
	if c.Output.Format == "mbtiles" {
		if proj != pyramid.Mercator {
			return nil, nil, errors.New("mbtiles output needs the mercator projection")
		}
		if err := os.MkdirAll(root, os.ModePerm); err != nil {
			return nil, nil, errors.Wrapf(err, "create output folder %s", root)
		}
		m, err := pyramid.OpenMBTiles(filepath.Join(root, fmt.Sprintf("%s.%s.mbtiles", c.Pyramid.Name, kind)))
		if err != nil {
			return nil, nil, err
		}
		for name, value := range map[string]string{
			"name":    c.Pyramid.Name,
			"format":  kind.Extension(),
			"minzoom": "0",
			"maxzoom": fmt.Sprint(c.Pyramid.Level),
		} {
			if err := m.SetMetadata(name, value); err != nil {
				m.Close()
				return nil, nil, err
			}
		}
		return m, m, nil
	}
	compress, err := pyramid.ParseCompression(c.Output.Compress)
	if err != nil {
		return nil, nil, err
	}
	return pyramid.NewFileSerializer(root, c.Output.Template, kind.Extension(), compress), nil, nil
}

// newLayer 按数据类型与投影创建瓦片生成器
func newLayer(c *Conf, s SourceConf, proj pyramid.Projection, logger logrus.FieldLogger) (*Layer, error) {
	kind, err := pyramid.ParseKind(s.Kind)
	if err != nil {
		return nil, err
	}
	region, err := s.Region()
	if err != nil {
		return nil, err
	}
	ser, closer, err := newSerializer(c, kind, proj)
	if err != nil {
		return nil, err
	}
	layer := &Layer{Name: filepath.Base(s.Path), Kind: kind, Serializer: ser, closer: closer}
	logger = logger.WithField("layer", layer.String())

	switch kind {
	case pyramid.Elevation:
		grid, err := dem.LoadGrid(s.Path, s.Width, s.Height, region)
		if err != nil {
			layer.Close()
			return nil, err
		}
		if proj == pyramid.Mercator {
			layer.Creator = dem.NewMercatorCreator(grid, ser, logger)
		} else {
			layer.Creator = dem.NewToastCreator(grid, ser, logger)
		}
	default:
		img, err := imagery.LoadEquirect(s.Path, region)
		if err != nil {
			layer.Close()
			return nil, err
		}
		if proj == pyramid.Mercator {
			layer.Creator = imagery.NewMercatorCreator(img, ser, logger)
		} else {
			layer.Creator = imagery.NewToastCreator(img, ser, logger)
		}
	}
	return layer, nil
}
