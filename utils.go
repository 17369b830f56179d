package main

import (
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"

	"platetiler/geometry"
	"platetiler/pyramid"
)

// loadRegion 读取 geojson, 返回所有要素的外包范围
func loadRegion(path string) (geometry.Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return geometry.Region{}, errors.Wrapf(err, "unable to read file %s", path)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return geometry.Region{}, errors.Wrapf(err, "unable to unmarshal feature collection %s", path)
	}
	if len(fc.Features) == 0 {
		return geometry.Region{}, errors.Errorf("%s has no features", path)
	}

	var collection orb.Collection
	for _, f := range fc.Features {
		collection = append(collection, f.Geometry)
	}
	return geometry.RegionFromBound(collection.Bound())
}

// pyramidRegion 金字塔范围: geojson 优先, 其次 bounds; 都没有时返回 false
func pyramidRegion(c *Conf) (geometry.Region, bool, error) {
	if c.Pyramid.Geojson != "" {
		r, err := loadRegion(c.Pyramid.Geojson)
		return r, true, err
	}
	if len(c.Pyramid.Bounds) > 0 {
		r, err := boundsRegion(c.Pyramid.Bounds)
		return r, true, err
	}
	return geometry.Region{}, false, nil
}

// tileEnumerator 需要生成的瓦片. TOAST 按范围剔除, Mercator 取覆盖范围的矩形
func tileEnumerator(c *Conf, proj pyramid.Projection) (pyramid.Enumerator, error) {
	level := c.Pyramid.Level
	if t := c.Pyramid.Tiles; len(t) == 4 && proj == pyramid.Mercator {
		n := geometry.TilesPerSide(level)
		if t[0] > t[2] || t[1] > t[3] || t[2] >= n || t[3] >= n {
			return nil, errors.Errorf("pyramid.tiles %v outside level %d", t, level)
		}
		return pyramid.Rect{Level: level, MinX: t[0], MinY: t[1], MaxX: t[2], MaxY: t[3]}, nil
	}
	region, ok, err := pyramidRegion(c)
	if err != nil || !ok {
		return nil, err
	}
	if proj == pyramid.Mercator {
		return pyramid.MercatorRect(region, level), nil
	}
	set, err := geometry.ComputeTileSet(region, level)
	if err != nil {
		return nil, err
	}
	return pyramid.Culled(set), nil
}
