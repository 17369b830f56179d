// Package imagery renders 256x256 PNG tiles from an equirectangular
// image, for either projection. Parent tiles are box-filtered from their
// four children.
package imagery

import (
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"github.com/pkg/errors"

	"platetiler/geometry"
)

// TileSize is the width and height of an image tile in pixels.
const TileSize = 256

// ColorSource answers color queries for longitude/latitude in degrees.
// ok is false where the source has no coverage.
type ColorSource interface {
	Color(lon, lat float64) (c color.NRGBA, ok bool)
}

// EquirectSource is an image whose pixels are evenly spaced in longitude
// and latitude over Region, north edge first.
type EquirectSource struct {
	Region geometry.Region
	Image  image.Image
}

// LoadEquirect decodes a PNG or JPEG file covering region.
func LoadEquirect(path string, region geometry.Region) (*EquirectSource, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open image %s", path)
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode image %s", path)
	}
	if b := img.Bounds(); b.Empty() {
		return nil, errors.Errorf("image %s (%s) is empty", path, format)
	}
	return &EquirectSource{Region: region, Image: img}, nil
}

// Color returns the nearest pixel to (lon, lat).
func (s *EquirectSource) Color(lon, lat float64) (color.NRGBA, bool) {
	r := s.Region
	if !r.Contains(lon, lat) {
		return color.NRGBA{}, false
	}
	for lon < r.West {
		lon += 360
	}
	for lon > r.East {
		lon -= 360
	}
	b := s.Image.Bounds()
	w, h := b.Dx(), b.Dy()
	px := int(math.Floor((lon - r.West) / (r.East - r.West) * float64(w)))
	py := int(math.Floor((-lat - r.Top()) / (r.Bottom() - r.Top()) * float64(h)))
	px = min(max(px, 0), w-1)
	py = min(max(py, 0), h-1)
	c := color.NRGBAModel.Convert(s.Image.At(b.Min.X+px, b.Min.Y+py)).(color.NRGBA)
	return c, c.A > 0
}
