package imagery

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"platetiler/geometry"
	"platetiler/pyramid"
)

var encoder = png.Encoder{CompressionLevel: png.BestSpeed}

// Encode serializes a tile as PNG.
func Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "encode png")
	}
	return buf.Bytes(), nil
}

// Decode parses a PNG tile.
func Decode(b []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, "decode png")
	}
	return img, nil
}

// render fills a tile by sampling source at the lon/lat that locate
// returns for each pixel centre. Tiles without a single covered pixel
// are ErrNoData.
func render(source ColorSource, locate func(px, py int) (lon, lat float64)) (*image.NRGBA, error) {
	img := image.NewNRGBA(image.Rect(0, 0, TileSize, TileSize))
	covered := false
	for py := 0; py < TileSize; py++ {
		for px := 0; px < TileSize; px++ {
			if c, ok := source.Color(locate(px, py)); ok {
				img.SetNRGBA(px, py, c)
				covered = true
			}
		}
	}
	if !covered {
		return nil, pyramid.ErrNoData
	}
	return img, nil
}

// downsample builds tile t from its four children, each shrunk by a 2x2
// box filter into its quadrant. Missing children leave their quadrant
// transparent.
func downsample(ser pyramid.TileSerializer, t geometry.TileAddress, logger logrus.FieldLogger) error {
	out := image.NewNRGBA(image.Rect(0, 0, TileSize, TileSize))
	present := 0
	for q, c := range t.Children() {
		b, err := ser.Deserialize(c)
		if err != nil {
			logger.WithField("tile", c.String()).Debugf("child %s unreadable: %v", c, err)
			continue
		}
		if b == nil {
			continue
		}
		img, err := Decode(b)
		if err != nil {
			logger.WithField("tile", c.String()).Debugf("child %s ignored: %v", c, err)
			continue
		}
		shrink(out, img, (q&1)*TileSize/2, (q>>1)*TileSize/2)
		present++
	}
	if present == 0 {
		return pyramid.ErrNoData
	}
	data, err := Encode(out)
	if err != nil {
		return err
	}
	return ser.Serialize(t, data)
}

// shrink averages each 2x2 block of src into one pixel of dst at (ox, oy).
// Colors are weighted by alpha so transparent pixels do not darken edges.
func shrink(dst *image.NRGBA, src image.Image, ox, oy int) {
	b := src.Bounds()
	for y := 0; y < TileSize/2; y++ {
		for x := 0; x < TileSize/2; x++ {
			var r, g, bl, a uint32
			for _, d := range [4][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
				p := color.NRGBAModel.Convert(src.At(b.Min.X+2*x+d[0], b.Min.Y+2*y+d[1])).(color.NRGBA)
				w := uint32(p.A)
				r += uint32(p.R) * w
				g += uint32(p.G) * w
				bl += uint32(p.B) * w
				a += w
			}
			if a == 0 {
				continue
			}
			dst.SetNRGBA(ox+x, oy+y, color.NRGBA{
				R: uint8(r / a),
				G: uint8(g / a),
				B: uint8(bl / a),
				A: uint8(a / 4),
			})
		}
	}
}
