package dem

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"platetiler/geometry"
	"platetiler/pyramid"
)

// ErrTileSize marks a stored elevation tile of the wrong length.
var ErrTileSize = errors.New("dem: wrong tile size")

// Encode serializes samples as little-endian int16.
func Encode(samples []int16) []byte {
	b := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(s))
	}
	return b
}

// Decode parses a serialized tile.
func Decode(b []byte) ([]int16, error) {
	if len(b) != TileBytes {
		return nil, errors.Wrapf(ErrTileSize, "%d bytes, want %d", len(b), TileBytes)
	}
	s := make([]int16, SampleCount)
	for i := range s {
		s[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
	}
	return s, nil
}

// aggregate builds tile t from its four children through mapping. A child
// that is missing or unreadable contributes zeros.
func aggregate(ser pyramid.TileSerializer, t geometry.TileAddress, mapping VertexMapping, logger logrus.FieldLogger) error {
	var kids [4][]int16
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
		s, err := Decode(b)
		if err != nil {
			logger.WithField("tile", c.String()).Debugf("child %s ignored: %v", c, err)
			continue
		}
		kids[q] = s
		present++
	}
	if present == 0 {
		return pyramid.ErrNoData
	}
	out := make([]int16, SampleCount)
	for i, src := range mapping {
		if k := kids[src.Quadrant]; k != nil {
			out[i] = k[src.Index]
		}
	}
	return ser.Serialize(t, Encode(out))
}
