package pyramid

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"platetiler/geometry"
	"platetiler/plate"
)

type plateTiles interface {
	io.Closer
	Tile(t geometry.TileAddress) ([]byte, error)
}

// PlateStore serves tiles of a packed pyramid: a single plate file, or a
// multi-plate folder. It cannot store new tiles.
type PlateStore struct {
	tiles plateTiles
}

// OpenPlateStore opens path as a multi-plate folder when it is a directory
// and as a single plate otherwise.
func OpenPlateStore(path string) (*PlateStore, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	var tiles plateTiles
	if fi.IsDir() {
		tiles, err = plate.OpenMulti(path)
	} else {
		tiles, err = plate.Open(path)
	}
	if err != nil {
		return nil, err
	}
	return &PlateStore{tiles: tiles}, nil
}

func (s *PlateStore) Deserialize(t geometry.TileAddress) ([]byte, error) {
	return s.tiles.Tile(t)
}

func (s *PlateStore) Serialize(t geometry.TileAddress, _ []byte) error {
	return errors.Wrap(ErrReadOnly, t.String())
}

func (s *PlateStore) Close() error {
	return s.tiles.Close()
}
