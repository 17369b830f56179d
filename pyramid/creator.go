// Package pyramid generates tile pyramids level by level and packs them
// into plate files.
package pyramid

import (
	"strings"

	"github.com/pkg/errors"

	"platetiler/geometry"
)

var (
	// ErrNoData is returned by a TileCreator when the source has nothing
	// for a tile. The tile is left absent and the run continues.
	ErrNoData = errors.New("no data for tile")
	// ErrInvalidLevel rejects base levels outside the supported range.
	ErrInvalidLevel = errors.New("invalid pyramid level")
	// ErrReadOnly is returned by serializers that cannot store tiles.
	ErrReadOnly = errors.New("serializer is read-only")
)

// TileCreator produces the tiles of one pyramid.
type TileCreator interface {
	// Create builds tile t from source data and persists it.
	Create(t geometry.TileAddress) error
	// CreateParent builds tile t from its four children, which have
	// already been persisted one level below.
	CreateParent(t geometry.TileAddress) error
}

// TileReader loads persisted tiles. A missing tile is (nil, nil).
type TileReader interface {
	Deserialize(t geometry.TileAddress) ([]byte, error)
}

// TileSerializer persists and loads tile payloads.
type TileSerializer interface {
	TileReader
	Serialize(t geometry.TileAddress, data []byte) error
}

// Composite runs several creators over the same addresses, e.g. image and
// elevation tiles in one pass. Every creator runs; the first error is returned.
type Composite []TileCreator

func (c Composite) Create(t geometry.TileAddress) error {
	return c.each(func(tc TileCreator) error { return tc.Create(t) })
}

func (c Composite) CreateParent(t geometry.TileAddress) error {
	return c.each(func(tc TileCreator) error { return tc.CreateParent(t) })
}

func (c Composite) each(fn func(TileCreator) error) error {
	var first error
	noData := 0
	for _, tc := range c {
		err := fn(tc)
		switch {
		case err == nil:
		case errors.Is(err, ErrNoData):
			noData++
		case first == nil:
			first = err
		}
	}
	if first == nil && len(c) > 0 && noData == len(c) {
		return ErrNoData
	}
	return first
}

// Projection selects how tile addresses map onto the sphere.
type Projection int

const (
	Toast Projection = iota
	Mercator
)

func (p Projection) String() string {
	if p == Mercator {
		return "mercator"
	}
	return "toast"
}

// ParseProjection accepts "toast" or "mercator".
func ParseProjection(s string) (Projection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "toast", "":
		return Toast, nil
	case "mercator":
		return Mercator, nil
	}
	return 0, errors.Errorf("unknown projection %q", s)
}

// Kind selects what a tile holds.
type Kind int

const (
	Image Kind = iota
	Elevation
)

func (k Kind) String() string {
	if k == Elevation {
		return "dem"
	}
	return "image"
}

// Extension returns the file extension tiles of this kind are stored under.
func (k Kind) Extension() string {
	if k == Elevation {
		return "dem"
	}
	return "png"
}

// ParseKind accepts "image" or "dem" ("elevation").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image", "":
		return Image, nil
	case "dem", "elevation":
		return Elevation, nil
	}
	return 0, errors.Errorf("unknown tile kind %q", s)
}
