package geometry

import (
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// ErrInvalidRegion is returned for rectangles that cannot describe an area on the sphere.
var ErrInvalidRegion = errors.New("invalid region")

// Region is a longitude/latitude (or RA/Dec) rectangle in degrees.
type Region struct {
	West  float64
	South float64
	East  float64
	North float64
}

// WholeSky covers every right ascension and declination.
var WholeSky = Region{West: 0, South: -90, East: 360, North: 90}

// NewRegion validates and returns a region.
func NewRegion(west, south, east, north float64) (Region, error) {
	r := Region{West: west, South: south, East: east, North: north}
	if err := r.Validate(); err != nil {
		return Region{}, err
	}
	return r, nil
}

// RegionFromBound converts an orb bound (X = lon, Y = lat) into a Region.
func RegionFromBound(b orb.Bound) (Region, error) {
	return NewRegion(b.Min[0], b.Min[1], b.Max[0], b.Max[1])
}

// Validate checks that longitude increases west to east by at most a full
// turn and that the latitude range is increasing and stays on one sphere.
func (r Region) Validate() error {
	switch {
	case r.East <= r.West:
		return errors.Wrapf(ErrInvalidRegion, "east %.6f must be greater than west %.6f", r.East, r.West)
	case r.East-r.West > 360:
		return errors.Wrapf(ErrInvalidRegion, "longitude span %.6f exceeds 360", r.East-r.West)
	case r.North <= r.South:
		return errors.Wrapf(ErrInvalidRegion, "north %.6f must be greater than south %.6f", r.North, r.South)
	case r.South < -90 || r.North > 90:
		return errors.Wrapf(ErrInvalidRegion, "latitude range [%.6f, %.6f] leaves [-90, 90]", r.South, r.North)
	}
	return nil
}

// Top and Bottom give the rectangle in the top-down convention used for
// pixel space, where the top edge has the smaller coordinate.
func (r Region) Top() float64    { return -r.North }
func (r Region) Bottom() float64 { return -r.South }

// Bound returns the region as an orb bound.
func (r Region) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{r.West, r.South}, Max: orb.Point{r.East, r.North}}
}

// Intersects reports whether b overlaps, contains or is contained by the
// region. b is tried at its own longitude and one turn either side.
func (r Region) Intersects(b orb.Bound) bool {
	rb := r.Bound()
	for _, shift := range [...]float64{0, -360, 360} {
		s := orb.Bound{
			Min: orb.Point{b.Min[0] + shift, b.Min[1]},
			Max: orb.Point{b.Max[0] + shift, b.Max[1]},
		}
		if rb.Intersects(s) {
			return true
		}
	}
	return false
}

// Contains reports whether the point (lon, lat) falls inside the region,
// allowing for longitude wrap.
func (r Region) Contains(lon, lat float64) bool {
	if lat < r.South || lat > r.North {
		return false
	}
	for _, shift := range [...]float64{0, -360, 360} {
		l := lon + shift
		if l >= r.West && l <= r.East {
			return true
		}
	}
	return false
}
