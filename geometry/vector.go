package geometry

import (
	"math"
)

const (
	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi
)

// Vector3d is a point or direction in Cartesian space.
type Vector3d struct {
	X, Y, Z float64
}

func (v Vector3d) Add(o Vector3d) Vector3d {
	return Vector3d{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

func (v Vector3d) Subtract(o Vector3d) Vector3d {
	return Vector3d{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

func (v Vector3d) Scale(f float64) Vector3d {
	return Vector3d{v.X * f, v.Y * f, v.Z * f}
}

func (v Vector3d) Dot(o Vector3d) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vector3d) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// Normalize returns v scaled to unit length. The zero vector is returned unchanged.
func (v Vector3d) Normalize() Vector3d {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Equal reports whether every component matches exactly.
func (v Vector3d) Equal(o Vector3d) bool {
	return v.X == o.X && v.Y == o.Y && v.Z == o.Z
}

// Midpoint returns the point halfway between a and b on the unit sphere.
func Midpoint(a, b Vector3d) Vector3d {
	return a.Add(b).Scale(0.5).Normalize()
}

// FromRaDec returns the unit vector for right ascension and declination in degrees.
func FromRaDec(ra, dec float64) Vector3d {
	r, d := ra*degToRad, dec*degToRad
	return Vector3d{
		X: math.Cos(d) * math.Cos(r),
		Y: math.Cos(d) * math.Sin(r),
		Z: math.Sin(d),
	}
}

// RaDec converts v to right ascension in [0,360) and declination in
// [-90,90], packed as X and Y of a Vector2d.
func (v Vector3d) RaDec() Vector2d {
	n := v.Normalize()
	z := math.Max(-1, math.Min(1, n.Z))
	ra := math.Atan2(n.Y, n.X) * radToDeg
	return Vector2d{X: WrapRA(ra), Y: math.Asin(z) * radToDeg}
}

// Vector2d holds a longitude-like X and a latitude-like Y in degrees.
type Vector2d struct {
	X, Y float64
}

// WrapRA folds an angle into [0,360).
func WrapRA(ra float64) float64 {
	ra = math.Mod(ra, 360)
	if ra < 0 {
		ra += 360
	}
	if ra >= 360 {
		ra -= 360
	}
	return ra
}

// unwrapNear shifts a by whole turns so it lies within 180 degrees of ref.
func unwrapNear(a, ref float64) float64 {
	for a-ref > 180 {
		a -= 360
	}
	for ref-a > 180 {
		a += 360
	}
	return a
}

// Lerp interpolates between a and b. X is treated as a longitude: when the
// two sides differ by more than 180 degrees one of them is moved by 360
// before interpolating, and the result is folded back into [0,360).
func Lerp(a, b Vector2d, t float64) Vector2d {
	bx := unwrapNear(b.X, a.X)
	return Vector2d{
		X: WrapRA(a.X + (bx-a.X)*t),
		Y: a.Y + (b.Y-a.Y)*t,
	}
}

// SkyToLonLat turns a right ascension / declination pair into a longitude
// in [-180,180) and a latitude.
func SkyToLonLat(v Vector2d) (lon, lat float64) {
	lon = WrapRA(v.X)
	if lon >= 180 {
		lon -= 360
	}
	return lon, v.Y
}
