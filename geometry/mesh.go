package geometry

import (
	"math"
	"sync"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

const (
	// GridSubdivisions is the number of cells along each side of a tile's
	// dense vertex grid.
	GridSubdivisions = 32
	// GridSize is the number of vertices along each side of the dense grid.
	GridSize = GridSubdivisions + 1

	poleEpsilon = 1e-9
)

// ErrInvalidAddress is returned for tile addresses outside their level's grid.
var ErrInvalidAddress = errors.New("invalid tile address")

// Diagonal is the direction of the line splitting a TOAST tile into two triangles.
type Diagonal uint8

const (
	// Backslash runs from the top-left corner to the bottom-right corner.
	Backslash Diagonal = iota
	// Slash runs from the top-right corner to the bottom-left corner.
	Slash
)

func (d Diagonal) String() string {
	if d == Slash {
		return "slash"
	}
	return "backslash"
}

// quadrantDiagonal is the orientation of the level-1 tile in quadrant
// (qx, qy); every descendant keeps it.
func quadrantDiagonal(qx, qy int) Diagonal {
	if (qx^qy)&1 == 0 {
		return Slash
	}
	return Backslash
}

// masterBounds is the level-0 TOAST tile: the north pole in the centre,
// the south pole on all four corners and the equator crossing the edge
// midpoints at RA 0, 90, 180 and 270 clockwise from the top.
var masterBounds = sync.OnceValue(func() [3][3]Vector3d {
	south := Vector3d{0, 0, -1}
	var b [3][3]Vector3d
	b[0][0], b[2][0], b[0][2], b[2][2] = south, south, south, south
	b[1][1] = Vector3d{0, 0, 1}
	b[1][0] = FromRaDec(0, 0)
	b[2][1] = FromRaDec(90, 0)
	b[1][2] = FromRaDec(180, 0)
	b[0][1] = FromRaDec(270, 0)
	return b
})

// MeshNode is the spherical geometry of one TOAST tile.
type MeshNode struct {
	Address TileAddress
	// Bounds holds corners, edge midpoints and centre, indexed [x][y].
	Bounds [3][3]Vector3d
	// Diagonal is the triangulation of the tile. The root tile mixes both
	// orientations, one per quadrant, and reports Backslash.
	Diagonal Diagonal

	gridOnce sync.Once
	grid     [GridSize][GridSize]Vector2d
}

// NewMeshNode builds the mesh for t by bisecting the master octahedron
// down to t's level.
func NewMeshNode(t TileAddress) (*MeshNode, error) {
	if !t.Valid() {
		return nil, errors.Wrap(ErrInvalidAddress, t.String())
	}
	n := &MeshNode{Address: t, Bounds: masterBounds(), Diagonal: Backslash}
	for depth := uint32(1); depth <= t.Level; depth++ {
		shift := t.Level - depth
		qx := int(t.X>>shift) & 1
		qy := int(t.Y>>shift) & 1
		if depth == 1 {
			n.Diagonal = quadrantDiagonal(qx, qy)
		}
		n.Bounds = subdivide(n.Bounds, qx, qy, n.Diagonal)
	}
	return n, nil
}

// subdivide returns the 3x3 bounds of quadrant (qx, qy) of b.
func subdivide(b [3][3]Vector3d, qx, qy int, d Diagonal) [3][3]Vector3d {
	c00, c10 := b[qx][qy], b[qx+1][qy]
	c01, c11 := b[qx][qy+1], b[qx+1][qy+1]

	var n [3][3]Vector3d
	n[0][0], n[2][0], n[0][2], n[2][2] = c00, c10, c01, c11
	n[1][0] = Midpoint(c00, c10)
	n[0][1] = Midpoint(c00, c01)
	n[2][1] = Midpoint(c10, c11)
	n[1][2] = Midpoint(c01, c11)
	if d == Slash {
		n[1][1] = Midpoint(c10, c01)
	} else {
		n[1][1] = Midpoint(c00, c11)
	}
	return n
}

// cellDiagonal returns the orientation of cell (i, j) of a grid with
// cells cells per side.
func (n *MeshNode) cellDiagonal(i, j, cells int) Diagonal {
	if n.Address.Level > 0 {
		return n.Diagonal
	}
	return quadrantDiagonal(2*i/cells, 2*j/cells)
}

// vertices refines the 3x3 bounds into the dense GridSize x GridSize grid.
// Every round splits each triangle into four through its normalized edge
// midpoints.
func (n *MeshNode) vertices() [][]Vector3d {
	cur := make([][]Vector3d, 3)
	for i := range cur {
		cur[i] = n.Bounds[i][:]
	}
	for cells := 2; cells < GridSubdivisions; cells *= 2 {
		size := 2*cells + 1
		next := make([][]Vector3d, size)
		for i := range next {
			next[i] = make([]Vector3d, size)
		}
		for i := 0; i <= cells; i++ {
			for j := 0; j <= cells; j++ {
				next[2*i][2*j] = cur[i][j]
				if i < cells {
					next[2*i+1][2*j] = Midpoint(cur[i][j], cur[i+1][j])
				}
				if j < cells {
					next[2*i][2*j+1] = Midpoint(cur[i][j], cur[i][j+1])
				}
				if i < cells && j < cells {
					if n.cellDiagonal(i, j, cells) == Slash {
						next[2*i+1][2*j+1] = Midpoint(cur[i+1][j], cur[i][j+1])
					} else {
						next[2*i+1][2*j+1] = Midpoint(cur[i][j], cur[i+1][j+1])
					}
				}
			}
		}
		cur = next
	}
	return cur
}

func (n *MeshNode) skyGrid() *[GridSize][GridSize]Vector2d {
	n.gridOnce.Do(func() {
		v := n.vertices()
		for i := 0; i < GridSize; i++ {
			for j := 0; j < GridSize; j++ {
				n.grid[i][j] = v[i][j].RaDec()
			}
		}
	})
	return &n.grid
}

// SkyAt returns the RA/Dec of dense grid vertex (i, j), with i across and j down.
func (n *MeshNode) SkyAt(i, j int) Vector2d {
	return n.skyGrid()[i][j]
}

func isPole(v Vector2d) bool {
	return math.Abs(v.Y) >= 90-poleEpsilon
}

// PointToSky maps tile-relative coordinates u (across) and v (down), both
// in [0,1], to RA/Dec by bilinear interpolation inside the dense grid.
func (n *MeshNode) PointToSky(u, v float64) Vector2d {
	g := n.skyGrid()
	fx := math.Max(0, math.Min(1, u)) * GridSubdivisions
	fy := math.Max(0, math.Min(1, v)) * GridSubdivisions
	ix, iy := int(fx), int(fy)
	if ix >= GridSubdivisions {
		ix = GridSubdivisions - 1
	}
	if iy >= GridSubdivisions {
		iy = GridSubdivisions - 1
	}
	tx, ty := fx-float64(ix), fy-float64(iy)

	c := [4]Vector2d{g[ix][iy], g[ix+1][iy], g[ix][iy+1], g[ix+1][iy+1]}
	// a pole has no right ascension of its own; borrow a neighbour's
	ref := -1
	for k := range c {
		if !isPole(c[k]) {
			ref = k
			break
		}
	}
	if ref >= 0 {
		for k := range c {
			if isPole(c[k]) {
				c[k].X = c[ref].X
			}
			c[k].X = unwrapNear(c[k].X, c[ref].X)
		}
	}

	top := Vector2d{c[0].X + (c[1].X-c[0].X)*tx, c[0].Y + (c[1].Y-c[0].Y)*tx}
	bottom := Vector2d{c[2].X + (c[3].X-c[2].X)*tx, c[2].Y + (c[3].Y-c[2].Y)*tx}
	return Vector2d{
		X: WrapRA(top.X + (bottom.X-top.X)*ty),
		Y: top.Y + (bottom.Y-top.Y)*ty,
	}
}

// Bound returns an RA/Dec rectangle enclosing the tile. Tiles touching a
// pole span every right ascension. The rectangle is padded by one grid cell
// to cover the bulge of great-circle edges between vertices, and its RA may
// run past 360 for tiles straddling RA 0.
func (n *MeshNode) Bound() orb.Bound {
	g := n.skyGrid()
	minDec, maxDec := 90.0, -90.0
	minRA, maxRA := math.Inf(1), math.Inf(-1)
	pole := false
	ref := math.NaN()
	for i := 0; i < GridSize; i++ {
		for j := 0; j < GridSize; j++ {
			p := g[i][j]
			minDec = math.Min(minDec, p.Y)
			maxDec = math.Max(maxDec, p.Y)
			if isPole(p) {
				pole = true
				continue
			}
			if math.IsNaN(ref) {
				ref = p.X
			}
			ra := unwrapNear(p.X, ref)
			minRA = math.Min(minRA, ra)
			maxRA = math.Max(maxRA, ra)
		}
	}
	if pole || math.IsInf(minRA, 1) || maxRA-minRA >= 360 {
		minRA, maxRA = 0, 360
	}
	decPad := (maxDec - minDec) / GridSubdivisions
	raPad := (maxRA - minRA) / GridSubdivisions
	return orb.Bound{
		Min: orb.Point{minRA - raPad, math.Max(-90, minDec-decPad)},
		Max: orb.Point{maxRA + raPad, math.Min(90, maxDec+decPad)},
	}
}
