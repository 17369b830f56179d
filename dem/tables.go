// Package dem builds elevation tiles: fixed grids of signed 16-bit heights
// sampled on TOAST or Mercator tiles, with parents assembled from their
// children's samples instead of resampling the source.
package dem

import (
	"sync"

	"platetiler/geometry"
)

const (
	// GridSize is the number of samples along each side of a tile.
	GridSize = geometry.GridSize
	// SampleCount is the number of samples in a tile.
	SampleCount = GridSize * GridSize
	// TileBytes is the size of a serialized tile.
	TileBytes = SampleCount * 2

	half = GridSize / 2
)

// Topology names a sample ordering. Tiles sharing a topology share their
// sampling table and parent mapping.
type Topology int

const (
	// ToastBackslash tiles are split top-left to bottom-right.
	ToastBackslash Topology = iota
	// ToastSlash tiles are split top-right to bottom-left.
	ToastSlash
	// ToastRoot is the level-0 TOAST tile, whose quadrants alternate.
	ToastRoot
	// Mercator tiles are sampled row by row.
	Mercator

	topologies
)

func (t Topology) String() string {
	switch t {
	case ToastBackslash:
		return "toast-backslash"
	case ToastSlash:
		return "toast-slash"
	case ToastRoot:
		return "toast-root"
	}
	return "mercator"
}

// ToastTopology returns the topology of a TOAST tile.
func ToastTopology(node *geometry.MeshNode) Topology {
	if node.Address.Level == 0 {
		return ToastRoot
	}
	if node.Diagonal == geometry.Slash {
		return ToastSlash
	}
	return ToastBackslash
}

// childTopology is the topology of the child in quadrant q.
func (t Topology) childTopology(q int) Topology {
	if t != ToastRoot {
		return t
	}
	if (q&1)^(q>>1) == 0 {
		return ToastSlash
	}
	return ToastBackslash
}

// Position is a sample's column and row in the tile's grid.
type Position struct {
	X, Y uint8
}

// SampleOrder lists the grid positions of a tile's samples in storage order.
// TOAST tiles store samples in bands running parallel to their diagonal.
func SampleOrder(t Topology) []Position {
	return tables().orders[t]
}

// VertexSource says where a parent sample comes from: the child quadrant
// (qy*2+qx) and the sample index inside that child.
type VertexSource struct {
	Quadrant uint8
	Index    uint16
}

// VertexMapping lists, per parent sample index, its child source.
type VertexMapping []VertexSource

// Mapping returns the parent aggregation table of a topology.
func Mapping(t Topology) VertexMapping {
	return tables().mappings[t]
}

type sampleTables struct {
	orders   [topologies][]Position
	inverse  [topologies][GridSize][GridSize]uint16
	mappings [topologies]VertexMapping
}

// tables is built once on first use and read-only afterwards.
var tables = sync.OnceValue(func() *sampleTables {
	st := &sampleTables{}
	for t := Topology(0); t < topologies; t++ {
		st.orders[t] = buildOrder(t)
		for i, p := range st.orders[t] {
			st.inverse[t][p.X][p.Y] = uint16(i)
		}
	}
	for t := Topology(0); t < topologies; t++ {
		st.mappings[t] = st.buildMapping(t)
	}
	return st
})

func buildOrder(t Topology) []Position {
	order := make([]Position, 0, SampleCount)
	last := GridSize - 1
	switch t {
	case ToastBackslash, ToastRoot:
		// bands of constant x-y
		for band := 0; band <= 2*last; band++ {
			for y := 0; y <= last; y++ {
				if x := band - last + y; x >= 0 && x <= last {
					order = append(order, Position{uint8(x), uint8(y)})
				}
			}
		}
	case ToastSlash:
		// bands of constant x+y
		for band := 0; band <= 2*last; band++ {
			for y := 0; y <= last; y++ {
				if x := band - y; x >= 0 && x <= last {
					order = append(order, Position{uint8(x), uint8(y)})
				}
			}
		}
	default:
		for y := 0; y <= last; y++ {
			for x := 0; x <= last; x++ {
				order = append(order, Position{uint8(x), uint8(y)})
			}
		}
	}
	return order
}

// split maps a parent grid coordinate onto a child half and the child's
// grid coordinate. The centre line belongs to the second half.
func split(c uint8) (q int, local uint8) {
	if c < half {
		return 0, 2 * c
	}
	return 1, 2 * (c - half)
}

func (st *sampleTables) buildMapping(t Topology) VertexMapping {
	m := make(VertexMapping, SampleCount)
	for i, p := range st.orders[t] {
		qx, lx := split(p.X)
		qy, ly := split(p.Y)
		q := qy*2 + qx
		m[i] = VertexSource{
			Quadrant: uint8(q),
			Index:    st.inverse[t.childTopology(q)][lx][ly],
		}
	}
	return m
}
