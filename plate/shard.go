package plate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"platetiler/geometry"
)

// TopPlateName is the file holding the coarse levels of a sharded pyramid.
const TopPlateName = "top.plate"

// ShardingPlan splits a pyramid of levels 0..MaxLevel between one top
// plate (levels 0..MaxOverlappedLevel) and a grid of shard plates rooted at
// MinOverlappedLevel, each LevelsPerPlate levels deep. The two ranges
// overlap by TotalOverlappedLevels >= 1 levels.
type ShardingPlan struct {
	MaxLevel              uint32
	LevelsPerPlate        uint32
	MinOverlappedLevel    uint32
	MaxOverlappedLevel    uint32
	TotalOverlappedLevels uint32
}

// NewShardingPlan derives the split for a pyramid whose deepest level is maxLevel.
func NewShardingPlan(maxLevel uint32) ShardingPlan {
	levels := maxLevel + 1
	perPlate := levels/2 + 1
	return ShardingPlan{
		MaxLevel:              maxLevel,
		LevelsPerPlate:        perPlate,
		MinOverlappedLevel:    levels - perPlate,
		MaxOverlappedLevel:    levels / 2,
		TotalOverlappedLevels: 2*perPlate - levels,
	}
}

// ShardCount returns the number of shards along each side of the grid.
func (p ShardingPlan) ShardCount() uint32 {
	return geometry.TilesPerSide(p.MinOverlappedLevel)
}

// TopPath returns the path of the top plate under dir.
func TopPath(dir string) string {
	return filepath.Join(dir, TopPlateName)
}

// ShardDir returns the folder holding the shards rooted at level.
func ShardDir(dir string, level uint32) string {
	return filepath.Join(dir, strconv.FormatUint(uint64(level), 10))
}

// ShardPath returns the path of the shard rooted at tile (level, x, y).
func ShardPath(dir string, level, x, y uint32) string {
	return filepath.Join(ShardDir(dir, level), fmt.Sprintf("L%dX%dY%d.plate", level, x, y))
}

// MultiReader resolves tiles of a sharded pyramid written as a top plate
// plus shard folders. Shard files are opened on first use and kept open.
type MultiReader struct {
	dir         string
	shardLevels []int

	mu      sync.Mutex
	readers map[string]*Reader
}

// OpenMulti scans dir for shard folders. The folder names are the levels at
// which their shards are rooted.
func OpenMulti(dir string) (*MultiReader, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read multi-plate folder %s", dir)
	}
	m := &MultiReader{dir: dir, readers: make(map[string]*Reader)}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		level, err := strconv.Atoi(e.Name())
		if err != nil || level < 0 || level > geometry.MaxLevel {
			continue
		}
		m.shardLevels = append(m.shardLevels, level)
	}
	sort.Ints(m.shardLevels)
	return m, nil
}

// Locate returns the plate file holding t and t's address inside it.
func (m *MultiReader) Locate(t geometry.TileAddress) (string, geometry.TileAddress) {
	i := sort.SearchInts(m.shardLevels, int(t.Level)+1) - 1
	if i < 0 {
		return TopPath(m.dir), t
	}
	shardLevel := uint32(m.shardLevels[i])
	depth := t.Level - shardLevel
	mask := geometry.TilesPerSide(depth) - 1
	local := geometry.TileAddress{Level: depth, X: t.X & mask, Y: t.Y & mask}
	return ShardPath(m.dir, shardLevel, t.X>>depth, t.Y>>depth), local
}

func (m *MultiReader) reader(path string) (*Reader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.readers[path]; ok {
		return r, nil
	}
	r, err := Open(path)
	if err != nil {
		if os.IsNotExist(errors.Cause(err)) {
			m.readers[path] = nil
			return nil, nil
		}
		return nil, err
	}
	m.readers[path] = r
	return r, nil
}

// Tile returns the payload of t, or nil if absent. A shard that was never
// written counts as absent.
func (m *MultiReader) Tile(t geometry.TileAddress) ([]byte, error) {
	path, local := m.Locate(t)
	r, err := m.reader(path)
	if err != nil || r == nil {
		return nil, err
	}
	return r.Tile(local)
}

// Close closes every opened plate.
func (m *MultiReader) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var first error
	for path, r := range m.readers {
		if r != nil {
			if err := r.Close(); err != nil && first == nil {
				first = err
			}
		}
		delete(m.readers, path)
	}
	return first
}
