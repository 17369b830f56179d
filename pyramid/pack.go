package pyramid

import (
	"context"
	"os"
	"runtime"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"platetiler/geometry"
	"platetiler/plate"
)

// PackOptions tunes plate packing.
type PackOptions struct {
	Workers int
	Logger  logrus.FieldLogger
}

func (o PackOptions) withDefaults() PackOptions {
	if o.Workers < 1 {
		o.Workers = runtime.NumCPU()
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	return o
}

// PackPlate copies levels 0..maxLevel of a finished pyramid from src into
// a single plate file at path. Rows are packed in parallel. On
// cancellation the plate is still finalized and holds what was copied.
func PackPlate(ctx context.Context, src TileReader, path string, maxLevel uint32, opts PackOptions) (Status, error) {
	opts = opts.withDefaults()
	w, err := plate.Create(path, maxLevel+1)
	if err != nil {
		return Completed, err
	}
	status, copyErr := copyLevels(ctx, src, w, geometry.TileAddress{}, maxLevel+1, opts)
	if err := w.UpdateHeaderAndClose(); err != nil {
		return status, err
	}
	return status, copyErr
}

// copyLevels copies the levels-deep subtree rooted at origin into w,
// addressing it in w relative to origin.
func copyLevels(ctx context.Context, src TileReader, w *plate.Writer, origin geometry.TileAddress, levels uint32, opts PackOptions) (Status, error) {
	for local := uint32(0); local < levels; local++ {
		n := geometry.TilesPerSide(local)
		eg, ectx := errgroup.WithContext(ctx)
		eg.SetLimit(opts.Workers)
		for y := uint32(0); y < n && ectx.Err() == nil; y++ {
			y := y
			eg.Go(func() error {
				for x := uint32(0); x < n; x++ {
					global := geometry.TileAddress{
						Level: origin.Level + local,
						X:     origin.X<<local + x,
						Y:     origin.Y<<local + y,
					}
					data, err := src.Deserialize(global)
					if err != nil {
						opts.Logger.WithField("tile", global.String()).Warnf("skip %s: %v", global, err)
						continue
					}
					if data == nil {
						continue
					}
					if err := w.AddStream(geometry.TileAddress{Level: local, X: x, Y: y}, data); err != nil {
						return err
					}
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return Completed, err
		}
		if ctx.Err() != nil {
			return Canceled, nil
		}
	}
	return Completed, nil
}

// PackMultiPlate splits a finished pyramid of levels 0..maxLevel into a
// top plate and shard plates under dir, following NewShardingPlan. Shards
// are built in parallel across rows of the shard grid; a shard with no
// tiles is not written.
func PackMultiPlate(ctx context.Context, src TileReader, dir string, maxLevel uint32, opts PackOptions) (Status, error) {
	opts = opts.withDefaults()
	sp := plate.NewShardingPlan(maxLevel)
	shardDir := plate.ShardDir(dir, sp.MinOverlappedLevel)
	if err := os.MkdirAll(shardDir, os.ModePerm); err != nil {
		return Completed, errors.Wrapf(err, "create shard folder %s", shardDir)
	}
	opts.Logger.Infof("multi-plate: %d levels per plate, shards at level %d, top plate to level %d",
		sp.LevelsPerPlate, sp.MinOverlappedLevel, sp.MaxOverlappedLevel)

	n := sp.ShardCount()
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(opts.Workers)
	for y := uint32(0); y < n && ectx.Err() == nil; y++ {
		y := y
		eg.Go(func() error {
			for x := uint32(0); x < n; x++ {
				if ectx.Err() != nil {
					return nil
				}
				origin := geometry.TileAddress{Level: sp.MinOverlappedLevel, X: x, Y: y}
				if err := packShard(ectx, src, dir, origin, sp.LevelsPerPlate, opts); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Completed, err
	}
	if ctx.Err() != nil {
		return Canceled, nil
	}
	return PackPlate(ctx, src, plate.TopPath(dir), sp.MaxOverlappedLevel, opts)
}

func packShard(ctx context.Context, src TileReader, dir string, origin geometry.TileAddress, levels uint32, opts PackOptions) error {
	// probe the subtree first so empty shards never reach the disk
	if !hasTiles(src, origin, levels) {
		return nil
	}
	path := plate.ShardPath(dir, origin.Level, origin.X, origin.Y)
	w, err := plate.Create(path, levels)
	if err != nil {
		return err
	}
	// the shard's rows are packed by this goroutine alone
	_, copyErr := copyLevels(ctx, src, w, origin, levels, PackOptions{Workers: 1, Logger: opts.Logger})
	if err := w.UpdateHeaderAndClose(); err != nil {
		return err
	}
	return copyErr
}

// hasTiles reports whether any tile of the subtree exists in src.
func hasTiles(src TileReader, origin geometry.TileAddress, levels uint32) bool {
	for local := uint32(0); local < levels; local++ {
		n := geometry.TilesPerSide(local)
		for y := uint32(0); y < n; y++ {
			for x := uint32(0); x < n; x++ {
				t := geometry.TileAddress{Level: origin.Level + local, X: origin.X<<local + x, Y: origin.Y<<local + y}
				if data, err := src.Deserialize(t); err == nil && data != nil {
					return true
				}
			}
		}
	}
	return false
}
