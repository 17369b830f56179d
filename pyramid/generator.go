package pyramid

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"platetiler/geometry"
)

// Status is the outcome of a run.
type Status int

const (
	Completed Status = iota
	Canceled
)

func (s Status) String() string {
	if s == Canceled {
		return "canceled"
	}
	return "completed"
}

// Result summarizes a run.
type Result struct {
	Status  Status
	Created int64 // tiles persisted
	Absent  int64 // tiles the source had no data for
	Failed  int64 // tiles that hit an error and were left absent
	Skipped int64 // tiles the skip predicate reported as already done
}

// Observer follows a run. TileFinished is called from worker goroutines.
type Observer interface {
	LevelStarted(level uint32, total int64)
	TileFinished(t geometry.TileAddress, err error)
	LevelFinished(level uint32)
}

// Generator builds a base level and every ancestor level with a bounded
// pool of workers.
type Generator struct {
	creator  TileCreator
	workers  int
	logger   logrus.FieldLogger
	observer Observer
	skip     func(geometry.TileAddress) bool

	done    atomic.Int64
	created atomic.Int64
	absent  atomic.Int64
	failed  atomic.Int64
	skipped atomic.Int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithWorkers bounds the number of tiles built at once. Values below one
// select the number of CPUs.
func WithWorkers(n int) Option {
	return func(g *Generator) { g.workers = n }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(g *Generator) { g.logger = l }
}

func WithObserver(o Observer) Option {
	return func(g *Generator) { g.observer = o }
}

// WithSkip makes the generator pass over tiles for which done returns true.
func WithSkip(done func(geometry.TileAddress) bool) Option {
	return func(g *Generator) { g.skip = done }
}

// NewGenerator returns a generator driving creator.
func NewGenerator(creator TileCreator, opts ...Option) *Generator {
	g := &Generator{creator: creator, logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(g)
	}
	if g.workers < 1 {
		g.workers = runtime.NumCPU()
	}
	return g
}

// Done returns the number of tiles finished so far, whatever their outcome.
func (g *Generator) Done() int64 {
	return g.done.Load()
}

// Generate creates every tile tiles lists at baseLevel, then every listed
// tile of each coarser level from its children. A level starts only after
// the previous one is finished. Canceling ctx stops new tiles from
// starting; tiles already started run to completion and the result
// reports Canceled.
func (g *Generator) Generate(ctx context.Context, baseLevel uint32, tiles Enumerator) (Result, error) {
	if baseLevel > geometry.MaxLevel {
		return Result{}, errors.Wrapf(ErrInvalidLevel, "level %d", baseLevel)
	}
	if tiles == nil {
		tiles = FullGrid{}
	}
	for _, c := range []*atomic.Int64{&g.done, &g.created, &g.absent, &g.failed, &g.skipped} {
		c.Store(0)
	}

	status := Completed
	if !g.runLevel(ctx, baseLevel, tiles, g.creator.Create) {
		status = Canceled
	}
	for level := int(baseLevel) - 1; level >= 0 && status == Completed; level-- {
		if !g.runLevel(ctx, uint32(level), tiles, g.creator.CreateParent) {
			status = Canceled
		}
	}
	return Result{
		Status:  status,
		Created: g.created.Load(),
		Absent:  g.absent.Load(),
		Failed:  g.failed.Load(),
		Skipped: g.skipped.Load(),
	}, nil
}

// runLevel fans fn out over one level and waits for it. It reports
// whether the level ran without cancellation.
func (g *Generator) runLevel(ctx context.Context, level uint32, tiles Enumerator, fn func(geometry.TileAddress) error) bool {
	total := tiles.Count(level)
	start := time.Now()
	g.logger.WithField("level", level).Infof("level %d: %d tiles", level, total)
	if g.observer != nil {
		g.observer.LevelStarted(level, total)
	}

	var eg errgroup.Group
	eg.SetLimit(g.workers)
	tiles.Each(level, func(t geometry.TileAddress) bool {
		if ctx.Err() != nil {
			return false
		}
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			g.runTile(t, fn)
			return nil
		})
		return true
	})
	eg.Wait()

	if g.observer != nil {
		g.observer.LevelFinished(level)
	}
	if ctx.Err() != nil {
		g.logger.WithField("level", level).Warnf("level %d canceled after %s", level, time.Since(start))
		return false
	}
	g.logger.WithField("level", level).Debugf("level %d finished in %s", level, time.Since(start))
	return true
}

func (g *Generator) runTile(t geometry.TileAddress, fn func(geometry.TileAddress) error) {
	defer g.done.Add(1)
	var err error
	switch {
	case g.skip != nil && g.skip(t):
		g.skipped.Add(1)
	default:
		err = g.build(t, fn)
	}
	if g.observer != nil {
		g.observer.TileFinished(t, err)
	}
}

func (g *Generator) build(t geometry.TileAddress, fn func(geometry.TileAddress) error) error {
	err := fn(t)
	switch {
	case err == nil:
		g.created.Add(1)
	case errors.Is(err, ErrNoData):
		g.absent.Add(1)
	default:
		g.failed.Add(1)
		g.logger.WithField("tile", t.String()).Warnf("tile %s left absent: %v", t, err)
	}
	return err
}
