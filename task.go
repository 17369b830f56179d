package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/teris-io/shortid"
	pb "gopkg.in/cheggaaa/pb.v1"

	"platetiler/geometry"
	"platetiler/pyramid"
)

func InitTask() int {
	start := time.Now()

	task, err := NewTask(conf)
	if err != nil {
		log.Errorf("create task error, details: %s", err)
		return 1
	}
	// 注册安全退出
	SafeExitInst.Register(task.Close)

	status, err := task.Run(SafeExitInst.Context())
	if err != nil {
		log.Errorf("task %s failed, details: %s", task.ID, err)
		return 1
	}

	secs := time.Since(start).Seconds()
	log.Infof("task %s %s, %.3fs", task.ID, status, secs)
	if status == pyramid.Canceled {
		return 2
	}
	return 0
}

// Task 生成任务
type Task struct {
	ID         string
	Name       string
	Level      uint32
	Projection pyramid.Projection
	Layers     []*Layer
	Tiles      pyramid.Enumerator
	Result     pyramid.Result

	conf   *Conf
	logger logrus.FieldLogger

	mu  sync.Mutex
	bar *pb.ProgressBar
}

// NewTask 创建生成任务
func NewTask(c *Conf) (*Task, error) {
	id, _ := shortid.Generate()
	proj, err := pyramid.ParseProjection(c.Pyramid.Projection)
	if err != nil {
		return nil, err
	}
	task := &Task{
		ID:         id,
		Name:       c.Pyramid.Name,
		Level:      c.Pyramid.Level,
		Projection: proj,
		conf:       c,
	}
	task.logger = log.WithField("task", id)

	task.Tiles, err = tileEnumerator(c, proj)
	if err != nil {
		return nil, err
	}
	for _, s := range c.Sources {
		layer, err := newLayer(c, s, proj, task.logger)
		if err != nil {
			task.Close()
			return nil, err
		}
		task.Layers = append(task.Layers, layer)
	}
	for level := uint32(0); level <= task.Level; level++ {
		task.logger.Debugf("level: %d, tiles: %d", level, task.count(level))
	}
	return task, nil
}

func (task *Task) count(level uint32) int64 {
	if task.Tiles == nil {
		return pyramid.FullGrid{}.Count(level)
	}
	return task.Tiles.Count(level)
}

// creator 多个数据源时组合为一个生成器, 同一瓦片地址一起生成
func (task *Task) creator() pyramid.TileCreator {
	if len(task.Layers) == 1 {
		return task.Layers[0].Creator
	}
	var c pyramid.Composite
	for _, l := range task.Layers {
		c = append(c, l.Creator)
	}
	return c
}

// Run 生成金字塔, 完成后按配置打包 plate
func (task *Task) Run(ctx context.Context) (pyramid.Status, error) {
	task.logger.Infof("task %s: %s pyramid %s, level %d, %d layers",
		task.ID, task.Projection, task.Name, task.Level, len(task.Layers))

	opts := []pyramid.Option{
		pyramid.WithWorkers(task.conf.Task.Workers),
		pyramid.WithLogger(task.logger),
		pyramid.WithObserver(task),
	}
	if task.conf.Task.Resume {
		opts = append(opts, pyramid.WithSkip(BreakPointInst.IsSuccessed))
	}
	res, err := pyramid.NewGenerator(task.creator(), opts...).Generate(ctx, task.Level, task.Tiles)
	if err != nil {
		return pyramid.Completed, err
	}
	task.Result = res
	task.logger.Infof("created %d, absent %d, failed %d, skipped %d",
		res.Created, res.Absent, res.Failed, res.Skipped)
	if res.Status == pyramid.Canceled {
		task.logger.Infof("Task %s got canceled.", task.Name)
		return res.Status, nil
	}
	return task.pack(ctx)
}

// pack 将每一套瓦片打包为 plate 文件
func (task *Task) pack(ctx context.Context) (pyramid.Status, error) {
	mode := task.conf.Plate.Mode
	if mode == "none" {
		return pyramid.Completed, nil
	}
	dir := task.conf.Plate.Directory
	if dir == "" {
		dir = task.conf.outputRoot()
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return pyramid.Completed, err
	}
	popts := pyramid.PackOptions{Workers: task.conf.Task.Workers, Logger: task.logger}
	for _, l := range task.Layers {
		var (
			status pyramid.Status
			err    error
			out    string
		)
		start := time.Now()
		if mode == "multi" {
			out = filepath.Join(dir, fmt.Sprintf("%s-%s", task.Name, l.Kind))
			status, err = pyramid.PackMultiPlate(ctx, l.Serializer, out, task.Level, popts)
		} else {
			out = filepath.Join(dir, fmt.Sprintf("%s.%s.plate", task.Name, l.Kind.Extension()))
			status, err = pyramid.PackPlate(ctx, l.Serializer, out, task.Level, popts)
		}
		if err != nil {
			return status, err
		}
		if status == pyramid.Canceled {
			task.logger.Warnf("packing %s canceled, %s is incomplete", l, out)
			return status, nil
		}
		task.logger.Infof("packed %s into %s, %dms", l, out, time.Since(start).Milliseconds())
		task.verify(out)
	}
	return pyramid.Completed, nil
}

// verify 检查打包结果中的根瓦片
func (task *Task) verify(path string) {
	store, err := pyramid.OpenPlateStore(path)
	if err != nil {
		task.logger.Warnf("reopen %s: %s", path, err)
		return
	}
	defer store.Close()
	root, err := store.Deserialize(geometry.TileAddress{})
	switch {
	case err != nil:
		task.logger.Warnf("read root tile of %s: %s", path, err)
	case root == nil:
		task.logger.Warnf("%s has no root tile", path)
	default:
		task.logger.Debugf("%s root tile %.2f kb", path, float32(len(root))/1024.0)
	}
}

func (task *Task) LevelStarted(level uint32, total int64) {
	bar := pb.New64(total).Prefix(fmt.Sprintf("Level %d : ", level)).Postfix("\n")
	bar.SetRefreshRate(time.Second)
	bar.Start()
	task.mu.Lock()
	task.bar = bar
	task.mu.Unlock()
}

func (task *Task) TileFinished(t geometry.TileAddress, err error) {
	task.mu.Lock()
	bar := task.bar
	task.mu.Unlock()
	if bar != nil {
		bar.Increment()
	}
	// 无数据的瓦片同样记为完成, 续传时不再重试
	if err == nil || errors.Is(err, pyramid.ErrNoData) {
		BreakPointInst.SetSuccessed(t)
	}
}

func (task *Task) LevelFinished(level uint32) {
	task.mu.Lock()
	bar := task.bar
	task.bar = nil
	task.mu.Unlock()
	if bar != nil {
		bar.FinishPrint(fmt.Sprintf("Task %s Level %d finished ~", task.ID, level))
	}
}

// Close 关闭所有存储
func (task *Task) Close() {
	for _, l := range task.Layers {
		if err := l.Close(); err != nil {
			log.Errorf("close %s error: %s", l, err)
		}
	}
}
