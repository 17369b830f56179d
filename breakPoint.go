package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/pkg/errors"

	"platetiler/geometry"
)

var BreakPointInst *BreakPoint

func InitBreakPoint() {
	path := filepath.Join(conf.BreakPoint.SaveFilePath, fmt.Sprintf("%s.log", conf.Pyramid.Name))
	bp, err := OpenBreakPoint(path, conf.Task.Resume, conf.Task.Workers)
	if err != nil {
		log.Fatalf("break point file open is error: %s", err)
	}
	BreakPointInst = bp
	if conf.Task.Resume {
		log.Infof("断点记录已加载, %d 个瓦片已完成", bp.Count())
	}

	SafeExitInst.Register(BreakPointInst.BreakPointSafeFun)
}

// BreakPoint 记录已完成的瓦片, 每行一个 "level-x-y"
type BreakPoint struct {
	file     *os.File
	saveChan chan geometry.TileAddress
	wg       sync.WaitGroup

	mu         sync.RWMutex
	successMap *roaring64.Bitmap
	isClose    bool
}

// OpenBreakPoint 打开断点文件并开始记录. resume 为 false 时清空旧记录
func OpenBreakPoint(path string, resume bool, buf int) (*BreakPoint, error) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, errors.Wrapf(err, "create break point folder for %s", path)
	}
	flags := os.O_APPEND | os.O_CREATE | os.O_RDWR
	if !resume {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(path, flags, os.ModePerm)
	if err != nil {
		return nil, errors.Wrapf(err, "open break point file %s", path)
	}

	// 获取断点记录
	successMap, err := getBackPoint(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	b := &BreakPoint{
		file:       file,
		saveChan:   make(chan geometry.TileAddress, max(buf, 1)),
		successMap: successMap,
	}
	// 开始断点任务
	b.wg.Add(1)
	go b.Start()
	return b, nil
}

// getBackPoint 读取断点文件, 忽略无法解析的行
func getBackPoint(r io.Reader) (*roaring64.Bitmap, error) {
	res := roaring64.New()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		var t geometry.TileAddress
		if _, err := fmt.Sscanf(sc.Text(), "%d-%d-%d", &t.Level, &t.X, &t.Y); err != nil || !t.Valid() {
			continue
		}
		res.Add(t.Ordinal())
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read break point file")
	}
	return res, nil
}

// Count 已完成的瓦片数
func (b *BreakPoint) Count() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.successMap.GetCardinality()
}

func (b *BreakPoint) IsSuccessed(t geometry.TileAddress) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.successMap.Contains(t.Ordinal())
}

func (b *BreakPoint) SetSuccessed(t geometry.TileAddress) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.isClose {
		return
	}
	if !b.successMap.CheckedAdd(t.Ordinal()) {
		return
	}
	b.saveChan <- t
}

func (b *BreakPoint) Start() {
	defer b.wg.Done()
	w := bufio.NewWriter(b.file)
	for t := range b.saveChan {
		fmt.Fprintf(w, "%d-%d-%d\n", t.Level, t.X, t.Y)
		// 队列空闲时落盘
		if len(b.saveChan) == 0 {
			w.Flush()
		}
	}
	w.Flush()
}

// Close 停止记录, 写完队列中的瓦片后关闭文件
func (b *BreakPoint) Close() error {
	b.mu.Lock()
	if b.isClose {
		b.mu.Unlock()
		return nil
	}
	b.isClose = true
	close(b.saveChan)
	b.mu.Unlock()

	b.wg.Wait()
	if err := b.file.Sync(); err != nil {
		b.file.Close()
		return errors.Wrap(err, "sync break point file")
	}
	return b.file.Close()
}

func (b *BreakPoint) BreakPointSafeFun() {
	if err := b.Close(); err != nil {
		log.Errorf("断点记录关闭失败: %s", err)
		return
	}
	log.Infof("断点记录任务已安全退出")
}
