package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var SafeExitInst *SafeExit

func InitSafeExit() {
	SafeExitInst = NewSafeExit()
	go SafeExitInst.ListenSignal()
}

// SafeExit 第一次收到信号时取消任务, 让进行中的瓦片写完; 第二次立即退出
type SafeExit struct {
	ctx    context.Context
	cancel context.CancelFunc
	funcs  []func()
	once   sync.Once
	mu     sync.Mutex
}

func NewSafeExit() *SafeExit {
	ctx, cancel := context.WithCancel(context.Background())
	return &SafeExit{ctx: ctx, cancel: cancel}
}

// Context 任务上下文, 收到信号后取消
func (s *SafeExit) Context() context.Context {
	return s.ctx
}

// Register 注册退出时执行的函数, 按注册的逆序执行
func (s *SafeExit) Register(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.funcs = append(s.funcs, f)
}

// Cleanup 执行已注册的函数, 只执行一次
func (s *SafeExit) Cleanup() {
	s.once.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		for i := len(s.funcs) - 1; i >= 0; i-- {
			s.funcs[i]()
		}
	})
}

func (s *SafeExit) ListenSignal() {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	canceled := false
	for singal := range sigs {
		if !canceled {
			fmt.Printf("收到系统信号 %s, 正在停止任务, 请稍后\n", singal)
			canceled = true
			s.cancel()
			continue
		}
		fmt.Printf("再次收到系统信号 %s, 立即退出\n", singal)
		os.Exit(1)
	}
}
