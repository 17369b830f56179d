package main

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/shiena/ansicolor"
)

var log *logrus.Logger

// InitLog 初始化日志
func InitLog() {
	l, err := newLogger(conf.Output.LogDir, conf.Output.OutputTerminal, logLevel)
	if err != nil {
		panic("日志文件打开失败: " + err.Error())
	}
	log = l
}

func newLogger(logDir string, terminal bool, levelName string) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		ShowFullLevel:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	logIO := make([]io.Writer, 0)
	if logDir != "" {
		if err := os.MkdirAll(logDir, os.ModePerm); err != nil {
			return nil, errors.Wrapf(err, "create log folder %s", logDir)
		}
		filename := filepath.Join(logDir, time.Now().Format("2006-01-02.log"))
		file, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_RDWR, os.ModePerm)
		if err != nil {
			return nil, errors.Wrapf(err, "open log file %s", filename)
		}
		logIO = append(logIO, file)
	}
	// 没有日志文件时总要输出到终端
	if terminal || len(logIO) == 0 {
		logIO = append(logIO, os.Stdout)
	}

	// 融合日志输出
	l.SetOutput(ansicolor.NewAnsiColorWriter(io.MultiWriter(logIO...)))

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	return l, nil
}
