// Package staticLog 全局日志, logrus + lumberjack 轮转
package staticLog

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Log = newDefault()

type Config struct {
	Level      string `yaml:"level"`      // debug/info/warn/error
	File       string `yaml:"file"`       // 为空则只写 stderr
	MaxSizeMB  int    `yaml:"maxSizeMB"`  // 单文件大小
	MaxBackups int    `yaml:"maxBackups"` // 保留份数
	MaxAgeDays int    `yaml:"maxAgeDays"`
	JSON       bool   `yaml:"json"`
}

func newDefault() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05.000"})
	return l
}

// Init 按配置重设全局 Log, 返回的 io.Closer 用于关闭日志文件
func Init(cfg Config) (io.Closer, error) {
	lvl := logrus.InfoLevel
	if s := strings.TrimSpace(cfg.Level); s != "" {
		parsed, err := logrus.ParseLevel(s)
		if err != nil {
			return nil, err
		}
		lvl = parsed
	}
	Log.SetLevel(lvl)

	if cfg.JSON {
		Log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05.000"})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05.000"})
	}

	if cfg.File == "" {
		Log.SetOutput(os.Stderr)
		return io.NopCloser(nil), nil
	}
	rotate := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    orDefault(cfg.MaxSizeMB, 100),
		MaxBackups: orDefault(cfg.MaxBackups, 5),
		MaxAge:     orDefault(cfg.MaxAgeDays, 30),
		Compress:   true,
	}
	Log.SetOutput(io.MultiWriter(os.Stderr, rotate))
	return rotate, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
