// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Lithographer - 图片+音频合成视频工具

package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ZSC714725/lithographer/internal/console"
	"github.com/ZSC714725/lithographer/internal/filelog"
)

// Config 应用配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig 本地控制服务配置
type ServerConfig struct {
	Bind string `yaml:"bind"`
}

// FFmpegConfig FFmpeg 配置
type FFmpegConfig struct {
	// Path 为空时使用程序目录下的 ffmpeg
	Path   string   `yaml:"path"`
	Allow  []string `yaml:"allow"`
	Block  []string `yaml:"block"`
	Sample bool     `yaml:"sample"`
}

// LogConfig 日志配置
type LogConfig struct {
	File        string `yaml:"file"`
	Capacity    int    `yaml:"capacity"`
	Queue       int    `yaml:"queue"`
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

const (
	defaultBind     = "127.0.0.1:8417"
	defaultLogFile  = "log.txt"
	defaultLogLevel = "info"
)

// Default 返回默认配置
func Default() *Config {
	return &Config{
		Server: ServerConfig{Bind: defaultBind},
		FFmpeg: FFmpegConfig{Sample: true},
		Log: LogConfig{
			File:     defaultLogFile,
			Capacity: console.DefaultCapacity,
			Queue:    filelog.DefaultQueue,
			Level:    defaultLogLevel,
		},
	}
}

// Load 从 YAML 文件加载配置
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// 填充空值
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = defaultBind
	}
	if cfg.Log.File == "" {
		cfg.Log.File = defaultLogFile
	}
	if cfg.Log.Capacity <= 0 {
		cfg.Log.Capacity = console.DefaultCapacity
	}
	if cfg.Log.Queue <= 0 {
		cfg.Log.Queue = filelog.DefaultQueue
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}

	return cfg, nil
}

// LogPath returns the log file path, relative paths resolved against dir
func (c *Config) LogPath(dir string) string {
	if filepath.IsAbs(c.Log.File) {
		return c.Log.File
	}
	return filepath.Join(dir, c.Log.File)
}
