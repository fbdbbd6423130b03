// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Lithographer - 图片+音频合成视频工具

package parse

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ZSC714725/lithographer/internal/process"
)

// Progress holds FFmpeg progress info parsed from -stats lines
type Progress struct {
	Frame     uint64    `json:"frame"`
	Size      uint64    `json:"size_bytes"`
	Time      float64   `json:"time_seconds"`
	Speed     float64   `json:"speed"`
	Drop      uint64    `json:"drop"`
	Dup       uint64    `json:"dup"`
	Quantizer float64   `json:"q"`
	Updated   time.Time `json:"updated"`
}

// Parser implements process.Parser: every line goes to the sink, stats
// lines additionally update Progress
type Parser interface {
	process.Parser
	Progress() Progress
	Lines() uint64
}

// Config for the parser
type Config struct {
	// Sink receives every line handed to Parse, may be nil
	Sink func(line string)
}

var re = struct {
	frame     *regexp.Regexp
	quantizer *regexp.Regexp
	size      *regexp.Regexp
	time      *regexp.Regexp
	speed     *regexp.Regexp
	drop      *regexp.Regexp
	dup       *regexp.Regexp
}{
	frame:     regexp.MustCompile(`frame=\s*([0-9]+)`),
	quantizer: regexp.MustCompile(`q=\s*(-?[0-9\.]+)`),
	size:      regexp.MustCompile(`size=\s*([0-9]+)(kB|KiB)`),
	time:      regexp.MustCompile(`time=\s*([0-9]+):([0-9]{2}):([0-9]{2})\.([0-9]+)`),
	speed:     regexp.MustCompile(`speed=\s*([0-9\.]+)x`),
	drop:      regexp.MustCompile(`drop=\s*([0-9]+)`),
	dup:       regexp.MustCompile(`dup=\s*([0-9]+)`),
}

type parser struct {
	sink  func(line string)
	lines uint64

	progress Progress
	lock     sync.RWMutex
}

// New creates a Parser
func New(config Config) Parser {
	return &parser{sink: config.Sink}
}

func (p *parser) Parse(line string) uint64 {
	if p.sink != nil {
		p.sink(line)
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	p.lines++

	// 非进度行只转发
	if !strings.Contains(line, "frame=") && !strings.Contains(line, "time=") {
		return 0
	}

	if m := re.frame.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			p.progress.Frame = x
		}
	}
	if m := re.quantizer.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.progress.Quantizer = x
		}
	}
	if m := re.size.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			p.progress.Size = x * 1024
		}
	}
	if m := re.time.FindStringSubmatch(line); m != nil {
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		s, _ := strconv.Atoi(m[3])
		frac := 0.0
		if x, err := strconv.ParseUint(m[4], 10, 64); err == nil {
			div := 1.0
			for range m[4] {
				div *= 10
			}
			frac = float64(x) / div
		}
		p.progress.Time = float64(h*3600+mm*60+s) + frac
	}
	if m := re.speed.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.progress.Speed = x
		}
	}
	if m := re.drop.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			p.progress.Drop = x
		}
	}
	if m := re.dup.FindStringSubmatch(line); m != nil {
		if x, err := strconv.ParseUint(m[1], 10, 64); err == nil {
			p.progress.Dup = x
		}
	}
	p.progress.Updated = time.Now()

	return p.progress.Frame
}

func (p *parser) ResetStats() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.progress = Progress{}
	p.lines = 0
}

func (p *parser) Progress() Progress {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.progress
}

// Lines returns how many lines were parsed since the last reset
func (p *parser) Lines() uint64 {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.lines
}
