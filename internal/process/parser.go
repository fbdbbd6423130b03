// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Lithographer - 图片+音频合成视频工具

package process

// Parser consumes process output (e.g. FFmpeg stderr) line by line
type Parser interface {
	// Parse handles one non-blank line and returns the current frame count,
	// 0 when the line carried no progress
	Parse(line string) uint64
	ResetStats()
}

type nullParser struct{}

func (p *nullParser) Parse(line string) uint64 { return 0 }
func (p *nullParser) ResetStats()              {}
