// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Lithographer - 图片+音频合成视频工具

package api

import (
	"github.com/ZSC714725/lithographer/internal/console"
)

// JobRequest starts an encode
type JobRequest struct {
	Image  string `json:"image"`
	Audio  string `json:"audio"`
	Output string `json:"output"`
}

// JobState is what the control surface polls every frame
type JobState struct {
	Busy bool `json:"busy"`
	Job  *Job `json:"job"`
}

// Job represents an encode in API responses
type Job struct {
	ID         string    `json:"id"`
	Image      string    `json:"image"`
	Audio      string    `json:"audio"`
	Output     string    `json:"output"`
	CreatedAt  int64     `json:"created_at"`
	FinishedAt int64     `json:"finished_at,omitempty"`
	Finished   bool      `json:"finished"`
	Error      string    `json:"error,omitempty"`
	Process    *Process  `json:"process,omitempty"`
	Progress   *Progress `json:"progress,omitempty"`
}

// Process is the encoder process state
type Process struct {
	State    string  `json:"state"`
	PID      int     `json:"pid"`
	ExitCode int     `json:"exit_code"`
	Runtime  int64   `json:"runtime_seconds"`
	CPU      float64 `json:"cpu_usage"`
	Memory   uint64  `json:"memory_bytes"`
}

// Progress is parsed from the encoder's -stats output
type Progress struct {
	Frame     uint64  `json:"frame"`
	Size      uint64  `json:"size_bytes"`
	Time      float64 `json:"time_seconds"`
	Speed     float64 `json:"speed"`
	Drop      uint64  `json:"drop"`
	Dup       uint64  `json:"dup"`
	Quantizer float64 `json:"q"`
}

// ConsoleResponse carries console lines newer than the requested seq
type ConsoleResponse struct {
	Lines []console.Line `json:"lines"`
	// Last is the highest seq the client has now seen; pass it as ?after=
	Last uint64 `json:"last"`
}

// LastLineResponse answers the auto-scroll marker request
type LastLineResponse struct {
	Scroll bool          `json:"scroll"`
	Line   *console.Line `json:"line,omitempty"`
}

// ErrorResponse for API errors
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}
