// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Lithographer - 图片+音频合成视频工具

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ZSC714725/lithographer/internal/console"
	"github.com/ZSC714725/lithographer/internal/ffmpeg"
	"github.com/ZSC714725/lithographer/internal/job"
	"github.com/ZSC714725/lithographer/internal/logger"
)

// Jobs is the part of job.Supervisor the API needs
type Jobs interface {
	Busy() bool
	Invoke(image, audio, output string) (*job.Job, error)
	Last() *job.Job
}

// Handler holds dependencies
type Handler struct {
	jobs   Jobs
	ring   *console.Ring
	ffmpeg ffmpeg.FFmpeg
	logger logger.Logger
}

// NewHandler creates API handler
func NewHandler(jobs Jobs, ring *console.Ring, ff ffmpeg.FFmpeg, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{jobs: jobs, ring: ring, ffmpeg: ff, logger: log}
}

func errResp(c *gin.Context, code int, msg, detail string) {
	c.JSON(code, ErrorResponse{Code: code, Message: msg, Detail: detail})
}

// GetJob GET /api/v1/job
func (h *Handler) GetJob(c *gin.Context) {
	c.JSON(http.StatusOK, JobState{
		Busy: h.jobs.Busy(),
		Job:  jobToAPI(h.jobs.Last()),
	})
}

// StartJob POST /api/v1/job
func (h *Handler) StartJob(c *gin.Context) {
	var req JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	j, err := h.jobs.Invoke(req.Image, req.Audio, req.Output)
	if err != nil {
		switch {
		case errors.Is(err, job.ErrInvalidPath):
			errResp(c, http.StatusBadRequest, "Invalid path", err.Error())
		case errors.Is(err, job.ErrBusy):
			errResp(c, http.StatusConflict, "Encoder busy", err.Error())
		default:
			errResp(c, http.StatusInternalServerError, "Start failed", err.Error())
		}
		return
	}

	c.JSON(http.StatusAccepted, JobState{Busy: true, Job: jobToAPI(j)})
}

// Console GET /api/v1/console?after=<seq>
func (h *Handler) Console(c *gin.Context) {
	var after uint64
	if s := c.Query("after"); s != "" {
		var err error
		after, err = strconv.ParseUint(s, 10, 64)
		if err != nil {
			errResp(c, http.StatusBadRequest, "Invalid after", err.Error())
			return
		}
	}

	lines := h.ring.Since(after)
	if lines == nil {
		lines = []console.Line{}
	}

	last := after
	if n := len(lines); n > 0 {
		last = lines[n-1].Seq
	}

	c.JSON(http.StatusOK, ConsoleResponse{Lines: lines, Last: last})
}

// ConsumeLast POST /api/v1/console/last
func (h *Handler) ConsumeLast(c *gin.Context) {
	line, ok := h.ring.ConsumeLast()
	if !ok {
		c.JSON(http.StatusOK, LastLineResponse{})
		return
	}
	c.JSON(http.StatusOK, LastLineResponse{Scroll: true, Line: &line})
}

func jobToAPI(j *job.Job) *Job {
	if j == nil {
		return nil
	}

	out := &Job{
		ID:        j.ID,
		Image:     j.Image,
		Audio:     j.Audio,
		Output:    j.Output,
		CreatedAt: j.CreatedAt.Unix(),
		Finished:  j.Finished(),
	}
	if out.Finished {
		out.FinishedAt = j.FinishedAt().Unix()
		if err := j.Err(); err != nil {
			out.Error = err.Error()
		}
	}

	if status, ok := j.Status(); ok {
		out.Process = &Process{
			State:    status.State,
			PID:      status.PID,
			ExitCode: status.ExitCode,
			Runtime:  int64(status.Duration.Seconds()),
			CPU:      status.CPU,
			Memory:   status.Memory,
		}

		prog := j.Progress()
		out.Progress = &Progress{
			Frame:     prog.Frame,
			Size:      prog.Size,
			Time:      prog.Time,
			Speed:     prog.Speed,
			Drop:      prog.Drop,
			Dup:       prog.Dup,
			Quantizer: prog.Quantizer,
		}
	}

	return out
}
