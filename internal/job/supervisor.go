// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Lithographer - 图片+音频合成视频工具

package job

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/lithammer/shortuuid/v4"

	"github.com/ZSC714725/lithographer/internal/ffmpeg"
	"github.com/ZSC714725/lithographer/internal/logger"
)

// DoneMessage is logged after every encoder exit
const DoneMessage = "Done!"

// Supervisor runs at most one encoder at a time. The busy flag is the only
// state shared with callers; everything else flows through the logger.
type Supervisor struct {
	ffmpeg ffmpeg.FFmpeg
	logger logger.Logger

	busy atomic.Bool
	wg   sync.WaitGroup

	mu      sync.Mutex
	current *Job
	last    *Job
}

// NewSupervisor creates a supervisor. Encoder output is logged through log.
func NewSupervisor(ff ffmpeg.FFmpeg, log logger.Logger) *Supervisor {
	if log == nil {
		log = logger.Nop()
	}
	return &Supervisor{ffmpeg: ff, logger: log}
}

// Busy reports whether an encode is running
func (s *Supervisor) Busy() bool {
	return s.busy.Load()
}

// Invoke starts encoding image and audio into output on a background
// goroutine. It returns ErrInvalidPath or ErrBusy without touching any
// state when the request can't be accepted.
func (s *Supervisor) Invoke(image, audio, output string) (*Job, error) {
	if !s.ffmpeg.ValidateInput(image) || !s.ffmpeg.ValidateInput(audio) || !s.ffmpeg.ValidateOutput(output) {
		return nil, ErrInvalidPath
	}

	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	j := newJob(shortuuid.New(), image, audio, output)

	s.mu.Lock()
	s.current = j
	s.last = j
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(j)

	return j, nil
}

// Current returns the running job, nil when idle
func (s *Supervisor) Current() *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Last returns the most recently accepted job, running or not
func (s *Supervisor) Last() *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Wait blocks until the running job, if any, has finished
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

func (s *Supervisor) run(j *Job) {
	defer s.wg.Done()

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("encoder worker panic: %v", r)
			s.logger.Error("%v", err)
		}

		s.mu.Lock()
		s.current = nil
		s.mu.Unlock()

		s.busy.Store(false)
		j.finish(err)
	}()

	err = s.encode(j)
}

func (s *Supervisor) encode(j *Job) error {
	parser := s.ffmpeg.NewParser(func(line string) {
		s.logger.Info("%s", line)
	})

	proc, err := s.ffmpeg.New(ffmpeg.ProcessConfig{
		Args:   ffmpeg.Args(j.Image, j.Audio, j.Output),
		Parser: parser,
		Logger: s.logger,
		OnStateChange: func(from, to string) {
			s.logger.Debug("job %s state %s -> %s", j.ID, from, to)
		},
	})
	if err != nil {
		s.logger.Error("failed to create encoder process: %v", err)
		return err
	}
	j.attach(proc, parser)

	s.logger.Debug("job %s: %s + %s -> %s", j.ID, j.Image, j.Audio, j.Output)

	err = proc.Run()
	if proc.Status().States.Streaming == 0 {
		s.logger.Error("failed to start ffmpeg: %v", err)
		return err
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		s.logger.Warn("ffmpeg exited with status %d", exitErr.ExitCode())
	} else if err != nil {
		s.logger.Error("ffmpeg: %v", err)
	}

	s.logger.Info(DoneMessage)
	return err
}
