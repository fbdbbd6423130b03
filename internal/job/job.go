// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Lithographer - 图片+音频合成视频工具

package job

import (
	"sync"
	"time"

	"github.com/ZSC714725/lithographer/internal/ffmpeg/parse"
	"github.com/ZSC714725/lithographer/internal/process"
)

// Job is one accepted encode. It is created by Supervisor.Invoke and
// finishes once the encoder has exited and "Done!" was logged.
type Job struct {
	ID        string
	Image     string
	Audio     string
	Output    string
	CreatedAt time.Time

	done chan struct{}

	mu         sync.Mutex
	err        error
	finishedAt time.Time
	proc       process.Process
	parser     parse.Parser
}

func newJob(id, image, audio, output string) *Job {
	return &Job{
		ID:        id,
		Image:     image,
		Audio:     audio,
		Output:    output,
		CreatedAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// Done is closed when the job has finished
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the job has finished and returns its error
func (j *Job) Wait() error {
	<-j.done
	return j.Err()
}

// Err returns why the job failed: a spawn error or the encoder's exit error.
// It is nil while running and after a clean exit.
func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

// Finished reports whether the job is over
func (j *Job) Finished() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}

// FinishedAt returns when the job ended, zero while running
func (j *Job) FinishedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.finishedAt
}

// Progress returns the last parsed encoder progress
func (j *Job) Progress() parse.Progress {
	j.mu.Lock()
	parser := j.parser
	j.mu.Unlock()

	if parser == nil {
		return parse.Progress{}
	}
	return parser.Progress()
}

// Status returns the encoder process status. ok is false before the
// process was created.
func (j *Job) Status() (status process.Status, ok bool) {
	j.mu.Lock()
	proc := j.proc
	j.mu.Unlock()

	if proc == nil {
		return process.Status{}, false
	}
	return proc.Status(), true
}

func (j *Job) attach(proc process.Process, parser parse.Parser) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.proc = proc
	j.parser = parser
}

func (j *Job) finish(err error) {
	j.mu.Lock()
	j.err = err
	j.finishedAt = time.Now()
	j.mu.Unlock()
	close(j.done)
}
