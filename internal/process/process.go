// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Lithographer - 图片+音频合成视频工具
//
// Package process wraps exec.Cmd for running an FFmpeg process to completion.

package process

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// ErrRunning is returned by Run while a previous Run has not returned
var ErrRunning = errors.New("process already running")

// Process represents a one-shot process
type Process interface {
	// Run starts the binary, streams its stderr into the parser and waits
	// for it to exit. It blocks for the whole lifetime of the process.
	Run() error
	Status() Status
	IsRunning() bool
}

// Config for a process
type Config struct {
	Binary string
	Args   []string
	// Dir is the working directory, empty for the caller's
	Dir string
	// Env is the environment, nil to inherit the caller's
	Env           []string
	Parser        Parser
	Sampler       Sampler
	OnStateChange func(from, to string)
	Logger        Logger
}

// Status of a process
type Status struct {
	State    string
	States   States
	PID      int
	ExitCode int
	Duration time.Duration
	Time     time.Time
	CPU      float64
	Memory   uint64
}

// States cumulative counts
type States struct {
	Launching uint64
	Streaming uint64
	Finished  uint64
	Failed    uint64
}

// Logger interface
type Logger interface {
	Info(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
}

type stateType string

const (
	stateIdle      stateType = "idle"
	stateLaunching stateType = "launching"
	stateStreaming stateType = "streaming"
)

func (s stateType) String() string { return string(s) }

func (s stateType) IsRunning() bool {
	return s == stateLaunching || s == stateStreaming
}

type process struct {
	binary string
	args   []string
	dir    string
	env    []string

	state struct {
		state    stateType
		time     time.Time
		states   States
		pid      int
		exitCode int
		lock     sync.Mutex
	}
	parser        Parser
	sampler       Sampler
	logger        Logger
	onStateChange func(from, to string)
}

// New creates a new process
func New(config Config) (Process, error) {
	p := &process{
		binary:        config.Binary,
		args:          config.Args,
		dir:           config.Dir,
		env:           config.Env,
		parser:        config.Parser,
		sampler:       config.Sampler,
		logger:        config.Logger,
		onStateChange: config.OnStateChange,
	}

	if len(p.binary) == 0 {
		return nil, fmt.Errorf("no valid binary given")
	}

	if p.parser == nil {
		p.parser = &nullParser{}
	}

	if p.sampler == nil {
		p.sampler = NewNullSampler()
	}

	if p.logger == nil {
		p.logger = &nopLogger{}
	}

	p.state.state = stateIdle
	p.state.time = time.Now()
	p.state.exitCode = -1

	return p, nil
}

// setState moves along idle -> launching -> streaming -> idle. failed only
// matters when returning to idle.
func (p *process) setState(state stateType, failed bool) error {
	p.state.lock.Lock()

	prevState := p.state.state
	ok := false

	switch p.state.state {
	case stateIdle:
		if state == stateLaunching {
			ok = true
			p.state.states.Launching++
		}
	case stateLaunching:
		switch state {
		case stateStreaming:
			ok = true
			p.state.states.Streaming++
		case stateIdle:
			ok = true
			p.state.states.Failed++
		}
	case stateStreaming:
		if state == stateIdle {
			ok = true
			if failed {
				p.state.states.Failed++
			} else {
				p.state.states.Finished++
			}
		}
	}

	if !ok {
		p.state.lock.Unlock()
		return fmt.Errorf("can't change from %s to %s", prevState, state)
	}

	p.state.state = state
	p.state.time = time.Now()
	p.state.lock.Unlock()

	if p.onStateChange != nil {
		p.onStateChange(prevState.String(), state.String())
	}
	return nil
}

func (p *process) getState() stateType {
	p.state.lock.Lock()
	defer p.state.lock.Unlock()
	return p.state.state
}

func (p *process) IsRunning() bool {
	return p.getState().IsRunning()
}

func (p *process) Status() Status {
	cpu, memory := p.sampler.Current()

	p.state.lock.Lock()
	defer p.state.lock.Unlock()

	return Status{
		State:    p.state.state.String(),
		States:   p.state.states,
		PID:      p.state.pid,
		ExitCode: p.state.exitCode,
		Duration: time.Since(p.state.time),
		Time:     p.state.time,
		CPU:      cpu,
		Memory:   memory,
	}
}

func (p *process) Run() error {
	if err := p.setState(stateLaunching, false); err != nil {
		return ErrRunning
	}

	cmd := exec.Command(p.binary, p.args...)
	cmd.Dir = p.dir
	cmd.Env = p.env

	stderr, err := cmd.StderrPipe()
	if err != nil {
		p.setState(stateIdle, true)
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		p.setState(stateIdle, true)
		return fmt.Errorf("start %s: %w", p.binary, err)
	}

	pid := cmd.Process.Pid
	p.state.lock.Lock()
	p.state.pid = pid
	p.state.exitCode = -1
	p.state.lock.Unlock()

	if err := p.sampler.Start(pid); err != nil {
		p.logger.Debug("sampler for pid %d: %v", pid, err)
	}

	p.setState(stateStreaming, false)
	p.logger.Debug("process %d started: %s %s", pid, p.binary, strings.Join(p.args, " "))

	p.parser.ResetStats()
	p.reader(stderr)

	return p.waiter(cmd)
}

// reader blocks until stderr reaches EOF, which happens once the process
// has exited and closed its end of the pipe.
func (p *process) reader(stderr io.Reader) {
	scanner := bufio.NewScanner(stderr)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(scanLine)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		p.parser.Parse(line)
	}

	if err := scanner.Err(); err != nil {
		p.logger.Error("stderr scanner failure: %v", err)
		// Keep the pipe moving so the child can finish writing and exit.
		io.Copy(io.Discard, stderr) //nolint:errcheck
	}
}

func (p *process) waiter(cmd *exec.Cmd) error {
	err := cmd.Wait()
	p.sampler.Stop()

	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}

	p.state.lock.Lock()
	p.state.exitCode = exitCode
	p.state.lock.Unlock()

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			p.logger.Debug("process %d exited with status %d", cmd.Process.Pid, exitCode)
		} else {
			p.logger.Error("failed to wait for process %d: %v", cmd.Process.Pid, err)
		}
		p.setState(stateIdle, true)
		return err
	}

	p.logger.Debug("process %d exited cleanly", cmd.Process.Pid)
	p.setState(stateIdle, false)
	return nil
}

// scanLine splits on both \n and \r since ffmpeg -stats rewrites its
// progress line with carriage returns
func scanLine(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) {
		r, w := utf8.DecodeRune(data[start:])
		if r != '\n' && r != '\r' {
			break
		}
		start += w
	}

	for i := start; i < len(data); {
		r, w := utf8.DecodeRune(data[i:])
		if r == '\n' || r == '\r' {
			return i + w, data[start:i], nil
		}
		i += w
	}

	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}
	return start, nil, nil
}

type nopLogger struct{}

func (l *nopLogger) Info(format string, args ...interface{})  {}
func (l *nopLogger) Error(format string, args ...interface{}) {}
func (l *nopLogger) Debug(format string, args ...interface{}) {}
