// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Lithographer - 图片+音频合成视频工具
//
// Package filelog persists log lines to a file from a background goroutine.

package filelog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// DefaultQueue is the channel size used when none is given
const DefaultQueue = 4096

// ErrClosed is returned by Write after Close
var ErrClosed = errors.New("file log closed")

// Open creates or truncates the log file at path
func Open(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// Flusher writes queued lines to w on its own goroutine. Producers only
// block when the queue is full.
type Flusher struct {
	w     *bufio.Writer
	lines chan string

	mu     sync.RWMutex
	closed bool

	startOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}

	err error
}

// New creates a Flusher. Call Start to begin writing.
func New(w io.Writer, queue int) *Flusher {
	if queue <= 0 {
		queue = DefaultQueue
	}
	return &Flusher{
		w:     bufio.NewWriter(w),
		lines: make(chan string, queue),
		done:  make(chan struct{}),
	}
}

// Start launches the writer goroutine. It ends once ctx is cancelled and
// every line queued before that has been written; Write returns ErrClosed
// from then on.
func (f *Flusher) Start(ctx context.Context) {
	f.startOnce.Do(func() {
		ctx, f.cancel = context.WithCancel(ctx)
		go f.run(ctx)
	})
}

// Write queues a line. Lines written before Start wait in the queue; once
// it is full Write blocks until the writer goroutine runs.
func (f *Flusher) Write(line string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return ErrClosed
	}
	select {
	case f.lines <- line:
		return nil
	case <-f.done:
		return ErrClosed
	}
}

// Close stops accepting lines, waits until the queue is written out and
// returns the first write error
func (f *Flusher) Close() error {
	// Never started: run the writer just long enough to drain the queue.
	f.Start(context.Background())
	f.cancel()
	<-f.done
	return f.err
}

// Wait blocks until the writer goroutine has ended
func (f *Flusher) Wait() error {
	<-f.done
	return f.err
}

func (f *Flusher) run(ctx context.Context) {
	defer close(f.done)

	for {
		select {
		case line := <-f.lines:
			f.write(line)
			if len(f.lines) == 0 {
				f.flush()
			}
		case <-ctx.Done():
			f.shutdown()
			return
		}
	}
}

// shutdown marks the flusher closed and writes out the queue. Producers
// blocked on a full queue hold the read lock, so keep consuming until the
// write lock is ours.
func (f *Flusher) shutdown() {
	locked := make(chan struct{})
	go func() {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()
		close(locked)
	}()

	for {
		select {
		case line := <-f.lines:
			f.write(line)
		case <-locked:
			f.drain()
			return
		}
	}
}

// drain writes everything currently queued and flushes
func (f *Flusher) drain() {
	for {
		select {
		case line := <-f.lines:
			f.write(line)
		default:
			f.flush()
			return
		}
	}
}

func (f *Flusher) write(line string) {
	if _, err := f.w.WriteString(line + "\n"); err != nil && f.err == nil {
		f.err = fmt.Errorf("write log line: %w", err)
	}
}

func (f *Flusher) flush() {
	if err := f.w.Flush(); err != nil && f.err == nil {
		f.err = fmt.Errorf("flush log: %w", err)
	}
}
