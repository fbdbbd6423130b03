// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Lithographer - 图片+音频合成视频工具
//
// Package console keeps the most recent log lines in a fixed size ring.

package console

import (
	"iter"
	"sync"
	"time"
)

// DefaultCapacity is the number of lines kept when no capacity is given
const DefaultCapacity = 1024

// Cursor is a half open range [From, To) of sequence numbers sampled from a
// Ring. A cursor stays valid forever; lines that were overwritten after it
// was sampled are simply skipped by Range.
type Cursor struct {
	From uint64 `json:"from"`
	To   uint64 `json:"to"`
}

// Len returns the number of sequence numbers covered by the cursor
func (c Cursor) Len() int {
	if c.To <= c.From {
		return 0
	}
	return int(c.To - c.From)
}

// Ring is a fixed capacity circular buffer of lines. When full, Append
// overwrites the oldest line. All methods are safe for concurrent use.
type Ring struct {
	mu    sync.Mutex
	slots []Line
	// first is the sequence number of the oldest line still held, next the
	// one the following Append gets. first == next means empty.
	first uint64
	next  uint64

	last    Line
	hasLast bool

	now func() time.Time
}

// NewRing creates a ring holding up to capacity lines
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{
		slots: make([]Line, capacity),
		first: 1,
		next:  1,
		now:   time.Now,
	}
}

// Append stores a new line, dropping the oldest one if the ring is full
func (r *Ring) Append(prefix string, severity Severity, message string) Line {
	r.mu.Lock()
	defer r.mu.Unlock()

	line := Line{
		Seq:      r.next,
		Time:     r.now(),
		Prefix:   prefix,
		Severity: severity,
		Message:  message,
	}

	capN := uint64(len(r.slots))
	r.slots[line.Seq%capN] = line
	r.next++
	if r.next-r.first > capN {
		r.first++
	}

	r.last = line
	r.hasLast = true
	return line
}

// Cap returns the capacity of the ring
func (r *Ring) Cap() int {
	return len(r.slots)
}

// Len returns the number of lines currently held
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.next - r.first)
}

// Cursor samples the range of lines currently held
func (r *Ring) Cursor() Cursor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Cursor{From: r.first, To: r.next}
}

// Range iterates the lines of c oldest first. The sequence is lazy and may be
// ranged over more than once. Every slot is read under the lock, so a line is
// never observed half written; lines overwritten since c was sampled are
// skipped rather than replaced by newer ones.
func (r *Ring) Range(c Cursor) iter.Seq[Line] {
	return func(yield func(Line) bool) {
		for seq := c.From; seq < c.To; seq++ {
			line, ok := r.at(seq)
			if !ok {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}

func (r *Ring) at(seq uint64) (Line, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seq < r.first || seq >= r.next {
		return Line{}, false
	}
	return r.slots[seq%uint64(len(r.slots))], true
}

// Snapshot copies all held lines, oldest first, under a single lock hold
func (r *Ring) Snapshot() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.copyFrom(r.first)
}

// Since returns the held lines whose sequence number is greater than seq
func (r *Ring) Since(seq uint64) []Line {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seq >= r.next {
		return nil
	}
	from := seq + 1
	if from < r.first {
		from = r.first
	}
	return r.copyFrom(from)
}

func (r *Ring) copyFrom(from uint64) []Line {
	if from >= r.next {
		return nil
	}
	capN := uint64(len(r.slots))
	out := make([]Line, 0, r.next-from)
	for seq := from; seq < r.next; seq++ {
		out = append(out, r.slots[seq%capN])
	}
	return out
}

// Last returns the most recently appended line if it has not been consumed
func (r *Ring) Last() (Line, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.hasLast
}

// ConsumeLast returns the most recently appended line and clears the marker.
// Only one consumer (the view following the tail) should call it.
func (r *Ring) ConsumeLast() (Line, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line, ok := r.last, r.hasLast
	r.last = Line{}
	r.hasLast = false
	return line, ok
}
