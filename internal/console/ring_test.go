package console

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"sync"
	"testing"
)

func messages(lines []Line) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Message)
	}
	return out
}

func TestRingKeepsLastCapacityLines(t *testing.T) {
	for _, tc := range []struct {
		capacity, appends int
	}{
		{1, 5}, {3, 3}, {3, 4}, {4, 11}, {16, 1000},
	} {
		t.Run(fmt.Sprintf("cap%d_n%d", tc.capacity, tc.appends), func(t *testing.T) {
			r := NewRing(tc.capacity)
			for i := 0; i < tc.appends; i++ {
				r.Append("test", Info, strconv.Itoa(i))
			}

			want := tc.appends
			if want > tc.capacity {
				want = tc.capacity
			}
			if r.Len() != want {
				t.Fatalf("Len = %d, want %d", r.Len(), want)
			}

			got := messages(r.Snapshot())
			if len(got) != want {
				t.Fatalf("snapshot has %d lines, want %d", len(got), want)
			}
			for i, msg := range got {
				expected := strconv.Itoa(tc.appends - want + i)
				if msg != expected {
					t.Fatalf("line %d = %q, want %q (all: %v)", i, msg, expected, got)
				}
			}
		})
	}
}

func TestRingDefaultCapacity(t *testing.T) {
	if c := NewRing(0).Cap(); c != DefaultCapacity {
		t.Fatalf("Cap = %d, want %d", c, DefaultCapacity)
	}
}

func TestRingSequenceNumbers(t *testing.T) {
	r := NewRing(2)
	a := r.Append("p", Info, "a")
	b := r.Append("p", Warning, "b")
	c := r.Append("p", Error, "c")

	if b.Seq != a.Seq+1 || c.Seq != b.Seq+1 {
		t.Fatalf("sequence not contiguous: %d %d %d", a.Seq, b.Seq, c.Seq)
	}

	cur := r.Cursor()
	if cur.From != b.Seq || cur.To != c.Seq+1 || cur.Len() != 2 {
		t.Fatalf("unexpected cursor %+v", cur)
	}
}

func TestRingRangeIsRestartable(t *testing.T) {
	r := NewRing(8)
	for i := 0; i < 5; i++ {
		r.Append("p", Info, strconv.Itoa(i))
	}
	cur := r.Cursor()
	seq := r.Range(cur)

	var first, second []string
	for l := range seq {
		first = append(first, l.Message)
	}
	for l := range seq {
		second = append(second, l.Message)
	}
	if fmt.Sprint(first) != fmt.Sprint(second) || len(first) != 5 {
		t.Fatalf("range not restartable: %v vs %v", first, second)
	}
}

func TestRingRangeStopsEarly(t *testing.T) {
	r := NewRing(8)
	for i := 0; i < 5; i++ {
		r.Append("p", Info, strconv.Itoa(i))
	}
	n := 0
	for range r.Range(r.Cursor()) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Fatalf("iterated %d lines", n)
	}
}

func TestRingRangeSkipsOverwrittenLines(t *testing.T) {
	r := NewRing(3)
	for i := 0; i < 3; i++ {
		r.Append("p", Info, strconv.Itoa(i))
	}
	cur := r.Cursor()

	// Overwrite the two oldest lines after sampling.
	r.Append("p", Info, "3")
	r.Append("p", Info, "4")

	var got []string
	for l := range r.Range(cur) {
		got = append(got, l.Message)
	}
	if fmt.Sprint(got) != "[2]" {
		t.Fatalf("got %v, want [2]", got)
	}
}

func TestRingSince(t *testing.T) {
	r := NewRing(4)
	var seqs []uint64
	for i := 0; i < 6; i++ {
		seqs = append(seqs, r.Append("p", Info, strconv.Itoa(i)).Seq)
	}

	if got := messages(r.Since(0)); fmt.Sprint(got) != "[2 3 4 5]" {
		t.Fatalf("Since(0) = %v", got)
	}
	if got := messages(r.Since(seqs[3])); fmt.Sprint(got) != "[4 5]" {
		t.Fatalf("Since(%d) = %v", seqs[3], got)
	}
	if got := r.Since(seqs[5]); len(got) != 0 {
		t.Fatalf("Since(newest) = %v", got)
	}
	// A cursor from the future, including the largest one, sees nothing.
	for _, seq := range []uint64{seqs[5] + 10, math.MaxUint64} {
		if got := r.Since(seq); len(got) != 0 {
			t.Fatalf("Since(%d) = %v", seq, messages(got))
		}
	}
}

func TestRingLastMarker(t *testing.T) {
	r := NewRing(4)
	if _, ok := r.Last(); ok {
		t.Fatal("empty ring reported a last line")
	}

	r.Append("p", Info, "one")
	r.Append("p", Info, "two")

	l, ok := r.Last()
	if !ok || l.Message != "two" {
		t.Fatalf("Last = %+v, %v", l, ok)
	}

	l, ok = r.ConsumeLast()
	if !ok || l.Message != "two" {
		t.Fatalf("ConsumeLast = %+v, %v", l, ok)
	}
	if _, ok := r.ConsumeLast(); ok {
		t.Fatal("marker not cleared after consume")
	}

	r.Append("p", Info, "three")
	if l, ok := r.Last(); !ok || l.Message != "three" {
		t.Fatalf("Last after new append = %+v, %v", l, ok)
	}
}

func TestRingConcurrentAppendNeverTears(t *testing.T) {
	r := NewRing(64)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			prefix := "w" + strconv.Itoa(w)
			for i := 0; i < 2000; i++ {
				// Message always mirrors the prefix so a torn line is detectable.
				r.Append(prefix, Severity(w%3), prefix+":"+strconv.Itoa(i))
			}
		}(w)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	check := func(l Line) {
		if len(l.Message) < len(l.Prefix) || l.Message[:len(l.Prefix)] != l.Prefix {
			t.Errorf("torn line: %+v", l)
		}
		w, err := strconv.Atoi(l.Prefix[1:])
		if err != nil || l.Severity != Severity(w%3) {
			t.Errorf("torn severity: %+v", l)
		}
	}

	for {
		for l := range r.Range(r.Cursor()) {
			check(l)
		}
		for _, l := range r.Snapshot() {
			check(l)
		}
		select {
		case <-done:
			if r.Len() != 64 {
				t.Fatalf("Len = %d, want 64", r.Len())
			}
			return
		default:
		}
	}
}

func TestLineFormat(t *testing.T) {
	l := Line{Prefix: "ffmpeg", Severity: Warning, Message: "hello"}
	if got := l.String(); got != "[ffmpeg] (Warning) hello" {
		t.Fatalf("String = %q", got)
	}
}

func TestSeverityJSON(t *testing.T) {
	data, err := json.Marshal(Error)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"Error"` {
		t.Fatalf("marshal = %s", data)
	}

	var s Severity
	if err := json.Unmarshal([]byte(`"Warning"`), &s); err != nil || s != Warning {
		t.Fatalf("unmarshal = %v, %v", s, err)
	}
	if err := json.Unmarshal([]byte(`"Loud"`), &s); err == nil {
		t.Fatal("expected error for unknown severity")
	}
}
