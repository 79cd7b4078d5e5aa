package expdecay

import (
	"math"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Add(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTrackerForTest(hl time.Duration) (*Tracker, *fakeClock) {
	fc := &fakeClock{now: time.Unix(0, 0).UTC()}
	return New(hl, WithClock(fc.Now)), fc
}

func almostEq(t *testing.T, got, want, eps float64) {
	t.Helper()
	if math.Abs(got-want) > eps {
		t.Fatalf("got=%g want=%g (eps=%g)", got, want, eps)
	}
}

func TestAddAndScore_AccumulatesWeights(t *testing.T) {
	tr, _ := newTrackerForTest(time.Minute)
	cell := "u120fxw"

	tr.Add(cell, 1)
	almostEq(t, tr.Score(cell), 1.0, 1e-9)

	tr.Add(cell, 2.5)
	almostEq(t, tr.Score(cell), 3.5, 1e-9)

	tr.Add(cell, 0)
	tr.Add(cell, -4)
	tr.Add("", 1)
	almostEq(t, tr.Score(cell), 3.5, 1e-9)
	if tr.Size() != 1 {
		t.Fatalf("size=%d want 1", tr.Size())
	}
}

func TestHalfLife_DecaysByHalf(t *testing.T) {
	hl := 2 * time.Second
	tr, fc := newTrackerForTest(hl)
	cell := "u120fxw"

	tr.Add(cell, 1)
	fc.Add(hl)
	almostEq(t, tr.Score(cell), 0.5, 1e-6)

	fc.Add(hl)
	almostEq(t, tr.Score(cell), 0.25, 1e-6)

	// new weight lands on top of the decayed score
	tr.Add(cell, 1)
	almostEq(t, tr.Score(cell), 1.25, 1e-6)
}

func TestAddAt_AgesPastObservations(t *testing.T) {
	hl := 10 * time.Second
	tr, fc := newTrackerForTest(hl)
	fc.Add(time.Hour)
	now := fc.Now()

	tr.AddAt("a", 4, now.Add(-hl))
	almostEq(t, tr.Score("a"), 2, 1e-6)

	tr.AddAt("b", 4, now.Add(time.Minute))
	almostEq(t, tr.Score("b"), 4, 1e-9)
}

func TestConcurrency_ManyAddsSameCell(t *testing.T) {
	tr, _ := newTrackerForTest(time.Minute)
	cell := "gcpvj0"
	const N = 256

	var wg sync.WaitGroup
	wg.Add(N)
	for range N {
		go func() {
			tr.Add(cell, 1)
			wg.Done()
		}()
	}
	wg.Wait()

	almostEq(t, tr.Score(cell), N, 1e-9)
}

func TestReset_OnlySelectedCells(t *testing.T) {
	tr, _ := newTrackerForTest(30 * time.Second)

	tr.Add("u120", 1)
	tr.Add("u121", 1)
	tr.Reset("u120", "")

	if got := tr.Score("u120"); got != 0 {
		t.Fatalf("reset failed: got %g want 0", got)
	}
	if got := tr.Score("u121"); got <= 0 {
		t.Fatalf("unexpected reset of u121: got %g want >0", got)
	}
}

func TestSnapshotAndPrune(t *testing.T) {
	hl := time.Second
	tr, fc := newTrackerForTest(hl)

	tr.Add("old", 1)
	fc.Add(10 * hl)
	tr.Add("new", 3)

	snap := tr.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot=%v want 2 cells", snap)
	}
	almostEq(t, snap["new"], 3, 1e-9)
	almostEq(t, snap["old"], 1.0/1024, 1e-9)

	if n := tr.Prune(0.01); n != 1 {
		t.Fatalf("pruned %d want 1", n)
	}
	if tr.Size() != 1 || tr.Score("new") == 0 {
		t.Fatalf("prune removed the wrong cells: %v", tr.Snapshot())
	}
}

func TestDecayHelper_Edges(t *testing.T) {
	if got := decay(0, 10, 60); got != 0 {
		t.Fatalf("expected 0, got %g", got)
	}
	if got := decay(5, 0, 60); got != 5 {
		t.Fatalf("expected 5, got %g", got)
	}
	if got := decay(5, 10, 0); got != 5 {
		t.Fatalf("expected 5, got %g", got)
	}
}
