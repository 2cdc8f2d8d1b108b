package profiler

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/all-the-way-home/home/engine/logging"
)

func TestProfilerReportsOncePerInterval(t *testing.T) {
	var buf bytes.Buffer
	logging.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer logging.SetLogger(nil)

	start := time.Unix(1000, 0)
	clock := start
	p := NewProfiler(
		WithInterval(time.Second),
		WithStats(func() []slog.Attr { return []slog.Attr{slog.Uint64("landed", 7)} }),
	)
	p.now = func() time.Time { return clock }
	p.lastTime = start

	for i := range 9 {
		clock = start.Add(time.Duration(i+1) * 100 * time.Millisecond)
		if p.Tick() {
			t.Fatalf("tick %d reported before the interval elapsed", i)
		}
	}
	clock = start.Add(time.Second)
	if !p.Tick() {
		t.Fatal("tick at the interval did not report")
	}

	out := buf.String()
	for _, want := range []string{"msg=profile", "fps=10", "landed=7"} {
		if !strings.Contains(out, want) {
			t.Errorf("report %q missing %q", out, want)
		}
	}
	if p.frameCount != 0 || !p.lastTime.Equal(clock) {
		t.Errorf("counters not reset: frames %d, last %v", p.frameCount, p.lastTime)
	}
}

func TestWithIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithInterval(0))
	if p.updateInterval != time.Second {
		t.Errorf("interval = %v, want 1s", p.updateInterval)
	}
}
