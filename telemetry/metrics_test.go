package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestInitIdempotent(t *testing.T) {
	// A second Init must not re-register collectors (promauto panics on
	// duplicate registration).
	Init()
	Init()
	if UploadsStarted == nil || ClipCountGauge == nil {
		t.Fatal("metrics not registered")
	}
}

func TestSetClipCountNilSafe(t *testing.T) {
	// Must not panic even if the gauge is nil.
	SetClipCount(5)
}

func TestTimeFunc(t *testing.T) {
	ran := false
	d := TimeFunc(nil, func() {
		ran = true
		time.Sleep(time.Millisecond)
	})
	if !ran {
		t.Fatal("fn not invoked")
	}
	if d < time.Millisecond {
		t.Fatalf("duration %v too short", d)
	}
}

func TestCorrelationContext(t *testing.T) {
	ctx := context.Background()
	if got := GetCorrelation(ctx); got != "" {
		t.Fatalf("empty context yielded %q", got)
	}
	ctx = WithCorrelation(ctx, "abc-123")
	if got := GetCorrelation(ctx); got != "abc-123" {
		t.Fatalf("got %q", got)
	}
	if LoggerWithCorr(ctx) == nil {
		t.Fatal("nil logger")
	}
}
