package jobs

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakePurger struct {
	cutoff time.Time
	calls  int
	err    error
}

func (f *fakePurger) DeleteStale(_ context.Context, cutoff time.Time) (int64, error) {
	f.calls++
	f.cutoff = cutoff
	return 3, f.err
}

func TestPurgeSessionsUsesNow(t *testing.T) {
	p := &fakePurger{}
	m := NewManager(p)
	fixed := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	m.PurgeSessions(context.Background())
	want := fixed.Add(-24 * time.Hour)
	if p.calls != 1 || !p.cutoff.Equal(want) {
		t.Fatalf("expected one purge at %s, got %d at %s", want, p.calls, p.cutoff)
	}

	p.err = errors.New("db down")
	m.PurgeSessions(context.Background())
	if p.calls != 2 {
		t.Fatalf("expected failure to be logged, not to stop later runs")
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	m := NewManager(&fakePurger{})
	if err := m.Start("not a schedule"); err == nil {
		t.Fatalf("expected invalid cron spec to fail")
	}
}

func TestStartAndStop(t *testing.T) {
	m := NewManager(&fakePurger{})
	if err := m.Start("@hourly"); err != nil {
		t.Fatalf("start: %v", err)
	}
	m.Stop()
}
