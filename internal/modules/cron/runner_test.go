package cronrunner

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

type resetRecorder struct{ at []time.Time }

func (r *resetRecorder) ResetDaily(at time.Time) { r.at = append(r.at, at) }

func TestDailyResetUsesUTC(t *testing.T) {
	rec := &resetRecorder{}
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := func() time.Time { return time.Date(2024, 3, 1, 2, 0, 0, 0, loc) }

	DailyReset(rec, zap.NewNop(), now)(context.Background())

	if len(rec.at) != 1 {
		t.Fatalf("resets = %d", len(rec.at))
	}
	if rec.at[0].Location() != time.UTC || rec.at[0].Day() != 29 {
		t.Fatalf("reset at %v", rec.at[0])
	}
}

func TestRunnerSchedulesMidnight(t *testing.T) {
	r := New(zap.NewNop(), nil)
	if _, err := r.Add("0 0 0 * * *", func(context.Context) {}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := r.Add("not a spec", func(context.Context) {}); err == nil {
		t.Fatalf("invalid spec accepted")
	}

	r.Start()
	defer r.Stop()

	entries := r.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	next := entries[0].Next
	if next.Hour() != 0 || next.Minute() != 0 || next.Second() != 0 {
		t.Fatalf("next run %v is not midnight", next)
	}
}
