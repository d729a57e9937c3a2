package app_test

import (
	"testing"
	"time"

	"quiz-funnel/internal/app"
	"quiz-funnel/internal/domain"
)

func TestScore(t *testing.T) {
	f := testFunnel()
	cases := []struct {
		name    string
		answers domain.Answers
		want    int
	}{
		{"best answers", domain.Answers{1: "c", 2: "b", 3: "b"}, 100},
		{"lowest answers", domain.Answers{1: "a", 2: "a", 3: "a"}, 10},
		{"unanswered count against max", domain.Answers{1: "c"}, 20},
		{"unknown option ignored", domain.Answers{1: "zz", 2: "b"}, 30},
		{"nothing answered", nil, 0},
	}
	for _, tc := range cases {
		if got := app.Score(f, tc.answers); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestScoreRounds(t *testing.T) {
	f := domain.Funnel{Questions: []domain.Question{{ID: 1, Options: []domain.Option{
		{ID: "a", Value: 1}, {ID: "b", Value: 2}, {ID: "c", Value: 3},
	}}}}
	if got := app.Score(f, domain.Answers{1: "a"}); got != 33 {
		t.Fatalf("expected 33, got %d", got)
	}
	if got := app.Score(f, domain.Answers{1: "b"}); got != 67 {
		t.Fatalf("expected 67, got %d", got)
	}
}

func TestScoreZeroMax(t *testing.T) {
	f := domain.Funnel{Questions: []domain.Question{{ID: 1, Options: []domain.Option{{ID: "a", Value: 0}}}}}
	if got := app.Score(f, domain.Answers{1: "a"}); got != 0 {
		t.Fatalf("expected 0 when nothing can be scored, got %d", got)
	}
}

func TestSummarize(t *testing.T) {
	f := testFunnel()
	cases := []struct {
		score    int
		tier     domain.Tier
		confetti bool
	}{
		{100, domain.TierHigh, true},
		{80, domain.TierHigh, true},
		{79, domain.TierMid, true},
		{50, domain.TierMid, false},
		{49, domain.TierLow, false},
		{0, domain.TierLow, false},
	}
	for _, tc := range cases {
		res := app.Summarize(f, tc.score)
		if res.Tier != tc.tier || res.Confetti != tc.confetti || res.Text != string(tc.tier) {
			t.Fatalf("score %d: unexpected result %+v", tc.score, res)
		}
	}
	if off := app.Summarize(f, 50).DashOffset; off != 63 {
		t.Fatalf("expected dash offset 63 at 50%%, got %v", off)
	}
	if off := app.Summarize(f, 100).DashOffset; off != 0 {
		t.Fatalf("expected dash offset 0 at 100%%, got %v", off)
	}
}

func TestProgressPercent(t *testing.T) {
	f := testFunnel()
	p := domain.NewProgress("v", "test", time.Now())
	if got := app.ProgressPercent(f, p); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	p.Index = 2
	if got := app.ProgressPercent(f, p); got != 67 {
		t.Fatalf("expected 67, got %d", got)
	}
}

func TestWeeklyCountdown(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		loc  *time.Location
		want domain.Countdown
	}{
		{
			name: "wednesday noon",
			now:  time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC),
			want: domain.Countdown{Days: 2, Hours: 11, Minutes: 59, Seconds: 59},
		},
		{
			name: "friday morning",
			now:  time.Date(2025, 3, 7, 9, 30, 0, 0, time.UTC),
			want: domain.Countdown{Days: 0, Hours: 14, Minutes: 29, Seconds: 59},
		},
		{
			name: "friday past deadline",
			now:  time.Date(2025, 3, 7, 23, 59, 59, int(500*time.Millisecond), time.UTC),
			want: domain.Countdown{Days: 6, Hours: 23, Minutes: 59, Seconds: 59},
		},
		{
			name: "saturday midnight",
			now:  time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC),
			want: domain.Countdown{Days: 6, Hours: 23, Minutes: 59, Seconds: 59},
		},
		{
			name: "already saturday in riyadh",
			now:  time.Date(2025, 3, 7, 22, 0, 0, 0, time.UTC),
			loc:  time.FixedZone("AST", 3*60*60),
			want: domain.Countdown{Days: 6, Hours: 22, Minutes: 59, Seconds: 59},
		},
	}
	for _, tc := range cases {
		if got := app.WeeklyCountdown(tc.now, tc.loc); got != tc.want {
			t.Fatalf("%s: expected %+v, got %+v", tc.name, tc.want, got)
		}
	}
}

func TestCounterEasing(t *testing.T) {
	users := app.Counter{Target: 1890, Divisor: 20, Interval: 30 * time.Millisecond}
	if got := users.Next(0); got != 95 {
		t.Fatalf("expected first step 95, got %d", got)
	}
	if got := users.Next(1880); got != 1881 {
		t.Fatalf("expected single step near target, got %d", got)
	}
	if got := users.Next(1890); got != 1890 {
		t.Fatalf("expected clamp at target, got %d", got)
	}

	satisfaction := app.Counter{Target: 95, Step: 1, Interval: 30 * time.Millisecond}
	if got := satisfaction.ValueAt(300 * time.Millisecond); got != 10 {
		t.Fatalf("expected 10 after 10 ticks, got %d", got)
	}
	if got := satisfaction.ValueAt(10 * time.Second); got != 95 {
		t.Fatalf("expected settled at 95, got %d", got)
	}
}

func TestFrameAtSettles(t *testing.T) {
	counters := app.ResultCounters(domain.SocialProof{Users: 1890, People: 342, Satisfaction: 95})

	start := app.FrameAt(counters, 0)
	if start.Settled || start.Values["users"] != 0 {
		t.Fatalf("expected unsettled zero frame, got %+v", start)
	}

	end := app.FrameAt(counters, time.Minute)
	if !end.Settled {
		t.Fatalf("expected counters settled after a minute, got %+v", end)
	}
	if end.Values["users"] != 1890 || end.Values["people"] != 342 || end.Values["satisfaction"] != 95 {
		t.Fatalf("unexpected final values %+v", end.Values)
	}
}
