package app

import (
	"time"

	"quiz-funnel/internal/domain"
)

// WeeklyCountdown returns the time left until Friday 23:59:59.099 in loc.
// Past the deadline it reports a full week minus one second.
func WeeklyCountdown(now time.Time, loc *time.Location) domain.Countdown {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	days := (int(time.Friday) + 7 - int(local.Weekday())) % 7
	y, m, d := local.Date()
	deadline := time.Date(y, m, d+days, 23, 59, 59, int(99*time.Millisecond), loc)

	diff := deadline.Sub(local)
	if diff <= 0 {
		return domain.Countdown{Days: 6, Hours: 23, Minutes: 59, Seconds: 59}
	}
	return domain.Countdown{
		Days:    int(diff / (24 * time.Hour)),
		Hours:   int(diff/time.Hour) % 24,
		Minutes: int(diff/time.Minute) % 60,
		Seconds: int(diff/time.Second) % 60,
	}
}

// Counter animates a social proof number towards Target.
// With Divisor set each tick closes 1/Divisor of the remaining gap (rounded up);
// otherwise it adds Step.
type Counter struct {
	Name     string
	Target   int
	Divisor  int
	Step     int
	Interval time.Duration
}

// Next returns the value one tick after prev.
func (c Counter) Next(prev int) int {
	if prev >= c.Target {
		return c.Target
	}
	inc := c.Step
	if c.Divisor > 0 {
		gap := c.Target - prev
		inc = (gap + c.Divisor - 1) / c.Divisor
	}
	if inc <= 0 {
		return c.Target
	}
	next := prev + inc
	if next > c.Target {
		return c.Target
	}
	return next
}

// ValueAt replays the animation for elapsed time starting from 0.
func (c Counter) ValueAt(elapsed time.Duration) int {
	if c.Interval <= 0 {
		return c.Target
	}
	v := 0
	for ticks := int(elapsed / c.Interval); ticks > 0 && v < c.Target; ticks-- {
		v = c.Next(v)
	}
	return v
}

// ResultCounters returns the three counters shown on the result page.
func ResultCounters(proof domain.SocialProof) []Counter {
	return []Counter{
		{Name: "users", Target: proof.Users, Divisor: 20, Interval: 30 * time.Millisecond},
		{Name: "people", Target: proof.People, Divisor: 30, Interval: 50 * time.Millisecond},
		{Name: "satisfaction", Target: proof.Satisfaction, Step: 1, Interval: 30 * time.Millisecond},
	}
}

// CounterFrame is a snapshot of all counters at a point in the animation.
type CounterFrame struct {
	Values  map[string]int `json:"values"`
	Settled bool           `json:"settled"`
}

// FrameAt evaluates all counters at elapsed time.
func FrameAt(counters []Counter, elapsed time.Duration) CounterFrame {
	frame := CounterFrame{Values: make(map[string]int, len(counters)), Settled: true}
	for _, c := range counters {
		v := c.ValueAt(elapsed)
		frame.Values[c.Name] = v
		if v < c.Target {
			frame.Settled = false
		}
	}
	return frame
}
