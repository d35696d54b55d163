package schedule

import (
	"math/rand"
	"time"

	"github.com/SimonStenelid/X-team/internal/config"
)

// IsDue reports whether a post is due: the scheduled time has been reached,
// or no schedule exists yet (first run).
func IsDue(next, now time.Time) bool {
	if next.IsZero() {
		return true
	}
	return !now.Before(next)
}

// Next computes the next scheduled post time: one calendar day after now, in
// a probability-weighted window, at a uniform instant inside the window's
// hour range, with symmetric minute jitter applied. prev is the previous
// schedule; landing on its exact minute triggers one resample, and a second
// collision shifts by a minute instead of looping.
func Next(now time.Time, cfg *config.Config, rng *rand.Rand, prev time.Time) time.Time {
	t := draw(now, cfg, rng)
	if sameMinute(t, prev) {
		t = draw(now, cfg, rng)
		if sameMinute(t, prev) {
			t = t.Add(time.Minute)
		}
	}
	// Degenerate configs (tiny windows, large negative jitter) could land at
	// or before now; never schedule into the past.
	for !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func draw(now time.Time, cfg *config.Config, rng *rand.Rand) time.Time {
	loc := cfg.Location()
	w := pickWindow(cfg.Windows, rng)

	base := now.In(loc).AddDate(0, 0, 1)
	hour := w.StartHour + rng.Intn(w.EndHour-w.StartHour)
	minute := rng.Intn(60)

	t := time.Date(base.Year(), base.Month(), base.Day(), hour, minute, 0, 0, loc)
	if j := cfg.JitterMinutes; j > 0 {
		t = t.Add(time.Duration(rng.Intn(2*j+1)-j) * time.Minute)
	}
	return t
}

// pickWindow draws a window by its configured probability.
func pickWindow(windows []config.Window, rng *rand.Rand) config.Window {
	r := rng.Float64()
	var cum float64
	for _, w := range windows {
		cum += w.Probability
		if r < cum {
			return w
		}
	}
	return windows[len(windows)-1]
}

func sameMinute(a, b time.Time) bool {
	if b.IsZero() {
		return false
	}
	return a.Truncate(time.Minute).Equal(b.Truncate(time.Minute))
}
