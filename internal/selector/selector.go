package selector

import (
	"math/rand"
	"time"

	"github.com/SimonStenelid/X-team/internal/config"
	"github.com/SimonStenelid/X-team/internal/store"
)

// Weights maps content types to selection weight. Transforms never mutate
// their input; each returns a fresh map so the pipeline stays inspectable
// step by step.
type Weights map[store.ContentType]float64

const dateLayout = "2006-01-02"

// neverPosted is the days-since value for a type with no history at all,
// large enough to always clear the underuse threshold.
const neverPosted = 1 << 20

// Select runs the full pipeline: base weights, recency penalty, repetition
// veto, underuse boost, quota damping, renormalize, weighted draw. Given the
// same state, config and random source the result is reproducible.
func Select(st store.State, cfg *config.Config, now time.Time, rng *rand.Rand) store.ContentType {
	today := now.In(cfg.Location())

	w := Base(cfg)
	w = RecencyPenalty(w, st.History, today, cfg.Selector.RecencyPenalty)
	w = RepetitionVeto(w, st.History, today, cfg.Selector.MaxSameTypeStreak)
	w = UnderuseBoost(w, st.History, today, cfg.Selector.UnderuseDays, cfg.Selector.UnderuseBoost)
	w = QuotaDamping(w, st.WeekCounts, cfg, cfg.Selector.QuotaDamping)
	w = Normalize(w)
	return Pick(w, rng)
}

// Base returns the configured base weights for known content types.
func Base(cfg *config.Config) Weights {
	w := make(Weights, len(cfg.Weights))
	for name, weight := range cfg.Weights {
		if store.ValidType(name) {
			w[store.ContentType(name)] = weight
		}
	}
	return w
}

// RecencyPenalty multiplies the weight of any type posted yesterday.
func RecencyPenalty(w Weights, history []store.HistoryEntry, today time.Time, factor float64) Weights {
	yesterday := today.AddDate(0, 0, -1).Format(dateLayout)
	out := clone(w)
	for t := range out {
		if postedOn(history, yesterday, t) {
			out[t] *= factor
		}
	}
	return out
}

// RepetitionVeto zeroes any type posted on each of the preceding maxStreak
// days.
func RepetitionVeto(w Weights, history []store.HistoryEntry, today time.Time, maxStreak int) Weights {
	out := clone(w)
	if maxStreak <= 0 {
		return out
	}
	for t := range out {
		if StreakLength(history, t, today) >= maxStreak {
			out[t] = 0
		}
	}
	return out
}

// UnderuseBoost multiplies the weight of any type not posted within minDays.
func UnderuseBoost(w Weights, history []store.HistoryEntry, today time.Time, minDays int, factor float64) Weights {
	out := clone(w)
	if minDays <= 0 {
		return out
	}
	for t := range out {
		if DaysSince(history, t, today) >= minDays {
			out[t] *= factor
		}
	}
	return out
}

// QuotaDamping multiplies the weight of any type at or over its proportional
// weekly target.
func QuotaDamping(w Weights, counts map[store.ContentType]int, cfg *config.Config, factor float64) Weights {
	out := clone(w)
	for t := range out {
		if float64(counts[t]) >= cfg.WeeklyQuota(string(t)) {
			out[t] *= factor
		}
	}
	return out
}

// Normalize scales weights to sum to 1. If every weight collapsed to zero it
// falls back to a uniform distribution over all types rather than failing.
func Normalize(w Weights) Weights {
	out := clone(w)
	var total float64
	for _, v := range out {
		total += v
	}
	if total == 0 {
		uniform := 1.0 / float64(len(out))
		for t := range out {
			out[t] = uniform
		}
		return out
	}
	for t := range out {
		out[t] /= total
	}
	return out
}

// Pick draws one type from normalized weights. Iteration follows the
// canonical type order so a fixed seed gives a fixed result.
func Pick(w Weights, rng *rand.Rand) store.ContentType {
	r := rng.Float64()
	var cum float64
	var last store.ContentType
	for _, t := range store.AllTypes() {
		weight, ok := w[t]
		if !ok {
			continue
		}
		last = t
		cum += weight
		if r < cum {
			return t
		}
	}
	return last
}

// StreakLength counts how many consecutive days, ending yesterday, the type
// was posted.
func StreakLength(history []store.HistoryEntry, t store.ContentType, today time.Time) int {
	streak := 0
	for d := 1; ; d++ {
		date := today.AddDate(0, 0, -d).Format(dateLayout)
		if !postedOn(history, date, t) {
			return streak
		}
		streak++
	}
}

// DaysSince returns the number of days since the type was last posted, or
// neverPosted if it has no history.
func DaysSince(history []store.HistoryEntry, t store.ContentType, today time.Time) int {
	best := neverPosted
	todayDate := truncateToDay(today)
	for _, e := range history {
		if e.Type != t {
			continue
		}
		posted, err := time.Parse(dateLayout, e.Date)
		if err != nil {
			continue
		}
		days := int(todayDate.Sub(truncateToDay(posted)).Hours() / 24)
		if days >= 0 && days < best {
			best = days
		}
	}
	return best
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func postedOn(history []store.HistoryEntry, date string, t store.ContentType) bool {
	for _, e := range history {
		if e.Date == date && e.Type == t {
			return true
		}
	}
	return false
}

func clone(w Weights) Weights {
	out := make(Weights, len(w))
	for t, v := range w {
		out[t] = v
	}
	return out
}
