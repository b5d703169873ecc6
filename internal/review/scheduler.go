package review

import (
	"math"
	"time"

	"srd/internal/models"
)

// Schedule computes the scheduling state a card moves to after a review
// with the given quality, following the SM-2 algorithm. The input state
// is not mutated.
//
// The ease factor is adjusted on every review, failed ones included:
//
//	ease' = ease + (0.1 - (5-q)*(0.08 + (5-q)*0.02))
//
// floored at 1.3. A failing quality (< 3) resets the repetition count
// and schedules the card for tomorrow; a passing one advances the
// interval ladder 1, 6, round(interval * ease').
func Schedule(prior models.SchedulingState, quality int, now time.Time) models.SchedulingState {
	next := prior

	q := float64(quality)
	ease := prior.EaseFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if ease < models.MinEaseFactor {
		ease = models.MinEaseFactor
	}
	next.EaseFactor = ease

	if quality < models.QualityPassing {
		next.Repetitions = 0
		next.Interval = 1
	} else {
		next.Repetitions = prior.Repetitions + 1
		switch next.Repetitions {
		case 1:
			next.Interval = 1
		case 2:
			next.Interval = 6
		default:
			next.Interval = int(math.Round(float64(prior.Interval) * ease))
		}
		if next.Interval < 1 {
			next.Interval = 1
		}
	}

	due := now.AddDate(0, 0, next.Interval)
	next.NextReviewDate = &due
	reviewed := now
	next.LastReviewedAt = &reviewed
	return next
}

// Preview maps each rating a reviewer can submit to the interval in
// days the card would get, without committing anything.
func Preview(prior models.SchedulingState, now time.Time) map[int]int {
	out := make(map[int]int, 4)
	for _, q := range []int{models.QualityAgain, models.QualityHard, models.QualityGood, models.QualityEasy} {
		out[q] = Schedule(prior, q, now).Interval
	}
	return out
}
