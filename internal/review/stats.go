package review

import (
	"sort"
	"time"

	"srd/internal/models"
)

// MasteredCount counts cards whose interval and repetition count both
// clear the mastery cutoffs.
func MasteredCount(cards []*models.Card, minInterval, minRepetitions int) int {
	n := 0
	for _, card := range cards {
		if card.Interval >= minInterval && card.Repetitions >= minRepetitions {
			n++
		}
	}
	return n
}

// MostChallenging returns up to n reviewed cards ordered by ascending
// ease factor, the most overdue first among equals. Cards that were
// never reviewed have nothing to say about difficulty and are skipped.
func MostChallenging(cards []*models.Card, n int, now time.Time) []*models.CardDigest {
	reviewed := make([]*models.Card, 0, len(cards))
	for _, card := range cards {
		if card.LastReviewedAt != nil {
			reviewed = append(reviewed, card)
		}
	}
	sort.Slice(reviewed, func(i, j int) bool {
		a, b := reviewed[i], reviewed[j]
		if a.EaseFactor != b.EaseFactor {
			return a.EaseFactor < b.EaseFactor
		}
		ao, bo := a.DaysOverdue(now), b.DaysOverdue(now)
		if ao != bo {
			return ao > bo
		}
		return a.ID < b.ID
	})
	return digests(reviewed, n, now)
}

// WellKnown returns up to n reviewed cards ordered by descending
// interval.
func WellKnown(cards []*models.Card, n int, now time.Time) []*models.CardDigest {
	reviewed := make([]*models.Card, 0, len(cards))
	for _, card := range cards {
		if card.LastReviewedAt != nil {
			reviewed = append(reviewed, card)
		}
	}
	sort.Slice(reviewed, func(i, j int) bool {
		a, b := reviewed[i], reviewed[j]
		if a.Interval != b.Interval {
			return a.Interval > b.Interval
		}
		if a.Repetitions != b.Repetitions {
			return a.Repetitions > b.Repetitions
		}
		return a.ID < b.ID
	})
	return digests(reviewed, n, now)
}

// Overdue returns every card scheduled before now, most overdue first.
// Unscheduled cards are due but not overdue and do not appear.
func Overdue(cards []*models.Card, now time.Time) []*models.CardDigest {
	late := make([]*models.Card, 0)
	for _, card := range cards {
		if card.NextReviewDate != nil && card.NextReviewDate.Before(now) {
			late = append(late, card)
		}
	}
	sort.Slice(late, func(i, j int) bool {
		a, b := late[i], late[j]
		ao, bo := a.DaysOverdue(now), b.DaysOverdue(now)
		if ao != bo {
			return ao > bo
		}
		return a.ID < b.ID
	})
	return digests(late, len(late), now)
}

func digests(cards []*models.Card, n int, now time.Time) []*models.CardDigest {
	if n > len(cards) {
		n = len(cards)
	}
	out := make([]*models.CardDigest, 0, n)
	for _, card := range cards[:n] {
		out = append(out, &models.CardDigest{
			CardID:         card.ID,
			SourceType:     card.SourceType,
			SourceID:       card.SourceID,
			EaseFactor:     card.EaseFactor,
			Interval:       card.Interval,
			Repetitions:    card.Repetitions,
			DaysOverdue:    card.DaysOverdue(now),
			NextReviewDate: card.NextReviewDate,
		})
	}
	return out
}
