package models

import (
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
)

// StreakMilestones are the day counts that earn a permanent achievement.
var StreakMilestones = []int{7, 14, 30, 60, 100, 180, 365}

// Achievement marks a streak milestone that was reached at least once.
// Achievements are never revoked, even when the streak that earned them
// is later broken or undone.
type Achievement struct {
	Milestone  int       `json:"milestone"`
	AchievedAt time.Time `json:"achieved_at"`
}

// StreakHistory is the serializable streak state.
type StreakHistory struct {
	CurrentStreak int           `json:"current_streak"`
	LongestStreak int           `json:"longest_streak"`
	LastStudyDate *DayKey       `json:"last_study_date"`
	Achievements  []Achievement `json:"achievements"`
}

func (h StreakHistory) clone() StreakHistory {
	out := h
	if h.LastStudyDate != nil {
		d := *h.LastStudyDate
		out.LastStudyDate = &d
	}
	out.Achievements = make([]Achievement, len(h.Achievements))
	copy(out.Achievements, h.Achievements)
	return out
}

// StreakTracker counts consecutive calendar days with at least one
// review. Reviews land on local calendar dates; any review on the day
// after the last studied date extends the streak, a larger gap resets
// it to one.
type StreakTracker struct {
	mu    sync.RWMutex
	state StreakHistory
}

func NewStreakTracker() *StreakTracker {
	return &StreakTracker{}
}

// RecordStudy folds one review day into the streak. Events dated before
// the last studied day never advance anything. Milestone achievements
// are awarded at most once, stamped with the review time.
func (st *StreakTracker) RecordStudy(day DayKey, now time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := &st.state
	switch {
	case s.LastStudyDate == nil:
		s.CurrentStreak = 1
		s.LastStudyDate = &day
	case day == *s.LastStudyDate:
		// day already counted
	case day == s.LastStudyDate.Next():
		s.CurrentStreak++
		s.LastStudyDate = &day
	case day > *s.LastStudyDate:
		s.CurrentStreak = 1
		s.LastStudyDate = &day
	default:
		return
	}

	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	st.award(now)
}

// award appends achievements for every reached milestone that is not
// recorded yet. Callers must hold st.mu.
func (st *StreakTracker) award(now time.Time) {
	for _, milestone := range StreakMilestones {
		if st.state.CurrentStreak < milestone {
			break
		}
		if !st.hasMilestone(milestone) {
			st.state.Achievements = append(st.state.Achievements, Achievement{
				Milestone:  milestone,
				AchievedAt: now,
			})
		}
	}
}

func (st *StreakTracker) hasMilestone(milestone int) bool {
	for _, a := range st.state.Achievements {
		if a.Milestone == milestone {
			return true
		}
	}
	return false
}

// Recalculate rebuilds the counters from the set of days that still
// have reviews, after an undo emptied a day bucket. The current streak
// becomes the run ending at the latest remaining day, the longest
// streak the longest run anywhere in the set. Achievements stay.
func (st *StreakTracker) Recalculate(active *roaring.Bitmap) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := &st.state
	if active == nil || active.IsEmpty() {
		s.CurrentStreak = 0
		s.LongestStreak = 0
		s.LastStudyDate = nil
		return
	}

	last := DayKey(active.Maximum())
	current := 0
	for d := last; d >= 0 && active.Contains(uint32(d)); d-- {
		current++
	}

	longest := 0
	run := 0
	prev := int64(-2)
	it := active.Iterator()
	for it.HasNext() {
		v := int64(it.Next())
		if v == prev+1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = v
	}
	if longest < current {
		longest = current
	}

	s.CurrentStreak = current
	s.LongestStreak = longest
	s.LastStudyDate = &last
}

// History returns a copy of the streak state.
func (st *StreakTracker) History() StreakHistory {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.state.clone()
}

func (st *StreakTracker) Current() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.state.CurrentStreak
}

func (st *StreakTracker) Longest() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.state.LongestStreak
}

// Put replaces the streak state from a persisted snapshot. The longest
// streak is lifted to at least the current one so a hand-edited or
// partial snapshot cannot violate the ordering between them.
func (st *StreakTracker) Put(h StreakHistory) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.state = h.clone()
	if st.state.LongestStreak < st.state.CurrentStreak {
		st.state.LongestStreak = st.state.CurrentStreak
	}
}

// Reset drops the whole streak state, achievements included. Only the
// full data wipe uses this.
func (st *StreakTracker) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.state = StreakHistory{}
}
