package models

import (
	"time"

	"github.com/google/uuid"
)

type SourceType string

const (
	SourceMilestone SourceType = "milestone"
	SourceConcept   SourceType = "concept"
)

func (st SourceType) IsValid() bool {
	return st == SourceMilestone || st == SourceConcept
}

// Quality rating bounds. 0-2 is a failed recall, 3-5 a graded success.
// The UI exposes the coarse scale Again=0, Hard=3, Good=4, Easy=5; the
// engine accepts the full range.
const (
	QualityMin     = 0
	QualityAgain   = 0
	QualityHard    = 3
	QualityGood    = 4
	QualityEasy    = 5
	QualityMax     = 5
	QualityPassing = 3
)

const (
	InitialEaseFactor = 2.5
	MinEaseFactor     = 1.3
)

// SchedulingState is the slice of a card the scheduler reads and writes.
// It is copied into the undo buffer as the event's prior state.
type SchedulingState struct {
	EaseFactor     float64    `json:"ease_factor"`
	Interval       int        `json:"interval"`
	Repetitions    int        `json:"repetitions"`
	NextReviewDate *time.Time `json:"next_review_date"`
	LastReviewedAt *time.Time `json:"last_reviewed_at"`
}

func (s SchedulingState) clone() SchedulingState {
	out := s
	if s.NextReviewDate != nil {
		v := *s.NextReviewDate
		out.NextReviewDate = &v
	}
	if s.LastReviewedAt != nil {
		v := *s.LastReviewedAt
		out.LastReviewedAt = &v
	}
	return out
}

type Card struct {
	ID             string     `json:"id"`
	SourceType     SourceType `json:"source_type"`
	SourceID       string     `json:"source_id"`
	PackIDs        []string   `json:"pack_ids"`
	EaseFactor     float64    `json:"ease_factor"`
	Interval       int        `json:"interval"`
	Repetitions    int        `json:"repetitions"`
	NextReviewDate *time.Time `json:"next_review_date"`
	LastReviewedAt *time.Time `json:"last_reviewed_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// NewCard creates an unscheduled card: due immediately, never reviewed.
func NewCard(sourceType SourceType, sourceID string, packIDs []string, now time.Time) *Card {
	ids := make([]string, 0, len(packIDs))
	for _, id := range packIDs {
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	return &Card{
		ID:         uuid.NewString(),
		SourceType: sourceType,
		SourceID:   sourceID,
		PackIDs:    ids,
		EaseFactor: InitialEaseFactor,
		CreatedAt:  now,
	}
}

// IsDue reports whether the card should be offered for review:
// never scheduled, or the scheduled date has arrived.
func (c *Card) IsDue(now time.Time) bool {
	return c.NextReviewDate == nil || !c.NextReviewDate.After(now)
}

// DaysOverdue returns how many days past the scheduled review date the
// card is. 0 for unscheduled or not-yet-due cards.
func (c *Card) DaysOverdue(now time.Time) float64 {
	if c.NextReviewDate == nil || now.Before(*c.NextReviewDate) {
		return 0
	}
	return now.Sub(*c.NextReviewDate).Hours() / 24.0
}

func (c *Card) SchedulingState() SchedulingState {
	return SchedulingState{
		EaseFactor:     c.EaseFactor,
		Interval:       c.Interval,
		Repetitions:    c.Repetitions,
		NextReviewDate: c.NextReviewDate,
		LastReviewedAt: c.LastReviewedAt,
	}.clone()
}

func (c *Card) ApplySchedulingState(s SchedulingState) {
	s = s.clone()
	c.EaseFactor = s.EaseFactor
	c.Interval = s.Interval
	c.Repetitions = s.Repetitions
	c.NextReviewDate = s.NextReviewDate
	c.LastReviewedAt = s.LastReviewedAt
}

func (c *Card) InPack(packID string) bool {
	for _, id := range c.PackIDs {
		if id == packID {
			return true
		}
	}
	return false
}

func (c *Card) AddPack(packID string) {
	if c.InPack(packID) {
		return
	}
	c.PackIDs = append(c.PackIDs, packID)
}

func (c *Card) RemovePack(packID string) {
	for i, id := range c.PackIDs {
		if id == packID {
			c.PackIDs = append(c.PackIDs[:i], c.PackIDs[i+1:]...)
			return
		}
	}
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate the authoritative card behind the store's back.
func (c *Card) Clone() *Card {
	out := *c
	out.PackIDs = append([]string(nil), c.PackIDs...)
	if c.NextReviewDate != nil {
		v := *c.NextReviewDate
		out.NextReviewDate = &v
	}
	if c.LastReviewedAt != nil {
		v := *c.LastReviewedAt
		out.LastReviewedAt = &v
	}
	return &out
}
