package models

import "time"

// CardDigest is the compact per-card view embedded in stats reports.
type CardDigest struct {
	CardID         string     `json:"card_id"`
	SourceType     SourceType `json:"source_type"`
	SourceID       string     `json:"source_id"`
	EaseFactor     float64    `json:"ease_factor"`
	Interval       int        `json:"interval"`
	Repetitions    int        `json:"repetitions"`
	DaysOverdue    float64    `json:"days_overdue"`
	NextReviewDate *time.Time `json:"next_review_date"`
}

// StatsReport is the aggregate answer to a stats query.
type StatsReport struct {
	RetentionRate   float64             `json:"retention_rate"`
	RetentionWindow int                 `json:"retention_window_days"`
	TotalCards      int                 `json:"total_cards"`
	DueCards        int                 `json:"due_cards"`
	MasteredCards   int                 `json:"mastered_cards"`
	TotalReviews    int64               `json:"total_reviews"`
	CurrentStreak   int                 `json:"current_streak"`
	LongestStreak   int                 `json:"longest_streak"`
	MostChallenging []*CardDigest       `json:"most_challenging"`
	WellKnown       []*CardDigest       `json:"well_known"`
	Overdue         []*CardDigest       `json:"overdue"`
	Activity        []DailyReviewRecord `json:"activity"`
}

// DataSummary is the short inventory shown before destructive actions
// and on the summary endpoint.
type DataSummary struct {
	Cards         int        `json:"cards"`
	Packs         int        `json:"packs"`
	Reviews       int64      `json:"reviews"`
	LongestStreak int        `json:"longest_streak"`
	EarliestCard  *time.Time `json:"earliest_card"`
}
