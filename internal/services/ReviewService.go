package services

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"

	"srd/internal/models"
	"srd/internal/review"
	"srd/internal/structures"
)

// Fallbacks for review knobs left at zero in the config.
const (
	defaultActivityWindowDays  = 30
	defaultRetentionWindowDays = 30
	defaultMasteryMinInterval  = 21
	defaultMasteryMinReps      = 3
	defaultTopListSize         = 5
)

type ReviewServiceInterface interface {
	AddCard(input *models.AddCardInput) (*models.Card, error)
	RemoveCard(cardID string) error
	IsCardSaved(sourceType models.SourceType, sourceID string) bool
	GetDueCards(packID string) ([]*models.Card, error)
	RecordReview(cardID string, quality int) (*models.Card, error)
	UndoLastReview(cardID string) (*models.Card, bool)
	PreviewIntervals(cardID string) (map[int]int, error)
	CreatePack(name string) (*models.Pack, error)
	RenamePack(packID, name string) (*models.Pack, error)
	DeletePack(packID string) error
	AssignCard(cardID, packID string) error
	UnassignCard(cardID, packID string) error
	GetPacks() []*models.Pack
	GetStats(retentionDays, topN int) *models.StatsReport
	GetSummary() *models.DataSummary
	GetSnapshot() *models.Snapshot
	PutSnapshot(snap *models.Snapshot) error
	ClearData() *models.DataSummary
	SweepUndo() int
	GetCardCount() int
	GetDueCount() int
	GetPackCount() int
	GetCurrentStreak() int
	GetRatingTotals() models.RatingTotals
	GetUndoCounts() (applied, declined int64)
	Dirty() bool
	MarkDirty()
	ClearDirty()
	Version() int64
}

// ReviewService owns the whole study state: the card store, the review
// ledger and the streak tracker. Its lock serializes mutations across
// the three so a review or an undo is never half-visible. The version
// counter feeds response cache keys; the dirty flag gates periodic
// persistence.
type ReviewService struct {
	mu           sync.RWMutex
	conf         *structures.Config
	store        *models.CardStore
	ledger       *models.ReviewLedger
	streak       *models.StreakTracker
	version      atomic.Int64
	dirty        atomic.Bool
	undoApplied  atomic.Int64
	undoDeclined atomic.Int64
	nowFn        func() time.Time
}

func NewReviewService(conf *structures.Config) ReviewServiceInterface {
	rs := &ReviewService{
		conf:   conf,
		store:  models.NewCardStore(review.Schedule, conf.Review.UndoWindow),
		ledger: models.NewReviewLedger(),
		streak: models.NewStreakTracker(),
		nowFn:  time.Now,
	}
	rs.store.EnsureDefaultPack(rs.nowFn())
	return rs
}

// touch marks the state changed: bumps the cache version and arms the
// next periodic persist.
func (rs *ReviewService) touch() {
	rs.version.Inc()
	rs.dirty.Store(true)
}

func (rs *ReviewService) AddCard(input *models.AddCardInput) (*models.Card, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: empty payload", models.ErrValidation)
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	card, err := rs.store.AddCard(input.SourceType, input.SourceID, input.PackIDs, rs.nowFn())
	if err != nil {
		return nil, err
	}
	rs.touch()
	return card, nil
}

func (rs *ReviewService) RemoveCard(cardID string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if err := rs.store.RemoveCard(cardID); err != nil {
		return err
	}
	rs.touch()
	return nil
}

func (rs *ReviewService) IsCardSaved(sourceType models.SourceType, sourceID string) bool {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.store.IsSaved(sourceType, sourceID)
}

func (rs *ReviewService) GetDueCards(packID string) ([]*models.Card, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.store.DueCards(packID, rs.nowFn())
}

// RecordReview applies one rating: the card moves to its next
// scheduling state, the event lands in the ledger and the streak hears
// about the day. Everything happens under one lock so no caller can
// observe a partially committed review.
func (rs *ReviewService) RecordReview(cardID string, quality int) (*models.Card, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	ev, card, err := rs.store.RecordReview(cardID, quality, rs.nowFn())
	if err != nil {
		return nil, err
	}
	rs.ledger.Append(ev)
	rs.streak.RecordStudy(ev.DayBucket, ev.Timestamp)
	rs.touch()
	return card, nil
}

// UndoLastReview reverses the latest review of the card if it is still
// inside the undo window. An ineligible undo changes nothing and
// reports false. When the undone event was the last one of its day the
// streak is rebuilt from the remaining review days.
func (rs *ReviewService) UndoLastReview(cardID string) (*models.Card, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	ev, card, ok := rs.store.UndoReview(cardID, rs.nowFn())
	if !ok {
		rs.undoDeclined.Inc()
		return nil, false
	}
	if rs.ledger.Remove(ev) {
		rs.streak.Recalculate(rs.ledger.ActiveDays())
	}
	rs.undoApplied.Inc()
	rs.touch()
	return card, true
}

func (rs *ReviewService) PreviewIntervals(cardID string) (map[int]int, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	card, ok := rs.store.Get(cardID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrCardNotFound, cardID)
	}
	return review.Preview(card.SchedulingState(), rs.nowFn()), nil
}

func (rs *ReviewService) CreatePack(name string) (*models.Pack, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	pack, err := rs.store.CreatePack(name, rs.nowFn())
	if err != nil {
		return nil, err
	}
	rs.touch()
	return pack, nil
}

func (rs *ReviewService) RenamePack(packID, name string) (*models.Pack, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	pack, err := rs.store.RenamePack(packID, name)
	if err != nil {
		return nil, err
	}
	rs.touch()
	return pack, nil
}

func (rs *ReviewService) DeletePack(packID string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if err := rs.store.DeletePack(packID); err != nil {
		return err
	}
	rs.touch()
	return nil
}

func (rs *ReviewService) AssignCard(cardID, packID string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if err := rs.store.AssignCard(cardID, packID); err != nil {
		return err
	}
	rs.touch()
	return nil
}

func (rs *ReviewService) UnassignCard(cardID, packID string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if err := rs.store.UnassignCard(cardID, packID); err != nil {
		return err
	}
	rs.touch()
	return nil
}

func (rs *ReviewService) GetPacks() []*models.Pack {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.store.Packs()
}

func (rs *ReviewService) GetStats(retentionDays, topN int) *models.StatsReport {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	now := rs.nowFn()
	if retentionDays <= 0 {
		retentionDays = rs.retentionWindowDays()
	}
	if topN <= 0 {
		topN = rs.topListSize()
	}

	cards := rs.store.Cards()
	history := rs.streak.History()
	return &models.StatsReport{
		RetentionRate:   rs.ledger.Retention(retentionDays, now),
		RetentionWindow: retentionDays,
		TotalCards:      len(cards),
		DueCards:        rs.store.DueCount(now),
		MasteredCards:   review.MasteredCount(cards, rs.masteryMinInterval(), rs.masteryMinReps()),
		TotalReviews:    rs.ledger.TotalReviews(),
		CurrentStreak:   history.CurrentStreak,
		LongestStreak:   history.LongestStreak,
		MostChallenging: review.MostChallenging(cards, topN, now),
		WellKnown:       review.WellKnown(cards, topN, now),
		Overdue:         review.Overdue(cards, now),
		Activity:        rs.ledger.Window(rs.activityWindowDays(), now),
	}
}

func (rs *ReviewService) GetSummary() *models.DataSummary {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.buildSummary()
}

// buildSummary assembles the data inventory. Callers must hold rs.mu.
func (rs *ReviewService) buildSummary() *models.DataSummary {
	return &models.DataSummary{
		Cards:         rs.store.CardCount(),
		Packs:         rs.store.PackCount(),
		Reviews:       rs.ledger.TotalReviews(),
		LongestStreak: rs.streak.Longest(),
		EarliestCard:  rs.store.EarliestCreatedAt(),
	}
}

func (rs *ReviewService) GetSnapshot() *models.Snapshot {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	return &models.Snapshot{
		Version:    models.SnapshotVersion,
		ExportedAt: rs.nowFn(),
		Cards:      rs.store.Cards(),
		Packs:      rs.store.Packs(),
		Days:       rs.ledger.Records(),
		Streak:     rs.streak.History(),
	}
}

// PutSnapshot replaces the whole state with the snapshot's contents.
// Snapshots from a newer engine are refused rather than half-read.
func (rs *ReviewService) PutSnapshot(snap *models.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: empty snapshot", models.ErrValidation)
	}
	if snap.Version > models.SnapshotVersion {
		return fmt.Errorf("%w: unsupported snapshot version %d", models.ErrValidation, snap.Version)
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.store.PutCards(snap.Cards)
	rs.store.PutPacks(snap.Packs)
	rs.store.EnsureDefaultPack(rs.nowFn())
	rs.ledger.PutRecords(snap.Days)
	rs.streak.Put(snap.Streak)
	rs.touch()
	return nil
}

// ClearData wipes everything and reports what was dropped.
func (rs *ReviewService) ClearData() *models.DataSummary {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	summary := rs.buildSummary()
	rs.store.Clear()
	rs.store.EnsureDefaultPack(rs.nowFn())
	rs.ledger.PutRecords(nil)
	rs.streak.Reset()
	rs.touch()
	return summary
}

func (rs *ReviewService) SweepUndo() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.store.SweepUndo(rs.nowFn())
}

func (rs *ReviewService) GetCardCount() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.store.CardCount()
}

func (rs *ReviewService) GetDueCount() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.store.DueCount(rs.nowFn())
}

func (rs *ReviewService) GetPackCount() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.store.PackCount()
}

func (rs *ReviewService) GetCurrentStreak() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.streak.Current()
}

func (rs *ReviewService) GetRatingTotals() models.RatingTotals {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.ledger.RatingTotals()
}

func (rs *ReviewService) GetUndoCounts() (applied, declined int64) {
	return rs.undoApplied.Load(), rs.undoDeclined.Load()
}

func (rs *ReviewService) Dirty() bool {
	return rs.dirty.Load()
}

func (rs *ReviewService) MarkDirty() {
	rs.dirty.Store(true)
}

func (rs *ReviewService) ClearDirty() {
	rs.dirty.Store(false)
}

func (rs *ReviewService) Version() int64 {
	return rs.version.Load()
}

func (rs *ReviewService) activityWindowDays() int {
	if rs.conf.Review.ActivityWindowDays > 0 {
		return rs.conf.Review.ActivityWindowDays
	}
	return defaultActivityWindowDays
}

func (rs *ReviewService) retentionWindowDays() int {
	if rs.conf.Review.RetentionWindowDays > 0 {
		return rs.conf.Review.RetentionWindowDays
	}
	return defaultRetentionWindowDays
}

func (rs *ReviewService) masteryMinInterval() int {
	if rs.conf.Review.MasteryMinInterval > 0 {
		return rs.conf.Review.MasteryMinInterval
	}
	return defaultMasteryMinInterval
}

func (rs *ReviewService) masteryMinReps() int {
	if rs.conf.Review.MasteryMinRepetitions > 0 {
		return rs.conf.Review.MasteryMinRepetitions
	}
	return defaultMasteryMinReps
}

func (rs *ReviewService) topListSize() int {
	if rs.conf.Review.TopListSize > 0 {
		return rs.conf.Review.TopListSize
	}
	return defaultTopListSize
}
