package models

import (
	"sort"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
)

// ReviewEvent is the immutable record of one rating submission. The
// card's prior scheduling state is not part of the event itself; it is
// retained next to the latest event in the undo buffer and discarded
// once the undo window closes.
type ReviewEvent struct {
	CardID    string    `json:"card_id"`
	Quality   int       `json:"quality"`
	Timestamp time.Time `json:"timestamp"`
	DayBucket DayKey    `json:"day_bucket"`
}

// DailyReviewRecord aggregates one calendar date's reviews into the four
// rating buckets. Past days are immutable; today's record grows as
// reviews arrive and shrinks on undo.
type DailyReviewRecord struct {
	Date         DayKey `json:"date"`
	AgainCount   int    `json:"again_count"`
	HardCount    int    `json:"hard_count"`
	GoodCount    int    `json:"good_count"`
	EasyCount    int    `json:"easy_count"`
	TotalReviews int    `json:"total_reviews"`
}

// SuccessCount returns the number of reviews with quality >= 3.
func (r DailyReviewRecord) SuccessCount() int {
	return r.HardCount + r.GoodCount + r.EasyCount
}

func (r *DailyReviewRecord) add(quality, delta int) {
	switch {
	case quality < QualityHard:
		r.AgainCount += delta
	case quality == QualityHard:
		r.HardCount += delta
	case quality == QualityGood:
		r.GoodCount += delta
	default:
		r.EasyCount += delta
	}
	r.TotalReviews += delta
}

// ReviewLedger folds review events into per-day records and keeps a
// roaring bitmap of every day that has at least one review. The bitmap
// is what the streak tracker walks when an undo empties a day.
type ReviewLedger struct {
	mu    sync.RWMutex
	days  map[DayKey]*DailyReviewRecord
	awake *roaring.Bitmap
	total int64
}

func NewReviewLedger() *ReviewLedger {
	return &ReviewLedger{
		days:  make(map[DayKey]*DailyReviewRecord),
		awake: roaring.New(),
	}
}

// Append increments the bucket matching the event's quality on the
// event's day.
func (l *ReviewLedger) Append(ev ReviewEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.days[ev.DayBucket]
	if !ok {
		rec = &DailyReviewRecord{Date: ev.DayBucket}
		l.days[ev.DayBucket] = rec
		l.awake.Add(uint32(ev.DayBucket))
	}
	rec.add(ev.Quality, 1)
	l.total++
}

// Remove reverses a previously appended event. It returns true when the
// event's day no longer has any reviews, in which case the day record is
// dropped and its bit cleared so streak recalculation sees the truth.
func (l *ReviewLedger) Remove(ev ReviewEvent) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.days[ev.DayBucket]
	if !ok {
		return false
	}
	rec.add(ev.Quality, -1)
	l.total--
	if rec.TotalReviews > 0 {
		return false
	}
	delete(l.days, ev.DayBucket)
	l.awake.Remove(uint32(ev.DayBucket))
	return true
}

// Window returns the trailing `days` calendar days ending today,
// oldest first. Days without reviews are present as zero records so a
// chart gets a continuous axis.
func (l *ReviewLedger) Window(days int, now time.Time) []DailyReviewRecord {
	if days <= 0 {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	today := DayKeyOf(now)
	out := make([]DailyReviewRecord, 0, days)
	for day := today - DayKey(days) + 1; day <= today; day++ {
		if rec, ok := l.days[day]; ok {
			out = append(out, *rec)
		} else {
			out = append(out, DailyReviewRecord{Date: day})
		}
	}
	return out
}

// Retention returns successes/total over the trailing window, 0 when the
// window has no reviews.
func (l *ReviewLedger) Retention(days int, now time.Time) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	today := DayKeyOf(now)
	var success, total int
	for day := today - DayKey(days) + 1; day <= today; day++ {
		rec, ok := l.days[day]
		if !ok {
			continue
		}
		success += rec.SuccessCount()
		total += rec.TotalReviews
	}
	if total == 0 {
		return 0
	}
	return float64(success) / float64(total)
}

// TotalReviews is the lifetime review count across all days.
func (l *ReviewLedger) TotalReviews() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}

// RatingTotals are lifetime review counts split by rating bucket.
type RatingTotals struct {
	Again int64 `json:"again"`
	Hard  int64 `json:"hard"`
	Good  int64 `json:"good"`
	Easy  int64 `json:"easy"`
}

// RatingTotals sums the rating buckets across every day on record.
func (l *ReviewLedger) RatingTotals() RatingTotals {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var t RatingTotals
	for _, rec := range l.days {
		t.Again += int64(rec.AgainCount)
		t.Hard += int64(rec.HardCount)
		t.Good += int64(rec.GoodCount)
		t.Easy += int64(rec.EasyCount)
	}
	return t
}

// ActiveDays returns a copy of the bitmap of days with at least one
// review.
func (l *ReviewLedger) ActiveDays() *roaring.Bitmap {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.awake.Clone()
}

// Records returns every day record, oldest first, for export.
func (l *ReviewLedger) Records() []DailyReviewRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]DailyReviewRecord, 0, len(l.days))
	for _, rec := range l.days {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// PutRecords replaces the ledger contents from a persisted snapshot.
// Records with no reviews are skipped so the bitmap stays meaningful.
func (l *ReviewLedger) PutRecords(records []DailyReviewRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.days = make(map[DayKey]*DailyReviewRecord, len(records))
	l.awake = roaring.New()
	l.total = 0
	for _, rec := range records {
		if rec.TotalReviews <= 0 {
			continue
		}
		cp := rec
		l.days[rec.Date] = &cp
		l.awake.Add(uint32(rec.Date))
		l.total += int64(rec.TotalReviews)
	}
}
