package review

import (
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"srd/internal/models"
	"srd/internal/providers"
	"srd/internal/review/interfaces"
	"srd/internal/structures"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cards (
	id TEXT PRIMARY KEY,
	source_type TEXT NOT NULL,
	source_id TEXT NOT NULL,
	pack_ids TEXT NOT NULL,
	ease_factor REAL NOT NULL,
	interval INTEGER NOT NULL,
	repetitions INTEGER NOT NULL,
	next_review_date DATETIME,
	last_reviewed_at DATETIME,
	created_at DATETIME NOT NULL,
	UNIQUE(source_type, source_id)
);

CREATE TABLE IF NOT EXISTS packs (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_records (
	date TEXT PRIMARY KEY,
	again_count INTEGER NOT NULL,
	hard_count INTEGER NOT NULL,
	good_count INTEGER NOT NULL,
	easy_count INTEGER NOT NULL,
	total_reviews INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS streak (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	current_streak INTEGER NOT NULL,
	longest_streak INTEGER NOT NULL,
	last_study_date TEXT,
	achievements TEXT NOT NULL
);
`

// SQLiteStore persists the service snapshot into a sqlite database.
// Every persist rewrites the full snapshot in one transaction; the
// in-memory state stays the source of truth between saves.
type SQLiteStore struct {
	db      *sql.DB
	service interfaces.SnapshotServiceInterface
	logger  providers.Logger
}

func NewSQLiteStore(conf *structures.Config, service interfaces.SnapshotServiceInterface, logger providers.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", conf.Persistence.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLiteStore{db: db, service: service, logger: logger}, nil
}

func (s *SQLiteStore) Close() {
	if err := s.db.Close(); err != nil {
		s.logger.Errorf(providers.TypeApp, "Failed to close database: %s", err)
	}
}

func (s *SQLiteStore) Persist() error {
	snapshot := s.service.GetSnapshot()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"cards", "packs", "daily_records", "streak"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}

	for _, card := range snapshot.Cards {
		packIDs, err := json.Marshal(card.PackIDs)
		if err != nil {
			return fmt.Errorf("failed to encode pack ids: %w", err)
		}
		_, err = tx.Exec(
			`INSERT INTO cards (id, source_type, source_id, pack_ids, ease_factor, interval, repetitions, next_review_date, last_reviewed_at, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			card.ID, string(card.SourceType), card.SourceID, string(packIDs),
			card.EaseFactor, card.Interval, card.Repetitions,
			nullableTime(card.NextReviewDate), nullableTime(card.LastReviewedAt), card.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
		}
	}

	for _, pack := range snapshot.Packs {
		if _, err := tx.Exec(
			`INSERT INTO packs (id, name, created_at) VALUES (?, ?, ?)`,
			pack.ID, pack.Name, pack.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert pack %s: %w", pack.ID, err)
		}
	}

	for _, rec := range snapshot.Days {
		if _, err := tx.Exec(
			`INSERT INTO daily_records (date, again_count, hard_count, good_count, easy_count, total_reviews)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rec.Date.String(), rec.AgainCount, rec.HardCount, rec.GoodCount, rec.EasyCount, rec.TotalReviews,
		); err != nil {
			return fmt.Errorf("failed to insert daily record %s: %w", rec.Date, err)
		}
	}

	achievements, err := json.Marshal(snapshot.Streak.Achievements)
	if err != nil {
		return fmt.Errorf("failed to encode achievements: %w", err)
	}
	var lastStudy interface{}
	if snapshot.Streak.LastStudyDate != nil {
		lastStudy = snapshot.Streak.LastStudyDate.String()
	}
	if _, err := tx.Exec(
		`INSERT INTO streak (id, current_streak, longest_streak, last_study_date, achievements) VALUES (1, ?, ?, ?, ?)`,
		snapshot.Streak.CurrentStreak, snapshot.Streak.LongestStreak, lastStudy, string(achievements),
	); err != nil {
		return fmt.Errorf("failed to insert streak: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Restore() error {
	snapshot := &models.Snapshot{Version: models.SnapshotVersion}

	cards, err := s.loadCards()
	if err != nil {
		return err
	}
	snapshot.Cards = cards

	packs, err := s.loadPacks()
	if err != nil {
		return err
	}
	snapshot.Packs = packs

	days, err := s.loadDailyRecords()
	if err != nil {
		return err
	}
	snapshot.Days = days

	streak, hasStreak, err := s.loadStreak()
	if err != nil {
		return err
	}
	snapshot.Streak = streak

	// A database with no rows at all means nothing was persisted yet
	if len(cards) == 0 && len(packs) == 0 && len(days) == 0 && !hasStreak {
		return nil
	}
	return s.service.PutSnapshot(snapshot)
}

func (s *SQLiteStore) loadCards() ([]*models.Card, error) {
	rows, err := s.db.Query(
		`SELECT id, source_type, source_id, pack_ids, ease_factor, interval, repetitions, next_review_date, last_reviewed_at, created_at FROM cards`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var cards []*models.Card
	for rows.Next() {
		var (
			card       models.Card
			sourceType string
			packIDs    string
			next, last sql.NullTime
		)
		if err := rows.Scan(&card.ID, &sourceType, &card.SourceID, &packIDs,
			&card.EaseFactor, &card.Interval, &card.Repetitions, &next, &last, &card.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		card.SourceType = models.SourceType(sourceType)
		if err := json.Unmarshal([]byte(packIDs), &card.PackIDs); err != nil {
			return nil, fmt.Errorf("failed to decode pack ids for card %s: %w", card.ID, err)
		}
		if next.Valid {
			t := next.Time
			card.NextReviewDate = &t
		}
		if last.Valid {
			t := last.Time
			card.LastReviewedAt = &t
		}
		cards = append(cards, &card)
	}
	return cards, rows.Err()
}

func (s *SQLiteStore) loadPacks() ([]*models.Pack, error) {
	rows, err := s.db.Query(`SELECT id, name, created_at FROM packs`)
	if err != nil {
		return nil, fmt.Errorf("failed to query packs: %w", err)
	}
	defer rows.Close()

	var packs []*models.Pack
	for rows.Next() {
		var pack models.Pack
		if err := rows.Scan(&pack.ID, &pack.Name, &pack.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pack: %w", err)
		}
		packs = append(packs, &pack)
	}
	return packs, rows.Err()
}

func (s *SQLiteStore) loadDailyRecords() ([]models.DailyReviewRecord, error) {
	rows, err := s.db.Query(
		`SELECT date, again_count, hard_count, good_count, easy_count, total_reviews FROM daily_records ORDER BY date`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily records: %w", err)
	}
	defer rows.Close()

	var records []models.DailyReviewRecord
	for rows.Next() {
		var (
			rec  models.DailyReviewRecord
			date string
		)
		if err := rows.Scan(&date, &rec.AgainCount, &rec.HardCount, &rec.GoodCount, &rec.EasyCount, &rec.TotalReviews); err != nil {
			return nil, fmt.Errorf("failed to scan daily record: %w", err)
		}
		day, err := models.ParseDayKey(date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse daily record date: %w", err)
		}
		rec.Date = day
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) loadStreak() (models.StreakHistory, bool, error) {
	var (
		streak       models.StreakHistory
		lastStudy    sql.NullString
		achievements string
	)
	err := s.db.QueryRow(
		`SELECT current_streak, longest_streak, last_study_date, achievements FROM streak WHERE id = 1`,
	).Scan(&streak.CurrentStreak, &streak.LongestStreak, &lastStudy, &achievements)
	if err == sql.ErrNoRows {
		return streak, false, nil
	}
	if err != nil {
		return streak, false, fmt.Errorf("failed to query streak: %w", err)
	}
	if lastStudy.Valid {
		day, err := models.ParseDayKey(lastStudy.String)
		if err != nil {
			return streak, false, fmt.Errorf("failed to parse last study date: %w", err)
		}
		streak.LastStudyDate = &day
	}
	if err := json.Unmarshal([]byte(achievements), &streak.Achievements); err != nil {
		return streak, false, fmt.Errorf("failed to decode achievements: %w", err)
	}
	return streak, true, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
