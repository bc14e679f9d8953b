package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExerciseRecord is the summary of one finished exercise session.
type ExerciseRecord struct {
	ID       string
	UserID   string
	Exercise string
	Name     string
	// Timestamp is the session end time in unix milliseconds.
	Timestamp       int64
	Reps            int
	DurationSeconds int
}

// Time returns the record timestamp as a time.Time.
func (r *ExerciseRecord) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// ExerciseTotal aggregates a user's records for one exercise.
type ExerciseTotal struct {
	Exercise        string
	Name            string
	Sessions        int
	Reps            int
	DurationSeconds int
	LastTimestamp   int64
}

// RecordRepository appends and reads exercise history.
type RecordRepository struct {
	db *sql.DB
}

// Records returns the exercise record repository for this store.
func (s *Store) Records() *RecordRepository {
	return &RecordRepository{db: s.db}
}

// Add appends a record, creating the user's profile row when needed.
// A missing ID is generated.
func (r *RecordRepository) Add(rec *ExerciseRecord) error {
	switch {
	case rec.UserID == "":
		return fmt.Errorf("%w: user id is required", ErrInvalidRecord)
	case rec.Name == "":
		return fmt.Errorf("%w: exercise name is required", ErrInvalidRecord)
	case rec.Reps < 0 || rec.DurationSeconds < 0:
		return fmt.Errorf("%w: reps and duration must not be negative", ErrInvalidRecord)
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Exercise == "" {
		rec.Exercise = rec.Name
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := ensureProfile(tx, rec.UserID); err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO exercise_records (id, user_id, exercise, name, timestamp_ms, reps, duration_seconds)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Exercise, rec.Name, rec.Timestamp, rec.Reps, rec.DurationSeconds,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// List returns a user's records, newest first. A limit of zero or less
// returns everything.
func (r *RecordRepository) List(userID string, limit int) ([]*ExerciseRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(
		`SELECT id, user_id, exercise, name, timestamp_ms, reps, duration_seconds
		 FROM exercise_records
		 WHERE user_id = ?
		 ORDER BY timestamp_ms DESC, rowid DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ExerciseRecord
	for rows.Next() {
		rec := &ExerciseRecord{}
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Exercise, &rec.Name,
			&rec.Timestamp, &rec.Reps, &rec.DurationSeconds); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// Totals aggregates a user's records per exercise, most recent first.
func (r *RecordRepository) Totals(userID string) ([]ExerciseTotal, error) {
	rows, err := r.db.Query(
		`SELECT exercise, MAX(name), COUNT(*), SUM(reps), SUM(duration_seconds), MAX(timestamp_ms)
		 FROM exercise_records
		 WHERE user_id = ?
		 GROUP BY exercise
		 ORDER BY MAX(timestamp_ms) DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []ExerciseTotal
	for rows.Next() {
		var t ExerciseTotal
		if err := rows.Scan(&t.Exercise, &t.Name, &t.Sessions, &t.Reps,
			&t.DurationSeconds, &t.LastTimestamp); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return totals, nil
}
