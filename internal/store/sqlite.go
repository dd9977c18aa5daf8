package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/campuscode/leetboard/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS students (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	roll_no  TEXT NOT NULL UNIQUE,
	name     TEXT NOT NULL,
	username TEXT NOT NULL DEFAULT '',
	year     INTEGER NOT NULL DEFAULT 0,
	section  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS student_stats (
	roll_no       TEXT PRIMARY KEY,
	username      TEXT NOT NULL DEFAULT '',
	easy_solved   INTEGER NOT NULL DEFAULT 0,
	medium_solved INTEGER NOT NULL DEFAULT 0,
	hard_solved   INTEGER NOT NULL DEFAULT 0,
	total_solved  INTEGER NOT NULL DEFAULT 0,
	last_updated  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_students_roll_no ON students(roll_no);
CREATE INDEX IF NOT EXISTS idx_students_username ON students(username);
CREATE INDEX IF NOT EXISTS idx_student_stats_username ON student_stats(username);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertStudents(ctx context.Context, students []model.Student) (int, error) {
	count := 0
	for _, st := range students {
		if st.RollNo == "" {
			continue
		}
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO students (roll_no, name, username, year, section) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(roll_no) DO UPDATE SET
			   name = excluded.name, username = excluded.username,
			   year = excluded.year, section = excluded.section`,
			st.RollNo, st.Name, st.Username, st.Year, st.Section,
		)
		if err != nil {
			return count, eris.Wrapf(err, "sqlite: upsert student %s", st.RollNo)
		}
		count++
	}
	return count, nil
}

func (s *SQLiteStore) ListStudents(ctx context.Context) ([]model.Student, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, roll_no, name, username, year, section FROM students ORDER BY roll_no`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list students")
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.ID, &st.RollNo, &st.Name, &st.Username, &st.Year, &st.Section); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan student")
		}
		students = append(students, st)
	}
	return students, eris.Wrap(rows.Err(), "sqlite: list students iterate")
}

// LastKnown returns the most recent stats snapshot for every profile that has
// one, keyed by lowercased username.
func (s *SQLiteStore) LastKnown(ctx context.Context) (map[string]model.StatRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT username, easy_solved, medium_solved, hard_solved, total_solved FROM student_stats`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: last known stats")
	}
	defer rows.Close()

	known := make(map[string]model.StatRecord)
	for rows.Next() {
		var username string
		var rec model.StatRecord
		if err := rows.Scan(&username, &rec.Easy, &rec.Medium, &rec.Hard, &rec.Total); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan stats")
		}
		username = strings.ToLower(strings.TrimSpace(username))
		if username == "" {
			continue
		}
		known[username] = rec
	}
	return known, eris.Wrap(rows.Err(), "sqlite: last known iterate")
}

// SaveStats persists freshly fetched rows. Cached, missing, and unknown rows
// are skipped, and an update never lowers a stored total: a fetch that races a
// profile reset keeps whichever snapshot solved more.
func (s *SQLiteStore) SaveStats(ctx context.Context, results []model.StudentResult) (int, error) {
	now := time.Now().UTC()
	count := 0
	for _, r := range results {
		if r.Outcome != model.OutcomeFresh || r.RollNo == "" {
			continue
		}
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO student_stats (roll_no, username, easy_solved, medium_solved, hard_solved, total_solved, last_updated)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(roll_no) DO UPDATE SET
			   username = excluded.username,
			   easy_solved = excluded.easy_solved,
			   medium_solved = excluded.medium_solved,
			   hard_solved = excluded.hard_solved,
			   total_solved = excluded.total_solved,
			   last_updated = excluded.last_updated
			 WHERE excluded.total_solved >= student_stats.total_solved`,
			r.RollNo, r.Username, r.Easy, r.Medium, r.Hard, r.Total, now,
		)
		if err != nil {
			return count, eris.Wrapf(err, "sqlite: save stats %s", r.RollNo)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return count, eris.Wrap(err, "sqlite: rows affected")
		}
		if n > 0 {
			count++
		}
	}
	return count, nil
}
