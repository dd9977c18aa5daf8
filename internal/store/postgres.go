package store

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/campuscode/leetboard/internal/model"
)

// Pool is the slice of the pgxpool surface the store uses. Both
// *pgxpool.Pool and pgxmock pools satisfy it.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the refresh-loop hot path.
var preparedStatements = map[string]string{
	"upsert_student": `INSERT INTO students (roll_no, name, username, year, section) VALUES ($1, $2, $3, $4, $5)
	 ON CONFLICT (roll_no) DO UPDATE SET
	   name = EXCLUDED.name, username = EXCLUDED.username,
	   year = EXCLUDED.year, section = EXCLUDED.section`,
	"list_students": `SELECT id, roll_no, name, username, year, section FROM students ORDER BY roll_no`,
	"last_known":    `SELECT username, easy_solved, medium_solved, hard_solved, total_solved FROM student_stats`,
	"upsert_stats": `INSERT INTO student_stats (roll_no, username, easy_solved, medium_solved, hard_solved, total_solved, last_updated)
	 VALUES ($1, $2, $3, $4, $5, $6, $7)
	 ON CONFLICT (roll_no) DO UPDATE SET
	   username = EXCLUDED.username,
	   easy_solved = EXCLUDED.easy_solved,
	   medium_solved = EXCLUDED.medium_solved,
	   hard_solved = EXCLUDED.hard_solved,
	   total_solved = EXCLUDED.total_solved,
	   last_updated = EXCLUDED.last_updated
	 WHERE EXCLUDED.total_solved >= student_stats.total_solved`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS students (
	id       BIGSERIAL PRIMARY KEY,
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
	last_updated  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_students_username ON students(username);
CREATE INDEX IF NOT EXISTS idx_student_stats_username ON student_stats(username);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertStudents(ctx context.Context, students []model.Student) (int, error) {
	count := 0
	for _, st := range students {
		if st.RollNo == "" {
			continue
		}
		_, err := s.pool.Exec(ctx,
			`INSERT INTO students (roll_no, name, username, year, section) VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (roll_no) DO UPDATE SET
			   name = EXCLUDED.name, username = EXCLUDED.username,
			   year = EXCLUDED.year, section = EXCLUDED.section`,
			st.RollNo, st.Name, st.Username, st.Year, st.Section,
		)
		if err != nil {
			return count, eris.Wrapf(err, "postgres: upsert student %s", st.RollNo)
		}
		count++
	}
	return count, nil
}

func (s *PostgresStore) ListStudents(ctx context.Context) ([]model.Student, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, roll_no, name, username, year, section FROM students ORDER BY roll_no`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list students")
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.ID, &st.RollNo, &st.Name, &st.Username, &st.Year, &st.Section); err != nil {
			return nil, eris.Wrap(err, "postgres: scan student")
		}
		students = append(students, st)
	}
	return students, eris.Wrap(rows.Err(), "postgres: list students iterate")
}

// LastKnown returns the most recent stats snapshot for every profile that has
// one, keyed by lowercased username.
func (s *PostgresStore) LastKnown(ctx context.Context) (map[string]model.StatRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT username, easy_solved, medium_solved, hard_solved, total_solved FROM student_stats`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: last known stats")
	}
	defer rows.Close()

	known := make(map[string]model.StatRecord)
	for rows.Next() {
		var username string
		var rec model.StatRecord
		if err := rows.Scan(&username, &rec.Easy, &rec.Medium, &rec.Hard, &rec.Total); err != nil {
			return nil, eris.Wrap(err, "postgres: scan stats")
		}
		username = strings.ToLower(strings.TrimSpace(username))
		if username == "" {
			continue
		}
		known[username] = rec
	}
	return known, eris.Wrap(rows.Err(), "postgres: last known iterate")
}

// SaveStats persists freshly fetched rows. Cached, missing, and unknown rows
// are skipped, and an update never lowers a stored total: a fetch that races a
// profile reset keeps whichever snapshot solved more.
func (s *PostgresStore) SaveStats(ctx context.Context, results []model.StudentResult) (int, error) {
	now := time.Now().UTC()
	count := 0
	for _, r := range results {
		if r.Outcome != model.OutcomeFresh || r.RollNo == "" {
			continue
		}
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO student_stats (roll_no, username, easy_solved, medium_solved, hard_solved, total_solved, last_updated)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (roll_no) DO UPDATE SET
			   username = EXCLUDED.username,
			   easy_solved = EXCLUDED.easy_solved,
			   medium_solved = EXCLUDED.medium_solved,
			   hard_solved = EXCLUDED.hard_solved,
			   total_solved = EXCLUDED.total_solved,
			   last_updated = EXCLUDED.last_updated
			 WHERE EXCLUDED.total_solved >= student_stats.total_solved`,
			r.RollNo, r.Username, r.Easy, r.Medium, r.Hard, r.Total, now,
		)
		if err != nil {
			return count, eris.Wrapf(err, "postgres: save stats %s", r.RollNo)
		}
		if tag.RowsAffected() > 0 {
			count++
		}
	}
	return count, nil
}
