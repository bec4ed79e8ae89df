package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Record is one persisted analysis operation.
type Record struct {
	ID          string
	Timestamp   time.Time
	Operation   string
	File        string
	Language    string
	Duration    time.Duration
	Fallback    bool
	ResultCount int
	ErrorCode   string
}

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts with concurrent callers.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *Store) Save(record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(record.ID) == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	fallback := 0
	if record.Fallback {
		fallback = 1
	}

	query := `
INSERT INTO operations (
  id, ts_utc, operation, file, language, duration_ms, fallback, result_count, error_code
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING
`
	return s.withRetry("save operation", func() error {
		_, err := s.db.Exec(
			query,
			record.ID,
			record.Timestamp.UTC().Format(time.RFC3339Nano),
			record.Operation,
			record.File,
			record.Language,
			record.Duration.Milliseconds(),
			fallback,
			record.ResultCount,
			record.ErrorCode,
		)
		return err
	})
}

func (s *Store) Recent(limit int) ([]Record, error) {
	return s.query("", limit)
}

// RecentByOperation filters the journal to one operation name.
func (s *Store) RecentByOperation(operation string, limit int) ([]Record, error) {
	return s.query(operation, limit)
}

func (s *Store) query(operation string, limit int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}

	query := `
SELECT id, ts_utc, operation, file, language, duration_ms, fallback, result_count, error_code
FROM operations
`
	args := []any{}
	if operation != "" {
		query += "WHERE operation = ?\n"
		args = append(args, operation)
	}
	query += "ORDER BY ts_utc DESC\nLIMIT ?\n"
	args = append(args, limit)

	var rows *sql.Rows
	err := s.withRetry("load operations", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		var (
			tsRaw      string
			durationMS int64
			fallback   int
			record     Record
		)
		if err := rows.Scan(
			&record.ID,
			&tsRaw,
			&record.Operation,
			&record.File,
			&record.Language,
			&durationMS,
			&fallback,
			&record.ResultCount,
			&record.ErrorCode,
		); err != nil {
			return nil, fmt.Errorf("scan operation row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse operation timestamp %q: %w", tsRaw, err)
		}
		record.Timestamp = ts.UTC()
		record.Duration = time.Duration(durationMS) * time.Millisecond
		record.Fallback = fallback != 0

		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operation rows: %w", err)
	}

	return records, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
