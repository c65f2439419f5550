// Package cyclelog 以追加方式记录每个交易周期，方便排查与回放。
package cyclelog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"folio/internal/decision"

	_ "modernc.org/sqlite"
)

// Record 是一条周期日志。
type Record struct {
	ID             int64               `json:"id"`
	TraceID        string              `json:"trace_id"`
	Timestamp      int64               `json:"ts"`
	Prompt         string              `json:"prompt,omitempty"`
	Reasoning      string              `json:"reasoning"`
	Decisions      []decision.Decision `json:"decisions"`
	PortfolioValue float64             `json:"portfolio_value"`
	Halted         bool                `json:"halted"`
}

// Store 管理周期日志库（modernc 纯 Go SQLite 驱动）。
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("cycle log: database path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const create = `CREATE TABLE IF NOT EXISTS cycles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trace_id TEXT NOT NULL,
		ts INTEGER NOT NULL,
		reasoning TEXT,
		decisions TEXT,
		portfolio_value REAL DEFAULT 0
	)`
	if _, err := s.db.Exec(create); err != nil {
		return fmt.Errorf("creating cycles table failed: %w", err)
	}
	// 后加的列用幂等 ALTER 补齐，旧库无需重建。
	alters := []string{
		"ALTER TABLE cycles ADD COLUMN halted INTEGER DEFAULT 0",
		"ALTER TABLE cycles ADD COLUMN prompt TEXT",
	}
	for _, q := range alters {
		if _, err := s.db.Exec(q); err != nil {
			// 列已存在时报错，忽略即可
			continue
		}
	}
	if _, err := s.db.Exec("CREATE INDEX IF NOT EXISTS idx_cycles_ts ON cycles(ts)"); err != nil {
		return err
	}
	return nil
}

// Append 追加一条周期记录。
func (s *Store) Append(ctx context.Context, rec Record) error {
	decisionsJSON, err := json.Marshal(rec.Decisions)
	if err != nil {
		return err
	}
	ts := rec.Timestamp
	if ts == 0 {
		ts = time.Now().Unix()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO cycles(trace_id, ts, prompt, reasoning, decisions, portfolio_value, halted) VALUES(?,?,?,?,?,?,?)",
		rec.TraceID, ts, rec.Prompt, rec.Reasoning, string(decisionsJSON), rec.PortfolioValue, boolToInt(rec.Halted))
	if err != nil {
		return fmt.Errorf("appending cycle record failed: %w", err)
	}
	return nil
}

// Recent 按时间倒序返回最近的周期记录。
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, trace_id, ts, prompt, reasoning, decisions, portfolio_value, halted FROM cycles ORDER BY ts DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var prompt, decisionsJSON sql.NullString
		var halted int
		if err := rows.Scan(&rec.ID, &rec.TraceID, &rec.Timestamp, &prompt, &rec.Reasoning, &decisionsJSON, &rec.PortfolioValue, &halted); err != nil {
			return nil, err
		}
		rec.Prompt = prompt.String
		if decisionsJSON.Valid && decisionsJSON.String != "" {
			_ = json.Unmarshal([]byte(decisionsJSON.String), &rec.Decisions)
		}
		rec.Halted = halted != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
