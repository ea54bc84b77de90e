// Package journal persists a record of realtime events and dashboard action
// outcomes, either as rotating JSONL files or in SQLite.
package journal

import (
	"context"
	"fmt"
	"time"
)

// Kind classifies a record.
type Kind string

const (
	KindEvent  Kind = "event"
	KindAction Kind = "action"
)

// Outcomes of an action record.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Record is one journal line.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name"`
	Outcome   string    `json:"outcome,omitempty"`
	Message   string    `json:"message,omitempty"`
	// DurationMS is set for action records.
	DurationMS int64 `json:"duration_ms,omitempty"`
}

// Query filters records. Zero fields match everything.
type Query struct {
	Start time.Time
	End   time.Time
	Kind  Kind
	Name  string
	// Limit keeps only the most recent records when positive.
	Limit int
}

func (q Query) match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	if q.Name != "" && r.Name != q.Name {
		return false
	}
	return true
}

func (q Query) limit(rs []Record) []Record {
	if q.Limit > 0 && len(rs) > q.Limit {
		return rs[len(rs)-q.Limit:]
	}
	return rs
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Backends accepted by Config.
const (
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
	BackendNone   = "none"
)

// Config selects and tunes the journal backend.
type Config struct {
	// Backend is "jsonl", "sqlite" or "none".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation of the JSONL file.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files kept.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendJSONL
	}
	if c.Path == "" {
		switch c.Backend {
		case BackendSQLite:
			c.Path = "kmrl-journal.db"
		default:
			c.Path = "kmrl-journal.jsonl"
		}
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = 3
	}
	if c.MaxAgeDays <= 0 {
		c.MaxAgeDays = 7
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendJSONL, BackendSQLite, BackendNone:
	default:
		return fmt.Errorf("journal: unknown backend %q", c.Backend)
	}
	if c.Backend != BackendNone && c.Path == "" {
		return fmt.Errorf("journal: path is required")
	}
	return nil
}

// Open creates the store selected by cfg. The "none" backend returns a nil
// store.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendNone:
		return nil, nil
	case BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	case BackendJSONL:
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	default:
		return nil, fmt.Errorf("journal: unknown backend %q", cfg.Backend)
	}
}
