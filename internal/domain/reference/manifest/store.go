// Package manifest keeps a best-effort record of reference image downloads.
// It is informational: cache hits are decided by the files on disk.
package manifest

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("manifest record not found")

// Record describes one downloaded reference image.
type Record struct {
	ExamType  string            `json:"exam_type"`
	Index     int               `json:"index"`
	URL       string            `json:"url"`
	Path      string            `json:"path"`
	Size      int64             `json:"size"`
	SHA256    string            `json:"sha256"`
	Headers   map[string]string `json:"headers,omitempty"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// Store persists manifest records keyed by (exam type, index). Recording
// an existing key replaces it.
type Store interface {
	Record(ctx context.Context, rec Record) error
	Get(ctx context.Context, examType string, index int) (Record, error)
	List(ctx context.Context) ([]Record, error)
	Stats(ctx context.Context) (map[string]any, error)
	Close(ctx context.Context) error
}

type Config struct {
	Driver string
	SQLite *SQLiteConfig
	Redis  *RedisConfig
}

type SQLiteConfig struct {
	DSN string
}

type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
}
