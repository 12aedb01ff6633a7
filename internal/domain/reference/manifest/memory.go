package manifest

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type memoryKey struct {
	examType string
	index    int
}

type memoryStore struct {
	mu    sync.RWMutex
	items map[memoryKey]Record
}

func NewMemory() Store {
	return &memoryStore{items: make(map[memoryKey]Record)}
}

func (s *memoryStore) Record(_ context.Context, rec Record) error {
	if rec.ExamType == "" {
		return fmt.Errorf("exam type required")
	}
	s.mu.Lock()
	s.items[memoryKey{rec.ExamType, rec.Index}] = cloneRecord(rec)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Get(_ context.Context, examType string, index int) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[memoryKey{examType, index}]
	if !ok {
		return Record{}, ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *memoryStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	out := make([]Record, 0, len(s.items))
	for _, rec := range s.items {
		out = append(out, cloneRecord(rec))
	}
	s.mu.RUnlock()
	sortRecords(out)
	return out, nil
}

func (s *memoryStore) Stats(_ context.Context) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var bytes int64
	for _, rec := range s.items {
		bytes += rec.Size
	}
	return map[string]any{
		"type":  DriverMemory,
		"total": len(s.items),
		"bytes": bytes,
	}, nil
}

func (s *memoryStore) Close(context.Context) error {
	return nil
}

func cloneRecord(rec Record) Record {
	if rec.Headers != nil {
		headers := make(map[string]string, len(rec.Headers))
		for k, v := range rec.Headers {
			headers[k] = v
		}
		rec.Headers = headers
	}
	return rec
}

func sortRecords(recs []Record) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].ExamType != recs[j].ExamType {
			return recs[i].ExamType < recs[j].ExamType
		}
		return recs[i].Index < recs[j].Index
	})
}
