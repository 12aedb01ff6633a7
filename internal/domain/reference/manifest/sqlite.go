package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"exam-analyzer-go/internal/platform/storage"
)

type sqliteStore struct {
	db *gorm.DB
}

// NewSQLite builds a store on an already migrated database.
func NewSQLite(db *gorm.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite store requires database handle")
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Record(ctx context.Context, rec Record) error {
	if rec.ExamType == "" {
		return fmt.Errorf("exam type required")
	}
	headers, err := json.Marshal(rec.Headers)
	if err != nil {
		return err
	}
	row := &storage.ReferenceRecord{
		ExamType:  rec.ExamType,
		Slot:      rec.Index,
		URL:       rec.URL,
		Path:      rec.Path,
		Size:      rec.Size,
		SHA256:    rec.SHA256,
		Headers:   datatypes.JSON(headers),
		FetchedAt: rec.FetchedAt,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "exam_type"}, {Name: "slot"}},
		DoUpdates: clause.AssignmentColumns([]string{"url", "path", "size", "sha256", "headers", "fetched_at"}),
	}).Create(row).Error
}

func (s *sqliteStore) Get(ctx context.Context, examType string, index int) (Record, error) {
	var row storage.ReferenceRecord
	err := s.db.WithContext(ctx).
		Where("exam_type = ? AND slot = ?", examType, index).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return fromRow(row), nil
}

func (s *sqliteStore) List(ctx context.Context) ([]Record, error) {
	var rows []storage.ReferenceRecord
	if err := s.db.WithContext(ctx).Order("exam_type, slot").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

func (s *sqliteStore) Stats(ctx context.Context) (map[string]any, error) {
	var agg struct {
		Total int64
		Bytes int64
	}
	err := s.db.WithContext(ctx).
		Model(&storage.ReferenceRecord{}).
		Select("COUNT(*) AS total, COALESCE(SUM(size), 0) AS bytes").
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type":  DriverSQLite,
		"total": agg.Total,
		"bytes": agg.Bytes,
	}, nil
}

// Close leaves the shared database handle open; its owner closes it.
func (s *sqliteStore) Close(context.Context) error {
	return nil
}

func fromRow(row storage.ReferenceRecord) Record {
	rec := Record{
		ExamType:  row.ExamType,
		Index:     row.Slot,
		URL:       row.URL,
		Path:      row.Path,
		Size:      row.Size,
		SHA256:    row.SHA256,
		FetchedAt: row.FetchedAt,
	}
	if len(row.Headers) > 0 {
		var headers map[string]string
		if err := json.Unmarshal(row.Headers, &headers); err == nil {
			rec.Headers = headers
		}
	}
	return rec
}
