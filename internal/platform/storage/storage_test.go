package storage

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/datatypes"
)

func TestOpen_AppliesMigrations(t *testing.T) {
	dsn := fmt.Sprintf("file:storage-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer Close(db)

	versions, err := NewMigrationManager(db).AppliedVersions()
	if err != nil {
		t.Fatalf("AppliedVersions() error = %v", err)
	}
	want := []string{"001_reference_records", "002_reference_headers"}
	if fmt.Sprint(versions) != fmt.Sprint(want) {
		t.Fatalf("applied versions = %v, want %v", versions, want)
	}

	record := ReferenceRecord{
		ExamType:  "geral",
		Slot:      0,
		URL:       "https://example.org/a.jpg",
		Path:      "reference_data/geral_normal_0.jpg",
		Size:      42,
		Headers:   datatypes.JSON(`{"Content-Type":"image/jpeg"}`),
		FetchedAt: time.Now(),
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("insert record: %v", err)
	}

	duplicate := record
	duplicate.ID = 0
	if err := db.Create(&duplicate).Error; err == nil {
		t.Fatal("expected unique (exam_type, slot) violation")
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "data", "refs.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer Close(db)

	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	var count int64
	db.Model(&MigrationRecord{}).Count(&count)
	if count != 2 {
		t.Fatalf("expected 2 migration records, got %d", count)
	}
}

func TestRollbackMigration_Unknown(t *testing.T) {
	dsn := fmt.Sprintf("file:rollback-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer Close(db)

	if err := NewMigrationManager(db).RollbackMigration("999_missing"); err == nil {
		t.Fatal("expected error for unknown migration")
	}
}
