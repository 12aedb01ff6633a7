package migrations

import (
	"gorm.io/gorm"
)

// Migration001ReferenceRecords creates the reference manifest table.
type Migration001ReferenceRecords struct{}

func (m *Migration001ReferenceRecords) Version() string {
	return "001_reference_records"
}

func (m *Migration001ReferenceRecords) Description() string {
	return "Create reference_records manifest table"
}

func (m *Migration001ReferenceRecords) Up(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS reference_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			exam_type VARCHAR(64) NOT NULL,
			slot INTEGER NOT NULL,
			url TEXT NOT NULL,
			path TEXT NOT NULL,
			size INTEGER NOT NULL,
			sha256 VARCHAR(64),
			fetched_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return err
	}
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_reference_slot ON reference_records(exam_type, slot)`).Error; err != nil {
		return err
	}
	return db.Exec(`CREATE INDEX IF NOT EXISTS idx_reference_records_fetched_at ON reference_records(fetched_at)`).Error
}

func (m *Migration001ReferenceRecords) Down(db *gorm.DB) error {
	return db.Exec(`DROP TABLE IF EXISTS reference_records`).Error
}
