package migrations

import (
	"gorm.io/gorm"
)

// Migration002ReferenceHeaders stores selected response headers per download.
type Migration002ReferenceHeaders struct{}

func (m *Migration002ReferenceHeaders) Version() string {
	return "002_reference_headers"
}

func (m *Migration002ReferenceHeaders) Description() string {
	return "Add headers column to reference_records"
}

func (m *Migration002ReferenceHeaders) Up(db *gorm.DB) error {
	if db.Migrator().HasColumn("reference_records", "headers") {
		return nil
	}
	return db.Exec(`ALTER TABLE reference_records ADD COLUMN headers JSON`).Error
}

// Down is a no-op; older SQLite builds cannot drop columns.
func (m *Migration002ReferenceHeaders) Down(db *gorm.DB) error {
	return nil
}
