package db

import "gorm.io/gorm"

// ForUpdateSuffix returns the row-lock suffix for raw queries that need
// SELECT ... FOR UPDATE semantics. SQLite has no row locks; its
// single-writer model already serializes the read-then-write sequences
// the lock protects.
func ForUpdateSuffix(tx *gorm.DB) string {
	switch tx.Dialector.Name() {
	case "postgres", "mysql":
		return " FOR UPDATE"
	default:
		return ""
	}
}
