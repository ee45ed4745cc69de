package database

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ConnectSQLite opens a local SQLite database file. Grading desks often run
// on a single machine without a managed database; SQLite is the fallback
// when no postgres DSN is configured.
func ConnectSQLite(path string) (*gorm.DB, error) {
	if path == "" {
		path = "markdesk.db"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}

	return db, nil
}
