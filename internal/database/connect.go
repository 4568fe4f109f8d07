package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Connect opens the batch run store. A non-empty postgres DSN takes precedence;
// otherwise a local sqlite file is used, which keeps standalone deployments free of
// external infrastructure.
func Connect(postgresDSN, sqlitePath string) (*gorm.DB, error) {
	if postgresDSN != "" {
		db, err := gorm.Open(postgres.Open(postgresDSN), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return db, nil
	}

	if sqlitePath == "" {
		return nil, fmt.Errorf("either a postgres dsn or a sqlite path must be provided")
	}

	db, err := gorm.Open(sqlite.Open(sqlitePath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return db, nil
}
