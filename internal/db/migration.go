package db

import (
	"fmt"
	"log"
	"strings"
)

type migration struct {
	version string
	mysql   string
	sqlite  string
}

func (m migration) sql(d Dialect) string {
	if d == SQLite {
		return m.sqlite
	}
	return m.mysql
}

var migrations = []migration{
	{
		version: "000_create_accounts",
		mysql: `
			CREATE TABLE IF NOT EXISTS accounts (
				id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
				username      VARCHAR(20)  NOT NULL UNIQUE,
				email         VARCHAR(255) NOT NULL UNIQUE,
				password_hash VARCHAR(255) NOT NULL,
				created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
				updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
			)`,
		sqlite: `
			CREATE TABLE IF NOT EXISTS accounts (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				username      TEXT NOT NULL UNIQUE,
				email         TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				created_at    DATETIME,
				updated_at    DATETIME
			)`,
	},
	{
		version: "001_create_profiles",
		mysql: `
			CREATE TABLE IF NOT EXISTS profiles (
				account_id     BIGINT UNSIGNED PRIMARY KEY,
				height_cm      DOUBLE,
				weight_kg      DOUBLE,
				age            INT,
				sex            VARCHAR(10),
				activity_level VARCHAR(20) NOT NULL DEFAULT 'sedentary',
				goal           VARCHAR(10) NOT NULL DEFAULT 'maintain',
				calorie_goal   INT,
				updated_at     DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
			)`,
		sqlite: `
			CREATE TABLE IF NOT EXISTS profiles (
				account_id     INTEGER PRIMARY KEY REFERENCES accounts(id) ON DELETE CASCADE,
				height_cm      REAL,
				weight_kg      REAL,
				age            INTEGER,
				sex            TEXT,
				activity_level TEXT NOT NULL DEFAULT 'sedentary',
				goal           TEXT NOT NULL DEFAULT 'maintain',
				calorie_goal   INTEGER,
				updated_at     DATETIME
			)`,
	},
	{
		version: "002_create_food_logs",
		mysql: `
			CREATE TABLE IF NOT EXISTS food_logs (
				id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
				account_id   BIGINT UNSIGNED NOT NULL,
				date         VARCHAR(10)  NOT NULL,
				meal_type    VARCHAR(20)  NOT NULL DEFAULT 'snack',
				food_name    VARCHAR(200) NOT NULL,
				brand        VARCHAR(200) NOT NULL DEFAULT '',
				barcode      VARCHAR(50)  NOT NULL DEFAULT '',
				serving_size DOUBLE NOT NULL DEFAULT 1,
				serving_unit VARCHAR(50) NOT NULL DEFAULT 'serving',
				calories     DOUBLE NOT NULL DEFAULT 0,
				protein      DOUBLE NOT NULL DEFAULT 0,
				carbs        DOUBLE NOT NULL DEFAULT 0,
				fat          DOUBLE NOT NULL DEFAULT 0,
				fiber        DOUBLE NOT NULL DEFAULT 0,
				sugar        DOUBLE NOT NULL DEFAULT 0,
				sodium       DOUBLE NOT NULL DEFAULT 0,
				created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
			);
			CREATE INDEX idx_food_logs_account_date ON food_logs (account_id, date)`,
		sqlite: `
			CREATE TABLE IF NOT EXISTS food_logs (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				account_id   INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
				date         TEXT NOT NULL,
				meal_type    TEXT NOT NULL DEFAULT 'snack',
				food_name    TEXT NOT NULL,
				brand        TEXT NOT NULL DEFAULT '',
				barcode      TEXT NOT NULL DEFAULT '',
				serving_size REAL NOT NULL DEFAULT 1,
				serving_unit TEXT NOT NULL DEFAULT 'serving',
				calories     REAL NOT NULL DEFAULT 0,
				protein      REAL NOT NULL DEFAULT 0,
				carbs        REAL NOT NULL DEFAULT 0,
				fat          REAL NOT NULL DEFAULT 0,
				fiber        REAL NOT NULL DEFAULT 0,
				sugar        REAL NOT NULL DEFAULT 0,
				sodium       REAL NOT NULL DEFAULT 0,
				created_at   DATETIME
			);
			CREATE INDEX IF NOT EXISTS idx_food_logs_account_date ON food_logs (account_id, date)`,
	},
	{
		version: "003_create_profile_snapshots",
		mysql: `
			CREATE TABLE IF NOT EXISTS profile_snapshots (
				id              BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
				account_id      BIGINT UNSIGNED NOT NULL,
				date            VARCHAR(10) NOT NULL,
				weight_kg       DOUBLE NOT NULL,
				height_cm       DOUBLE NOT NULL,
				age             INT NOT NULL,
				sex             VARCHAR(10) NOT NULL,
				activity_level  VARCHAR(20) NOT NULL,
				goal            VARCHAR(10) NOT NULL,
				bmi             DOUBLE NOT NULL,
				bmi_category    VARCHAR(20) NOT NULL,
				bmr             DOUBLE NOT NULL,
				tdee            DOUBLE NOT NULL,
				target_calories DOUBLE NOT NULL,
				protein_g       INT NOT NULL,
				carbs_g         INT NOT NULL,
				fat_g           INT NOT NULL,
				weight_diff     DOUBLE,
				created_at      DATETIME DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
			)`,
		sqlite: `
			CREATE TABLE IF NOT EXISTS profile_snapshots (
				id              INTEGER PRIMARY KEY AUTOINCREMENT,
				account_id      INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
				date            TEXT NOT NULL,
				weight_kg       REAL NOT NULL,
				height_cm       REAL NOT NULL,
				age             INTEGER NOT NULL,
				sex             TEXT NOT NULL,
				activity_level  TEXT NOT NULL,
				goal            TEXT NOT NULL,
				bmi             REAL NOT NULL,
				bmi_category    TEXT NOT NULL,
				bmr             REAL NOT NULL,
				tdee            REAL NOT NULL,
				target_calories REAL NOT NULL,
				protein_g       INTEGER NOT NULL,
				carbs_g         INTEGER NOT NULL,
				fat_g           INTEGER NOT NULL,
				weight_diff     REAL,
				created_at      DATETIME
			)`,
	},
	{
		version: "004_create_password_reset_tokens",
		mysql: `
			CREATE TABLE IF NOT EXISTS password_reset_tokens (
				id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
				account_id BIGINT UNSIGNED NOT NULL,
				token      VARCHAR(6) NOT NULL,
				expires_at DATETIME NOT NULL,
				used       TINYINT NOT NULL DEFAULT 0,
				FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
			)`,
		sqlite: `
			CREATE TABLE IF NOT EXISTS password_reset_tokens (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				account_id INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
				token      TEXT NOT NULL,
				expires_at DATETIME NOT NULL,
				used       INTEGER NOT NULL DEFAULT 0
			)`,
	},
	{
		version: "005_add_reset_token_attempts",
		mysql:   `ALTER TABLE password_reset_tokens ADD COLUMN attempts INT NOT NULL DEFAULT 0`,
		sqlite:  `ALTER TABLE password_reset_tokens ADD COLUMN attempts INTEGER NOT NULL DEFAULT 0`,
	},
}

func RunMigrations(db *DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    VARCHAR(255) PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		applied, err := isMigrationApplied(db, m.version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		if err := executeMigration(db, m); err != nil {
			return err
		}

		log.Printf("applied migration: %s", m.version)
	}

	return nil
}

func isMigrationApplied(db *DB, version string) (bool, error) {
	var count int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM schema_migrations WHERE version = ?",
		version,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check migration %s: %w", version, err)
	}
	return count > 0, nil
}

func executeMigration(db *DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for %s: %w", m.version, err)
	}

	for _, stmt := range strings.Split(m.sql(db.Dialect), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %s: %w", m.version, err)
		}
	}

	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version) VALUES (?)",
		m.version,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %s: %w", m.version, err)
	}

	return tx.Commit()
}
