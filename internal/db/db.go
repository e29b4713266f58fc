package db

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/yusufkecer/macro-tracker-backend/internal/config"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite"
)

// DB is a connection pool tagged with the SQL dialect spoken by its driver.
type DB struct {
	*sql.DB
	Dialect Dialect
}

func Connect(cfg *config.Config) (*DB, error) {
	if cfg.DBDriver == string(SQLite) {
		return OpenSQLite(cfg.SQLitePath)
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("database connection established (mysql)")
	return &DB{DB: db, Dialect: MySQL}, nil
}

// OpenSQLite opens a single-connection SQLite pool with foreign keys on.
// A single connection keeps ":memory:" databases alive across queries.
func OpenSQLite(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("database connection established (sqlite %s)", path)
	return &DB{DB: db, Dialect: SQLite}, nil
}
