package database

import (
	"database/sql"
	"embed"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/trezcool/syllabus/core"
)

// Supported drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

func init() {
	// sqlx does not know the modernc driver name
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open opens the database configured in conf and waits for it to be reachable.
func Open(conf *core.Config) (*sqlx.DB, error) {
	return open(conf.Database.Driver, conf.Database.URL)
}

// OpenInMemory opens a private in-memory SQLite database with every migration applied.
func OpenInMemory() (*sqlx.DB, error) {
	db, err := open(DriverSQLite, ":memory:")
	if err != nil {
		return nil, err
	}
	if err = Migrate(db.DB, DriverSQLite, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func open(driver, url string) (*sqlx.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, errors.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, url)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if driver == DriverSQLite {
		// one connection: SQLite serializes writers and every :memory: connection is a new database
		db.SetMaxOpenConns(1)
	}
	if err = ping(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sql.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// Migrate runs a goose command (up, down, status, version, redo, reset, ...) against the embedded migrations.
func Migrate(db *sql.DB, driver, command string, args ...string) error {
	dialect := driver
	if driver == DriverSQLite {
		dialect = "sqlite3"
	}
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(dialect); err != nil {
		return errors.Wrap(err, "setting migrations dialect")
	}
	if err := goose.Run(command, db, migrationsDir, args...); err != nil {
		return errors.Wrapf(err, "migrating database (%s)", command)
	}
	return nil
}

// IsUniqueViolation reports whether err was caused by a unique constraint on either supported driver.
func IsUniqueViolation(err error) bool {
	return isPQUniqueViolation(err) || isSQLiteUniqueViolation(err)
}
