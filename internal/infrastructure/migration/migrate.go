// Package migration applies the versioned SQL schema with golang-migrate.
// Each driver has its own directory of up/down pairs under sql/.
package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

//go:embed sql
var embedded embed.FS

// Source is the embedded migration set for driver
func Source(driver string) (fs.FS, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported migration driver %q", driver)
	}
	return fs.Sub(embedded, "sql/"+driver)
}

type Migrator struct {
	m   *migrate.Migrate
	log *zap.Logger
}

type options struct {
	dir string
}

type Option func(*options)

// FromDir reads migrations from disk instead of the embedded set
func FromDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// New wraps an open connection. Close on the Migrator also closes db.
func New(db *sql.DB, driver string, log *zap.Logger, opts ...Option) (*Migrator, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	target, err := databaseDriver(db, driver)
	if err != nil {
		return nil, err
	}

	var m *migrate.Migrate
	if o.dir != "" {
		m, err = migrate.NewWithDatabaseInstance("file://"+o.dir, driver, target)
	} else {
		var set fs.FS
		if set, err = Source(driver); err != nil {
			return nil, err
		}
		src, serr := iofs.New(set, ".")
		if serr != nil {
			return nil, fmt.Errorf("open embedded migrations: %w", serr)
		}
		m, err = migrate.NewWithInstance("iofs", src, driver, target)
	}
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	return &Migrator{m: m, log: log}, nil
}

func databaseDriver(db *sql.DB, driver string) (database.Driver, error) {
	var (
		d   database.Driver
		err error
	)
	switch driver {
	case DriverPostgres:
		d, err = postgres.WithInstance(db, &postgres.Config{})
	case DriverSQLite:
		d, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	default:
		return nil, fmt.Errorf("unsupported migration driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%s migrate driver: %w", driver, err)
	}
	return d, nil
}

// run treats ErrNoChange as success and logs the resulting version
func (m *Migrator) run(op string, fn func() error, fields ...zap.Field) error {
	m.log.Info("Migration "+op, fields...)
	err := fn()
	if errors.Is(err, migrate.ErrNoChange) {
		m.log.Info("Schema already current", zap.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", op, err)
	}
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.log.Info("Migration finished", zap.String("op", op), zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func (m *Migrator) Up() error {
	return m.run("up", m.m.Up)
}

// Down rolls back every migration
func (m *Migrator) Down() error {
	return m.run("down", m.m.Down)
}

// Steps moves n versions; negative n rolls back
func (m *Migrator) Steps(n int) error {
	return m.run("steps", func() error { return m.m.Steps(n) }, zap.Int("steps", n))
}

func (m *Migrator) GoTo(version uint) error {
	return m.run("goto", func() error { return m.m.Migrate(version) }, zap.Uint("target", version))
}

// Version is 0 on a database no migration has touched
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// Force records version without running anything, clearing a dirty flag
func (m *Migrator) Force(version int) error {
	m.log.Warn("Forcing schema version", zap.Int("version", version))
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}
