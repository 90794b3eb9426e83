// Command migrate manages the rental schema outside the server process.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/rental/backend/internal/infrastructure/config"
	"github.com/rental/backend/internal/infrastructure/logger"
	"github.com/rental/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

const (
	defaultSourceDir = "internal/infrastructure/migration/sql"
	usage            = `Usage: migrate [-path dir] [-log-level level] <command> [args]

  up                    apply pending migrations
  down                  roll back everything
  steps <n>             move n versions, negative rolls back
  goto <version>        migrate to version
  version               print the applied version
  force <version>       set version without running SQL (clears dirty)
  create <name> [desc]  add an empty up/down pair for every driver
  list                  list the migration files

-path points at a directory holding postgres/ and sqlite/; the embedded set
is used otherwise. The database comes from config.toml or RENTAL_DATABASE_*.`
)

// errUsage makes main print the usage text
var errUsage = errors.New("bad usage")

// dbCommands need an open Migrator
var dbCommands = map[string]func(m *migration.Migrator, args []string, log *zap.Logger) error{
	"up":   func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Up() },
	"down": func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Down() },
	"steps": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Steps(n)
	},
	"goto": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		n, err := intArg(args)
		if err != nil || n < 0 {
			return errors.Join(errUsage, err)
		}
		return m.GoTo(uint(n))
	},
	"force": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Force(n)
	},
	"version": func(m *migration.Migrator, _ []string, log *zap.Logger) error {
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("Schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	},
}

func main() {
	path := flag.String("path", "", "migrations root holding one directory per driver")
	level := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	log, err := logger.New(&logger.Config{Level: *level, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	err = run(flag.Args(), *path, log)
	if errors.Is(err, errUsage) {
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("Migration command failed", zap.Error(err))
	}
}

func run(args []string, path string, log *zap.Logger) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]

	// create only writes files and needs neither config nor a database
	if cmd == "create" {
		return create(rest, path, log)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	driver := cfg.Database.Driver
	dir := ""
	if path != "" {
		if dir, err = filepath.Abs(filepath.Join(path, driver)); err != nil {
			return err
		}
	}
	log.Info("Migrate", zap.String("command", cmd), zap.String("driver", driver), zap.String("source", orDefault(dir, "embedded")))

	if cmd == "list" {
		return list(driver, dir)
	}
	fn, ok := dbCommands[cmd]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	name := "postgres"
	if driver == config.DriverSQLite {
		name = "sqlite3"
	}
	db, err := sql.Open(name, cfg.Database.DSN())
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	var opts []migration.Option
	if dir != "" {
		opts = append(opts, migration.FromDir(dir))
	}
	m, err := migration.New(db, driver, log, opts...)
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Close migrator", zap.Error(err))
		}
	}()
	return fn(m, rest, log)
}

func create(args []string, path string, log *zap.Logger) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: create needs a name", errUsage)
	}
	desc := ""
	if len(args) > 1 {
		desc = args[1]
	}
	files, err := migration.CreateMigration(orDefault(path, defaultSourceDir), args[0], desc)
	if err != nil {
		return err
	}
	for _, f := range files {
		log.Info("Migration created", zap.String("driver", f.Driver), zap.String("up", f.UpPath), zap.String("down", f.DownPath))
	}
	return nil
}

func list(driver, dir string) error {
	var (
		set fs.FS
		err error
	)
	if dir != "" {
		set = os.DirFS(dir)
	} else if set, err = migration.Source(driver); err != nil {
		return err
	}
	names, err := migration.ListMigrations(set)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func intArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: missing number", errUsage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", errUsage, args[0])
	}
	return n, nil
}

// orDefault returns s, or def when s is empty
func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
