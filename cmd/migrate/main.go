package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/hirepurchase/ledger/internal/infrastructure/config"
	"github.com/hirepurchase/ledger/internal/infrastructure/logger"
	"github.com/hirepurchase/ledger/internal/infrastructure/migration"
	"github.com/hirepurchase/ledger/internal/infrastructure/persistence"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsDir = "migrations"

var errUsage = errors.New("usage")

func main() {
	var (
		migrationsPath string
		logLevel       string
	)

	flag.StringVar(&migrationsPath, "path", "", "Migrations directory (default: migrations embedded in the binary)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if err := run(context.Background(), log, migrationsPath, args); err != nil {
		if errors.Is(err, errUsage) {
			printUsage()
		}
		log.Error("Migration command failed", zap.String("command", args[0]), zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *zap.Logger, migrationsPath string, args []string) error {
	command := args[0]
	log.Info("Migration CLI started", zap.String("command", command))

	// create and list work on a directory and need no database
	switch command {
	case "create":
		if len(args) < 2 {
			return fmt.Errorf("%w: migrate create <name> [description]", errUsage)
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		mf, err := migration.CreateMigration(dirOrDefault(migrationsPath), args[1], description)
		if err != nil {
			return err
		}
		log.Info("Migration created",
			zap.String("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return nil

	case "list":
		return listMigrations(log, migrationsPath)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.Database.Driver == "sqlite" {
		return runSQLite(ctx, log, &cfg.Database, command)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	m, err := migration.New(db, migrationsPath, log)
	if err != nil {
		return err
	}
	defer m.Close()

	return runPostgres(log, m, command, args[1:])
}

func runPostgres(log *zap.Logger, m *migration.Migrator, command string, rest []string) error {
	switch command {
	case "up":
		return m.Up()

	case "down":
		return m.Down()

	case "step":
		if len(rest) < 1 {
			return fmt.Errorf("%w: migrate step <n>", errUsage)
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil {
			return fmt.Errorf("invalid step count %q", rest[0])
		}
		return m.Steps(n)

	case "goto":
		if len(rest) < 1 {
			return fmt.Errorf("%w: migrate goto <version>", errUsage)
		}
		version, err := strconv.ParseUint(rest[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid version number %q", rest[0])
		}
		return m.GoTo(uint(version))

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		if version == 0 {
			log.Info("No migrations applied")
			return nil
		}
		log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil

	case "force":
		if len(rest) < 1 {
			return fmt.Errorf("%w: migrate force <version>", errUsage)
		}
		version, err := strconv.Atoi(rest[0])
		if err != nil {
			return fmt.Errorf("invalid version number %q", rest[0])
		}
		return m.Force(version)

	case "drop":
		if !hasConfirm(rest) {
			return errors.New("drop cancelled, use 'migrate drop -confirm' to confirm")
		}
		return m.Drop()
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, command)
}

// runSQLite supports only "up"; sqlite databases are built from the persistence models
func runSQLite(ctx context.Context, log *zap.Logger, cfg *config.DatabaseConfig, command string) error {
	if command != "up" {
		return fmt.Errorf("command %q is not supported for the sqlite driver", command)
	}
	db, err := persistence.NewDatabase(cfg, persistence.WithZapLogger(log, 0))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.AutoMigrate(ctx); err != nil {
		return err
	}
	log.Info("SQLite schema is up to date", zap.String("path", cfg.Path))
	return nil
}

func listMigrations(log *zap.Logger, migrationsPath string) error {
	var (
		names []string
		err   error
	)
	if migrationsPath == "" {
		names, err = migration.EmbeddedFiles()
	} else {
		names, err = migration.ListMigrations(migrationsPath)
	}
	if err != nil {
		return err
	}
	if len(names) == 0 {
		log.Info("No migrations found")
		return nil
	}
	log.Info("Available migrations", zap.Int("count", len(names)))
	for _, n := range names {
		fmt.Println("  -", n)
	}
	return nil
}

func dirOrDefault(path string) string {
	if path == "" {
		return defaultMigrationsDir
	}
	return path
}

func hasConfirm(args []string) bool {
	for _, arg := range args {
		if arg == "-confirm" || arg == "--confirm" {
			return true
		}
	}
	return false
}

func printUsage() {
	fmt.Println(`Hire-purchase ledger migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  goto <version>        Migrate to a specific version
  version               Show current migration version
  force <version>       Force set migration version (use with caution)
  drop -confirm         Drop all ledger tables (DANGEROUS)
  create <name> [desc]  Create the next sequential migration file pair
  list                  List available migrations

Flags:
  -path string          Migrations directory (default: embedded; create uses ./migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  HPL_DATABASE_DRIVER, HPL_DATABASE_HOST, HPL_DATABASE_PORT, HPL_DATABASE_USER,
  HPL_DATABASE_PASSWORD, HPL_DATABASE_DBNAME, HPL_DATABASE_SSLMODE, HPL_DATABASE_PATH

Examples:
  migrate up
  migrate step -1
  migrate create add_payment_date_index "Index payments by date"
  HPL_DATABASE_DRIVER=sqlite HPL_DATABASE_PATH=ledger.db migrate up`)
}
