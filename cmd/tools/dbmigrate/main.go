// cmd/tools/dbmigrate/main.go
//
// Standalone migration runner for operating on a courtbook database
// outside of the server process.
//
// Usage:
//
//	dbmigrate -db courtbook.db -migrations internal/db/migrations up
//	dbmigrate -db courtbook.db -migrations internal/db/migrations down
//	dbmigrate -db courtbook.db -migrations internal/db/migrations version
//	dbmigrate -db courtbook.db -migrations internal/db/migrations force 1
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	var (
		dbPath         = flag.String("db", "", "path to the SQLite database")
		migrationsPath = flag.String("migrations", "", "path to the migrations directory")
	)
	flag.Parse()

	if *dbPath == "" || *migrationsPath == "" || flag.NArg() < 1 {
		log.Println("usage: dbmigrate -db <file> -migrations <dir> <up|down|version|force N>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(*dbPath, *migrationsPath, flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func run(dbPath, migrationsPath string, args []string) error {
	absDB, err := filepath.Abs(dbPath)
	if err != nil {
		return fmt.Errorf("invalid database path: %w", err)
	}

	absMigrations, err := filepath.Abs(migrationsPath)
	if err != nil {
		return fmt.Errorf("invalid migrations path: %w", err)
	}
	if _, err := os.Stat(absMigrations); os.IsNotExist(err) {
		return fmt.Errorf("migrations directory does not exist: %s", absMigrations)
	}

	if err := os.MkdirAll(filepath.Dir(absDB), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	m, err := migrate.New(
		fmt.Sprintf("file://%s", absMigrations),
		fmt.Sprintf("sqlite3://%s", absDB),
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	switch args[0] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Println("migrations applied")

	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to rollback migrations: %w", err)
		}
		log.Println("migrations rolled back")

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		log.Printf("version=%d dirty=%v", version, dirty)

	case "force":
		if len(args) < 2 {
			return errors.New("force requires a version argument")
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		if err := m.Force(v); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
		log.Printf("forced version to %d", v)

	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
	return nil
}
