package pg

import (
	"fmt"

	"github.com/leasedesk/leasedesk/pkg/logger"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

func Migrate(cfg Config, dir string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db, err := newSqlConnection(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err = goose.Up(db, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	version, err := goose.GetDBVersion(db)
	if err == nil {
		logger.Info("migrations applied", "dir", dir, "version", version)
	}
	return nil
}

func MigrationStatus(cfg Config, dir string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	db, err := newSqlConnection(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return goose.Status(db, dir)
}
