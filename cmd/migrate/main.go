package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/cmlabs-hris/talent-backend-go/internal/config"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/database"
	"github.com/golang-migrate/migrate/v4"
)

const usage = "usage: migrate up | down [steps] | version | force <version>"

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("Migration failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	m, err := database.NewMigrator(cfg.DatabaseURL())
	if err != nil {
		return err
	}
	defer m.Close()

	switch args[0] {
	case "up":
		err = m.Up()
	case "down":
		steps := 1
		if len(args) > 1 {
			if steps, err = strconv.Atoi(args[1]); err != nil || steps < 1 {
				return fmt.Errorf("invalid steps %q", args[1])
			}
		}
		err = m.Steps(-steps)
	case "force":
		if len(args) < 2 {
			return errors.New(usage)
		}
		v, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			return fmt.Errorf("invalid version %q", args[1])
		}
		err = m.Force(v)
	case "version":
	default:
		return errors.New(usage)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	slog.Info("Migration state", "version", version, "dirty", dirty)
	return nil
}
