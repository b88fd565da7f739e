package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/railzwaylabs/seatbill/internal/audit/domain"
	contractdomain "github.com/railzwaylabs/seatbill/internal/contract/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// autoMigrateVersion marks a schema built by AutoMigrate rather than versioned SQL.
const autoMigrateVersion = "auto"

// Run brings the schema up to date and records it in schema_state. Postgres uses the embedded SQL migrations;
// other drivers use GORM AutoMigrate on the models.
func Run(ctx context.Context, conn *gorm.DB, driver string, log *zap.Logger) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	driver = strings.ToLower(strings.TrimSpace(driver))
	checksum, err := MigrationsChecksum()
	if err != nil {
		return err
	}

	if driver != "postgres" {
		if err := conn.WithContext(ctx).AutoMigrate(&contractdomain.Contract{}, &auditdomain.RunLog{}, &SchemaState{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		if err := recordSchemaState(ctx, conn, driver, autoMigrateVersion, checksum, time.Now()); err != nil {
			return err
		}
		log.Info("schema auto-migrated", zap.String("driver", driver))
		return nil
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	version, err := RunMigrations(ctx, sqlDB)
	if err != nil {
		return err
	}
	if err := recordSchemaState(ctx, conn, driver, strconv.FormatUint(uint64(version), 10), checksum, time.Now()); err != nil {
		return err
	}
	log.Info("schema migrated", zap.Uint("version", version))
	return nil
}

// RunMigrations applies all embedded Postgres migrations under an advisory lock
// and returns the resulting version.
func RunMigrations(ctx context.Context, db *sql.DB) (uint, error) {
	if db == nil {
		return 0, errors.New("migration database handle is required")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	unlock, err := acquireAdvisoryLock(ctx, db)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = unlock(context.Background())
	}()

	latestVersion, err := LatestMigrationVersion()
	if err != nil {
		return 0, err
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return 0, fmt.Errorf("open migrations: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return 0, fmt.Errorf("create migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return 0, fmt.Errorf("create migration driver: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return 0, fmt.Errorf("create migrator: %w", err)
	}

	if _, err := ensureNotDirty(migrator); err != nil {
		return 0, err
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return 0, fmt.Errorf("apply migrations: %w", upErr)
	}

	currentVersion, err := ensureNotDirty(migrator)
	if err != nil {
		return 0, err
	}
	if currentVersion != latestVersion {
		return 0, fmt.Errorf("schema version mismatch after migrate: got %d want %d", currentVersion, latestVersion)
	}
	return currentVersion, nil
}

func ensureNotDirty(migrator *migrate.Migrate) (uint, error) {
	version, dirty, err := migrator.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, nil
		}
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	if dirty {
		return 0, fmt.Errorf("database migrations are dirty at version %d", version)
	}
	return version, nil
}
