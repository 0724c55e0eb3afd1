package database

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/pkg/errors"
)

type MigrationLogger struct {
	ectologger.Logger
}

func (l MigrationLogger) Verbose() bool {
	return true
}

func (l MigrationLogger) Printf(format string, v ...any) {
	l.Infof(format, v...)
}

type MigrationConfig struct {
	MigrationFolderPath string
	Version             uint // 0 migrates to latest
}

type MigrationService struct {
	config *MigrationConfig
	logger ectologger.Logger
}

func NewMigrationService(logger ectologger.Logger, config *MigrationConfig) *MigrationService {
	return &MigrationService{
		config: config,
		logger: logger,
	}
}

// resolveMigrationFolder tries the configured path as given, then relative to
// the working directory. Containers and local runs disagree on cwd.
func (ms *MigrationService) resolveMigrationFolder() string {
	migrationFolder := ms.config.MigrationFolderPath
	if _, err := os.Stat(migrationFolder); err == nil {
		return migrationFolder
	}
	workingDirectory, _ := os.Getwd()
	separator := ""
	if workingDirectory != "/" {
		separator = "/"
	}
	return workingDirectory + separator + migrationFolder
}

func (ms *MigrationService) Migrate(databaseName string, databaseInstance database.Driver) error {
	migrationFolder := ms.resolveMigrationFolder()
	if _, err := os.Stat(migrationFolder); err != nil {
		return errors.Wrap(err, fmt.Sprintf("migration folder %s does not exist", migrationFolder))
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationFolder, databaseName, databaseInstance)
	if err != nil {
		ms.logger.WithError(err).Error("Failed to create migrate instance")
		return err
	}

	m.Log = MigrationLogger{Logger: ms.logger}

	return ms.runMigration(m)
}

func (ms *MigrationService) runMigration(m *migrate.Migrate) error {
	startTime := time.Now()

	var migrationErr error
	if ms.config.Version != 0 {
		migrationErr = m.Migrate(ms.config.Version)
	} else {
		migrationErr = m.Up()
	}

	ms.logger.Infof("Database migrations completed in %v", time.Since(startTime))

	return ms.handleMigrationError(m, migrationErr)
}

func (ms *MigrationService) handleMigrationError(m *migrate.Migrate, err error) error {
	if err == nil {
		ms.logger.Info("Successfully applied migrations")
		return nil
	}

	if err == migrate.ErrNoChange {
		ms.logger.Info("No new migrations to apply")
		return nil
	}

	if strings.Contains(err.Error(), "no migration found for version") {
		// Usually a rollback left the schema version ahead of the folder.
		ms.logger.WithError(err).Warn("Schema version is ahead of available migrations")
		return err
	}

	version, dirty, versionErr := m.Version()
	if versionErr != nil && versionErr != migrate.ErrNilVersion {
		ms.logger.WithError(versionErr).Error("Failed to get current migration version")
	}

	ms.logger.WithError(err).Errorf("Failed to apply migrations. Database version is dirty=%t at version %d", dirty, version)
	return err
}
