package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"qdadoc/internal/config"
	"qdadoc/internal/logging"
)

type migrationStep struct {
	Name string
	SQL  string
}

var mysqlSteps = []migrationStep{
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id          CHAR(36)     NOT NULL PRIMARY KEY,
  name        VARCHAR(255) NOT NULL,
  content     MEDIUMTEXT   NOT NULL,
  size        BIGINT       NOT NULL,
  owner       VARCHAR(100) NULL,
  memo        TEXT         NULL,
  created_at  DATETIME(6)  NOT NULL,
  modified_at DATETIME(6)  NOT NULL,
  CONSTRAINT chk_documents_size CHECK (size >= 0),
  INDEX idx_documents_name (name),
  INDEX idx_documents_created_at (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
	},
}

var postgresSteps = []migrationStep{
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id          UUID         PRIMARY KEY,
  name        VARCHAR(255) NOT NULL,
  content     TEXT         NOT NULL,
  size        BIGINT       NOT NULL CHECK (size >= 0),
  owner       VARCHAR(100),
  memo        TEXT,
  created_at  TIMESTAMPTZ  NOT NULL DEFAULT now(),
  modified_at TIMESTAMPTZ  NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_name",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_name ON documents (name);`,
	},
	{
		Name: "create_index_documents_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents (created_at);`,
	},
}

const (
	mysqlSentinel    = `SELECT COUNT(*) > 0 FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = 'documents'`
	postgresSentinel = `SELECT to_regclass('public.documents') IS NOT NULL`
)

func plan(driver string) (string, []migrationStep, error) {
	switch driver {
	case config.DriverMySQL, "":
		return mysqlSentinel, mysqlSteps, nil
	case config.DriverPostgres:
		return postgresSentinel, postgresSteps, nil
	default:
		return "", nil, fmt.Errorf("no migrations for driver %q", driver)
	}
}

// EnsureMigrated checks if the 'documents' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *logging.Logger, driver, dbHost string) error {
	start := time.Now()

	sentinel, steps, err := plan(driver)
	if err != nil {
		return err
	}

	log.Log(map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_driver": driver,
		"db_host":   dbHost,
	})

	var exists bool
	if err := db.QueryRowContext(ctx, sentinel).Scan(&exists); err != nil {
		log.Log(map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.Log(map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	log.Log(map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Log(map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.Log(map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	log.Log(map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}
