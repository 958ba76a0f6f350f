package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"scribe/internal/config"
	"scribe/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes selected by DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// schemaPlan is what ApplySchema will run for a configuration.
type schemaPlan struct {
	Mode string
	SQL  bool
	Auto bool
}

// SchemaStatus describes the database against the plan for its config.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
	// MissingTables lists persistent models with no table yet.
	MissingTables []string
}

func isProdLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

// planFor picks embedded SQL migrations, AutoMigrate or both. The SQL files
// are postgres dialect, so sqlite always auto-migrates. Production-like
// environments never auto-migrate.
func planFor(cfg *config.Config) (schemaPlan, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))
	if mode == "" {
		mode = SchemaModeHybrid
	}
	if cfg.DBDriver == "sqlite" {
		return schemaPlan{Mode: mode, Auto: true}, nil
	}

	prodLike := isProdLikeEnv(cfg.Env)
	switch mode {
	case SchemaModeSQL:
		return schemaPlan{Mode: mode, SQL: true}, nil
	case SchemaModeAuto:
		if prodLike {
			return schemaPlan{}, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q", cfg.Env)
		}
		return schemaPlan{Mode: mode, Auto: true}, nil
	case SchemaModeHybrid:
		return schemaPlan{Mode: mode, SQL: true, Auto: !prodLike}, nil
	default:
		return schemaPlan{}, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", mode)
	}
}

// AutoMigrate creates or updates every persistent table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema brings the schema up to date for cfg.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planFor(cfg)
	if err != nil {
		return err
	}
	if plan.SQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.Auto {
		middleware.Logger.Info("auto-migrating schema",
			slog.String("mode", plan.Mode),
			slog.String("env", cfg.Env),
		)
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// missingTables returns the table names of persistent models that do not
// exist yet.
func missingTables(db *gorm.DB) ([]string, error) {
	var missing []string
	m := db.Migrator()
	for _, model := range PersistentModels() {
		if m.HasTable(model) {
			continue
		}
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse %T: %w", model, err)
		}
		missing = append(missing, stmt.Schema.Table)
	}
	return missing, nil
}

// GetSchemaStatus reports what ApplySchema would do without changing
// anything.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planFor(cfg)
	if err != nil {
		return nil, err
	}
	status := &SchemaStatus{
		Mode:               plan.Mode,
		Environment:        cfg.Env,
		WillRunSQL:         plan.SQL,
		WillRunAutoMigrate: plan.Auto,
	}
	if status.MissingTables, err = missingTables(db.WithContext(ctx)); err != nil {
		return nil, err
	}
	if !plan.SQL {
		return status, nil
	}

	applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	status.AppliedVersions = applied

	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}
	for _, m := range GetMigrations() {
		if !done[m.Version] {
			status.PendingMigrations = append(status.PendingMigrations, m)
		}
	}
	return status, nil
}
