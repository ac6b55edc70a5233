package internal

import (
	"context"
	"fmt"

	"RPG-CARDS/internal/config"
	"RPG-CARDS/internal/ctxlog"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB connects to MySQL and makes sure the audit tables exist. Template and
// dataset state is never stored here.
func InitDB(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := autoMigrate(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	ctxlog.FromContext(ctx).Info("database connected and migrated")
	return db, nil
}

func autoMigrate(ctx context.Context, db *gorm.DB) error {
	log := ctxlog.FromContext(ctx)

	// Create tables only if they don't exist (preserve existing data)
	log.Debug("ensuring activity_logs table exists")
	result := db.Exec(`
        CREATE TABLE IF NOT EXISTS activity_logs (
            id varchar(36) PRIMARY KEY,
            session_id varchar(36),
            method varchar(10) NOT NULL,
            path varchar(255) NOT NULL,
            route varchar(255),
            user_agent text,
            ip_address varchar(45),
            request_body text,
            query_params text,
            status_code int NOT NULL,
            response_time bigint NOT NULL,
            created_at datetime(3) NULL,
            updated_at datetime(3) NULL,
            deleted_at datetime(3) NULL,
            INDEX idx_activity_logs_session_id (session_id),
            INDEX idx_activity_logs_deleted_at (deleted_at),
            INDEX idx_activity_logs_method (method),
            INDEX idx_activity_logs_created_at (created_at)
        )
    `)
	if result.Error != nil {
		return fmt.Errorf("failed to create activity_logs table: %w", result.Error)
	}

	ensureActivityLogColumns := map[string]string{
		"session_id": "ALTER TABLE activity_logs ADD COLUMN session_id varchar(36)",
		"route":      "ALTER TABLE activity_logs ADD COLUMN route varchar(255)",
	}
	for column, stmt := range ensureActivityLogColumns {
		if err := ensureColumn(ctx, db, "activity_logs", column, stmt); err != nil {
			return err
		}
	}

	log.Debug("ensuring published_exports table exists")
	result = db.Exec(`
        CREATE TABLE IF NOT EXISTS published_exports (
            id varchar(36) PRIMARY KEY,
            session_id varchar(36) NOT NULL,
            object_name longtext NOT NULL,
            file_size bigint,
            card_count int,
            skipped_rows int,
            fields json,
            created_at datetime(3) NULL,
            updated_at datetime(3) NULL,
            deleted_at datetime(3) NULL,
            INDEX idx_published_exports_session_id (session_id),
            INDEX idx_published_exports_deleted_at (deleted_at)
        )
    `)
	if result.Error != nil {
		return fmt.Errorf("failed to create published_exports table: %w", result.Error)
	}

	return nil
}

func ensureColumn(ctx context.Context, db *gorm.DB, table, column, statement string) error {
	if db.Migrator().HasColumn(table, column) {
		return nil
	}

	ctxlog.FromContext(ctx).Info("adding missing column", "table", table, "column", column)
	if err := db.Exec(statement).Error; err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, column, err)
	}

	return nil
}

func CloseDB(db *gorm.DB) error {
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
