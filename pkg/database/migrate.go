package database

import (
	"context"
	"database/sql"
	"fmt"

	"desabafa/pkg/database/migrations"
	"desabafa/pkg/logger"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("versão do schema: %w", err)
	}
	logger.Named("db").Info("schema atualizado", zap.Int64("version", version))
	return nil
}
