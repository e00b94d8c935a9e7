package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"desabafa/pkg/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Connect opens the pool and pings it. Pool limits stay small for serverless
// Postgres.
func Connect(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("abrir conexão: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping banco: %w", err)
	}

	logger.Named("db").Info("conexão com PostgreSQL estabelecida")
	return db, nil
}

// UniqueViolation reports whether err is a Postgres unique constraint
// failure (SQLSTATE 23505), optionally on a specific constraint.
func UniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// InTx runs fn inside a transaction, rolling back on error.
func InTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Named("db").Warn("rollback falhou", zap.Error(rbErr))
		}
		return err
	}
	return tx.Commit()
}
