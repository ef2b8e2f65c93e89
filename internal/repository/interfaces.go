package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dressguard/dressguard/internal/domain"
)

// PgxPool is the subset of *pgxpool.Pool used by repositories; pgxmock implements it in tests
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ViolationRepositoryInterface defines operations for violation history access
type ViolationRepositoryInterface interface {
	Create(ctx context.Context, v *domain.ViolationRecord) error
	ListByDate(ctx context.Context, date time.Time) ([]domain.ViolationRecord, error)
	CountByIdentity(ctx context.Context, date time.Time) (map[string]int, error)
}
