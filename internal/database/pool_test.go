package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakePinger struct {
	err      error
	deadline bool
}

func (f *fakePinger) Ping(ctx context.Context) error {
	_, f.deadline = ctx.Deadline()
	return f.err
}

func TestDefaultPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig("postgres://x")

	assert.Equal(t, "postgres://x", cfg.DSN)
	assert.Equal(t, int32(8), cfg.MaxConns)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxLifetime)
}

func TestHealthCheck(t *testing.T) {
	ok := &fakePinger{}
	assert.NoError(t, HealthCheck(context.Background(), ok))
	assert.True(t, ok.deadline, "ping runs with a timeout")

	down := &fakePinger{err: errors.New("connection refused")}
	err := HealthCheck(context.Background(), down)
	assert.ErrorContains(t, err, "database unhealthy")
}

func TestNewPool_InvalidDSN(t *testing.T) {
	_, err := NewPool(context.Background(), DefaultPoolConfig("postgres://user@localhost:notaport/db"))
	assert.ErrorContains(t, err, "parse database url")
}
