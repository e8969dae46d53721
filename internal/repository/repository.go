// Package repository provides factory for repositories.
package repository

import (
	"context"
	"fmt"

	"group-task-tracker/config"
	"group-task-tracker/internal/repository/memory"
	"group-task-tracker/internal/repository/postgres"

	"go.uber.org/zap"
)

// Repository aggregates all persistence interfaces.
type Repository interface {
	LifecycleInterface
	GroupInterface
	TaskInterface
	HistoryInterface
	PreviewInterface
}

var (
	_ Repository = (*postgres.Postgres)(nil)
	_ Repository = (*memory.Store)(nil)
)

// New constructs repository backend by name.
func New(ctx context.Context, name string, log *zap.SugaredLogger, cfg *config.Config) (Repository, error) {
	switch name {
	case config.BackendPostgres:
		return postgres.New(ctx, log, cfg), nil
	case config.BackendMemory:
		return memory.New(log), nil
	default:
		return nil, fmt.Errorf("unknown repo backend: %s", name)
	}
}
