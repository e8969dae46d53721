package usecase

import (
	"context"

	"group-task-tracker/internal/distribution"
	"group-task-tracker/internal/repository"
	"group-task-tracker/internal/usecase/domain"

	"go.uber.org/zap"
)

// InterfaceUsecase aggregates all usecase interfaces.
type InterfaceUsecase interface {
	GroupUsecaseInterface
	TaskUsecaseInterface
	WorkloadUsecaseInterface
	DistributionUsecaseInterface
	MaintenanceUsecaseInterface
}

// New constructs a new usecase layer with its dependencies.
func New(
	log *zap.SugaredLogger,
	ctx context.Context,
	repo repository.Repository,
	registry *distribution.Registry,
	settings domain.Settings,
	opts ...domain.Option,
) InterfaceUsecase {
	return domain.New(log, ctx, repo, registry, settings, opts...)
}
