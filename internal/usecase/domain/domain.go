package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"group-task-tracker/internal/distribution"
	"group-task-tracker/internal/entities"
	"group-task-tracker/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Settings tunes usecase behaviour.
type Settings struct {
	// Timeout bounds each request-scoped operation.
	Timeout         time.Duration
	PreviewTTL      time.Duration
	MaxRangeDays    int
	AsyncGeneration bool
}

// Metrics receives distribution lifecycle events.
type Metrics interface {
	PreviewStarted()
	PreviewFinished(method entities.DistributionMethod, status entities.PreviewStatus)
	TasksApplied(n int)
	PreviewsSwept(n int64)
}

type nopMetrics struct{}

func (nopMetrics) PreviewStarted() {}
func (nopMetrics) PreviewFinished(entities.DistributionMethod, entities.PreviewStatus) {}
func (nopMetrics) TasksApplied(int) {}
func (nopMetrics) PreviewsSwept(int64) {}

// Option customizes a Usecase.
type Option func(*Usecase)

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(u *Usecase) {
		if m != nil {
			u.metrics = m
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(u *Usecase) {
		if now != nil {
			u.now = now
		}
	}
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(newID func() string) Option {
	return func(u *Usecase) {
		if newID != nil {
			u.newID = newID
		}
	}
}

// Usecase struct implements all usecase interfaces.
type Usecase struct {
	ctx      context.Context
	log      *zap.SugaredLogger
	repo     repository.Repository
	registry *distribution.Registry
	settings Settings
	timeout  time.Duration
	metrics  Metrics
	now      func() time.Time
	newID    func() string

	generating sync.WaitGroup
}

// New constructs a new usecase layer with its dependencies.
func New(
	log *zap.SugaredLogger,
	ctx context.Context,
	repo repository.Repository,
	registry *distribution.Registry,
	settings Settings,
	opts ...Option,
) *Usecase {
	if settings.PreviewTTL <= 0 {
		settings.PreviewTTL = 24 * time.Hour
	}
	if settings.MaxRangeDays <= 0 {
		settings.MaxRangeDays = 30
	}
	u := &Usecase{
		ctx:      ctx,
		log:      log,
		repo:     repo,
		registry: registry,
		settings: settings,
		timeout:  settings.Timeout,
		metrics:  nopMetrics{},
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Wait blocks until background preview generations finish.
func (u *Usecase) Wait() {
	u.generating.Wait()
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// requireMember resolves the caller's membership in groupID. Unknown groups
// yield ErrGroupNotFound and non-members ErrForbidden.
func (u *Usecase) requireMember(ctx context.Context, groupID string, caller entities.Caller) (*entities.Member, error) {
	if caller.UserID == "" {
		return nil, entities.ErrUnauthorized
	}
	if groupID == "" {
		return nil, fmt.Errorf("%w: groupId is required", entities.ErrInvalidArgument)
	}

	m, err := u.repo.GetMember(ctx, groupID, caller.UserID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, entities.ErrMemberNotFound) {
		return nil, err
	}
	if _, gerr := u.repo.GetGroup(ctx, groupID); gerr != nil {
		return nil, gerr
	}
	return nil, fmt.Errorf("%w: not a member of group %s", entities.ErrForbidden, groupID)
}

func (u *Usecase) requireAdmin(ctx context.Context, groupID string, caller entities.Caller) (*entities.Member, error) {
	m, err := u.requireMember(ctx, groupID, caller)
	if err != nil {
		return nil, err
	}
	if !m.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", entities.ErrForbidden)
	}
	return m, nil
}
