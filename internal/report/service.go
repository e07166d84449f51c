package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sahilimamk/focustrack/internal/core/model"
)

// RecentLimit is how many activities the dashboard lists.
const RecentLimit = 10

const defaultTTL = time.Minute

// Source is the read-only half of the HTTP contract.
type Source interface {
	Session(ctx context.Context, id model.ID) (*model.SessionDetail, error)
	DailyReport(ctx context.Context, date time.Time) (*model.ReportSnapshot, error)
	WeeklyReport(ctx context.Context) (*model.ReportSnapshot, error)
}

type entry[T any] struct {
	value   T
	fetched time.Time
}

// Service fetches server-aggregated reports and session activities and keeps
// them for a short time. Clear drops everything.
type Service struct {
	mu         sync.Mutex
	source     Source
	logger     *slog.Logger
	ttl        time.Duration
	now        func() time.Time
	daily      map[string]entry[*model.ReportSnapshot]
	weekly     *entry[*model.ReportSnapshot]
	activities map[model.ID]entry[[]model.Activity]
}

// NewService creates a Service. A non-positive ttl uses one minute.
func NewService(source Source, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:     source,
		logger:     logger,
		ttl:        ttl,
		now:        time.Now,
		daily:      make(map[string]entry[*model.ReportSnapshot]),
		activities: make(map[model.ID]entry[[]model.Activity]),
	}
}

// Daily returns the report for the day of date.
func (service *Service) Daily(ctx context.Context, date time.Time) (*model.ReportSnapshot, error) {
	key := date.Format(time.DateOnly)
	service.mu.Lock()
	if cached, ok := service.daily[key]; ok && service.freshLocked(cached.fetched) {
		service.mu.Unlock()
		return cached.value, nil
	}
	service.mu.Unlock()

	snapshot, err := service.source.DailyReport(ctx, date)
	if err != nil {
		service.logger.Warn("fetch daily report", "date", key, "error", err)
		return nil, fmt.Errorf("daily report %s: %w", key, err)
	}

	service.mu.Lock()
	service.daily[key] = entry[*model.ReportSnapshot]{value: snapshot, fetched: service.now()}
	service.mu.Unlock()
	return snapshot, nil
}

// Weekly returns the report for the current week.
func (service *Service) Weekly(ctx context.Context) (*model.ReportSnapshot, error) {
	service.mu.Lock()
	if service.weekly != nil && service.freshLocked(service.weekly.fetched) {
		cached := service.weekly.value
		service.mu.Unlock()
		return cached, nil
	}
	service.mu.Unlock()

	snapshot, err := service.source.WeeklyReport(ctx)
	if err != nil {
		service.logger.Warn("fetch weekly report", "error", err)
		return nil, fmt.Errorf("weekly report: %w", err)
	}

	service.mu.Lock()
	service.weekly = &entry[*model.ReportSnapshot]{value: snapshot, fetched: service.now()}
	service.mu.Unlock()
	return snapshot, nil
}

// RecentActivities returns the newest activities of a session, newest first.
func (service *Service) RecentActivities(ctx context.Context, id model.ID) ([]model.Activity, error) {
	if id == "" {
		return nil, nil
	}
	service.mu.Lock()
	if cached, ok := service.activities[id]; ok && service.freshLocked(cached.fetched) {
		service.mu.Unlock()
		return cached.value, nil
	}
	service.mu.Unlock()

	detail, err := service.source.Session(ctx, id)
	if err != nil {
		service.logger.Warn("fetch session activities", "session", id, "error", err)
		return nil, fmt.Errorf("session %s activities: %w", id, err)
	}
	recent := model.RecentActivities(detail.Activities, RecentLimit)

	service.mu.Lock()
	service.activities[id] = entry[[]model.Activity]{value: recent, fetched: service.now()}
	service.mu.Unlock()
	return recent, nil
}

// Clear drops every cached report and activity list.
func (service *Service) Clear() {
	service.mu.Lock()
	defer service.mu.Unlock()
	service.daily = make(map[string]entry[*model.ReportSnapshot])
	service.weekly = nil
	service.activities = make(map[model.ID]entry[[]model.Activity])
}

func (service *Service) freshLocked(fetched time.Time) bool {
	return service.now().Sub(fetched) < service.ttl
}
