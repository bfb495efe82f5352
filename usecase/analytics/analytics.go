package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/todoboard/domain"
	"github.com/fastygo/todoboard/pkg/heatmap"
	"github.com/fastygo/todoboard/pkg/logger"
	"github.com/fastygo/todoboard/repository"
)

// CachePrefix namespaces every cached analytics payload.
const CachePrefix = "analytics:"

const (
	keyCompletionStats = CachePrefix + "completion-stats"
	keyProductivity    = CachePrefix + "productivity-patterns"
	keyDurations       = CachePrefix + "duration-analysis"
	keyHeatmap         = CachePrefix + "activity-heatmap"

	shortMaxDays  = 1
	mediumMaxDays = 7
	longMaxDays   = 3650

	day  = 24 * time.Hour
	week = 7 * day
)

type Config struct {
	CacheTTL     time.Duration
	WindowDays   int
	FallbackDays int
}

type UseCase struct {
	repo   repository.AnalyticsRepository
	cache  repository.CacheRepository
	memo   *heatmap.Memo
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// New wires the analytics use case. cache and memo may be nil.
func New(repo repository.AnalyticsRepository, cache repository.CacheRepository, memo *heatmap.Memo, cfg Config, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 90
	}
	if cfg.FallbackDays <= 0 {
		cfg.FallbackDays = heatmap.DefaultFallbackDays
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	return &UseCase{
		repo:   repo,
		cache:  cache,
		memo:   memo,
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source. Intended for tests.
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

func (uc *UseCase) CompletionStats(ctx context.Context) (*domain.CompletionStats, error) {
	var stats domain.CompletionStats
	err := uc.cached(ctx, keyCompletionStats, &stats, func() (interface{}, error) {
		return uc.computeCompletionStats(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (uc *UseCase) ProductivityPatterns(ctx context.Context) (*domain.ProductivityPatterns, error) {
	var patterns domain.ProductivityPatterns
	err := uc.cached(ctx, keyProductivity, &patterns, func() (interface{}, error) {
		return uc.computeProductivity(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &patterns, nil
}

func (uc *UseCase) DurationAnalysis(ctx context.Context) (*domain.DurationAnalysis, error) {
	var analysis domain.DurationAnalysis
	err := uc.cached(ctx, keyDurations, &analysis, func() (interface{}, error) {
		return uc.computeDurations(ctx)
	})
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

// ActivityHeatmap spreads the weekly completion series over days. With no
// tasks in the window it returns a zero-filled placeholder flagged Synthetic.
func (uc *UseCase) ActivityHeatmap(ctx context.Context) (*domain.ActivityHeatmap, error) {
	var result domain.ActivityHeatmap
	err := uc.cached(ctx, keyHeatmap, &result, func() (interface{}, error) {
		stats, err := uc.CompletionStats(ctx)
		if err != nil {
			return nil, err
		}
		return uc.assemble(stats.WeeklyCompletion), nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Invalidate drops every cached analytics payload.
func (uc *UseCase) Invalidate(ctx context.Context) error {
	if uc.cache == nil {
		return nil
	}
	return uc.cache.DeletePrefix(ctx, CachePrefix)
}

func (uc *UseCase) assemble(weeks []domain.WeeklyAggregate) *domain.ActivityHeatmap {
	hasData := false
	for _, w := range weeks {
		if w.TotalTasks > 0 || w.CompletedTasks > 0 {
			hasData = true
			break
		}
	}
	if !hasData {
		weeks = nil
	}

	opts := heatmap.Options{Now: uc.now(), FallbackDays: uc.cfg.FallbackDays}
	var days []domain.DailyActivityPoint
	if uc.memo != nil {
		days = uc.memo.Assemble(weeks, opts)
	} else {
		days = heatmap.Assemble(weeks, opts)
	}
	return &domain.ActivityHeatmap{Days: days, Synthetic: !hasData}
}

func (uc *UseCase) computeCompletionStats(ctx context.Context) (*domain.CompletionStats, error) {
	counts, err := uc.repo.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	sortStatusCounts(counts)

	now := uc.now()
	weeks := make([]domain.WeeklyAggregate, 0, uc.cfg.WindowDays/7+1)
	for start := now.Add(-time.Duration(uc.cfg.WindowDays) * day); !start.After(now); start = start.Add(week) {
		end := start.Add(week)
		window, err := uc.repo.CompletionWindow(ctx, start, end)
		if err != nil {
			return nil, err
		}
		rate := 0.0
		if window.Total > 0 {
			rate = round2(float64(window.Completed) / float64(window.Total) * 100)
		}
		weeks = append(weeks, domain.WeeklyAggregate{
			WeekStart:      start.Format(domain.DateLayout),
			WeekEnd:        end.Format(domain.DateLayout),
			TotalTasks:     window.Total,
			CompletedTasks: window.Completed,
			CompletionRate: rate,
		})
	}

	return &domain.CompletionStats{StatusDistribution: counts, WeeklyCompletion: weeks}, nil
}

func (uc *UseCase) computeProductivity(ctx context.Context) (*domain.ProductivityPatterns, error) {
	hours, err := uc.repo.CreationHours(ctx)
	if err != nil {
		return nil, err
	}
	spans, err := uc.repo.CompletedSpans(ctx)
	if err != nil {
		return nil, err
	}

	times := make([]domain.CompletionTime, 0, len(spans))
	sum := 0.0
	for _, span := range spans {
		hoursTaken := round2(span.UpdatedAt.Sub(span.CreatedAt).Hours())
		sum += hoursTaken
		times = append(times, domain.CompletionTime{
			ID:                  span.ID,
			Title:               span.Title,
			CompletionTimeHours: hoursTaken,
		})
	}

	avg := 0.0
	if len(times) > 0 {
		avg = round2(sum / float64(len(times)))
	}

	return &domain.ProductivityPatterns{
		CreationHourDistribution: hours,
		AvgCompletionTimeHours:   avg,
		CompletionTimeData:       times,
	}, nil
}

func (uc *UseCase) computeDurations(ctx context.Context) (*domain.DurationAnalysis, error) {
	spans, err := uc.repo.PlannedSpans(ctx)
	if err != nil {
		return nil, err
	}

	ranges := domain.DurationRanges{
		Short:  domain.DurationRange{Min: 0, Max: shortMaxDays},
		Medium: domain.DurationRange{Min: shortMaxDays, Max: mediumMaxDays},
		Long:   domain.DurationRange{Min: mediumMaxDays, Max: longMaxDays},
	}
	data := make([]domain.PlannedDuration, 0, len(spans))
	for _, span := range spans {
		days := round2(span.Deadline.Sub(span.CreatedAt).Hours() / 24)
		data = append(data, domain.PlannedDuration{
			ID:                  span.ID,
			Title:               span.Title,
			PlannedDurationDays: days,
			Status:              span.Status,
		})
		switch {
		case days <= shortMaxDays:
			ranges.Short.Count++
		case days <= mediumMaxDays:
			ranges.Medium.Count++
		default:
			ranges.Long.Count++
		}
	}

	return &domain.DurationAnalysis{DurationData: data, DurationRanges: ranges}, nil
}

// cached fills dest from the cache, or computes, stores and copies the value.
// Cache failures are logged and never surface to the caller.
func (uc *UseCase) cached(ctx context.Context, key string, dest interface{}, compute func() (interface{}, error)) error {
	log := logger.WithRequestID(ctx, uc.logger)
	if uc.cache != nil {
		raw, err := uc.cache.Get(ctx, key)
		switch {
		case err == nil:
			if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
				return nil
			}
			log.Warn("discarding unreadable analytics cache entry", zap.String("key", key))
		case !errors.Is(err, domain.ErrCacheMiss):
			log.Warn("analytics cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	value, err := compute()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "encode analytics", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "decode analytics", err)
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, key, raw, uc.cfg.CacheTTL); err != nil {
			log.Warn("analytics cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

func sortStatusCounts(counts []domain.StatusCount) {
	rank := make(map[domain.TaskStatus]int, len(domain.Statuses))
	for i, status := range domain.Statuses {
		rank[status] = i
	}
	sort.SliceStable(counts, func(i, j int) bool {
		ri, okI := rank[counts[i].Status]
		rj, okJ := rank[counts[j].Status]
		if !okI {
			ri = len(rank)
		}
		if !okJ {
			rj = len(rank)
		}
		return ri < rj
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
