package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"multitool/internal/cache"
	"multitool/internal/core"
	"multitool/internal/metrics"
	"multitool/internal/storage"
	"multitool/internal/taxcalc"
)

// CalculationService runs the tax engine against stored parameters.
// Parameter lookups go through an LRU cache and concurrent misses for the
// same key share one query.
type CalculationService struct {
	storage *storage.SQLiteRepository
	cache   *cache.LRUCache[core.TaxYearParameters]
	metrics *metrics.Metrics
	trace   *slog.Logger

	group singleflight.Group

	mu          sync.Mutex
	generations map[int64]uint64
}

func NewCalculationService(storage *storage.SQLiteRepository, c *cache.LRUCache[core.TaxYearParameters], m *metrics.Metrics, trace *slog.Logger) *CalculationService {
	return &CalculationService{
		storage:     storage,
		cache:       c,
		metrics:     m,
		trace:       trace,
		generations: make(map[int64]uint64),
	}
}

// CalculationSummary pairs the raw breakdown with its derived views.
type CalculationSummary struct {
	Year    int             `json:"year"`
	Result  taxcalc.Result  `json:"result"`
	Summary taxcalc.Summary `json:"summary"`
}

func (s *CalculationService) generation(userID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}

// InvalidateUser drops the user's cached parameters. Lookups already in
// flight finish but do not repopulate the cache.
func (s *CalculationService) InvalidateUser(userID int64) {
	s.mu.Lock()
	s.generations[userID]++
	s.mu.Unlock()
	s.cache.DeletePrefix(strconv.FormatInt(userID, 10) + ":")
}

func (s *CalculationService) parameters(ctx context.Context, userID int64, year int) (core.TaxYearParameters, bool, error) {
	key := fmt.Sprintf("%d:%d", userID, year)
	if p, ok := s.cache.Get(key); ok {
		s.metrics.CacheLookup(true)
		return p, true, nil
	}
	s.metrics.CacheLookup(false)

	gen := s.generation(userID)
	v, err, _ := s.group.Do(fmt.Sprintf("%s@%d", key, gen), func() (any, error) {
		// Detached so one caller's cancellation does not fail the others.
		p, err := s.storage.TaxParametersByYear(context.WithoutCancel(ctx), userID, year)
		if err != nil {
			return core.TaxYearParameters{}, err
		}
		if s.generation(userID) == gen {
			s.cache.Set(key, p)
		}
		return p, nil
	})
	if err != nil {
		return core.TaxYearParameters{}, false, err
	}
	return v.(core.TaxYearParameters), false, nil
}

// Calculate looks up the user's parameters for year and computes tax on
// income. A missing year is reported before an invalid income.
func (s *CalculationService) Calculate(ctx context.Context, userID int64, year int, income float64) (taxcalc.Result, error) {
	p, cached, err := s.parameters(ctx, userID, year)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.metrics.Calculation(metrics.OutcomeNotFound)
		} else {
			s.metrics.Calculation(metrics.OutcomeError)
		}
		return taxcalc.Result{}, fmt.Errorf("parameters for %d: %w", year, err)
	}

	r, err := taxcalc.ComputeWithTrace(p, income, s.trace)
	if err != nil {
		s.metrics.Calculation(metrics.OutcomeInvalid)
		return taxcalc.Result{}, err
	}

	s.metrics.Calculation(metrics.OutcomeOK)
	slog.DebugContext(ctx, "Tax calculated",
		"user_id", userID,
		"tax_year", year,
		"cached_params", cached)
	return r, nil
}

// Summarize is Calculate plus the employed, self-employed and pensioner views.
func (s *CalculationService) Summarize(ctx context.Context, userID int64, year int, income float64, period taxcalc.Period) (CalculationSummary, error) {
	r, err := s.Calculate(ctx, userID, year, income)
	if err != nil {
		return CalculationSummary{}, err
	}
	return CalculationSummary{
		Year:    year,
		Result:  r,
		Summary: taxcalc.Summarize(r, period),
	}, nil
}
