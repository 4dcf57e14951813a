package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"multitool/internal/amqp"
	"multitool/internal/core"
	"multitool/internal/storage"
)

// ParameterInvalidator drops cached parameter sets for a user.
type ParameterInvalidator interface {
	InvalidateUser(userID int64)
}

// TaxParameterService manages each user's yearly tax parameter sets.
type TaxParameterService struct {
	storage     *storage.SQLiteRepository
	events      *Events
	invalidator ParameterInvalidator
	now         func() time.Time
}

func NewTaxParameterService(storage *storage.SQLiteRepository, events *Events, invalidator ParameterInvalidator) *TaxParameterService {
	return &TaxParameterService{
		storage:     storage,
		events:      events,
		invalidator: invalidator,
		now:         time.Now,
	}
}

// List returns the user's parameter sets by ascending year. A user with
// none gets the default set for the current calendar year.
func (s *TaxParameterService) List(ctx context.Context, userID int64) ([]core.TaxYearParameters, error) {
	params, err := s.storage.ListTaxParameters(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(params) > 0 {
		return params, nil
	}

	seed := core.DefaultParameters(s.now().Year())
	seed.UserID = userID
	created, err := s.storage.CreateTaxParameters(ctx, seed)
	switch {
	case err == nil:
		slog.InfoContext(ctx, "Seeded default tax parameters", "user_id", userID, "year", seed.Year)
		s.events.emit(ctx, userID, amqp.KindTaxParametersSeeded, created.ID, map[string]int{"year": created.Year})
		return []core.TaxYearParameters{created}, nil
	case errors.Is(err, core.ErrConflict):
		// A concurrent request seeded first.
		return s.storage.ListTaxParameters(ctx, userID)
	default:
		return nil, fmt.Errorf("seed default parameters: %w", err)
	}
}

// Get returns one of the user's parameter sets. Unlike List it never seeds.
func (s *TaxParameterService) Get(ctx context.Context, userID, id int64) (core.TaxYearParameters, error) {
	p, err := s.storage.TaxParametersByID(ctx, userID, id)
	if err != nil {
		return core.TaxYearParameters{}, ownership(err)
	}
	return p, nil
}

// Years lists the tax years the user has parameters for, ascending.
func (s *TaxParameterService) Years(ctx context.Context, userID int64) ([]int, error) {
	return s.storage.Years(ctx, userID)
}

func (s *TaxParameterService) Create(ctx context.Context, userID int64, p core.TaxYearParameters) (core.TaxYearParameters, error) {
	if err := p.Validate(); err != nil {
		return core.TaxYearParameters{}, err
	}
	p.ID = 0
	p.UserID = userID

	created, err := s.storage.CreateTaxParameters(ctx, p)
	if err != nil {
		return core.TaxYearParameters{}, err
	}

	s.invalidate(userID)
	s.events.emit(ctx, userID, amqp.KindTaxParametersCreated, created.ID, map[string]int{"year": created.Year})
	return created, nil
}

// Update replaces the parameter set id. Sets that are missing or owned by
// another user both yield core.ErrForbidden.
func (s *TaxParameterService) Update(ctx context.Context, userID, id int64, p core.TaxYearParameters) (core.TaxYearParameters, error) {
	if err := p.Validate(); err != nil {
		return core.TaxYearParameters{}, err
	}
	p.ID = id
	p.UserID = userID

	updated, err := s.storage.UpdateTaxParameters(ctx, p)
	if err != nil {
		return core.TaxYearParameters{}, ownership(err)
	}

	s.invalidate(userID)
	s.events.emit(ctx, userID, amqp.KindTaxParametersUpdated, updated.ID, map[string]int{"year": updated.Year})
	return updated, nil
}

func (s *TaxParameterService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.storage.DeleteTaxParameters(ctx, userID, id); err != nil {
		return ownership(err)
	}

	s.invalidate(userID)
	s.events.emit(ctx, userID, amqp.KindTaxParametersDeleted, id, nil)
	return nil
}

func (s *TaxParameterService) invalidate(userID int64) {
	if s.invalidator != nil {
		s.invalidator.InvalidateUser(userID)
	}
}

// ownership turns a scoped not-found into core.ErrForbidden.
func ownership(err error) error {
	if errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("%w: %v", core.ErrForbidden, err)
	}
	return err
}
