package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multitool/internal/core"
	"multitool/internal/taxcalc"
)

func TestCalculateMissingYearBeforeInvalidIncome(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "calc@example.com")

	_, err := f.calc.Calculate(context.Background(), u.ID, 1999, -5)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.calc.Calculate(context.Background(), u.ID, 0, 50000)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCalculate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "calc@example.com")
	_, err := f.params.Create(ctx, u.ID, core.DefaultParameters(2024))
	require.NoError(t, err)

	_, err = f.calc.Calculate(ctx, u.ID, 2024, 0)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	r, err := f.calc.Calculate(ctx, u.ID, 2024, 60000)
	require.NoError(t, err)
	assert.InDelta(t, 11432, r.IncomeTax, 1e-6)
	assert.InDelta(t, 3210.6, r.NationalInsurance, 1e-6)
}

func TestCalculateUsesCacheUntilInvalidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "cache@example.com")
	created, err := f.params.Create(ctx, u.ID, core.DefaultParameters(2024))
	require.NoError(t, err)

	_, err = f.calc.Calculate(ctx, u.ID, 2024, 30000)
	require.NoError(t, err)
	_, err = f.calc.Calculate(ctx, u.ID, 2024, 30000)
	require.NoError(t, err)
	hits, misses := f.calc.cache.Stats()
	assert.EqualValues(t, 1, hits)
	assert.EqualValues(t, 1, misses)

	changed := core.DefaultParameters(2024)
	changed.IncomeTax.BasicRate = 10
	_, err = f.params.Update(ctx, u.ID, created.ID, changed)
	require.NoError(t, err)
	assert.Zero(t, f.calc.cache.Size())

	r, err := f.calc.Calculate(ctx, u.ID, 2024, 30000)
	require.NoError(t, err)
	assert.InDelta(t, 1743, r.IncomeTax, 1e-6)
}

func TestCalculateConcurrentCallers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "many@example.com")
	_, err := f.params.Create(ctx, u.ID, core.DefaultParameters(2024))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.calc.Calculate(ctx, u.ID, 2024, 45000)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, f.calc.cache.Size())
}

func TestSummarize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "summary@example.com")
	_, err := f.params.Create(ctx, u.ID, core.DefaultParameters(2024))
	require.NoError(t, err)

	s, err := f.calc.Summarize(ctx, u.ID, 2024, 60000, taxcalc.Monthly)
	require.NoError(t, err)
	assert.Equal(t, 2024, s.Year)
	assert.Equal(t, taxcalc.Monthly, s.Summary.Period)
	assert.InDelta(t, 5000, s.Summary.Gross, 1e-6)
	assert.InDelta(t, (60000-11432-3210.6)/12, s.Summary.Employed.Net, 1e-6)
	assert.Zero(t, s.Summary.Pensioner.NationalInsurance)
}
