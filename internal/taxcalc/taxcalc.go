// Package taxcalc computes UK income tax and National Insurance from a
// user-supplied set of yearly parameters.
//
// The computation is pure: it performs no I/O and holds no state, so it is
// safe to call concurrently.
//
// Income tax is resolved by an ordered table of bands; the first band whose
// predicate matches the income decides the 20/40/45% amounts. The tapered
// personal allowance only feeds the band between the taper threshold and the
// higher threshold. The lower bands and the additional-rate band use the
// untapered allowance. That asymmetry is kept as-is so results match the
// figures users already rely on.
package taxcalc

import (
	"fmt"
	"log/slog"
	"math"

	"multitool/internal/core"
)

// ErrNonPositiveIncome rejects zero, negative and NaN incomes.
var ErrNonPositiveIncome = fmt.Errorf("%w: income must be greater than zero", core.ErrInvalidInput)

// ErrIncomeTooLarge rejects incomes whose breakdown does not fit a float64.
var ErrIncomeTooLarge = fmt.Errorf("%w: income is too large to compute", core.ErrInvalidInput)

// Result is the breakdown returned for one income.
type Result struct {
	Income               float64 `json:"income"`
	IncomeTax            float64 `json:"incomeTax"`
	Tax20                float64 `json:"tax20"`
	Tax40                float64 `json:"tax40"`
	Tax45                float64 `json:"tax45"`
	NationalInsurance    float64 `json:"nationalInsurance"`
	SelfEmployedNational float64 `json:"senationalInsurance"`
}

// bandAmounts is the per-rate split of income tax.
type bandAmounts struct {
	tax20, tax40, tax45 float64
}

// band is one row of the income-tax table.
type band struct {
	name    string
	applies func(income float64, it core.IncomeTax) bool
	amounts func(income float64, it core.IncomeTax) bandAmounts
}

func pct(amount, rate float64) float64 {
	return amount * rate / 100
}

// fullBasic is the 20% tax on the whole basic band.
func fullBasic(it core.IncomeTax) float64 {
	return pct(it.BasicThreshold-it.PersonalAllowance, it.BasicRate)
}

// AdjustedPersonalAllowance reduces the allowance by £1 for every £2 of
// income above the taper threshold, floored at zero. Below the threshold the
// subtraction adds to the allowance; callers only use it at or above it.
func AdjustedPersonalAllowance(income float64, it core.IncomeTax) float64 {
	return math.Max(0, it.PersonalAllowance-(income-it.TaperThreshold)/2)
}

// bands is evaluated in order; the first match wins.
var bands = []band{
	{
		name: "personal_allowance",
		applies: func(income float64, it core.IncomeTax) bool {
			return income <= it.PersonalAllowance
		},
		amounts: func(float64, core.IncomeTax) bandAmounts {
			return bandAmounts{}
		},
	},
	{
		name: "basic",
		applies: func(income float64, it core.IncomeTax) bool {
			return income <= it.BasicThreshold
		},
		amounts: func(income float64, it core.IncomeTax) bandAmounts {
			return bandAmounts{tax20: pct(income-it.PersonalAllowance, it.BasicRate)}
		},
	},
	{
		name: "higher",
		applies: func(income float64, it core.IncomeTax) bool {
			return income < it.TaperThreshold
		},
		amounts: func(income float64, it core.IncomeTax) bandAmounts {
			return bandAmounts{
				tax20: fullBasic(it),
				tax40: pct(income-it.BasicThreshold, it.HigherRate),
			}
		},
	},
	{
		name: "additional",
		applies: func(income float64, it core.IncomeTax) bool {
			return income > it.HigherThreshold
		},
		amounts: func(income float64, it core.IncomeTax) bandAmounts {
			return bandAmounts{
				tax20: fullBasic(it),
				tax40: pct(it.HigherThreshold-(it.BasicThreshold-it.PersonalAllowance), it.HigherRate),
				tax45: pct(income-it.HigherThreshold, it.AdditionalRate),
			}
		},
	},
	{
		name: "tapered",
		applies: func(float64, core.IncomeTax) bool {
			return true
		},
		amounts: func(income float64, it core.IncomeTax) bandAmounts {
			taxable := income - AdjustedPersonalAllowance(income, it)
			return bandAmounts{
				tax20: fullBasic(it),
				tax40: pct(taxable-(it.BasicThreshold-it.PersonalAllowance), it.HigherRate),
			}
		},
	},
}

// Band returns the name of the income-tax band that applies to income.
func Band(income float64, it core.IncomeTax) string {
	name, _ := incomeTax(income, it)
	return name
}

func incomeTax(income float64, it core.IncomeTax) (string, bandAmounts) {
	for _, b := range bands {
		if b.applies(income, it) {
			return b.name, b.amounts(income, it)
		}
	}
	return "", bandAmounts{}
}

// contributions applies the shared NI formula with the given rates.
func contributions(income, primaryThreshold, upperLimit, primaryRate, upperRate float64) float64 {
	if income <= primaryThreshold {
		return 0
	}
	ni := pct(math.Min(income, upperLimit)-primaryThreshold, primaryRate)
	if income > upperLimit {
		ni += pct(income-upperLimit, upperRate)
	}
	return ni
}

// EmployedNI returns Class 1 employee contributions.
func EmployedNI(income float64, ni core.NationalInsurance) float64 {
	return contributions(income, ni.PrimaryThreshold, ni.UpperEarningsLimit, ni.PrimaryRate, ni.UpperRate)
}

// SelfEmployedNI uses the self-employed rates over the same thresholds.
func SelfEmployedNI(income float64, ni core.NationalInsurance) float64 {
	return contributions(income, ni.PrimaryThreshold, ni.UpperEarningsLimit, ni.SelfPrimaryRate, ni.SelfUpperRate)
}

// Compute returns the tax and NI breakdown for income under p.
// It fails with core.ErrInvalidInput when income is not positive or any
// figure of the breakdown overflows.
func Compute(p core.TaxYearParameters, income float64) (Result, error) {
	return ComputeWithTrace(p, income, nil)
}

// ComputeWithTrace is Compute with intermediate values logged at debug
// level. A nil logger disables tracing.
func ComputeWithTrace(p core.TaxYearParameters, income float64, logger *slog.Logger) (Result, error) {
	if math.IsNaN(income) || income <= 0 {
		return Result{}, ErrNonPositiveIncome
	}
	if math.IsInf(income, 1) {
		return Result{}, ErrIncomeTooLarge
	}

	it := p.IncomeTax
	name, amounts := incomeTax(income, it)
	r := Result{
		Income:               income,
		Tax20:                amounts.tax20,
		Tax40:                amounts.tax40,
		Tax45:                amounts.tax45,
		IncomeTax:            amounts.tax20 + amounts.tax40 + amounts.tax45,
		NationalInsurance:    EmployedNI(income, p.NationalInsurance),
		SelfEmployedNational: SelfEmployedNI(income, p.NationalInsurance),
	}
	if !r.finite() {
		return Result{}, ErrIncomeTooLarge
	}

	if logger != nil {
		logger.Debug("Tax computed",
			"year", p.Year,
			"income", income,
			"band", name,
			"adjusted_personal_allowance", AdjustedPersonalAllowance(income, it),
			"tax20", r.Tax20,
			"tax40", r.Tax40,
			"tax45", r.Tax45,
			"income_tax", r.IncomeTax,
			"ni", r.NationalInsurance,
			"self_employed_ni", r.SelfEmployedNational)
	}
	return r, nil
}

func (r Result) finite() bool {
	for _, v := range []float64{r.IncomeTax, r.Tax20, r.Tax40, r.Tax45, r.NationalInsurance, r.SelfEmployedNational} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}
