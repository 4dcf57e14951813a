package taxcalc

import (
	"fmt"
	"strings"

	"multitool/internal/core"
)

// Period selects whether a summary is annual or divided over twelve months.
type Period string

const (
	Annual  Period = "annual"
	Monthly Period = "monthly"
)

// ParsePeriod accepts "annual", "monthly" or empty (annual).
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.ToLower(strings.TrimSpace(s))) {
	case "", Annual:
		return Annual, nil
	case Monthly:
		return Monthly, nil
	default:
		return "", fmt.Errorf("%w: period must be annual or monthly", core.ErrInvalidInput)
	}
}

func (p Period) divisor() float64 {
	if p == Monthly {
		return 12
	}
	return 1
}

// Outcome is the take-home view for one kind of earner.
type Outcome struct {
	IncomeTax         float64 `json:"incomeTax"`
	NationalInsurance float64 `json:"nationalInsurance"`
	Deductions        float64 `json:"deductions"`
	Net               float64 `json:"net"`
	EffectiveRate     float64 `json:"effectiveRate"`
}

// Summary derives net income and effective rates from a Result.
// Pensioners pay income tax but no National Insurance.
type Summary struct {
	Period       Period  `json:"period"`
	Gross        float64 `json:"gross"`
	Employed     Outcome `json:"employed"`
	SelfEmployed Outcome `json:"selfEmployed"`
	Pensioner    Outcome `json:"pensioner"`
}

func outcome(income, tax, ni, div float64) Outcome {
	deductions := tax + ni
	o := Outcome{
		IncomeTax:         tax / div,
		NationalInsurance: ni / div,
		Deductions:        deductions / div,
		Net:               (income - deductions) / div,
	}
	// Rates are period independent.
	if income > 0 {
		o.EffectiveRate = deductions / income * 100
	}
	return o
}

// Summarize builds the employed, self-employed and pensioner views of r.
func Summarize(r Result, period Period) Summary {
	div := period.divisor()
	return Summary{
		Period:       period,
		Gross:        r.Income / div,
		Employed:     outcome(r.Income, r.IncomeTax, r.NationalInsurance, div),
		SelfEmployed: outcome(r.Income, r.IncomeTax, r.SelfEmployedNational, div),
		Pensioner:    outcome(r.Income, r.IncomeTax, 0, div),
	}
}
