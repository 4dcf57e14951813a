package core

import (
	"fmt"
	"strings"
)

type IncomeTaxInput struct {
	PersonalAllowance *float64 `json:"personalAllowance" yaml:"personalAllowance"`
	BasicRate         *float64 `json:"basicRate" yaml:"basicRate"`
	HigherRate        *float64 `json:"higherRate" yaml:"higherRate"`
	AdditionalRate    *float64 `json:"additionalRate" yaml:"additionalRate"`
	BasicThreshold    *float64 `json:"basicThreshold" yaml:"basicThreshold"`
	HigherThreshold   *float64 `json:"higherThreshold" yaml:"higherThreshold"`
	TaperThreshold    *float64 `json:"taperThreshold" yaml:"taperThreshold"`
}

type NationalInsuranceInput struct {
	PrimaryThreshold   *float64 `json:"primaryThreshold" yaml:"primaryThreshold"`
	UpperEarningsLimit *float64 `json:"upperEarningsLimit" yaml:"upperEarningsLimit"`
	PrimaryRate        *float64 `json:"primaryRate" yaml:"primaryRate"`
	UpperRate          *float64 `json:"upperRate" yaml:"upperRate"`
	SelfPrimaryRate    *float64 `json:"selfPrimaryRate" yaml:"selfPrimaryRate"`
	SelfUpperRate      *float64 `json:"selfUpperRate" yaml:"selfUpperRate"`
}

// ParametersInput is a tax parameter set as supplied by a client or a
// parameters file. Pointer fields tell an absent value from an explicit zero.
type ParametersInput struct {
	Year              *int                    `json:"year" yaml:"year"`
	IncomeTax         *IncomeTaxInput         `json:"incomeTax" yaml:"incomeTax"`
	NationalInsurance *NationalInsuranceInput `json:"nationalInsurance" yaml:"nationalInsurance"`
}

type floatField struct {
	name string
	src  *float64
	dst  *float64
}

// Merge overlays the supplied fields onto base and returns the names of
// the fields that were absent, e.g. "incomeTax.basicRate".
func (in ParametersInput) Merge(base TaxYearParameters) (TaxYearParameters, []string) {
	var missing []string

	if in.Year != nil {
		base.Year = *in.Year
	} else {
		missing = append(missing, "year")
	}

	it := in.IncomeTax
	if it == nil {
		it = &IncomeTaxInput{}
	}
	ni := in.NationalInsurance
	if ni == nil {
		ni = &NationalInsuranceInput{}
	}

	fields := []floatField{
		{"incomeTax.personalAllowance", it.PersonalAllowance, &base.IncomeTax.PersonalAllowance},
		{"incomeTax.basicRate", it.BasicRate, &base.IncomeTax.BasicRate},
		{"incomeTax.higherRate", it.HigherRate, &base.IncomeTax.HigherRate},
		{"incomeTax.additionalRate", it.AdditionalRate, &base.IncomeTax.AdditionalRate},
		{"incomeTax.basicThreshold", it.BasicThreshold, &base.IncomeTax.BasicThreshold},
		{"incomeTax.higherThreshold", it.HigherThreshold, &base.IncomeTax.HigherThreshold},
		{"incomeTax.taperThreshold", it.TaperThreshold, &base.IncomeTax.TaperThreshold},
		{"nationalInsurance.primaryThreshold", ni.PrimaryThreshold, &base.NationalInsurance.PrimaryThreshold},
		{"nationalInsurance.upperEarningsLimit", ni.UpperEarningsLimit, &base.NationalInsurance.UpperEarningsLimit},
		{"nationalInsurance.primaryRate", ni.PrimaryRate, &base.NationalInsurance.PrimaryRate},
		{"nationalInsurance.upperRate", ni.UpperRate, &base.NationalInsurance.UpperRate},
		{"nationalInsurance.selfPrimaryRate", ni.SelfPrimaryRate, &base.NationalInsurance.SelfPrimaryRate},
		{"nationalInsurance.selfUpperRate", ni.SelfUpperRate, &base.NationalInsurance.SelfUpperRate},
	}
	for _, f := range fields {
		if f.src == nil {
			missing = append(missing, f.name)
			continue
		}
		*f.dst = *f.src
	}
	return base, missing
}

// Complete converts in to parameters, rejecting any absent field.
func (in ParametersInput) Complete() (TaxYearParameters, error) {
	p, missing := in.Merge(TaxYearParameters{})
	if len(missing) > 0 {
		return TaxYearParameters{}, fmt.Errorf("%w: missing required fields: %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	if err := p.Validate(); err != nil {
		return TaxYearParameters{}, err
	}
	return p, nil
}
