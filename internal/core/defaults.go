package core

// DefaultParameters returns the parameter set seeded for a user who has none.
// Values are the 2024/25 UK rates.
func DefaultParameters(year int) TaxYearParameters {
	return TaxYearParameters{
		Year: year,
		IncomeTax: IncomeTax{
			PersonalAllowance: 12570,
			BasicRate:         20,
			HigherRate:        40,
			AdditionalRate:    45,
			BasicThreshold:    50270,
			HigherThreshold:   125140,
			TaperThreshold:    100000,
		},
		NationalInsurance: NationalInsurance{
			PrimaryThreshold:   12570,
			UpperEarningsLimit: 50270,
			PrimaryRate:        8,
			UpperRate:          2,
			SelfPrimaryRate:    6,
			SelfUpperRate:      2,
		},
	}
}
