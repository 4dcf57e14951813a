package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

type (
	// IncomeTax holds the yearly income-tax bands. Rates are percentages.
	IncomeTax struct {
		PersonalAllowance float64 `json:"personalAllowance" yaml:"personalAllowance"`
		BasicRate         float64 `json:"basicRate" yaml:"basicRate"`
		HigherRate        float64 `json:"higherRate" yaml:"higherRate"`
		AdditionalRate    float64 `json:"additionalRate" yaml:"additionalRate"`
		BasicThreshold    float64 `json:"basicThreshold" yaml:"basicThreshold"`
		HigherThreshold   float64 `json:"higherThreshold" yaml:"higherThreshold"`
		TaperThreshold    float64 `json:"taperThreshold" yaml:"taperThreshold"`
	}

	// NationalInsurance holds the employed and self-employed NI thresholds and rates.
	NationalInsurance struct {
		PrimaryThreshold   float64 `json:"primaryThreshold" yaml:"primaryThreshold"`
		UpperEarningsLimit float64 `json:"upperEarningsLimit" yaml:"upperEarningsLimit"`
		PrimaryRate        float64 `json:"primaryRate" yaml:"primaryRate"`
		UpperRate          float64 `json:"upperRate" yaml:"upperRate"`
		SelfPrimaryRate    float64 `json:"selfPrimaryRate" yaml:"selfPrimaryRate"`
		SelfUpperRate      float64 `json:"selfUpperRate" yaml:"selfUpperRate"`
	}

	// TaxYearParameters is one user's parameter set for a tax year.
	// At most one exists per (UserID, Year).
	TaxYearParameters struct {
		ID                int64             `json:"id"`
		UserID            int64             `json:"userId"`
		Year              int               `json:"year" yaml:"year"`
		IncomeTax         IncomeTax         `json:"incomeTax" yaml:"incomeTax"`
		NationalInsurance NationalInsurance `json:"nationalInsurance" yaml:"nationalInsurance"`
		CreatedAt         time.Time         `json:"createdAt"`
		UpdatedAt         time.Time         `json:"updatedAt"`
	}

	User struct {
		ID           int64
		Name         string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	Session struct {
		Token     string
		UserID    int64
		ExpiresAt time.Time
	}

	Reminder struct {
		ID        int64
		UserID    int64
		Title     string
		Content   string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Activity is an audit entry recorded by the worker.
	Activity struct {
		ID         int64
		UserID     int64
		Kind       string
		SubjectID  int64
		Payload    string
		OccurredAt time.Time
	}
)

// Sentinel errors shared by services and mapped to HTTP statuses by the
// transport layer.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	ErrInvalidYear   = fmt.Errorf("%w: tax year is required", ErrInvalidInput)
	ErrEmptyTitle    = fmt.Errorf("%w: title is required", ErrInvalidInput)
	ErrTitleTooLong  = fmt.Errorf("%w: title too long (max 200 characters)", ErrInvalidInput)
	ErrInvalidEmail  = fmt.Errorf("%w: invalid email", ErrInvalidInput)
	ErrShortPassword = fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
)

func checkAmount(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be a number", ErrInvalidInput, name)
	}
	if v < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, name)
	}
	return nil
}

func (it IncomeTax) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"personalAllowance", it.PersonalAllowance},
		{"basicRate", it.BasicRate},
		{"higherRate", it.HigherRate},
		{"additionalRate", it.AdditionalRate},
		{"basicThreshold", it.BasicThreshold},
		{"higherThreshold", it.HigherThreshold},
		{"taperThreshold", it.TaperThreshold},
	}
	for _, f := range fields {
		if err := checkAmount(f.name, f.v); err != nil {
			return err
		}
	}
	return nil
}

func (ni NationalInsurance) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"primaryThreshold", ni.PrimaryThreshold},
		{"upperEarningsLimit", ni.UpperEarningsLimit},
		{"primaryRate", ni.PrimaryRate},
		{"upperRate", ni.UpperRate},
		{"selfPrimaryRate", ni.SelfPrimaryRate},
		{"selfUpperRate", ni.SelfUpperRate},
	}
	for _, f := range fields {
		if err := checkAmount(f.name, f.v); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks presence and sign only. Threshold ordering is not enforced.
func (p TaxYearParameters) Validate() error {
	if p.Year <= 0 {
		return ErrInvalidYear
	}
	if err := p.IncomeTax.Validate(); err != nil {
		return err
	}
	return p.NationalInsurance.Validate()
}

func (r Reminder) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return ErrEmptyTitle
	}
	if len(r.Title) > 200 {
		return ErrTitleTooLong
	}
	return nil
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FormatName capitalises the first letter of each space-separated word.
func FormatName(name string) string {
	words := strings.Split(strings.ToLower(strings.TrimSpace(name)), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
	}
	return strings.Join(words, " ")
}

func ValidateCredentials(email, password string) error {
	if !strings.Contains(email, "@") || len(email) < 3 {
		return ErrInvalidEmail
	}
	if len(password) < 8 {
		return ErrShortPassword
	}
	return nil
}

func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
