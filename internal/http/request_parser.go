package http

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"multitool/internal/core"
	"multitool/internal/taxcalc"
)

// RequestBodyParser reads either a JSON object or a form-encoded body, so
// the same handler serves fetch() calls and plain HTML forms.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads the body once, bounded by maxBodyBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like JSON, as a form
// otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", errMalformedBody, p.err)
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		return p.err
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", errMalformedBody, p.err)
	}
	return p.err
}

// Get returns the sanitized value for key, or "".
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Raw returns the value for key without sanitizing; passwords keep their
// exact bytes.
func (p *RequestBodyParser) Raw(key string) string {
	if p.jsonData != nil {
		return stringValue(p.jsonData[key])
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// SummaryQuery holds the parsed /api/calculate/summary parameters.
type SummaryQuery struct {
	Year   int
	Income float64
	Period taxcalc.Period
}

// ParseSummaryQuery reads year, income and period. A missing or unparsable
// year becomes 0, which no stored parameter set matches; income accepts
// "£60,000" style input.
func ParseSummaryQuery(q url.Values) (SummaryQuery, error) {
	var sq SummaryQuery
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			sq.Year = y
		}
	}

	if v := strings.TrimSpace(q.Get("income")); v != "" {
		income, err := core.ParseAmount(v)
		if err != nil {
			return SummaryQuery{}, fmt.Errorf("%w: income must be a number", core.ErrInvalidInput)
		}
		sq.Income = income
	}

	period, err := taxcalc.ParsePeriod(q.Get("period"))
	if err != nil {
		return SummaryQuery{}, err
	}
	sq.Period = period
	return sq, nil
}

// calculateRequest is the POST /api/calculate body.
type calculateRequest struct {
	Year   int     `json:"year"`
	Income float64 `json:"income"`
}

// basicCalcRequest is either an expression or a single-value operation.
type basicCalcRequest struct {
	Expression string   `json:"expression"`
	Op         string   `json:"op"`
	Value      *float64 `json:"value"`
}
