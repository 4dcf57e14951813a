package http

import (
	"errors"
	"net/http"
	"strings"

	"multitool/internal/core"
	applog "multitool/internal/log"
	"multitool/internal/taxcalc"
)

const (
	msgParamsNotFound = "Parameters not found for the given year"
	msgYearExists     = "Tax year already exists"
)

// handleCalculate runs the calculator for {year, income}. The parameter
// lookup comes first, so an unknown year answers 404 even when the income
// is also invalid.
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request, user core.User) {
	var req calculateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeServiceError(w, r, applog.OpCalculate, err)
		return
	}

	res, err := s.Calc.Calculate(r.Context(), user.ID, req.Year, req.Income)
	if err != nil {
		s.writeCalcError(w, r, err)
		return
	}
	applog.NewStructuredLogger(applog.FromContext(r.Context()).WithComponent(applog.ComponentCalc)).
		LogCalculation(r.Context(), user.ID, req.Year, req.Income, "")
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, user core.User) {
	q, err := ParseSummaryQuery(r.URL.Query())
	if err != nil {
		s.writeServiceError(w, r, applog.OpCalculate, err)
		return
	}

	sum, err := s.Calc.Summarize(r.Context(), user.ID, q.Year, q.Income, q.Period)
	if err != nil {
		s.writeCalcError(w, r, err)
		return
	}
	applog.NewStructuredLogger(applog.FromContext(r.Context()).WithComponent(applog.ComponentCalc)).
		LogCalculation(r.Context(), user.ID, q.Year, q.Income, string(q.Period))
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) writeCalcError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrNotFound) {
		writeError(w, http.StatusNotFound, msgParamsNotFound)
		return
	}
	if errors.Is(err, taxcalc.ErrNonPositiveIncome) {
		writeError(w, http.StatusBadRequest, "Income must be greater than zero.")
		return
	}
	if errors.Is(err, taxcalc.ErrIncomeTooLarge) {
		writeError(w, http.StatusBadRequest, "Income is too large to compute.")
		return
	}
	s.writeServiceError(w, r, applog.OpCalculate, err)
}

func (s *Server) handleListTaxParameters(w http.ResponseWriter, r *http.Request, user core.User) {
	params, err := s.Params.List(r.Context(), user.ID)
	if err != nil {
		s.writeServiceError(w, r, applog.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, params)
}

func (s *Server) handleCreateTaxParameters(w http.ResponseWriter, r *http.Request, user core.User) {
	var in core.ParametersInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeServiceError(w, r, applog.OpCreate, err)
		return
	}
	if in.Year == nil || *in.Year == 0 {
		writeError(w, http.StatusBadRequest, "Tax year is required")
		return
	}

	p, missing := in.Merge(core.TaxYearParameters{})
	if len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "Missing required fields: "+strings.Join(missing, ", "))
		return
	}

	created, err := s.Params.Create(r.Context(), user.ID, p)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			writeError(w, http.StatusBadRequest, msgYearExists)
			return
		}
		s.writeServiceError(w, r, applog.OpCreate, err)
		return
	}

	applog.FromContext(r.Context()).WithComponent(applog.ComponentTax).InfoContext(r.Context(), "Tax parameters created",
		applog.FieldParamsID, created.ID,
		applog.FieldTaxYear, created.Year)
	writeJSON(w, http.StatusCreated, created)
}

// handleUpdateTaxParameters applies a partial update: absent fields keep
// their stored values.
func (s *Server) handleUpdateTaxParameters(w http.ResponseWriter, r *http.Request, user core.User) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "ID is required for update.")
		return
	}

	var in core.ParametersInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeServiceError(w, r, applog.OpUpdate, err)
		return
	}

	current, err := s.Params.Get(r.Context(), user.ID, id)
	if err != nil {
		s.writeServiceError(w, r, applog.OpUpdate, err)
		return
	}
	next, _ := in.Merge(current)

	updated, err := s.Params.Update(r.Context(), user.ID, id, next)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			writeError(w, http.StatusBadRequest, msgYearExists)
			return
		}
		s.writeServiceError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTaxParameters(w http.ResponseWriter, r *http.Request, user core.User) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "ID is required for deletion.")
		return
	}

	if err := s.Params.Delete(r.Context(), user.ID, id); err != nil {
		s.writeServiceError(w, r, applog.OpDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Record deleted"})
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request, user core.User) {
	years, err := s.Params.Years(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch years")
		return
	}
	if years == nil {
		years = []int{}
	}
	writeJSON(w, http.StatusOK, years)
}
