package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"multitool/internal/core"
	applog "multitool/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports ready only while the database answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]any{
		"rate_limiter": map[string]any{
			"active_clients": s.limiter.ActiveClients(),
			"rejected":       s.limiter.Rejected(),
		},
		"security": map[string]any{
			"suspicious": s.detector.SuspiciousRequests(),
			"blocked":    s.detector.Blocked(),
		},
	}

	if err := s.DB.Ping(ctx); err != nil {
		applog.FromContext(ctx).WithComponent(applog.ComponentStorage).ErrorContext(ctx, "Readiness check failed",
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypeDatabase)
		checks["database"] = "failed"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Year int
	}{
		Year: time.Now().Year(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.ErrorContext(r.Context(), "Index template execution failed",
			"error", err,
			"template", "index.html",
			applog.FieldErrorType, applog.ErrorTypeInternal)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

type activityResponse struct {
	Kind       string    `json:"kind"`
	SubjectID  int64     `json:"subjectId,omitempty"`
	Payload    string    `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// handleActivity lists the user's recent activity, newest first. ?limit=
// is clamped by the service.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request, user core.User) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := s.Activity.Recent(r.Context(), user.ID, limit)
	if err != nil {
		s.writeServiceError(w, r, applog.OpList, err)
		return
	}

	out := make([]activityResponse, 0, len(entries))
	for _, a := range entries {
		out = append(out, activityResponse{
			Kind:       a.Kind,
			SubjectID:  a.SubjectID,
			Payload:    a.Payload,
			OccurredAt: a.OccurredAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
