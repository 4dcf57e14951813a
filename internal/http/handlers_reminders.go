package http

import (
	"net/http"
	"time"

	"multitool/internal/core"
	applog "multitool/internal/log"
)

type reminderResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toReminderResponse(rem core.Reminder) reminderResponse {
	return reminderResponse{
		ID:        rem.ID,
		Title:     rem.Title,
		Content:   rem.Content,
		CreatedAt: rem.CreatedAt,
		UpdatedAt: rem.UpdatedAt,
	}
}

// reminderID takes the id from the path, falling back to an "id" body
// field for clients that PUT or DELETE the collection.
func reminderID(r *http.Request, p *RequestBodyParser) (int64, error) {
	if raw := r.PathValue("id"); raw != "" {
		return parseID(raw)
	}
	return parseID(p.Get("id"))
}

func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request, user core.User) {
	rems, err := s.Reminders.List(r.Context(), user.ID)
	if err != nil {
		s.writeServiceError(w, r, applog.OpList, err)
		return
	}
	out := make([]reminderResponse, 0, len(rems))
	for _, rem := range rems {
		out = append(out, toReminderResponse(rem))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetReminder(w http.ResponseWriter, r *http.Request, user core.User) {
	id, err := pathID(r)
	if err != nil {
		s.writeServiceError(w, r, applog.OpRead, err)
		return
	}
	rem, err := s.Reminders.Get(r.Context(), user.ID, id)
	if err != nil {
		s.writeServiceError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, toReminderResponse(rem))
}

func (s *Server) handleCreateReminder(w http.ResponseWriter, r *http.Request, user core.User) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.writeServiceError(w, r, applog.OpCreate, err)
		return
	}

	rem, err := s.Reminders.Create(r.Context(), user.ID, p.Get("title"), p.Get("content"))
	if err != nil {
		s.writeServiceError(w, r, applog.OpCreate, err)
		return
	}

	applog.FromContext(r.Context()).WithComponent(applog.ComponentReminder).InfoContext(r.Context(), "Reminder created",
		applog.FieldReminderID, rem.ID)
	writeJSON(w, http.StatusCreated, toReminderResponse(rem))
}

func (s *Server) handleUpdateReminder(w http.ResponseWriter, r *http.Request, user core.User) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.writeServiceError(w, r, applog.OpUpdate, err)
		return
	}
	id, err := reminderID(r, p)
	if err != nil {
		s.writeServiceError(w, r, applog.OpUpdate, err)
		return
	}

	rem, err := s.Reminders.Update(r.Context(), user.ID, id, p.Get("title"), p.Get("content"))
	if err != nil {
		s.writeServiceError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, toReminderResponse(rem))
}

func (s *Server) handleDeleteReminder(w http.ResponseWriter, r *http.Request, user core.User) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.writeServiceError(w, r, applog.OpDelete, err)
		return
	}
	id, err := reminderID(r, p)
	if err != nil {
		s.writeServiceError(w, r, applog.OpDelete, err)
		return
	}

	if err := s.Reminders.Delete(r.Context(), user.ID, id); err != nil {
		s.writeServiceError(w, r, applog.OpDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Reminder deleted"})
}
