package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"multitool/internal/core"
	applog "multitool/internal/log"
)

// SessionCookie carries the opaque session token.
const SessionCookie = "multitool_session"

type userKey struct{}

// authedHandler is a handler that runs with the signed-in user.
type authedHandler func(w http.ResponseWriter, r *http.Request, user core.User)

// userResponse is the public view of a user.
type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserResponse(u core.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

// requireUser resolves the session cookie and answers 401 when it is
// missing, unknown or expired.
func (s *Server) requireUser(next authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(SessionCookie)
		if err != nil || c.Value == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user, err := s.Auth.Authenticate(r.Context(), c.Value)
		if err != nil {
			if errors.Is(err, core.ErrUnauthorized) {
				http.SetCookie(w, s.clearedCookie(r))
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			s.writeServiceError(w, r, applog.OpRead, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey{}, user)
		ctx = applog.NewContext(ctx, applog.FromContext(ctx).With(applog.FieldUserID, user.ID))
		next(w, r.WithContext(ctx), user)
	})
}

// UserFromContext returns the user resolved by requireUser.
func UserFromContext(ctx context.Context) (core.User, bool) {
	u, ok := ctx.Value(userKey{}).(core.User)
	return u, ok
}

func (s *Server) sessionCookie(r *http.Request, sess core.Session) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) clearedCookie(r *http.Request) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.writeServiceError(w, r, applog.OpRegister, err)
		return
	}

	user, err := s.Auth.Register(r.Context(), p.Get("name"), p.Get("email"), p.Raw("password"))
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			writeError(w, http.StatusConflict, "Email already exists!")
			return
		}
		s.writeServiceError(w, r, applog.OpRegister, err)
		return
	}

	applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth).InfoContext(r.Context(), "User registered",
		applog.FieldUserID, user.ID)
	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.writeServiceError(w, r, applog.OpLogin, err)
		return
	}

	sess, user, err := s.Auth.Login(r.Context(), p.Get("email"), p.Raw("password"))
	if err != nil {
		if errors.Is(err, core.ErrUnauthorized) {
			applog.FromContext(r.Context()).WithComponent(applog.ComponentAuth).WarnContext(r.Context(), "Login failed",
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				applog.FieldErrorType, applog.ErrorTypeAuth)
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		s.writeServiceError(w, r, applog.OpLogin, err)
		return
	}

	NewJSONResponse().
		Cookie(s.sessionCookie(r, sess)).
		JSON(toUserResponse(user)).
		Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, user core.User) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if err := s.Auth.Logout(r.Context(), c.Value); err != nil {
			s.writeServiceError(w, r, applog.OpDelete, err)
			return
		}
	}
	s.History.Clear(historyKey(user))

	NewJSONResponse().
		Cookie(s.clearedCookie(r)).
		JSON(messageBody{Message: "Logged out"}).
		Write(w)
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, user core.User) {
	writeJSON(w, http.StatusOK, toUserResponse(user))
}
