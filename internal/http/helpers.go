package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	json "github.com/goccy/go-json"

	"multitool/internal/core"
	applog "multitool/internal/log"
	"multitool/internal/qrcode"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 64 << 10

var errMalformedBody = fmt.Errorf("%w: malformed JSON body", core.ErrInvalidInput)

// errorBody is the shape of every API error.
type errorBody struct {
	Error string `json:"error"`
}

// messageBody acknowledges operations with nothing else to return.
type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).JSON(v).Write(w)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}

// writeServiceError maps a service error onto its status and public message.
// Unexpected errors are logged and reported without detail.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op, nil)
	}
	writeError(w, status, msg)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest, publicMessage(err, core.ErrInvalidInput)
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden, "Not found or unauthorized."
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict, "Already exists"
	case errors.Is(err, qrcode.ErrUpstream):
		return http.StatusBadGateway, "QR service unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// publicMessage keeps the detail after the sentinel, e.g. "invalid input:
// income must be greater than zero" becomes "Income must be greater than zero".
func publicMessage(err, sentinel error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, sentinel.Error()+": "); i >= 0 {
		msg = msg[i+len(sentinel.Error())+2:]
	} else {
		msg = sentinel.Error()
	}
	return capitalize(msg)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// pathID parses the {id} wildcard.
func pathID(r *http.Request) (int64, error) {
	return parseID(r.PathValue("id"))
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: ID is required", core.ErrInvalidInput)
	}
	return id, nil
}

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
