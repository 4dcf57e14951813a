package http

import (
	"net/http"

	json "github.com/goccy/go-json"
)

// JSONResponseBuilder provides a fluent API for building API responses:
// status, extra headers, cookies and a JSON body written in one go.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	cookies    []*http.Cookie
	body       any
	hasBody    bool
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *JSONResponseBuilder) Cookie(c *http.Cookie) *JSONResponseBuilder {
	b.cookies = append(b.cookies, c)
	return b
}

// JSON sets the value encoded as the response body.
func (b *JSONResponseBuilder) JSON(v any) *JSONResponseBuilder {
	b.body = v
	b.hasBody = true
	return b
}

// Error sets an {"error": msg} body with the given status.
func (b *JSONResponseBuilder) Error(code int, msg string) *JSONResponseBuilder {
	return b.Status(code).JSON(errorBody{Error: msg})
}

// Write sends the built response. A body that fails to encode becomes a
// 500 with a generic error.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	for _, c := range b.cookies {
		http.SetCookie(w, c)
	}

	if !b.hasBody {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	status := b.statusCode
	if err != nil {
		payload = []byte(`{"error":"Internal server error"}`)
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(payload, '\n'))
}
