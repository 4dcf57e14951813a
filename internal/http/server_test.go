package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"multitool/internal/amqp"
	"multitool/internal/arith"
	"multitool/internal/cache"
	"multitool/internal/core"
	applog "multitool/internal/log"
	"multitool/internal/metrics"
	"multitool/internal/qrcode"
	"multitool/internal/services"
	"multitool/internal/storage"
)

var fakePNG = []byte("\x89PNG\r\n\x1a\nfake")

// inlineRecorder stands in for the broker and worker: published events are
// recorded straight away.
type inlineRecorder struct {
	activity *services.ActivityService
}

func (p inlineRecorder) Publish(ctx context.Context, e *amqp.ActivityEvent) error {
	_, err := p.activity.Record(ctx, e)
	return err
}

type testEnv struct {
	srv      *Server
	ts       *httptest.Server
	metrics  *metrics.Metrics
	qrFail   atomic.Bool
	qrServed atomic.Int32
}

func newTestEnv(t *testing.T, rateLimit int) *testEnv {
	t.Helper()
	env := &testEnv{metrics: metrics.New()}

	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "http.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env.qrFail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		env.qrServed.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(fakePNG)
	}))
	t.Cleanup(upstream.Close)

	qr, err := qrcode.NewClient(upstream.URL+"/v1/create-qr-code/", 150)
	require.NoError(t, err)

	activity := services.NewActivityService(repo)
	events := services.NewEvents(inlineRecorder{activity: activity}, env.metrics)
	calc := services.NewCalculationService(repo, cache.NewLRUCache[core.TaxYearParameters](64, time.Minute), env.metrics, nil)

	srv, err := NewServer(Options{Addr: ":0", RateLimitPerMinute: rateLimit}, Deps{
		DB:        repo,
		Auth:      services.NewAuthService(repo, events, time.Hour, services.WithBcryptCost(bcrypt.MinCost)),
		Params:    services.NewTaxParameterService(repo, events, calc),
		Calc:      calc,
		Reminders: services.NewReminderService(repo, events),
		Activity:  activity,
		QR:        qr,
		History:   arith.NewHistory(cache.NewLRUCache[[]string](64, time.Hour), arith.DefaultHistorySize),
		Metrics:   env.metrics,
		Logger:    applog.New(applog.Config{Output: io.Discard, Format: "json"}),
	})
	require.NoError(t, err)

	env.srv = srv
	env.ts = httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		env.ts.Close()
		_ = srv.Shutdown(context.Background())
	})
	return env
}

// apiClient keeps its own cookie jar, so each one is a separate browser.
type apiClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func (env *testEnv) client(t *testing.T) *apiClient {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &apiClient{t: t, base: env.ts.URL, http: &http.Client{Jar: jar}}
}

func (c *apiClient) do(method, path string, body any) *http.Response {
	c.t.Helper()
	var rdr io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, c.base+path, rdr)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// call performs the request, checks the status and decodes into out when
// it is non-nil.
func (c *apiClient) call(method, path string, body any, wantStatus int, out any) {
	c.t.Helper()
	resp := c.do(method, path, body)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	require.Equal(c.t, wantStatus, resp.StatusCode, "%s %s: %s", method, path, raw)
	if out != nil {
		require.NoError(c.t, json.Unmarshal(raw, out), string(raw))
	}
}

func (c *apiClient) errorMessage(method, path string, body any, wantStatus int) string {
	c.t.Helper()
	var e errorBody
	c.call(method, path, body, wantStatus, &e)
	return e.Error
}

func (c *apiClient) signUp(name, email string) userResponse {
	c.t.Helper()
	creds := map[string]string{"name": name, "email": email, "password": "password123"}
	var u userResponse
	c.call(http.MethodPost, "/api/register", creds, http.StatusCreated, nil)
	c.call(http.MethodPost, "/api/login", creds, http.StatusOK, &u)
	return u
}

func TestIndexHealthAndStatic(t *testing.T) {
	env := newTestEnv(t, 100)
	c := env.client(t)

	resp := c.do(http.MethodGet, "/", nil)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "<h1>Multitool</h1>")
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), env.srv.QR.Origin())
	assert.True(t, strings.HasPrefix(resp.Header.Get("X-Request-ID"), "req_"))

	resp = c.do(http.MethodGet, "/static/app.css", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "public, max-age=3600", resp.Header.Get("Cache-Control"))

	var health map[string]any
	c.call(http.MethodGet, "/healthz", nil, http.StatusOK, &health)
	assert.Equal(t, "ok", health["status"])

	var ready struct {
		Status string         `json:"status"`
		Checks map[string]any `json:"checks"`
	}
	c.call(http.MethodGet, "/readyz", nil, http.StatusOK, &ready)
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, "ok", ready.Checks["database"])

	c.call(http.MethodGet, "/nope", nil, http.StatusNotFound, nil)
}

func TestAPIRequiresSession(t *testing.T) {
	env := newTestEnv(t, 100)
	c := env.client(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/me"},
		{http.MethodPost, "/api/calculate"},
		{http.MethodGet, "/api/tax-parameters"},
		{http.MethodGet, "/api/years"},
		{http.MethodGet, "/api/reminders"},
		{http.MethodGet, "/api/qrcode?text=x"},
		{http.MethodPost, "/api/basiccalc"},
		{http.MethodGet, "/api/activity"},
	} {
		msg := c.errorMessage(tc.method, tc.path, nil, http.StatusUnauthorized)
		assert.Equal(t, "Unauthorized", msg, tc.path)
	}

	req, err := http.NewRequest(http.MethodGet, env.ts.URL+"/api/me", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "forged"})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestRegisterLoginLogout(t *testing.T) {
	env := newTestEnv(t, 100)
	c := env.client(t)

	creds := map[string]string{"name": "ada LOVELACE", "email": " Ada@Example.com ", "password": "password123"}
	var created userResponse
	c.call(http.MethodPost, "/api/register", creds, http.StatusCreated, &created)
	assert.Equal(t, "Ada Lovelace", created.Name)
	assert.Equal(t, "ada@example.com", created.Email)

	assert.Equal(t, "Email already exists!",
		c.errorMessage(http.MethodPost, "/api/register", creds, http.StatusConflict))
	assert.Equal(t, "Password must be at least 8 characters",
		c.errorMessage(http.MethodPost, "/api/register",
			map[string]string{"name": "x", "email": "x@example.com", "password": "short"}, http.StatusBadRequest))

	assert.Equal(t, "Invalid email or password",
		c.errorMessage(http.MethodPost, "/api/login",
			map[string]string{"email": "ada@example.com", "password": "wrong-password"}, http.StatusUnauthorized))

	resp := c.do(http.MethodPost, "/api/login", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == SessionCookie {
			session = ck
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, session.SameSite)

	var me userResponse
	c.call(http.MethodGet, "/api/me", nil, http.StatusOK, &me)
	assert.Equal(t, created.ID, me.ID)

	c.call(http.MethodPost, "/api/logout", nil, http.StatusOK, nil)
	c.call(http.MethodGet, "/api/me", nil, http.StatusUnauthorized, nil)
}

func TestLoginAcceptsFormBody(t *testing.T) {
	env := newTestEnv(t, 100)
	c := env.client(t)
	c.signUp("form user", "form@example.com")

	resp, err := c.http.PostForm(env.ts.URL+"/api/login", map[string][]string{
		"email":    {"form@example.com"},
		"password": {"password123"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTaxParametersAndCalculation(t *testing.T) {
	env := newTestEnv(t, 100)
	c := env.client(t)
	c.signUp("tax payer", "tax@example.com")

	var seeded []core.TaxYearParameters
	c.call(http.MethodGet, "/api/tax-parameters", nil, http.StatusOK, &seeded)
	require.Len(t, seeded, 1)
	assert.Equal(t, time.Now().Year(), seeded[0].Year)

	// The year lookup comes before income validation.
	assert.Equal(t, msgParamsNotFound, c.errorMessage(http.MethodPost, "/api/calculate",
		map[string]any{"year": 2019, "income": -5}, http.StatusNotFound))
	assert.Equal(t, msgParamsNotFound, c.errorMessage(http.MethodPost, "/api/calculate",
		map[string]any{"income": 60000}, http.StatusNotFound))

	params := core.DefaultParameters(2019)
	var created core.TaxYearParameters
	c.call(http.MethodPost, "/api/tax-parameters", params, http.StatusCreated, &created)
	assert.Equal(t, 2019, created.Year)
	assert.NotZero(t, created.ID)

	assert.Equal(t, msgYearExists, c.errorMessage(http.MethodPost, "/api/tax-parameters", params, http.StatusBadRequest))
	assert.Equal(t, "Tax year is required", c.errorMessage(http.MethodPost, "/api/tax-parameters",
		map[string]any{"incomeTax": params.IncomeTax}, http.StatusBadRequest))
	msg := c.errorMessage(http.MethodPost, "/api/tax-parameters",
		map[string]any{"year": 2018, "incomeTax": params.IncomeTax}, http.StatusBadRequest)
	assert.Contains(t, msg, "nationalInsurance.primaryThreshold")

	var years []int
	c.call(http.MethodGet, "/api/years", nil, http.StatusOK, &years)
	assert.Equal(t, []int{2019, time.Now().Year()}, years)
	c.call(http.MethodGet, "/api/getYears", nil, http.StatusOK, &years)
	assert.Len(t, years, 2)

	assert.Equal(t, "Income must be greater than zero.", c.errorMessage(http.MethodPost, "/api/calculate",
		map[string]any{"year": 2019, "income": 0}, http.StatusBadRequest))
	assert.Equal(t, "Income is too large to compute.", c.errorMessage(http.MethodPost, "/api/calculate",
		map[string]any{"year": 2019, "income": 1e308}, http.StatusBadRequest))
	assert.Equal(t, "Income is too large to compute.", c.errorMessage(http.MethodGet,
		"/api/calculate/summary?year=2019&income=1"+strings.Repeat("0", 308), nil, http.StatusBadRequest))

	var res struct {
		Income            float64 `json:"income"`
		IncomeTax         float64 `json:"incomeTax"`
		Tax20             float64 `json:"tax20"`
		Tax40             float64 `json:"tax40"`
		NationalInsurance float64 `json:"nationalInsurance"`
		SelfEmployed      float64 `json:"senationalInsurance"`
	}
	c.call(http.MethodPost, "/api/calculate", map[string]any{"year": 2019, "income": 60000}, http.StatusOK, &res)
	assert.InDelta(t, 11432, res.IncomeTax, 1e-6)
	assert.InDelta(t, 3210.6, res.NationalInsurance, 1e-6)
	assert.InDelta(t, res.Tax20+res.Tax40, res.IncomeTax, 1e-6)

	var sum services.CalculationSummary
	c.call(http.MethodGet, "/api/calculate/summary?year=2019&income=60000&period=monthly", nil, http.StatusOK, &sum)
	assert.InDelta(t, (60000-11432-3210.6)/12, sum.Summary.Employed.Net, 1e-6)
	c.call(http.MethodGet, "/api/calculate/summary?year=2019&income=1&period=weekly", nil, http.StatusBadRequest, nil)

	// Partial update: only the basic rate changes.
	var updated core.TaxYearParameters
	c.call(http.MethodPut, "/api/tax-parameters/"+itoa(created.ID),
		map[string]any{"incomeTax": map[string]any{"basicRate": 10}}, http.StatusOK, &updated)
	assert.Equal(t, 10.0, updated.IncomeTax.BasicRate)
	assert.Equal(t, params.IncomeTax.HigherRate, updated.IncomeTax.HigherRate)
	assert.Equal(t, 2019, updated.Year)

	c.call(http.MethodPost, "/api/calculate", map[string]any{"year": 2019, "income": 30000}, http.StatusOK, &res)
	assert.InDelta(t, 1743, res.IncomeTax, 1e-6)

	var del messageBody
	c.call(http.MethodDelete, "/api/tax-parameters/"+itoa(created.ID), nil, http.StatusOK, &del)
	assert.Equal(t, "Record deleted", del.Message)
	c.call(http.MethodPost, "/api/calculate", map[string]any{"year": 2019, "income": 30000}, http.StatusNotFound, nil)
}

func TestTaxParametersAreOwnerScoped(t *testing.T) {
	env := newTestEnv(t, 100)
	owner := env.client(t)
	owner.signUp("owner", "owner@example.com")
	intruder := env.client(t)
	intruder.signUp("intruder", "intruder@example.com")

	var created core.TaxYearParameters
	owner.call(http.MethodPost, "/api/tax-parameters", core.DefaultParameters(2020), http.StatusCreated, &created)
	path := "/api/tax-parameters/" + itoa(created.ID)

	assert.Equal(t, "Not found or unauthorized.",
		intruder.errorMessage(http.MethodPut, path, map[string]any{"year": 2021}, http.StatusForbidden))
	assert.Equal(t, "Not found or unauthorized.",
		intruder.errorMessage(http.MethodDelete, path, nil, http.StatusForbidden))
	assert.Equal(t, "ID is required for update.",
		owner.errorMessage(http.MethodPut, "/api/tax-parameters/abc", map[string]any{}, http.StatusBadRequest))

	// The intruder cannot calculate against someone else's year either.
	intruder.call(http.MethodPost, "/api/calculate", map[string]any{"year": 2020, "income": 1000}, http.StatusNotFound, nil)
	owner.call(http.MethodPost, "/api/calculate", map[string]any{"year": 2020, "income": 1000}, http.StatusOK, nil)
}

func TestReminderCRUD(t *testing.T) {
	env := newTestEnv(t, 100)
	c := env.client(t)
	c.signUp("rem user", "rem@example.com")
	other := env.client(t)
	other.signUp("other", "other-rem@example.com")

	assert.Equal(t, "Title is required", c.errorMessage(http.MethodPost, "/api/reminders",
		map[string]string{"title": "  ", "content": "x"}, http.StatusBadRequest))

	var rem reminderResponse
	c.call(http.MethodPost, "/api/reminders", map[string]string{"title": "Pay tax", "content": "by Jan 31"}, http.StatusCreated, &rem)
	assert.Equal(t, "Pay tax", rem.Title)

	var list []reminderResponse
	c.call(http.MethodGet, "/api/reminders", nil, http.StatusOK, &list)
	require.Len(t, list, 1)

	path := "/api/reminders/" + itoa(rem.ID)
	other.call(http.MethodGet, path, nil, http.StatusNotFound, nil)
	other.call(http.MethodPut, path, map[string]string{"title": "mine now"}, http.StatusNotFound, nil)

	c.call(http.MethodPut, path, map[string]string{"title": "Pay tax", "content": "done"}, http.StatusOK, &rem)
	assert.Equal(t, "done", rem.Content)

	// Collection-level update with the id in the body.
	c.call(http.MethodPut, "/api/reminders", map[string]any{"id": rem.ID, "title": "Renamed"}, http.StatusOK, &rem)
	c.call(http.MethodGet, path, nil, http.StatusOK, &rem)
	assert.Equal(t, "Renamed", rem.Title)

	c.call(http.MethodDelete, "/api/reminders", map[string]any{"id": rem.ID}, http.StatusOK, nil)
	c.call(http.MethodGet, "/api/reminders", nil, http.StatusOK, &list)
	assert.Empty(t, list)
	c.call(http.MethodDelete, path, nil, http.StatusNotFound, nil)
}

func TestQRCode(t *testing.T) {
	env := newTestEnv(t, 100)
	c := env.client(t)
	c.signUp("qr user", "qr@example.com")

	assert.Equal(t, "Text parameter is required",
		c.errorMessage(http.MethodGet, "/api/qrcode", nil, http.StatusBadRequest))

	var out qrCodeResponse
	c.call(http.MethodGet, "/api/qrcode?text=hello+world", nil, http.StatusOK, &out)
	assert.Equal(t, env.srv.QR.Origin()+"/v1/create-qr-code/?size=150x150&data=hello%20world", out.QRCodeURL)

	resp := c.do(http.MethodGet, "/api/qrcode/image?text=hello", nil)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "qrcode.png")
	assert.Equal(t, fakePNG, body)
	assert.EqualValues(t, 1, env.qrServed.Load())

	env.qrFail.Store(true)
	assert.Equal(t, "QR service unavailable",
		c.errorMessage(http.MethodGet, "/api/qrcode/image?text=other", nil, http.StatusBadGateway))
}

func TestBasicCalc(t *testing.T) {
	env := newTestEnv(t, 100)
	c := env.client(t)
	c.signUp("calc user", "calc@example.com")

	var res basicCalcResponse
	c.call(http.MethodPost, "/api/basiccalc", map[string]string{"expression": "2 + 3 * 4"}, http.StatusOK, &res)
	assert.Equal(t, 14.0, res.Result)
	assert.Equal(t, []string{"2 + 3 * 4 = 14"}, res.History)

	c.call(http.MethodPost, "/api/basiccalc", map[string]any{"op": "square", "value": 3}, http.StatusOK, &res)
	assert.Equal(t, 9.0, res.Result)
	assert.Equal(t, []string{"(3)² = 9", "2 + 3 * 4 = 14"}, res.History)

	assert.Equal(t, "Division by zero",
		c.errorMessage(http.MethodPost, "/api/basiccalc", map[string]string{"expression": "1/0"}, http.StatusBadRequest))
	c.call(http.MethodPost, "/api/basiccalc", map[string]any{"op": "sqrt", "value": -4}, http.StatusBadRequest, nil)
	assert.Equal(t, "Value is required",
		c.errorMessage(http.MethodPost, "/api/basiccalc", map[string]any{"op": "sqrt"}, http.StatusBadRequest))

	// History is per user.
	other := env.client(t)
	other.signUp("other calc", "other-calc@example.com")
	other.call(http.MethodPost, "/api/basiccalc", map[string]string{"expression": "1+1"}, http.StatusOK, &res)
	assert.Equal(t, []string{"1+1 = 2"}, res.History)

	c.call(http.MethodDelete, "/api/basiccalc/history", nil, http.StatusOK, &res)
	assert.Empty(t, res.History)
}

func TestActivityFeed(t *testing.T) {
	env := newTestEnv(t, 100)
	c := env.client(t)
	c.signUp("busy user", "busy@example.com")

	c.call(http.MethodPost, "/api/reminders", map[string]string{"title": "one"}, http.StatusCreated, nil)

	var feed []activityResponse
	c.call(http.MethodGet, "/api/activity?limit=5", nil, http.StatusOK, &feed)
	require.NotEmpty(t, feed)
	assert.Equal(t, amqp.KindReminderCreated, feed[0].Kind)

	kinds := make([]string, 0, len(feed))
	for _, a := range feed {
		kinds = append(kinds, a.Kind)
	}
	assert.Contains(t, kinds, amqp.KindUserRegistered)
}

func TestMutationsAreRateLimited(t *testing.T) {
	env := newTestEnv(t, 2)
	c := env.client(t)

	bad := map[string]string{"email": "nobody@example.com", "password": "password123"}
	c.call(http.MethodPost, "/api/login", bad, http.StatusUnauthorized, nil)
	c.call(http.MethodPost, "/api/login", bad, http.StatusUnauthorized, nil)

	resp := c.do(http.MethodPost, "/api/login", bad)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))

	// Reads are not limited.
	c.call(http.MethodGet, "/healthz", nil, http.StatusOK, nil)
	assert.EqualValues(t, 1, env.srv.limiter.Rejected())
}

func TestUnusualMethodsAreBlocked(t *testing.T) {
	env := newTestEnv(t, 100)
	c := env.client(t)

	resp := c.do("TRACE", "/", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.EqualValues(t, 1, env.srv.detector.Blocked())
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, 100)
	c := env.client(t)
	c.call(http.MethodGet, "/healthz", nil, http.StatusOK, nil)
	c.call(http.MethodGet, "/api/me", nil, http.StatusUnauthorized, nil)

	resp := c.do(http.MethodGet, "/metrics", nil)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `route="GET /healthz"`)
	assert.Contains(t, string(body), `route="GET /api/me",status="401"`)
}

func TestNewServerRequiresDeps(t *testing.T) {
	_, err := NewServer(Options{}, Deps{})
	assert.Error(t, err)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
