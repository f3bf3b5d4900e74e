package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Olprog59/go-deliverables/internal/app"
	"github.com/Olprog59/go-deliverables/internal/config"
	"github.com/Olprog59/go-deliverables/internal/domain"
	"github.com/Olprog59/go-deliverables/internal/dto"
	"github.com/Olprog59/go-deliverables/internal/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:      config.ServerConfig{Port: "0"},
		Environment: "test",
		Cache:       config.CacheConfig{TTL: time.Minute},
		Session: config.SessionConfig{
			CookieName:  "deliverables_session",
			IdleTimeout: time.Hour,
			MaxSessions: 100,
		},
		Metrics: config.MetricsConfig{Enabled: true},
	}
}

// testClient drives the server like a browser: it keeps cookies and follows redirects.
type testClient struct {
	t    *testing.T
	srv  *httptest.Server
	http *http.Client
	repo *mocks.MockDeliverableRepository
}

func newTestClient(t *testing.T, cfg *config.Config) *testClient {
	t.Helper()
	repo := mocks.NewMockDeliverableRepository()

	container, err := app.NewContainer(context.Background(), cfg,
		app.WithRegisterer(prometheus.NewRegistry()),
		app.WithRepository(repo),
	)
	require.NoError(t, err)

	handler, mw := NewMux(NewHandler(container), cfg, container)
	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		srv.Close()
		mw.Close()
	})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testClient{t: t, srv: srv, http: &http.Client{Jar: jar}, repo: repo}
}

func (c *testClient) do(method, path string, body io.Reader, header http.Header) (*http.Response, string) {
	c.t.Helper()
	req, err := http.NewRequest(method, c.srv.URL+path, body)
	require.NoError(c.t, err)
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, string(b)
}

func (c *testClient) csrfToken() string {
	c.t.Helper()
	u, _ := url.Parse(c.srv.URL)
	for _, ck := range c.http.Jar.Cookies(u) {
		if ck.Name == CSRFCookie {
			return ck.Value
		}
	}
	// First visit creates the session
	c.do(http.MethodGet, "/", nil, nil)
	for _, ck := range c.http.Jar.Cookies(u) {
		if ck.Name == CSRFCookie {
			return ck.Value
		}
	}
	c.t.Fatal("no csrf cookie")
	return ""
}

func (c *testClient) api(method, path string, body any) (*http.Response, string) {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(b)
	}
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set(CSRFHeader, c.csrfToken())
	return c.do(method, path, r, h)
}

func (c *testClient) event(values url.Values) (*http.Response, string) {
	c.t.Helper()
	values.Set(CSRFField, c.csrfToken())
	h := http.Header{}
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(http.MethodPost, "/ui/event", strings.NewReader(values.Encode()), h)
}

func seedInput(name string) domain.DeliverableInput {
	return domain.DeliverableInput{
		Name:      name,
		Lead:      "Dr. X",
		Field:     "AI",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func validRequest(name string) dto.DeliverableRequest {
	return dto.DeliverableRequest{Name: name, Lead: "Dr. X", Field: "AI", StartDate: "2024-01-01", EndDate: "2024-02-01"}
}

func TestHealthCheck(t *testing.T) {
	c := newTestClient(t, testConfig())

	resp, body := c.do(http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var health HealthResponse
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, "ok", health.Status)
	assert.NotEmpty(t, health.Uptime)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
}

func TestReadinessCheck(t *testing.T) {
	c := newTestClient(t, testConfig())

	resp, _ := c.do(http.MethodGet, "/readiness", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	c.repo.PingError = errors.New("unreachable")
	resp, body := c.do(http.MethodGet, "/readiness", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body, `"backend":"error"`)
}

func TestAPI_ListAndSearch(t *testing.T) {
	c := newTestClient(t, testConfig())
	c.repo.Seed(seedInput("Topic A"), seedInput("Other B"), seedInput("TOPIC c"))

	resp, body := c.do(http.MethodGet, "/api/deliverables?q=topic", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list dto.ListResponse
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	assert.Equal(t, 2, list.Count)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "TOPIC c", list.Items[0].Name, "newest first")
	assert.Equal(t, "2024-01-01", list.Items[0].StartDate)
}

func TestAPI_ListBackendFailureIsEmptyListWithError(t *testing.T) {
	c := newTestClient(t, testConfig())
	c.repo.ListError = domain.ErrTransport

	resp, body := c.do(http.MethodGet, "/api/deliverables", nil, nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.ListResponse
	require.NoError(t, json.Unmarshal([]byte(body), &list))
	assert.Empty(t, list.Items)
	assert.NotNil(t, list.Items)
	assert.NotEmpty(t, list.Error)
}

func TestAPI_GetDeliverable(t *testing.T) {
	c := newTestClient(t, testConfig())
	rows := c.repo.Seed(seedInput("Topic A"))

	resp, body := c.do(http.MethodGet, "/api/deliverables/"+rows[0].ID, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"name":"Topic A"`)

	resp, _ = c.do(http.MethodGet, "/api/deliverables/999", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_CreateRequiresCSRF(t *testing.T) {
	c := newTestClient(t, testConfig())
	c.csrfToken()

	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set(CSRFHeader, "forged")
	b, _ := json.Marshal(validRequest("x"))
	resp, _ := c.do(http.MethodPost, "/api/deliverables", bytes.NewReader(b), h)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, c.repo.InsertCalls)
}

func TestAPI_Create(t *testing.T) {
	c := newTestClient(t, testConfig())

	resp, body := c.api(http.MethodPost, "/api/deliverables", validRequest("Topic A"))

	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	var out dto.OutcomeResponse
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.True(t, out.OK)
	require.NotNil(t, out.Record)
	assert.Equal(t, "Topic A", out.Record.Name)
	assert.Equal(t, "2024-02-01", out.Record.EndDate)

	_, body = c.do(http.MethodGet, "/api/deliverables", nil, nil)
	assert.Contains(t, body, "Topic A", "write invalidated the cached list")
}

func TestAPI_CreateValidationFailure(t *testing.T) {
	c := newTestClient(t, testConfig())
	req := dto.DeliverableRequest{Name: "", Lead: "", Field: "AI", StartDate: "2024-06-01", EndDate: "2024-01-01"}

	resp, body := c.api(http.MethodPost, "/api/deliverables", req)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var out dto.OutcomeResponse
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.False(t, out.OK)
	assert.Equal(t, []string{domain.MsgNameRequired, domain.MsgLeadRequired, domain.MsgDateOrder}, out.Errors)
	assert.Equal(t, 0, c.repo.InsertCalls)
}

func TestAPI_CreateBadDateAndBody(t *testing.T) {
	c := newTestClient(t, testConfig())

	req := validRequest("x")
	req.StartDate = "01/02/2024"
	resp, _ := c.api(http.MethodPost, "/api/deliverables", req)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	h := http.Header{}
	h.Set(CSRFHeader, c.csrfToken())
	resp, _ = c.do(http.MethodPost, "/api/deliverables", strings.NewReader("{not json"), h)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_CreateEmptyAcknowledgment(t *testing.T) {
	c := newTestClient(t, testConfig())
	c.repo.EmptyAck = true

	resp, body := c.api(http.MethodPost, "/api/deliverables", validRequest("x"))

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body, `"ok":false`)
}

func TestAPI_Update(t *testing.T) {
	c := newTestClient(t, testConfig())
	rows := c.repo.Seed(seedInput("before"))

	resp, body := c.api(http.MethodPut, "/api/deliverables/"+rows[0].ID, validRequest("after"))

	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "after", c.repo.Rows[0].Name)

	resp, _ = c.api(http.MethodPut, "/api/deliverables/999", validRequest("ghost"))
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestAPI_DeleteNeedsConfirmation(t *testing.T) {
	c := newTestClient(t, testConfig())
	rows := c.repo.Seed(seedInput("X"))

	resp, body := c.api(http.MethodDelete, "/api/deliverables/"+rows[0].ID, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body, "confirm=true")
	assert.Equal(t, 0, c.repo.DeleteCalls)
	assert.Len(t, c.repo.Rows, 1)

	resp, _ = c.api(http.MethodDelete, "/api/deliverables/"+rows[0].ID+"?confirm=true", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, c.repo.Rows)
}

func TestAPI_Refresh(t *testing.T) {
	c := newTestClient(t, testConfig())
	c.do(http.MethodGet, "/api/deliverables", nil, nil)
	c.repo.Seed(seedInput("late"))

	_, body := c.do(http.MethodGet, "/api/deliverables", nil, nil)
	assert.NotContains(t, body, "late", "served from cache")

	resp, _ := c.api(http.MethodPost, "/api/deliverables/refresh", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = c.do(http.MethodGet, "/api/deliverables", nil, nil)
	assert.Contains(t, body, "late")
}

func TestUI_EmptyListing(t *testing.T) {
	c := newTestClient(t, testConfig())

	resp, body := c.do(http.MethodGet, "/", nil, nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "No data yet.")
	assert.NotEmpty(t, resp.Header.Get("Content-Security-Policy"))
}

func TestUI_CreateFlow(t *testing.T) {
	c := newTestClient(t, testConfig())

	_, body := c.event(url.Values{"event": {"mode"}, "mode": {"create"}})
	today := time.Now().Format("2006-01-02")
	assert.Contains(t, body, `value="`+today+`"`, "create form defaults to today")

	_, body = c.event(url.Values{
		"event": {"create"}, "name": {"Topic A"}, "lead": {"Dr. X"}, "field": {"AI"},
		"start_date": {"2024-01-01"}, "end_date": {"2024-02-01"},
	})
	assert.Contains(t, body, "Deliverable added successfully.")
	assert.NotContains(t, body, `value="Topic A"`, "form cleared after success")
	assert.Equal(t, 1, c.repo.InsertCalls)

	// The message is shown once
	_, body = c.do(http.MethodGet, "/", nil, nil)
	assert.NotContains(t, body, "Deliverable added successfully.")
}

func TestUI_CreateValidationKeepsForm(t *testing.T) {
	c := newTestClient(t, testConfig())

	_, body := c.event(url.Values{
		"event": {"create"}, "name": {"Keep me"}, "lead": {""}, "field": {"AI"},
		"start_date": {"2024-01-01"}, "end_date": {"2024-02-01"},
	})

	assert.Contains(t, body, domain.MsgLeadRequired)
	assert.Contains(t, body, `value="Keep me"`)
	assert.Equal(t, 0, c.repo.InsertCalls)
}

func TestUI_TwoStepDelete(t *testing.T) {
	c := newTestClient(t, testConfig())
	rows := c.repo.Seed(seedInput("X"), seedInput("Y"))

	_, body := c.event(url.Values{"event": {"select"}, "id": {rows[0].ID}})
	assert.Contains(t, body, `value="X"`)

	_, body = c.event(url.Values{"event": {"delete"}, "id": {rows[0].ID}})
	assert.Contains(t, body, "Press Delete again to confirm deleting")
	assert.Contains(t, body, "Confirm delete")
	assert.Len(t, c.repo.Rows, 2)

	_, body = c.event(url.Values{"event": {"delete"}, "id": {rows[0].ID}})
	assert.Contains(t, body, "Deliverable deleted.")
	require.Len(t, c.repo.Rows, 1)
	assert.Equal(t, "Y", c.repo.Rows[0].Name)
}

func TestUI_SessionsAreIsolated(t *testing.T) {
	c := newTestClient(t, testConfig())
	rows := c.repo.Seed(seedInput("X"))
	c.event(url.Values{"event": {"delete"}, "id": {rows[0].ID}})

	// A second browser pressing once only arms its own confirmation
	other := &testClient{t: t, srv: c.srv, repo: c.repo}
	jar, _ := cookiejar.New(nil)
	other.http = &http.Client{Jar: jar}
	other.event(url.Values{"event": {"delete"}, "id": {rows[0].ID}})

	assert.Equal(t, 0, c.repo.DeleteCalls)
}

func TestUI_Rejections(t *testing.T) {
	c := newTestClient(t, testConfig())

	resp, _ := c.event(url.Values{"event": {"explode"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	h := http.Header{}
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, _ = c.do(http.MethodPost, "/ui/event", strings.NewReader("event=refresh"), h)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRateLimitWrites(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimiter = config.RateLimiterConfig{Enabled: true, RPS: 0.01, Burst: 10}
	c := newTestClient(t, cfg)

	var codes []int
	for range 6 {
		resp, _ := c.api(http.MethodPost, "/api/deliverables/refresh", nil)
		codes = append(codes, resp.StatusCode)
	}

	assert.Equal(t, []int{200, 200, 200, 200, 200, 429}, codes)
}

func TestMetricsEndpoint(t *testing.T) {
	c := newTestClient(t, testConfig())

	resp, _ := c.do(http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{2*time.Hour + 15*time.Minute + 30*time.Second, "2h 15m 30s"},
		{29*time.Hour + 23*time.Minute + 10*time.Second, "1d 5h 23m"},
		{10 * time.Minute, "10m"},
		{24*time.Hour + 5*time.Minute, "1d 5m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatUptime(tt.in), tt.in.String())
	}
}
