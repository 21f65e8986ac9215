package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/rowstore/internal/config"
	"github.com/JonMunkholm/rowstore/internal/core"
	"github.com/JonMunkholm/rowstore/internal/grid/memgrid"
)

// seqIDs hands out id-1, id-2, ...
type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

// stepClock starts at a fixed instant and advances one second per call.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(time.Second)
	return now
}

func testConfig() *config.Config {
	return &config.Config{
		Write:    config.WriteConfig{MaxConcurrent: 1, MaxWaitTime: time.Second, MaxBodyBytes: 1 << 20},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

type testEnv struct {
	srv *Server
	wb  *memgrid.Workbook
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()

	wb := memgrid.New(100)
	clock := &stepClock{t: time.Date(2024, 5, 6, 7, 8, 9, 123_000_000, time.UTC)}
	svc := core.NewService(wb, core.Config{
		IDs:   &seqIDs{},
		Clock: clock.Now,
		Audit: core.AuditFunc(func(context.Context, core.AuditEntry) {}),
	})

	srv := NewServer(svc, cfg)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, wb: wb}
}

func (e *testEnv) addSheet(t *testing.T, name string, header ...any) {
	t.Helper()
	sh, err := e.wb.AddSheet(context.Background(), name)
	require.NoError(t, err)
	require.NoError(t, sh.Set(context.Background(), 1, 1, [][]any{header}))
}

func (e *testEnv) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestExecEnvelopes(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.addSheet(t, "Users", "is_enabled", "name", "age", "id", "created_at", "updated_at")

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	steps := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{"read_empty", http.MethodGet, "/exec?sheet=Users", ""},
		{"create_single", http.MethodPost, "/exec?sheet=Users", `{"name":"Ann","age":30}`},
		{"create_batch", http.MethodPost, "/exec?sheet=Users&method=POST", `[{"name":"Bob","age":41},{"id":"custom","name":"Cy"}]`},
		{"read_all", http.MethodGet, "/exec?sheet=Users", ""},
		{"read_projection", http.MethodGet, "/exec?sheet=Users&fields=name", ""},
		{"update", http.MethodPost, "/exec?sheet=Users&method=PUT", `{"id":"id-2","age":42,"nickname":"B"}`},
		{"delete", http.MethodPost, "/?sheet=Users&method=DELETE", `{"id":"custom"}`},
		{"read_after_writes", http.MethodGet, "/?sheet=Users", ""},
		{"error_unknown_sheet", http.MethodGet, "/exec?sheet=Nope", ""},
		{"error_invalid_json", http.MethodPost, "/exec?sheet=Users", `{"name":`},
		{"error_update_unknown_id", http.MethodPost, "/exec?sheet=Users&method=PUT", `{"id":"zzz","age":1}`},
		{"error_update_missing_id", http.MethodPost, "/exec?sheet=Users&method=UPDATE", `{"age":1}`},
		{"empty_batch", http.MethodPost, "/exec?sheet=Users", `[]`},
	}

	for _, step := range steps {
		rec := env.do(t, step.method, step.target, step.body)

		require.Equal(t, http.StatusOK, rec.Code, step.name)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"), step.name)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), step.name)
		g.Assert(t, step.name, rec.Body.Bytes())
	}
}

func TestExecDefaultsToFirstSheet(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.addSheet(t, "First", "id", "v")
	env.addSheet(t, "Second", "id", "v")

	rec := env.do(t, http.MethodPost, "/exec", `{"v":"x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","message":"1 row(s) appended","createdIds":["id-1"]}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/exec?sheet=First", "")
	assert.JSONEq(t, `{"data":[{"id":"id-1","v":"x"}]}`, rec.Body.String())
}

func TestExecActionParameter(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.addSheet(t, "T", "is_enabled", "id", "v")

	rec := env.do(t, http.MethodPost, "/exec?sheet=T", `[{"v":"a"},{"v":"b"}]`)
	require.JSONEq(t, `{"status":"success","message":"2 row(s) appended","createdIds":["id-1","id-2"]}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/exec?sheet=T&action=PUT", `{"id":"id-1","v":"A"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","message":"Row updated","updatedFields":["v"],"id":"id-1"}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/exec?sheet=T&action=DELETE", `{"id":"id-2"}`)
	assert.JSONEq(t, `{"status":"success","message":"Row soft deleted (is_enabled=false)","id":"id-2"}`, rec.Body.String())

	// method wins over action.
	rec = env.do(t, http.MethodPost, "/exec?sheet=T&method=POST&action=DELETE", `{"v":"c"}`)
	assert.JSONEq(t, `{"status":"success","message":"1 row(s) appended","createdIds":["id-3"]}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/exec?sheet=T", "")
	assert.JSONEq(t, `{"data":[{"id":"id-1","v":"A"},{"id":"id-3","v":"c"}]}`, rec.Body.String())
}

func TestExecBodyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Write.MaxBodyBytes = 16
	env := newTestEnv(t, cfg)
	env.addSheet(t, "T", "id", "v")

	rec := env.do(t, http.MethodPost, "/exec?sheet=T", `{"v":"`+strings.Repeat("x", 64)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"error":"Request body too large"}`, rec.Body.String())
}

func TestExecPreflight(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.do(t, http.MethodOptions, "/exec", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAdminTables(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.do(t, http.MethodGet, "/api/tables", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/tables", `{"name":"Widgets","sample":{"label":"x","qty":2,"ok":true}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "create_table", rec.Body.Bytes())

	rec = env.do(t, http.MethodPost, "/api/tables", `{"name":"Widgets"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"Sheet \"Widgets\" already exists"}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/tables", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Table name is required"}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/tables", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/tables", "")
	assert.JSONEq(t, `{"data":["Widgets"]}`, rec.Body.String())

	// The demonstration record is readable through exec.
	rec = env.do(t, http.MethodGet, "/exec?sheet=Widgets&fields=label", "")
	assert.JSONEq(t, `{"data":[{"label":"x","id":"id-1"}]}`, rec.Body.String())
}

func TestAdminTableSchema(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.addSheet(t, "My Sheet", "is_enabled", "name", "id")

	rec := env.do(t, http.MethodGet, "/api/tables/My%20Sheet/schema", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var desc struct {
		Name    string `json:"name"`
		Columns []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"columns"`
		JSONSchema map[string]any `json:"jsonSchema"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &desc))
	assert.Equal(t, "My Sheet", desc.Name)
	require.Len(t, desc.Columns, 3)
	assert.Equal(t, "is_enabled", desc.Columns[0].Name)
	assert.Equal(t, "boolean", desc.Columns[0].Type)
	assert.Equal(t, "object", desc.JSONSchema["type"])

	rec = env.do(t, http.MethodGet, "/api/tables/Nope/schema", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Sheet \"Nope\" not found"}`, rec.Body.String())
}

func TestAdminRequiresAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"k1"}
	env := newTestEnv(t, cfg)

	rec := env.do(t, http.MethodGet, "/api/tables", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"missing API key"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/tables", "", "X-API-Key", "nope")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/tables", "", "X-API-Key", "k1")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Exec stays open.
	rec = env.do(t, http.MethodGet, "/exec", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminStatus(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.do(t, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"writes":{"active":0,"available":1,"max_concurrent":1}}`, rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 2}
	env := newTestEnv(t, cfg)

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodGet, "/healthz", "")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}

	rec := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
}

func TestPanicBecomesEnvelope(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.srv.Router().Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := env.do(t, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"error":"Internal error"}`, rec.Body.String())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&core.Error{Kind: core.ErrTableNotFound}, http.StatusNotFound},
		{&core.Error{Kind: core.ErrTableExists}, http.StatusConflict},
		{&core.Error{Kind: core.ErrInvalidPayload}, http.StatusBadRequest},
		{&core.Error{Kind: core.ErrMissingColumn}, http.StatusUnprocessableEntity},
		{core.ErrTooManyWrites, http.StatusServiceUnavailable},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "statusFor(%v)", tt.err)
	}
}
