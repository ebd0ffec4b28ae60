package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"netxlate/internal/config"
	"netxlate/internal/core"
	"netxlate/internal/model"
	"netxlate/internal/update"

	"github.com/tidwall/gjson"
)

func writeTempTestFile(t *testing.T, fileName string, content []byte) string {
	t.Helper()
	filePath := filepath.Join(t.TempDir(), fileName)
	if err := os.WriteFile(filePath, content, core.FilePermissionReadWrite); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return filePath
}

type spyStorage struct {
	mu       sync.Mutex
	saveCall int
	lastStat core.RequestStats
}

func (s *spyStorage) SaveStats(stats *core.RequestStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCall++
	s.lastStat = *stats
	return nil
}

func (s *spyStorage) LoadStats() (*core.RequestStats, error) {
	return &core.RequestStats{}, nil
}

func (s *spyStorage) Close() error { return nil }

func (s *spyStorage) snapshot() (int, core.RequestStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCall, s.lastStat
}

// fakeBackend answers generateContent calls with queued replies.
type fakeBackend struct {
	mu      sync.Mutex
	replies []fakeReply
	bodies  [][]byte
	calls   atomic.Int32
}

type fakeReply struct {
	status int
	body   string
}

func geminiText(text string) fakeReply {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(text)
	return fakeReply{http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"` + escaped + `"}]},"finishReason":"STOP"}]}`}
}

func (f *fakeBackend) push(replies ...fakeReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, replies...)
}

func (f *fakeBackend) lastBody() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[len(f.bodies)-1]
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.calls.Add(1)
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.bodies = append(f.bodies, body)
	reply := fakeReply{http.StatusInternalServerError, "no reply queued"}
	if len(f.replies) > 0 {
		reply, f.replies = f.replies[0], f.replies[1:]
	}
	f.mu.Unlock()

	w.WriteHeader(reply.status)
	_, _ = io.WriteString(w, reply.body)
}

type testEnv struct {
	server  *Server
	backend *fakeBackend
	storage *spyStorage
}

func newTestEnv(t *testing.T, clientKeys ...string) *testEnv {
	t.Helper()

	fb := &fakeBackend{}
	backendSrv := httptest.NewServer(fb)
	t.Cleanup(backendSrv.Close)

	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"tag_name":"v9.0.0","html_url":"https://example.com/release"}`)
	}))
	t.Cleanup(feed.Close)

	modelsPath := writeTempTestFile(t, "models.json", []byte(`{"default":"flash","models":[
		{"id":"flash","name":"Flash","description":"fast","url":"`+backendSrv.URL+`/v1beta/models/{model}:generateContent"},
		{"id":"pro","name":"Pro","description":"careful","url":"`+backendSrv.URL+`/v1beta/models/{model}:generateContent"}]}`))
	registry, err := model.Load(modelsPath, "")
	if err != nil {
		t.Fatalf("model.Load() error = %v", err)
	}

	cfg, err := config.FromLookup(func(key string) string {
		switch key {
		case "GIN_MODE":
			return "test"
		case "GEMINI_API_KEY":
			return "test-credential"
		case "CLIENT_API_KEYS":
			return strings.Join(clientKeys, ",")
		}
		return ""
	}, &core.NopLogger{})
	if err != nil {
		t.Fatalf("config.FromLookup() error = %v", err)
	}

	st := &spyStorage{}
	srv, err := NewServer(cfg, Deps{
		Registry: registry,
		Storage:  st,
		Logger:   &core.NopLogger{},
		Updates: update.NewChecker(update.Config{
			Repo:       "acme/netxlate",
			Endpoint:   feed.URL + "/repos/%s/releases/latest",
			HTTPClient: feed.Client(),
		}),
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })

	return &testEnv{server: srv, backend: fb, storage: st}
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(core.HeaderContentType, core.ContentTypeJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func (e *testEnv) newSession(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/v1/sessions", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create session status = %d, body = %s", w.Code, w.Body.String())
	}
	id := gjson.GetBytes(w.Body.Bytes(), "id").String()
	if !strings.HasPrefix(id, core.SessionIDPrefix) {
		t.Fatalf("session id = %q", id)
	}
	return id
}

const arista = `{"source_text":"interface Eth1\n switchport mode trunk","source_vendor":"Cisco (IOS/IOS-XE)","target_vendor":"Arista (EOS)"}`

func TestServerRoutes_PublicEndpoints(t *testing.T) {
	env := newTestEnv(t, "test-key")

	for _, path := range []string{"/health", "/api/stats", "/api/update"} {
		if w := env.do(t, http.MethodGet, path, ""); w.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, w.Code)
		}
	}

	w := env.do(t, http.MethodGet, "/api/update", "")
	if !gjson.GetBytes(w.Body.Bytes(), "has_update").Bool() {
		t.Errorf("/api/update body = %s", w.Body.String())
	}

	if w := env.do(t, http.MethodGet, "/v1/models", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("/v1/models without key = %d, want 401", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/v1/models", "", core.HeaderAuthorization, core.AuthBearerPrefix+"test-key"); w.Code != http.StatusOK {
		t.Errorf("/v1/models with key = %d, want 200", w.Code)
	}
}

func TestServerRoutes_ModelsAndVendors(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/v1/models", "")
	body := w.Body.Bytes()
	if gjson.GetBytes(body, "default").String() != "flash" || gjson.GetBytes(body, "data.#").Int() != 2 {
		t.Errorf("/v1/models body = %s", body)
	}
	if gjson.GetBytes(body, "data.1.name").String() != "Pro" {
		t.Errorf("second model = %s", gjson.GetBytes(body, "data.1").Raw)
	}
	if strings.Contains(string(body), "generateContent") {
		t.Error("/v1/models must not expose endpoints")
	}

	w = env.do(t, http.MethodGet, "/v1/vendors", "")
	if got := gjson.GetBytes(w.Body.Bytes(), "data.#").Int(); got != 5 {
		t.Errorf("vendor count = %d, want 5", got)
	}
	if got := gjson.GetBytes(w.Body.Bytes(), "data.3.os.1.name").String(); got != "Aruba OS" {
		t.Errorf("Aruba second OS name = %q", got)
	}

	w = env.do(t, http.MethodGet, "/v1/vendors/os?vendor=Juniper%20(Junos)", "")
	if got := gjson.GetBytes(w.Body.Bytes(), "data.#.code").Raw; got != `["Junos"]` {
		t.Errorf("Juniper OS codes = %s", got)
	}
	w = env.do(t, http.MethodGet, "/v1/vendors/os", "")
	if got := gjson.GetBytes(w.Body.Bytes(), "data.#").Int(); got != 9 {
		t.Errorf("union OS count = %d, want 9", got)
	}
}

func TestServerRoutes_TranslateThenExplain(t *testing.T) {
	env := newTestEnv(t)
	id := env.newSession(t)

	env.backend.push(
		geminiText("```eos\ninterface Ethernet1\n   switchport mode trunk\n```"),
		geminiText("## Overview\nA trunk port."),
	)

	w := env.do(t, http.MethodPost, "/v1/sessions/"+id+"/translate", arista)
	if w.Code != http.StatusOK {
		t.Fatalf("translate status = %d, body = %s", w.Code, w.Body.String())
	}
	translated := "interface Ethernet1\n   switchport mode trunk"
	if got := gjson.GetBytes(w.Body.Bytes(), "text").String(); got != translated {
		t.Errorf("translated text = %q", got)
	}
	system := gjson.GetBytes(env.backend.lastBody(), "systemInstruction.parts.0.text").String()
	if !strings.Contains(system, "interface Ethernet1\n        description Uplink") {
		t.Errorf("system prompt lacks the 3-space Arista example:\n%s", system)
	}

	w = env.do(t, http.MethodPost, "/v1/sessions/"+id+"/explain", "")
	if w.Code != http.StatusOK || gjson.GetBytes(w.Body.Bytes(), "outcome").String() != core.OutcomeLabelSuccess {
		t.Fatalf("explain status = %d, body = %s", w.Code, w.Body.String())
	}
	user := gjson.GetBytes(env.backend.lastBody(), "contents.0.parts.0.text").String()
	if user != "Explain the following Arista (EOS) configuration:\n\n"+translated {
		t.Errorf("explain user query = %q", user)
	}

	w = env.do(t, http.MethodGet, "/v1/sessions/"+id, "")
	if gjson.GetBytes(w.Body.Bytes(), "state").String() != "ready" || gjson.GetBytes(w.Body.Bytes(), "translated_text").String() != translated {
		t.Errorf("session snapshot = %s", w.Body.String())
	}
}

func TestServerRoutes_FailureMapping(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		reply    *fakeReply
		wantCode int
		wantKind core.ErrorKind
		wantCall bool
	}{
		{"empty source", `{"source_text":"","target_vendor":"Arista (EOS)"}`, nil, http.StatusBadRequest, core.KindInput, false},
		{"bad json", `{"source_text":`, nil, http.StatusBadRequest, core.KindInput, false},
		{"unknown model", `{"source_text":"hostname R1","target_vendor":"Arista (EOS)","model":"bogus"}`, nil, http.StatusBadRequest, core.KindModelConfig, false},
		{"quota", arista, &fakeReply{http.StatusTooManyRequests, "quota exceeded"}, http.StatusBadGateway, core.KindAPI, true},
		{"blocked", arista, &fakeReply{http.StatusOK, `{"candidates":[{"finishReason":"SAFETY"}]}`}, http.StatusUnprocessableEntity, core.KindBlockedContent, true},
		{"malformed", arista, &fakeReply{http.StatusOK, `{"candidates":[]}`}, http.StatusBadGateway, core.KindMalformedResponse, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			id := env.newSession(t)
			if tt.reply != nil {
				env.backend.push(*tt.reply)
			}

			w := env.do(t, http.MethodPost, "/v1/sessions/"+id+"/translate", tt.body)
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.wantCode, w.Body.String())
			}
			body := w.Body.Bytes()
			if got := gjson.GetBytes(body, "error.kind").String(); got != string(tt.wantKind) {
				t.Errorf("error.kind = %q, want %q", got, tt.wantKind)
			}
			if gotCall := env.backend.calls.Load() > 0; gotCall != tt.wantCall {
				t.Errorf("backend called = %v, want %v", gotCall, tt.wantCall)
			}
			if tt.wantKind == core.KindAPI {
				if gjson.GetBytes(body, "error.status_code").Int() != 429 || gjson.GetBytes(body, "error.body").String() != "quota exceeded" {
					t.Errorf("api error = %s", gjson.GetBytes(body, "error").Raw)
				}
			}
			if tt.wantKind == core.KindBlockedContent && gjson.GetBytes(body, "error.reason").String() != "SAFETY" {
				t.Errorf("blocked error = %s", gjson.GetBytes(body, "error").Raw)
			}
		})
	}
}

func TestServerRoutes_FollowOnWithoutTranslation(t *testing.T) {
	env := newTestEnv(t)
	id := env.newSession(t)

	for _, action := range []string{"explain", "test-plan"} {
		w := env.do(t, http.MethodPost, "/v1/sessions/"+id+"/"+action, `{"target_vendor":"Arista (EOS)"}`)
		if w.Code != http.StatusOK || gjson.GetBytes(w.Body.Bytes(), "outcome").String() != core.OutcomeLabelNoResult {
			t.Errorf("%s: status=%d body=%s", action, w.Code, w.Body.String())
		}
	}
	if env.backend.calls.Load() != 0 {
		t.Errorf("backend calls = %d, want 0", env.backend.calls.Load())
	}
}

func TestServerRoutes_UnknownSession(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/v1/sessions/nope/translate", "/v1/sessions/nope/explain"} {
		if w := env.do(t, http.MethodPost, path, arista); w.Code != http.StatusNotFound {
			t.Errorf("POST %s = %d, want 404", path, w.Code)
		}
	}
	if w := env.do(t, http.MethodDelete, "/v1/sessions/nope", ""); w.Code != http.StatusNotFound {
		t.Errorf("DELETE = %d, want 404", w.Code)
	}

	id := env.newSession(t)
	if w := env.do(t, http.MethodDelete, "/v1/sessions/"+id, ""); w.Code != http.StatusNoContent {
		t.Errorf("DELETE existing = %d, want 204", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/v1/sessions/"+id, ""); w.Code != http.StatusNotFound {
		t.Errorf("GET deleted = %d, want 404", w.Code)
	}
}

func TestServerRoutes_StatsCountActions(t *testing.T) {
	env := newTestEnv(t)
	id := env.newSession(t)
	env.backend.push(geminiText("hostname R1"))
	env.do(t, http.MethodPost, "/v1/sessions/"+id+"/translate", arista)

	w := env.do(t, http.MethodGet, "/api/stats", "")
	body := w.Body.Bytes()
	if gjson.GetBytes(body, "totalRequests").Int() != 1 || gjson.GetBytes(body, "stats24h.byAction.translate").Int() != 1 {
		t.Errorf("/api/stats = %s", body)
	}
	if gjson.GetBytes(body, "activeSessions").Int() != 1 {
		t.Errorf("activeSessions = %s", gjson.GetBytes(body, "activeSessions").Raw)
	}
}

func TestServerClose_PersistsMetrics(t *testing.T) {
	env := newTestEnv(t)
	id := env.newSession(t)
	env.backend.push(geminiText("hostname R1"), geminiText("hostname R2"))
	env.do(t, http.MethodPost, "/v1/sessions/"+id+"/translate", arista)
	env.do(t, http.MethodPost, "/v1/sessions/"+id+"/translate", arista)

	if err := env.server.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	_, stats := env.storage.snapshot()
	if stats.TotalRequests != 2 || len(stats.RequestHistory) != 2 {
		t.Errorf("persisted stats = %+v", stats)
	}
	if err := env.server.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		result core.ActionResult
		want   int
	}{
		{core.Success("x"), http.StatusOK},
		{core.NoResult(), http.StatusOK},
		{core.Busy(), http.StatusConflict},
		{core.Failure(core.ErrInput("x")), http.StatusBadRequest},
		{core.Failure(core.ErrUnknownModel("x")), http.StatusBadRequest},
		{core.Failure(core.ErrBlockedContent("SAFETY")), http.StatusUnprocessableEntity},
		{core.Failure(core.ErrNetwork(io.EOF)), http.StatusBadGateway},
		{core.Failure(core.ErrAPI(500, "")), http.StatusBadGateway},
		{core.Failure(core.ErrMalformedResponse("")), http.StatusBadGateway},
	}
	for _, tt := range tests {
		if got := statusFor(tt.result); got != tt.want {
			t.Errorf("statusFor(%v/%s) = %d, want %d", tt.result.Outcome, tt.result.Kind(), got, tt.want)
		}
	}
}

func TestNewServer_RequiresDeps(t *testing.T) {
	cfg := config.Config{GinMode: "test", UpdateRepo: "a/b", Port: "0"}
	if _, err := NewServer(cfg, Deps{Storage: &spyStorage{}, Registry: model.Fallback("")}); err == nil {
		t.Error("NewServer() without logger should fail")
	}
	if _, err := NewServer(cfg, Deps{Logger: &core.NopLogger{}, Registry: model.Fallback("")}); err == nil {
		t.Error("NewServer() without storage should fail")
	}
}
