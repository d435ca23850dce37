package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"studyhub/internal/app"
	"studyhub/internal/config"
	"studyhub/internal/ratelimit"
	"studyhub/pkg/ai"
	"studyhub/pkg/domain"
	"studyhub/pkg/store"
)

type nullObjects struct{}

func (nullObjects) Put(context.Context, string, io.Reader, int64, string) error { return nil }
func (nullObjects) PublicURL(key string) string                                 { return "http://objects.test/" + key }
func (nullObjects) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "http://objects.test/" + key + "?signed=1", nil
}
func (nullObjects) Delete(context.Context, string) error { return nil }

type scriptedGenerator struct {
	mu     sync.Mutex
	chunks []string
	calls  int
}

func (g *scriptedGenerator) StreamText(_ context.Context, _ string, _ []ai.ChatMessage, onDelta func(string) error) error {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	for _, chunk := range g.chunks {
		if err := onDelta(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (g *scriptedGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type testServer struct {
	handler http.Handler
	gen     *scriptedGenerator
}

func openLimiters(t *testing.T) map[string]ratelimit.Limiter {
	t.Helper()
	limiters := make(map[string]ratelimit.Limiter, 4)
	for _, kind := range []string{"api", "auth", "upload", "chat"} {
		l, err := ratelimit.NewSlidingWindowLimiter(1000, time.Minute)
		if err != nil {
			t.Fatalf("limiter: %v", err)
		}
		t.Cleanup(l.Close)
		limiters[kind] = l
	}
	return limiters
}

func newTestServer(t *testing.T, limiters map[string]ratelimit.Limiter) *testServer {
	t.Helper()
	gen := &scriptedGenerator{chunks: []string{"All", " done."}}
	a, err := app.New(app.Config{
		JWTSecret: "test-secret",
		Store:     store.NewMemoryStore(),
		Objects:   nullObjects{},
		Generator: gen,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if limiters == nil {
		limiters = openLimiters(t)
	}
	s, err := New(Config{App: a, Limiters: limiters})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return &testServer{handler: s.Router(), gen: gen}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) signUp(t *testing.T, email string) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    email,
		"password": "secret123",
		"name":     "Test Student",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("signup response: %v, %s", err, rec.Body.String())
	}
	return resp.Token
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSignupAndLoginFlow(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.signUp(t, "web1@mail.apu.edu.my")

	rec := ts.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "web1@gmail.com", "password": "secret123", "name": "X",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("outside-domain signup status = %d", rec.Code)
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "web1@mail.apu.edu.my", "password": "wrong-pass",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d", rec.Code)
	}
	var errResp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("error body: %v", err)
	}
	if errResp["error"] != "Incorrect email address or password" {
		t.Fatalf("error = %q", errResp["error"])
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "web1@mail.apu.edu.my", "password": "secret123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
}

func TestProtectedRoutesRequireBearerToken(t *testing.T) {
	ts := newTestServer(t, nil)
	for _, path := range []string{"/api/tasks", "/api/notes", "/api/users/me", "/api/conversations"} {
		rec := ts.do(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s without token: status = %d", path, rec.Code)
		}
	}
	rec := ts.do(t, http.MethodGet, "/api/tasks", "not-a-real-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status = %d", rec.Code)
	}
}

func TestSessionCookieFallback(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.signUp(t, "web9@mail.apu.edu.my")

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.AddCookie(&http.Cookie{Name: "studyhub_session", Value: token})
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("cookie auth status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestTaskRoundTripOverHTTP(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.signUp(t, "web2@mail.apu.edu.my")

	rec := ts.do(t, http.MethodPost, "/api/tasks", token, map[string]string{
		"title":    "Finish assignment",
		"dueDate":  time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"priority": "high",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var task struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatalf("task body: %v", err)
	}
	if task.Status != "pending" {
		t.Fatalf("status = %q", task.Status)
	}

	rec = ts.do(t, http.MethodGet, "/api/tasks", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || list.Count != 1 {
		t.Fatalf("list = %s", rec.Body.String())
	}

	rec = ts.do(t, http.MethodPatch, "/api/tasks/"+task.ID, token, map[string]string{
		"status": "completed",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodDelete, "/api/tasks/"+task.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = ts.do(t, http.MethodDelete, "/api/tasks/"+task.ID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rec.Code)
	}
}

func TestTimetableWarningSurfacesInResponse(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.signUp(t, "web3@mail.apu.edu.my")

	rec := ts.do(t, http.MethodPost, "/api/timetable", token, map[string]string{
		"title": "Networks", "day": "Tuesday", "startTime": "09:00", "endTime": "11:00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("first entry status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodPost, "/api/timetable", token, map[string]string{
		"title": "Databases", "day": "tuesday", "startTime": "10:00", "endTime": "12:00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("overlap entry status = %d", rec.Code)
	}
	var resp struct {
		Warning string `json:"warning"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body: %v", err)
	}
	if !strings.Contains(resp.Warning, "overlaps with") {
		t.Fatalf("warning = %q", resp.Warning)
	}
}

func TestChatStreamsAndAnnouncesConversation(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.signUp(t, "web4@mail.apu.edu.my")

	rec := ts.do(t, http.MethodPost, "/api/chat", token, map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "Explain recursion"}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("chat status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "All done." {
		t.Fatalf("stream body = %q", rec.Body.String())
	}
	convID := rec.Header().Get("X-Conversation-Id")
	if convID == "" {
		t.Fatalf("X-Conversation-Id header missing")
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type = %q", ct)
	}

	rec = ts.do(t, http.MethodGet, "/api/chat?conversationId="+convID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	var history struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil || history.Count != 2 {
		t.Fatalf("history = %s", rec.Body.String())
	}
}

func TestChatRateLimitShortCircuitsGenerator(t *testing.T) {
	limiters := openLimiters(t)
	chat, err := ratelimit.NewSlidingWindowLimiter(1, time.Minute)
	if err != nil {
		t.Fatalf("limiter: %v", err)
	}
	t.Cleanup(chat.Close)
	limiters["chat"] = chat

	ts := newTestServer(t, limiters)
	token := ts.signUp(t, "web5@mail.apu.edu.my")

	body := map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "hi"}},
	}
	if rec := ts.do(t, http.MethodPost, "/api/chat", token, body); rec.Code != http.StatusOK {
		t.Fatalf("first chat status = %d", rec.Code)
	}
	rec := ts.do(t, http.MethodPost, "/api/chat", token, body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second chat status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("Retry-After header missing")
	}
	if ts.gen.callCount() != 1 {
		t.Fatalf("generator ran %d times, want 1", ts.gen.callCount())
	}
}

func TestRedisLimiterWiredFromConfig(t *testing.T) {
	mr := miniredis.RunT(t)

	a, err := app.New(app.Config{
		JWTSecret: "test-secret",
		Store:     store.NewMemoryStore(),
		Objects:   nullObjects{},
		Generator: &scriptedGenerator{},
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	quota := config.RateLimit{Limit: 2, Window: time.Minute}
	s, err := New(Config{
		App:       a,
		RedisAddr: mr.Addr(),
		RateLimits: config.RateLimits{
			API:    quota,
			Auth:   config.RateLimit{Limit: 5, Window: time.Minute},
			Upload: quota,
			Chat:   quota,
		},
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := &testServer{handler: s.Router()}
	token := ts.signUp(t, "web11@mail.apu.edu.my")

	for i := 0; i < 2; i++ {
		if rec := ts.do(t, http.MethodGet, "/api/tasks", token, nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, rec.Code)
		}
	}
	rec := ts.do(t, http.MethodGet, "/api/tasks", token, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over-quota status = %d", rec.Code)
	}

	// The quota state must live in Redis, not in process memory.
	found := false
	for _, key := range mr.Keys() {
		if strings.Contains(key, "studyhub:ratelimit") {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("no limiter keys in redis: %v", mr.Keys())
	}
}

// flakyStore passes through to the memory store until a failure is armed.
type flakyStore struct {
	*store.MemoryStore
	mu   sync.Mutex
	fail error
}

func (s *flakyStore) setFail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *flakyStore) failure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fail
}

func (s *flakyStore) SaveTask(task domain.Task) error {
	if err := s.failure(); err != nil {
		return err
	}
	return s.MemoryStore.SaveTask(task)
}

func (s *flakyStore) GetUserByEmail(email string) (domain.User, bool, error) {
	if err := s.failure(); err != nil {
		return domain.User{}, false, err
	}
	return s.MemoryStore.GetUserByEmail(email)
}

func TestStoreFailuresReturnGenericInternalError(t *testing.T) {
	flaky := &flakyStore{MemoryStore: store.NewMemoryStore()}
	a, err := app.New(app.Config{
		JWTSecret: "test-secret",
		Store:     flaky,
		Objects:   nullObjects{},
		Generator: &scriptedGenerator{},
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	s, err := New(Config{App: a, Limiters: openLimiters(t)})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := &testServer{handler: s.Router()}
	token := ts.signUp(t, "web10@mail.apu.edu.my")

	flaky.setFail(errors.New(`pq: password authentication failed for user "studyhub"`))

	rec := ts.do(t, http.MethodPost, "/api/tasks", token, map[string]string{
		"title":    "t",
		"priority": "low",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("task create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body: %v", err)
	}
	if resp["error"] != "internal error" {
		t.Fatalf("error body leaked detail: %q", resp["error"])
	}
	if strings.Contains(rec.Body.String(), "pq:") {
		t.Fatalf("store error text leaked: %s", rec.Body.String())
	}

	rec = ts.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "web10@mail.apu.edu.my", "password": "secret123",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "pq:") {
		t.Fatalf("store error text leaked on login: %s", rec.Body.String())
	}
}

func multipartUpload(t *testing.T, fields map[string]string, fileName, mimeType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := mw.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="file"; filename="` + fileName + `"`}
	header["Content-Type"] = []string{mimeType}
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func (ts *testServer) doMultipart(t *testing.T, path, token string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func TestResourceUploadOverHTTP(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.signUp(t, "web6@mail.apu.edu.my")

	body, contentType := multipartUpload(t,
		map[string]string{"title": "Week 4", "tags": `["trees","graphs"]`},
		"notes.txt", "text/plain", []byte("rotations keep the tree balanced"))
	rec := ts.doMultipart(t, "/api/resources", token, body, contentType)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resource struct {
		ID    string   `json:"id"`
		Title string   `json:"title"`
		Tags  []string `json:"tags"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resource); err != nil {
		t.Fatalf("resource body: %v", err)
	}
	if resource.Title != "Week 4" || len(resource.Tags) != 2 {
		t.Fatalf("resource = %+v", resource)
	}

	rec = ts.do(t, http.MethodGet, "/api/resources/"+resource.ID+"/download", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("download status = %d, body %s", rec.Code, rec.Body.String())
	}
	var dl map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &dl); err != nil || dl["url"] == "" {
		t.Fatalf("download body = %s", rec.Body.String())
	}
}

func TestResourceUploadRejectsExecutable(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.signUp(t, "web7@mail.apu.edu.my")

	body, contentType := multipartUpload(t, nil, "payload.png", "image/png",
		[]byte{0x4D, 0x5A, 0x90, 0x00, 0x03})
	rec := ts.doMultipart(t, "/api/resources", token, body, contentType)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestFileProcessAlwaysReturnsContent(t *testing.T) {
	ts := newTestServer(t, nil)
	token := ts.signUp(t, "web8@mail.apu.edu.my")

	body, contentType := multipartUpload(t, nil, "notes.txt", "text/plain",
		[]byte("plain extracted text"))
	rec := ts.doMultipart(t, "/api/files/process", token, body, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("body: %v", err)
	}
	want := "📄 Text Content from \"notes.txt\":\n\nplain extracted text"
	if resp.Content != want {
		t.Fatalf("content = %q, want %q", resp.Content, want)
	}

	// A corrupt document degrades to a fallback block instead of an error.
	body, contentType = multipartUpload(t, nil, "broken.docx",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		[]byte("not a zip archive"))
	rec = ts.doMultipart(t, "/api/files/process", token, body, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("fallback status = %d", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("fallback body: %v", err)
	}
	if !strings.Contains(resp.Content, "broken.docx") {
		t.Fatalf("fallback content = %q", resp.Content)
	}
}
