package scriptsmgr

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptsmgr/scriptsmgr/auth"
	"github.com/scriptsmgr/scriptsmgr/internal/cache"
	"github.com/scriptsmgr/scriptsmgr/shellgen"
	"github.com/scriptsmgr/scriptsmgr/storage"
	"github.com/scriptsmgr/scriptsmgr/storage/blob"
	"github.com/scriptsmgr/scriptsmgr/storage/model"
)

const testPassword = "correct horse battery staple"

type usageEvent struct {
	scriptID string
	ip       string
}

type captureUsage struct {
	mu     sync.Mutex
	events []usageEvent
}

func (u *captureUsage) Record(scriptID, ip string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.events = append(u.events, usageEvent{scriptID: scriptID, ip: ip})
}

func (u *captureUsage) recorded() []usageEvent {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]usageEvent(nil), u.events...)
}

type testServer struct {
	sm       *ScriptsManager
	salts    *auth.SaltStore
	usage    *captureUsage
	backends model.Backends
	token    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dataDir := t.TempDir()
	warehouse, err := storage.NewStorage(storage.Config{Driver: storage.DriverSQLite, DataDir: dataDir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = warehouse.Close() })

	salts := auth.NewSaltStore(filepath.Join(dataDir, auth.SaltFileName))
	tokens, err := auth.NewTokens([]byte("root-test-secret"))
	require.NoError(t, err)
	token, err := tokens.Issue()
	require.NoError(t, err)
	menus, err := cache.NewMemory(16)
	require.NoError(t, err)
	t.Cleanup(menus.Close)
	blobs, err := blob.NewLocalStore(filepath.Join(dataDir, "uploads"))
	require.NoError(t, err)

	usage := &captureUsage{}
	sm, err := NewScriptsManager(
		ServerConf{Production: true}, Deps{
			AppURL:        "http://localhost:3000",
			Salts:         salts,
			Verifier:      auth.NewVerifier(testPassword, salts),
			Tokens:        tokens,
			Backends:      warehouse.Backends(),
			Blobs:         blobs,
			MaxUploadSize: 1 << 20,
			Menus:         menus,
			MenuLifetime:  time.Minute,
			Usage:         usage,
			AccessLog:     io.Discard,
		},
	)
	require.NoError(t, err)
	return &testServer{
		sm:       sm,
		salts:    salts,
		usage:    usage,
		backends: warehouse.Backends(),
		token:    token,
	}
}

func (s *testServer) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := s.sm.server.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (s *testServer) get(t *testing.T, target string, headers map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return s.do(t, req)
}

func (s *testServer) postJSON(t *testing.T, target, body string, authorized bool) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if authorized {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token)
	}
	return s.do(t, req)
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func jsonBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(body(t, resp)), &v))
	return v
}

func TestNewScriptsManagerRequiresAuth(t *testing.T) {
	_, err := NewScriptsManager(ServerConf{}, Deps{})
	assert.Error(t, err)
}

func TestLoginFlow(t *testing.T) {
	s := newTestServer(t)

	resp := s.get(t, "/api/auth/salt", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	salt, _ := jsonBody(t, resp)["salt"].(string)
	require.Len(t, salt, 64)

	resp = s.get(t, "/api/auth/salt", nil)
	assert.Equal(t, salt, jsonBody(t, resp)["salt"])

	resp = s.postJSON(t, "/api/auth/login", `{"passwordHash":"`+auth.DeriveHash("wrong", salt)+`"}`, false)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, map[string]any{"error": "Invalid password"}, jsonBody(t, resp))

	resp = s.postJSON(t, "/api/auth/login", `{"passwordHash":`, false)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, map[string]any{"error": "Internal server error"}, jsonBody(t, resp))

	resp = s.postJSON(t, "/api/auth/login", `{"passwordHash":"`+auth.DeriveHash(testPassword, salt)+`"}`, false)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 86400, cookie.MaxAge)
	payload := jsonBody(t, resp)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, cookie.Value, payload["token"])

	req := httptest.NewRequest(http.MethodGet, "/api/scripts", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: cookie.Value})
	assert.Equal(t, fiber.StatusOK, s.do(t, req).StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/check", nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: cookie.Value})
	assert.Equal(t, map[string]any{"authenticated": true}, jsonBody(t, s.do(t, req)))
	assert.Equal(t, map[string]any{"authenticated": false}, jsonBody(t, s.get(t, "/api/auth/check", nil)))

	resp = s.postJSON(t, "/api/auth/logout", `{}`, false)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == auth.CookieName {
			assert.Empty(t, c.Value)
		}
	}
}

func TestConfigEndpoint(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, map[string]any{"appUrl": "http://localhost:3000"}, jsonBody(t, s.get(t, "/api/config", nil)))
}

func TestProtectedSurfaces(t *testing.T) {
	s := newTestServer(t)
	resp := s.get(t, "/api/stats", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, map[string]any{"error": "Unauthorized"}, jsonBody(t, resp))

	resp = s.get(t, "/admin", nil)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation))

	for _, target := range []string{"/API/stats", "/Api/Scripts", "/api/Categories", "/api/UPLOAD"} {
		resp = s.get(t, target, nil)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, target)
	}
	resp = s.get(t, "/ADMIN", nil)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get(fiber.HeaderLocation))

	resp = s.get(t, "/admin/stats", map[string]string{fiber.HeaderAuthorization: "Bearer " + s.token})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, fiber.StatusOK, s.get(t, "/login", nil).StatusCode)
}

func TestLoaderDispatch(t *testing.T) {
	s := newTestServer(t)

	resp := s.get(t, "/", map[string]string{fiber.HeaderUserAgent: "Mozilla/5.0 (Windows NT 10.0)"})
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "http://example.com/login", resp.Header.Get(fiber.HeaderLocation))

	resp = s.get(
		t, "/", map[string]string{
			fiber.HeaderUserAgent:       "Mozilla/5.0",
			fiber.HeaderXForwardedProto: "https",
			fiber.HeaderXForwardedHost:  "scripts.example.com",
		},
	)
	assert.Equal(t, "https://scripts.example.com/login", resp.Header.Get(fiber.HeaderLocation))

	resp = s.get(
		t, "/", map[string]string{fiber.HeaderUserAgent: "Mozilla/5.0 (Windows NT; Windows NT 10.0; en-US) WindowsPowerShell/5.1"},
	)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, shellgen.LoaderScript("http://example.com"), body(t, resp))

	resp = s.get(t, "/s", map[string]string{fiber.HeaderUserAgent: "Mozilla/5.0"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), `irm "http://example.com/s/menu/$lang" | iex`)
	assert.Empty(t, s.usage.recorded())
}

func TestMenu(t *testing.T) {
	s := newTestServer(t)

	resp := s.get(t, "/s/menu/en", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, shellgen.NoScriptsNotice(shellgen.LangEN), body(t, resp))

	resp = s.postJSON(t, "/api/scripts", `{"name":"Flush DNS","content":"ipconfig /flushdns"}`, true)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id, _ := jsonBody(t, resp)["id"].(string)

	resp = s.get(t, "/s/menu/zh", map[string]string{fiber.HeaderXForwardedProto: "https"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	menu := body(t, resp)
	assert.Contains(t, menu, "https://example.com/api/run/"+id)
	assert.Contains(t, menu, "Flush DNS")
	assert.Contains(t, menu, "Show-MainMenu")

	resp = s.get(t, "/s/menu/xx", nil)
	assert.Contains(t, body(t, resp), shellgen.T(shellgen.LangEN, shellgen.MsgSelectScript))
	assert.Empty(t, s.usage.recorded())
}

func TestMenuCacheInvalidatedByMutation(t *testing.T) {
	s := newTestServer(t)
	resp := s.postJSON(t, "/api/scripts", `{"name":"First","content":"1"}`, true)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	first := body(t, s.get(t, "/s/menu/en", nil))
	assert.Contains(t, first, "First")

	_, err := s.backends.Scripts.Create(model.AddScript{Name: "Hidden", Content: "2"})
	require.NoError(t, err)
	assert.Equal(t, first, body(t, s.get(t, "/s/menu/en", nil)), "served from cache")

	resp = s.postJSON(t, "/api/scripts", `{"name":"Second","content":"3"}`, true)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	refreshed := body(t, s.get(t, "/s/menu/en", nil))
	assert.Contains(t, refreshed, "Hidden")
	assert.Contains(t, refreshed, "Second")
}

func TestRun(t *testing.T) {
	s := newTestServer(t)

	resp := s.get(t, "/api/run/missing", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, map[string]any{"error": "Script not found"}, jsonBody(t, resp))

	script, err := s.backends.Scripts.Create(
		model.AddScript{Name: "Admin", Content: "Get-Service", RequireAdmin: func() *bool { b := true; return &b }()},
	)
	require.NoError(t, err)

	resp = s.get(t, "/api/run/"+script.ID, map[string]string{fiber.HeaderXForwardedFor: "203.0.113.9, 10.0.0.1"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, fiber.MIMETextPlainCharsetUTF8, resp.Header.Get(fiber.HeaderContentType))
	expected := shellgen.Synthesize(
		shellgen.ScriptSource{
			ID:                    script.ID,
			Content:               "Get-Service",
			RequireAdmin:          true,
			BypassExecutionPolicy: true,
		}, "http://example.com",
	)
	assert.Equal(t, expected, body(t, resp))

	s.get(t, "/api/run/"+script.ID, map[string]string{"X-Real-Ip": "198.51.100.4"})
	s.get(t, "/api/run/"+script.ID, nil)

	// the elevated shell fetches the script again; that is the same run
	resp = s.get(t, "/api/run/"+script.ID+"?elevated=1", map[string]string{fiber.HeaderXForwardedFor: "203.0.113.9"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, expected, body(t, resp))
	assert.Equal(
		t, []usageEvent{
			{scriptID: script.ID, ip: "203.0.113.9, 10.0.0.1"},
			{scriptID: script.ID, ip: "198.51.100.4"},
			{scriptID: script.ID, ip: unknownIP},
		}, s.usage.recorded(),
	)
}

func TestFileDownload(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "setup.ps1")
	require.NoError(t, err)
	_, _ = part.Write([]byte("Write-Host setup"))
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token)
	resp := s.do(t, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	url, _ := jsonBody(t, resp)["url"].(string)
	require.NotEmpty(t, url)

	resp = s.get(t, url, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	disposition, params, err := mime.ParseMediaType(resp.Header.Get(fiber.HeaderContentDisposition))
	require.NoError(t, err)
	assert.Equal(t, "attachment", disposition)
	assert.Equal(t, "setup.ps1", params["filename"])
	assert.Equal(t, "Write-Host setup", body(t, resp))

	assert.Equal(t, fiber.StatusNotFound, s.get(t, "/api/files/missing", nil).StatusCode)
}

func TestOrigin(t *testing.T) {
	app := fiber.New()
	app.Get(
		"/", func(c *fiber.Ctx) error {
			return c.SendString(requestOrigin(c, "http://fallback"))
		},
	)
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "host header", want: "http://example.com"},
		{
			name:    "forwarded",
			headers: map[string]string{fiber.HeaderXForwardedProto: "https", fiber.HeaderXForwardedHost: "a.example, b.example"},
			want:    "https://a.example",
		},
	}
	for _, test := range tests {
		t.Run(
			test.name, func(t *testing.T) {
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				for k, v := range test.headers {
					req.Header.Set(k, v)
				}
				resp, err := app.Test(req, -1)
				require.NoError(t, err)
				assert.Equal(t, test.want, body(t, resp))
			},
		)
	}
}

func TestAttachmentDisposition(t *testing.T) {
	for _, name := range []string{"setup.ps1", "Bericht März.ps1", `quote"d name.txt`, "配置.ps1"} {
		header := attachmentDisposition(name)
		assert.NotContains(t, header, `\u`, name)
		disposition, params, err := mime.ParseMediaType(header)
		require.NoError(t, err, header)
		assert.Equal(t, "attachment", disposition)
		assert.Equal(t, name, params["filename"])
	}
	assert.Equal(t, "attachment; filename*=utf-8''Bericht%20M%C3%A4rz.ps1", attachmentDisposition("Bericht März.ps1"))
}
