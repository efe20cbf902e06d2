package api

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"cloudbox/internal/config"
	"cloudbox/internal/core"
	"cloudbox/internal/storage"
)

const testPassword = "password123"

type captureNotifier struct {
	mu    sync.Mutex
	codes map[string]string
}

func (n *captureNotifier) Notify(recipient, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes[recipient] = body
	return nil
}

func (n *captureNotifier) codeFor(recipient string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[recipient]
}

type testEnv struct {
	server   *Server
	router   chi.Router
	notifier *captureNotifier
}

// newTestEnv wires a full server against a temp-dir storage backend, with
// the same routing as main.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ls, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	notifier := &captureNotifier{codes: make(map[string]string)}
	svc, err := core.New(ls, notifier, nil, 24*time.Hour)
	require.NoError(t, err)

	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret"}}
	server := NewServer(cfg, svc, nil)

	r := chi.NewRouter()
	r.Get("/health", server.HealthCheckHandler)
	r.Post("/api/v1/auth/login", server.LoginHandler)
	r.Post("/api/v1/users/{username}", server.RegisterHandler)
	r.Put("/api/v1/users/{username}", server.ActivateHandler)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(server.AuthMiddleware)
		r.Get("/me", server.GetCurrentUserHandler)
		r.Delete("/users/me", server.DeleteAccountHandler)
		r.Get("/files", server.SnapshotHandler)
		r.Get("/files/*", server.DownloadFileHandler)
		r.Post("/files/*", server.UploadFileHandler)
		r.Put("/files/*", server.OverwriteFileHandler)
		r.Post("/actions/delete", server.DeleteActionHandler)
		r.Post("/actions/copy", server.CopyActionHandler)
		r.Post("/actions/move", server.MoveActionHandler)
		r.Post("/shares/*", server.CreateShareHandler)
		r.Delete("/shares/*", server.RemoveShareHandler)
	})

	return &testEnv{server: server, router: r, notifier: notifier}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// createUser runs the register/activate flow through the HTTP surface.
func (e *testEnv) createUser(t *testing.T, username string) {
	t.Helper()

	rr := e.do(formRequest("POST", "/api/v1/users/"+url.PathEscape(username), url.Values{"psw": {testPassword}}))
	require.Equal(t, http.StatusCreated, rr.Code, "register %s: %s", username, rr.Body.String())

	code := e.notifier.codeFor(username)
	require.NotEmpty(t, code)
	rr = e.do(formRequest("PUT", "/api/v1/users/"+url.PathEscape(username), url.Values{"code": {code}}))
	require.Equal(t, http.StatusCreated, rr.Code, "activate %s: %s", username, rr.Body.String())
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func authedForm(method, target, username string, form url.Values) *http.Request {
	req := formRequest(method, target, form)
	req.SetBasicAuth(username, testPassword)
	return req
}

func authedGet(target, username string) *http.Request {
	req := httptest.NewRequest("GET", target, nil)
	req.SetBasicAuth(username, testPassword)
	return req
}

// uploadRequest builds the multipart body shared by POST and PUT uploads.
func uploadRequest(t *testing.T, method, target, username string, content []byte, md5sum string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file_content", "upload.bin")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	if md5sum != "" {
		require.NoError(t, writer.WriteField("file_md5", md5sum))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.SetBasicAuth(username, testPassword)
	return req
}

func httptestGet(target string) *http.Request {
	return httptest.NewRequest("GET", target, nil)
}

func httptestDelete(target string) *http.Request {
	return httptest.NewRequest("DELETE", target, nil)
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func md5sum(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
