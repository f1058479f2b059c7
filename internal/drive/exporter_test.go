package drive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"golang.org/x/oauth2"
)

// MockTokenProvider implements TokenProvider for testing.
type MockTokenProvider struct {
	TokenFunc func(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)
	calls     atomic.Int32
}

func (m *MockTokenProvider) Token(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	m.calls.Add(1)
	if m.TokenFunc != nil {
		return m.TokenFunc(ctx, cfg)
	}

	return &oauth2.Token{AccessToken: "access-123", TokenType: "Bearer"}, nil
}

// fakeGoogle records requests to the upload, files and sheets endpoints.
type fakeGoogle struct {
	srv *httptest.Server

	mu          sync.Mutex
	hits        int
	uploads     []upload
	sheetAppend []string
	uploadCode  int
	webLink     string
}

type upload struct {
	auth        string
	contentType string
	metadata    fileMetadata
	content     string
	partTypes   []string
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()

	f := &fakeGoogle{uploadCode: http.StatusOK, webLink: "https://docs.google.com/document/d/file-1/edit?usp=drivesdk"}
	mux := http.NewServeMux()

	mux.HandleFunc("/upload/drive/v3/files", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.hits++

		u := upload{auth: r.Header.Get("Authorization"), contentType: r.Header.Get("Content-Type")}
		_, params, err := mime.ParseMediaType(u.contentType)
		if err == nil {
			mr := multipart.NewReader(r.Body, params["boundary"])
			for i := 0; ; i++ {
				part, err := mr.NextPart()
				if err != nil {
					break
				}
				data, _ := io.ReadAll(part)
				u.partTypes = append(u.partTypes, part.Header.Get("Content-Type"))
				if i == 0 {
					_ = json.Unmarshal(data, &u.metadata)
				} else {
					u.content = string(data)
				}
			}
		}
		f.uploads = append(f.uploads, u)

		if f.uploadCode != http.StatusOK {
			w.WriteHeader(f.uploadCode)
			_, _ = io.WriteString(w, `{"error": {"code": 403, "message": "quota"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"kind": "drive#file", "id": "file-1", "name": "x"}`)
	})

	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.hits++

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"webViewLink": f.webLink})
	})

	mux.HandleFunc("/v4/spreadsheets/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.hits++

		body, _ := io.ReadAll(r.Body)
		f.sheetAppend = append(f.sheetAppend, r.URL.Path+" "+string(body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"spreadsheetId": "sheet-1"}`)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGoogle) exporter(auth TokenProvider) *Exporter {
	return NewExporter(auth, Options{
		UploadURL:   f.srv.URL + "/upload/drive/v3/files?uploadType=multipart",
		APIEndpoint: f.srv.URL + "/",
	}, nil)
}

func (f *fakeGoogle) requestCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits
}

func TestExporter_MissingClientID_NoNetwork(t *testing.T) {
	fake := newFakeGoogle(t)
	auth := &MockTokenProvider{}
	e := fake.exporter(auth)

	if err := e.Init(context.Background(), Credentials{ClientID: "  "}); !errors.Is(err, ErrMissingClientConfiguration) {
		t.Errorf("Init err = %v, want ErrMissingClientConfiguration", err)
	}

	_, err := e.Export(context.Background(), "Title", "Body")
	if !errors.Is(err, ErrMissingClientConfiguration) {
		t.Fatalf("Export err = %v, want ErrMissingClientConfiguration", err)
	}

	if n := auth.calls.Load(); n != 0 {
		t.Errorf("token provider called %d times, want 0", n)
	}
	if n := fake.requestCount(); n != 0 {
		t.Errorf("server saw %d requests, want 0", n)
	}
	if state, _ := e.Status(); state != StateUninitialized {
		t.Errorf("state = %v, want uninitialized", state)
	}
}

func TestExporter_NotReady(t *testing.T) {
	fake := newFakeGoogle(t)
	auth := &MockTokenProvider{}
	e := fake.exporter(auth)

	e.clientID = "client"
	e.state = StateLoading

	if _, err := e.Export(context.Background(), "t", "c"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
	if auth.calls.Load() != 0 || fake.requestCount() != 0 {
		t.Error("no collaborator should be touched before init completes")
	}
}

func TestExporter_ExportFlow(t *testing.T) {
	fake := newFakeGoogle(t)
	auth := &MockTokenProvider{}
	e := fake.exporter(auth)
	ctx := context.Background()

	if err := e.Init(ctx, Credentials{ClientID: "client.apps.googleusercontent.com"}); err != nil {
		t.Fatalf("Init returned unexpected error: %v", err)
	}
	if state, err := e.Status(); state != StateReady || err != nil {
		t.Fatalf("Status = %v, %v; want ready", state, err)
	}

	res, err := e.Export(ctx, "The lizard brain", "It wants you to stop.\n\nShip.")
	if err != nil {
		t.Fatalf("Export returned unexpected error: %v", err)
	}

	if res.FileID != "file-1" {
		t.Errorf("FileID = %s, want file-1", res.FileID)
	}
	if res.URL != fake.webLink {
		t.Errorf("URL = %s, want %s", res.URL, fake.webLink)
	}

	if len(fake.uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(fake.uploads))
	}
	u := fake.uploads[0]
	if u.auth != "Bearer access-123" {
		t.Errorf("Authorization = %q", u.auth)
	}
	if !strings.HasPrefix(u.contentType, "multipart/related;") || !strings.Contains(u.contentType, Boundary) {
		t.Errorf("Content-Type = %q", u.contentType)
	}
	if u.metadata.Name != "The lizard brain" || u.metadata.MimeType != DocumentMimeType {
		t.Errorf("metadata = %+v", u.metadata)
	}
	if u.content != "It wants you to stop.\n\nShip." {
		t.Errorf("content = %q", u.content)
	}
	if len(u.partTypes) != 2 || !strings.HasPrefix(u.partTypes[0], "application/json") || !strings.HasPrefix(u.partTypes[1], "text/plain") {
		t.Errorf("part types = %v", u.partTypes)
	}
	if len(fake.sheetAppend) != 0 {
		t.Error("no sheet configured, index must not be touched")
	}
}

func TestExporter_AuthorizationFailures(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantBlocked bool
	}{
		{"popup blocked", &AuthError{Code: CodePopupBlocked, Err: errors.New("exec: xdg-open not found")}, true},
		{"access denied", &AuthError{Code: CodeAccessDenied}, false},
		{"other", errors.New("network down"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeGoogle(t)
			auth := &MockTokenProvider{TokenFunc: func(context.Context, *oauth2.Config) (*oauth2.Token, error) {
				return nil, tt.err
			}}
			e := fake.exporter(auth)
			if err := e.Init(context.Background(), Credentials{ClientID: "client"}); err != nil {
				t.Fatalf("Init: %v", err)
			}

			_, err := e.Export(context.Background(), "t", "c")
			if !errors.Is(err, ErrAuthorizationFailed) {
				t.Fatalf("err = %v, want ErrAuthorizationFailed", err)
			}
			if got := errors.Is(err, ErrPopupBlocked); got != tt.wantBlocked {
				t.Errorf("errors.Is(err, ErrPopupBlocked) = %v, want %v", got, tt.wantBlocked)
			}
			if fake.requestCount() != 0 {
				t.Error("upload must not run after authorization fails")
			}
		})
	}
}

func TestExporter_UploadRejected(t *testing.T) {
	fake := newFakeGoogle(t)
	fake.uploadCode = http.StatusForbidden
	e := fake.exporter(&MockTokenProvider{})

	if err := e.Init(context.Background(), Credentials{ClientID: "client"}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	_, err := e.Export(context.Background(), "t", "c")
	if !errors.Is(err, ErrUploadFailed) {
		t.Errorf("err = %v, want ErrUploadFailed", err)
	}
	if errors.Is(err, ErrAuthorizationFailed) {
		t.Error("upload failure must not look like an auth failure")
	}
}

func TestExporter_WebLinkFallback(t *testing.T) {
	fake := newFakeGoogle(t)
	fake.webLink = ""
	e := fake.exporter(&MockTokenProvider{})

	if err := e.Init(context.Background(), Credentials{ClientID: "client"}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	res, err := e.Export(context.Background(), "t", "c")
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if res.URL != DocumentURL("file-1") {
		t.Errorf("URL = %s, want %s", res.URL, DocumentURL("file-1"))
	}
}

func TestExporter_AppendsIndexWhenSheetConfigured(t *testing.T) {
	fake := newFakeGoogle(t)
	e := fake.exporter(&MockTokenProvider{TokenFunc: func(_ context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
		if len(cfg.Scopes) != 2 {
			t.Errorf("scopes = %v, want drive.file and spreadsheets", cfg.Scopes)
		}
		return &oauth2.Token{AccessToken: "tok"}, nil
	}})

	if err := e.Init(context.Background(), Credentials{ClientID: "client", SheetID: "sheet-1"}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if _, err := e.Export(context.Background(), "Generosity", "Give first."); err != nil {
		t.Fatalf("Export: %v", err)
	}

	if len(fake.sheetAppend) != 1 {
		t.Fatalf("sheet appends = %d, want 1", len(fake.sheetAppend))
	}
	got := fake.sheetAppend[0]
	if !strings.Contains(got, "/v4/spreadsheets/sheet-1/values/") || !strings.Contains(got, "Generosity") {
		t.Errorf("unexpected append request: %s", got)
	}
}

func TestExporter_ReinitWithNewClientKeepsDriveClient(t *testing.T) {
	fake := newFakeGoogle(t)
	e := fake.exporter(&MockTokenProvider{})
	ctx := context.Background()

	if err := e.Init(ctx, Credentials{ClientID: "first"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	firstFiles := e.files
	e.tokens.set(&oauth2.Token{AccessToken: "old"})

	if err := e.Init(ctx, Credentials{ClientID: "second"}); err != nil {
		t.Fatalf("second Init: %v", err)
	}

	if e.files != firstFiles {
		t.Error("drive client should be built once")
	}
	if e.oauth.ClientID != "second" {
		t.Errorf("token client not re-armed: %s", e.oauth.ClientID)
	}
	if _, err := e.tokens.Token(); err == nil {
		t.Error("token from the previous client id should be dropped")
	}
}

func TestExporter_ConcurrentInit(t *testing.T) {
	fake := newFakeGoogle(t)
	e := fake.exporter(&MockTokenProvider{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := e.Init(context.Background(), Credentials{ClientID: "client"}); err != nil {
				t.Errorf("Init: %v", err)
			}
		}()
	}
	wg.Wait()

	if state, _ := e.Status(); state != StateReady {
		t.Errorf("state = %v, want ready", state)
	}
}

func TestExporter_ReinitStaysReadyDuringExports(t *testing.T) {
	fake := newFakeGoogle(t)
	e := fake.exporter(&MockTokenProvider{})
	ctx := context.Background()

	if err := e.Init(ctx, Credentials{ClientID: "client-a"}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			if state, _ := e.Status(); state != StateReady {
				t.Errorf("state = %v while re-arming, want ready", state)
				return
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			if _, err := e.Export(ctx, "title", "body"); errors.Is(err, ErrNotInitialized) {
				t.Errorf("Export during re-init: %v", err)
				return
			}
		}
	}()

	for i := 0; i < 100; i++ {
		id := "client-a"
		if i%2 == 1 {
			id = "client-b"
		}
		if err := e.Init(ctx, Credentials{ClientID: id}); err != nil {
			t.Fatalf("re-Init %d: %v", i, err)
		}
	}
	close(done)
	wg.Wait()
}

func TestState_String(t *testing.T) {
	want := map[State]string{
		StateUninitialized: "uninitialized",
		StateLoading:       "loading",
		StateReady:         "ready",
		StateError:         "error",
	}
	for s, w := range want {
		if s.String() != w {
			t.Errorf("%d.String() = %s, want %s", s, s.String(), w)
		}
	}
}

func TestBuildMultipartBody(t *testing.T) {
	body, contentType, err := buildMultipartBody("Title", "line one\nline two")
	if err != nil {
		t.Fatalf("buildMultipartBody: %v", err)
	}

	if contentType != `multipart/related; boundary="-------314159265358979323846"` {
		t.Errorf("contentType = %s", contentType)
	}

	raw := body.String()
	if !strings.HasPrefix(raw, "--"+Boundary+"\r\n") {
		t.Errorf("body does not open with the boundary: %q", raw[:40])
	}
	if !strings.HasSuffix(raw, "\r\n--"+Boundary+"--\r\n") {
		t.Errorf("body does not close with the boundary")
	}
	if !strings.Contains(raw, `{"name":"Title","mimeType":"application/vnd.google-apps.document"}`) {
		t.Errorf("metadata part missing: %q", raw)
	}
}
