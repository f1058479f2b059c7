package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/thedittmer/daily-riff/internal/logger"
)

// DefaultUploadURL is Drive's multipart create endpoint.
const DefaultUploadURL = "https://www.googleapis.com/upload/drive/v3/files?uploadType=multipart"

// State is the initialization state of an Exporter.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "uninitialized"
	}
}

// Credentials configure the OAuth client and the optional export index sheet.
type Credentials struct {
	ClientID     string
	ClientSecret string
	SheetID      string
}

// Options tune the transport. Zero values pick production defaults.
type Options struct {
	UploadURL      string
	APIEndpoint    string
	RequestTimeout time.Duration
	Transport      http.RoundTripper
}

// Result identifies the created document.
type Result struct {
	FileID string `json:"fileId"`
	URL    string `json:"url"`
}

// Exporter uploads riffs to Drive. Init must succeed before Export.
type Exporter struct {
	auth   TokenProvider
	opts   Options
	logger *logger.Logger

	initMu sync.Mutex

	mu       sync.RWMutex
	state    State
	initErr  error
	clientID string
	oauth    *oauth2.Config
	files    *drive.Service
	index    *SheetIndex

	tokens     *tokenHolder
	httpClient *http.Client
}

// NewExporter creates an uninitialized exporter.
func NewExporter(auth TokenProvider, opts Options, log *logger.Logger) *Exporter {
	if log == nil {
		log = logger.Discard()
	}
	if opts.UploadURL == "" {
		opts.UploadURL = DefaultUploadURL
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = time.Minute
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}

	tokens := &tokenHolder{}
	return &Exporter{
		auth:   auth,
		opts:   opts,
		logger: log.With("component", "drive"),
		tokens: tokens,
		httpClient: &http.Client{
			Transport: &oauth2.Transport{Source: tokens, Base: opts.Transport},
		},
	}
}

// Status reports the current initialization state and the last init error.
func (e *Exporter) Status() (State, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state, e.initErr
}

// Init prepares the Drive client and arms the token client for creds.ClientID.
// It is safe to call repeatedly and concurrently. The Drive client is built once;
// a new client id only re-arms the token client.
func (e *Exporter) Init(ctx context.Context, creds Credentials) error {
	clientID := strings.TrimSpace(creds.ClientID)
	if clientID == "" {
		return ErrMissingClientConfiguration
	}

	e.initMu.Lock()
	defer e.initMu.Unlock()

	e.mu.RLock()
	files, prevClient := e.files, e.clientID
	e.mu.RUnlock()

	// Loading only on the first build; re-arming stays Ready.
	if files == nil {
		e.setState(StateLoading, nil)
		svc, err := drive.NewService(ctx, e.serviceOptions()...)
		if err != nil {
			e.setState(StateError, err)
			return fmt.Errorf("%w: drive client: %w", ErrNotInitialized, err)
		}
		files = svc
	}

	var index *SheetIndex
	if creds.SheetID != "" {
		svc, err := sheets.NewService(ctx, e.serviceOptions()...)
		if err != nil {
			e.setState(StateError, err)
			return fmt.Errorf("%w: sheets client: %w", ErrNotInitialized, err)
		}
		index = NewSheetIndex(svc, creds.SheetID, e.logger)
	}

	scopes := []string{drive.DriveFileScope}
	if index != nil {
		scopes = append(scopes, sheets.SpreadsheetsScope)
	}

	if prevClient != "" && prevClient != clientID {
		e.tokens.set(nil)
	}

	e.mu.Lock()
	e.files = files
	e.index = index
	e.clientID = clientID
	e.oauth = &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       scopes,
	}
	e.state = StateReady
	e.initErr = nil
	e.mu.Unlock()

	e.logger.Info("google drive initialized", "index", index != nil)
	return nil
}

func (e *Exporter) setState(s State, err error) {
	e.mu.Lock()
	e.state = s
	e.initErr = err
	e.mu.Unlock()
}

func (e *Exporter) serviceOptions() []option.ClientOption {
	opts := []option.ClientOption{option.WithHTTPClient(e.httpClient)}
	if e.opts.APIEndpoint != "" {
		opts = append(opts, option.WithEndpoint(e.opts.APIEndpoint))
	}
	return opts
}

// Export creates a Google Doc named title holding content.
// Stages: acquireToken, buildMultipartBody, upload. No retries.
func (e *Exporter) Export(ctx context.Context, title, content string) (*Result, error) {
	e.mu.RLock()
	state, clientID, cfg, files, index := e.state, e.clientID, e.oauth, e.files, e.index
	e.mu.RUnlock()

	if clientID == "" {
		return nil, ErrMissingClientConfiguration
	}
	if state != StateReady {
		return nil, ErrNotInitialized
	}

	if err := e.acquireToken(ctx, cfg); err != nil {
		return nil, err
	}

	body, contentType, err := buildMultipartBody(title, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	file, err := e.upload(ctx, body, contentType)
	if err != nil {
		return nil, err
	}

	result := &Result{FileID: file.Id, URL: e.webLink(ctx, files, file)}
	e.logger.Info("exported to drive", "title", title, "file_id", result.FileID)

	if index != nil {
		if err := e.appendIndex(ctx, index, title, result.URL); err != nil {
			e.logger.Warn("could not append export index", "error", err)
		}
	}

	return result, nil
}

func (e *Exporter) acquireToken(ctx context.Context, cfg *oauth2.Config) error {
	tok, err := e.auth.Token(ctx, cfg)
	if err != nil {
		e.logger.Error("token acquisition failed", "error", err)
		return fmt.Errorf("%w: %w", ErrAuthorizationFailed, err)
	}
	if tok == nil || tok.AccessToken == "" {
		return fmt.Errorf("%w: empty access token", ErrAuthorizationFailed)
	}

	e.tokens.set(tok)
	return nil
}

func (e *Exporter) upload(ctx context.Context, body io.Reader, contentType string) (*drive.File, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.opts.UploadURL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		e.logger.Error("drive rejected upload", "status", resp.StatusCode, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	var file drive.File
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrUploadFailed, err)
	}
	if file.Id == "" {
		return nil, fmt.Errorf("%w: response carried no file id", ErrUploadFailed)
	}

	return &file, nil
}

// webLink asks Drive for the document link, falling back to the canonical Docs URL.
func (e *Exporter) webLink(ctx context.Context, files *drive.Service, file *drive.File) string {
	if file.WebViewLink != "" {
		return file.WebViewLink
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.RequestTimeout)
	defer cancel()

	got, err := files.Files.Get(file.Id).Fields("webViewLink").Context(ctx).Do()
	if err == nil && got.WebViewLink != "" {
		return got.WebViewLink
	}
	if err != nil {
		e.logger.Debug("web link lookup failed", "file_id", file.Id, "error", err)
	}

	return DocumentURL(file.Id)
}

func (e *Exporter) appendIndex(ctx context.Context, index *SheetIndex, title, url string) error {
	ctx, cancel := context.WithTimeout(ctx, e.opts.RequestTimeout)
	defer cancel()
	return index.Append(ctx, title, url, time.Now())
}

// DocumentURL is the edit link of a Google Doc.
func DocumentURL(fileID string) string {
	return fmt.Sprintf("https://docs.google.com/document/d/%s/edit", fileID)
}

// tokenHolder is the oauth2.TokenSource behind the shared HTTP client.
type tokenHolder struct {
	mu  sync.RWMutex
	tok *oauth2.Token
}

var errNoToken = errors.New("no access token acquired yet")

func (h *tokenHolder) set(tok *oauth2.Token) {
	h.mu.Lock()
	h.tok = tok
	h.mu.Unlock()
}

func (h *tokenHolder) Token() (*oauth2.Token, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.tok == nil {
		return nil, errNoToken
	}
	return h.tok, nil
}
