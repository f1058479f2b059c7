package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/thedittmer/daily-riff/internal/logger"
	"github.com/thedittmer/daily-riff/internal/storage"
)

// TokenProvider hands out an access token for cfg, asking the user only when needed.
type TokenProvider interface {
	Token(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)
}

// LoopbackAuthorizer runs the installed-app consent flow with a redirect to
// 127.0.0.1 and caches the resulting token on disk.
type LoopbackAuthorizer struct {
	TokenFile      string
	ConsentTimeout time.Duration
	// Open shows the consent page to the user. Defaults to OpenBrowser.
	Open func(url string) error

	logger *logger.Logger
	mu     sync.Mutex
}

// NewLoopbackAuthorizer caches tokens in tokenFile.
func NewLoopbackAuthorizer(tokenFile string, consentTimeout time.Duration, log *logger.Logger) *LoopbackAuthorizer {
	if log == nil {
		log = logger.Discard()
	}

	return &LoopbackAuthorizer{
		TokenFile:      tokenFile,
		ConsentTimeout: consentTimeout,
		Open:           OpenBrowser,
		logger:         log.With("component", "oauth"),
	}
}

type cachedToken struct {
	ClientID string        `json:"client_id"`
	Scopes   []string      `json:"scopes"`
	Token    *oauth2.Token `json:"token"`
}

// Token reuses a cached consent when possible and never forces the consent screen.
func (a *LoopbackAuthorizer) Token(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if cached := a.load(cfg); cached != nil {
		fresh, err := cfg.TokenSource(ctx, cached).Token()
		if err == nil {
			if fresh.AccessToken != cached.AccessToken {
				a.save(cfg, fresh)
			}
			return fresh, nil
		}
		a.logger.Warn("cached token unusable, asking for consent", "error", err)
	}

	tok, err := a.consent(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a.save(cfg, tok)
	return tok, nil
}

type callbackResult struct {
	code string
	err  error
}

func (a *LoopbackAuthorizer) consent(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("listen for oauth redirect: %w", err)
	}

	flow := *cfg
	flow.RedirectURL = fmt.Sprintf("http://%s/callback", ln.Addr().String())

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	authURL := flow.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           callbackHandler(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("oauth redirect server stopped", "error", err)
		}
	}()
	defer srv.Close()

	if err := a.Open(authURL); err != nil {
		a.logger.Warn("could not open consent page", "error", err, "url", authURL)
		return nil, &AuthError{Code: CodePopupBlocked, Err: err}
	}
	a.logger.Info("waiting for google consent", "redirect", flow.RedirectURL)

	if a.ConsentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.ConsentTimeout)
		defer cancel()
	}

	var res callbackResult
	select {
	case <-ctx.Done():
		return nil, &AuthError{Code: CodeTimeout, Err: ctx.Err()}
	case res = <-results:
	}

	if res.err != nil {
		return nil, res.err
	}

	tok, err := flow.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, &AuthError{Code: CodeExchange, Err: err}
	}

	return tok, nil
}

func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var res callbackResult
		switch {
		case q.Get("state") != state:
			res.err = &AuthError{Code: CodeStateMismatch}
		case q.Get("error") != "":
			res.err = &AuthError{Code: q.Get("error")}
		case q.Get("code") == "":
			res.err = &AuthError{Code: CodeExchange, Err: errors.New("redirect carried no code")}
		default:
			res.code = q.Get("code")
		}

		select {
		case results <- res:
		default:
		}

		if res.err != nil {
			http.Error(w, "Authorization failed. You can close this window.", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("Authorized. You can close this window and return to riff."))
	})
	return mux
}

// load returns the cached token if it was granted to the same client for the same scopes.
func (a *LoopbackAuthorizer) load(cfg *oauth2.Config) *oauth2.Token {
	data, err := os.ReadFile(a.TokenFile)
	if err != nil {
		return nil
	}

	var cached cachedToken
	if err := json.Unmarshal(data, &cached); err != nil {
		a.logger.Warn("ignoring unreadable token cache", "error", err)
		return nil
	}

	if cached.ClientID != cfg.ClientID || cached.Token == nil {
		return nil
	}

	if !sameScopes(cached.Scopes, cfg.Scopes) {
		a.logger.Info("requested scopes changed, asking for consent")
		return nil
	}

	return cached.Token
}

func (a *LoopbackAuthorizer) save(cfg *oauth2.Config, tok *oauth2.Token) {
	cached := cachedToken{
		ClientID: cfg.ClientID,
		Scopes:   slices.Clone(cfg.Scopes),
		Token:    tok,
	}
	data, err := json.MarshalIndent(cached, "", "  ")
	if err != nil {
		a.logger.Warn("could not encode token cache", "error", err)
		return
	}

	if err := storage.WriteFileAtomic(a.TokenFile, data, 0o600); err != nil {
		a.logger.Warn("could not write token cache", "error", err)
	}
}

func sameScopes(a, b []string) bool {
	a, b = slices.Clone(a), slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(slices.Compact(a), slices.Compact(b))
}

// OpenBrowser asks the desktop to open url.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	return cmd.Start()
}
