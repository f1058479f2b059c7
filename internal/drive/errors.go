// Package drive exports riffs to Google Drive as Google Docs.
package drive

import (
	"errors"
	"fmt"
)

// Export error kinds. Stage failures wrap exactly one of these.
var (
	ErrMissingClientConfiguration = errors.New("google client id is not configured")
	ErrNotInitialized             = errors.New("google drive is not initialized")
	ErrAuthorizationFailed        = errors.New("google authorization failed")
	ErrPopupBlocked               = errors.New("google consent page could not be opened")
	ErrUploadFailed               = errors.New("drive upload failed")
)

// OAuth error codes reported by the consent flow.
const (
	CodePopupBlocked  = "popup_blocked_by_browser"
	CodeAccessDenied  = "access_denied"
	CodeTimeout       = "consent_timeout"
	CodeStateMismatch = "state_mismatch"
	CodeExchange      = "exchange_failed"
)

// AuthError is a structured token acquisition failure.
type AuthError struct {
	Code string
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "oauth: " + e.Code
	}
	return fmt.Sprintf("oauth: %s: %v", e.Code, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is makes a popup-blocked AuthError match ErrPopupBlocked.
func (e *AuthError) Is(target error) bool {
	return target == ErrPopupBlocked && e.Code == CodePopupBlocked
}
