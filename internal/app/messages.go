package app

import (
	"errors"
	"fmt"

	"github.com/thedittmer/daily-riff/internal/drive"
	"github.com/thedittmer/daily-riff/internal/generator"
	"github.com/thedittmer/daily-riff/internal/normalizer"
	"github.com/thedittmer/daily-riff/internal/storage"
)

// Banner messages shown to the user.
const (
	MsgMissingCredential   = "Add your Gemini API key in settings to start riffing."
	MsgInvalidCredential   = "Invalid API Key provided."
	MsgParseFailed         = "Failed to parse the generated content. Please try again."
	MsgProviderError       = "An error occurred while communicating with Gemini."
	MsgEmptyTopic          = "Enter a topic to riff on."
	MsgGenerationRunning   = "Already riffing. Wait for the current generation to finish."
	MsgSaveFailed          = "Failed to save locally"
	MsgLoadFailed          = "Failed to load saved riffs"
	MsgNotFound            = "That riff is no longer saved."
	MsgMissingClientID     = "Please set a Google Client ID in Settings to use Drive."
	MsgPopupBlocked        = "Pop-up blocked. Please allow pop-ups for Google Login."
	MsgDriveFailed         = "Failed to save to Drive. Check console or Client ID."
	MsgUnexpected          = "Something went wrong. Please try again."
	MsgSettingsSaveFailed  = "Failed to save settings"
	MsgCopyFailed          = "Failed to copy to clipboard"
	MsgCopied              = "Copied to clipboard"
	msgExportSuccessFormat = "Saved \"%s\" to Google Drive!"
)

// ErrCopyFailed is returned when the system clipboard rejects a write.
var ErrCopyFailed = errors.New("copy to clipboard failed")

// Message maps err to the banner text shown to the user. Diagnostics stay in the log.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, generator.ErrMissingCredential):
		return MsgMissingCredential
	case errors.Is(err, generator.ErrInvalidCredential):
		return MsgInvalidCredential
	case errors.Is(err, normalizer.ErrMalformedOutput), errors.Is(err, generator.ErrEmptyOutput):
		return MsgParseFailed
	case errors.Is(err, generator.ErrEmptyTopic):
		return MsgEmptyTopic
	case errors.Is(err, generator.ErrRequestFailed):
		return MsgProviderError
	case errors.Is(err, ErrGenerationInProgress):
		return MsgGenerationRunning
	case errors.Is(err, storage.ErrNotFound):
		return MsgNotFound
	case errors.Is(err, storage.ErrStorageWrite):
		return MsgSaveFailed
	case errors.Is(err, storage.ErrStorageRead):
		return MsgLoadFailed
	case errors.Is(err, ErrCopyFailed):
		return MsgCopyFailed
	case errors.Is(err, ErrSettingsWrite):
		return MsgSettingsSaveFailed
	case errors.Is(err, drive.ErrMissingClientConfiguration):
		return MsgMissingClientID
	case errors.Is(err, drive.ErrPopupBlocked):
		return MsgPopupBlocked
	case errors.Is(err, drive.ErrNotInitialized),
		errors.Is(err, drive.ErrAuthorizationFailed),
		errors.Is(err, drive.ErrUploadFailed):
		return MsgDriveFailed
	default:
		return MsgUnexpected
	}
}

// ExportMessage is the banner shown after a successful export.
func ExportMessage(title string) string {
	return fmt.Sprintf(msgExportSuccessFormat, title)
}
