// Package app ties generation, local storage and Drive export together
// behind the operations the CLI and HTTP API expose.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thedittmer/daily-riff/internal/config"
	"github.com/thedittmer/daily-riff/internal/drive"
	"github.com/thedittmer/daily-riff/internal/logger"
	"github.com/thedittmer/daily-riff/internal/models"
	"github.com/thedittmer/daily-riff/internal/storage"
)

// Service errors.
var (
	ErrGenerationInProgress = errors.New("a generation is already in progress")
	ErrSettingsWrite        = errors.New("settings could not be saved")
)

// Generator produces riffs for a topic.
type Generator interface {
	Generate(ctx context.Context, apiKey string, model models.Model, topic string) (*models.Generation, error)
}

// Store persists saved riffs.
type Store interface {
	Save(ctx context.Context, article models.Article) (models.SavedArticle, error)
	ListAll(ctx context.Context) ([]models.SavedArticle, error)
	Get(ctx context.Context, id string) (models.SavedArticle, error)
	Delete(ctx context.Context, id string) error
}

// Exporter sends riffs to Google Drive.
type Exporter interface {
	Init(ctx context.Context, creds drive.Credentials) error
	Export(ctx context.Context, title, content string) (*drive.Result, error)
	Status() (drive.State, error)
}

// SettingsStore reads and persists user settings.
type SettingsStore interface {
	Settings() config.Settings
	Update(s config.Settings) error
}

// Options tune a Service.
type Options struct {
	GenerationTimeout time.Duration
}

// Service is the application layer shared by the CLI and the HTTP API.
type Service struct {
	gen      Generator
	store    Store
	exporter Exporter
	logger   *logger.Logger
	opts     Options

	settingsMu sync.RWMutex
	settings   SettingsStore

	generating atomic.Bool
}

// NewService wires the service. Call Start before exporting.
func NewService(gen Generator, store Store, exporter Exporter, settings SettingsStore, opts Options, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}

	return &Service{
		gen:      gen,
		store:    store,
		exporter: exporter,
		settings: settings,
		opts:     opts,
		logger:   log.With("component", "app"),
	}
}

// Start initializes Drive when a client id is configured. Init failures are
// logged and surface later as NotInitialized on export.
func (s *Service) Start(ctx context.Context) {
	s.initDrive(ctx, s.Settings())
}

func (s *Service) initDrive(ctx context.Context, settings config.Settings) {
	if settings.ClientID == "" {
		return
	}

	err := s.exporter.Init(ctx, drive.Credentials{
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
		SheetID:      settings.SheetID,
	})
	if err != nil {
		s.logger.Error("drive init failed", "error", err)
	}
}

// Settings returns the current settings.
func (s *Service) Settings() config.Settings {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()
	return s.settings.Settings()
}

// SaveSettings persists settings and re-arms Drive for the new client id.
func (s *Service) SaveSettings(ctx context.Context, settings config.Settings) error {
	s.settingsMu.Lock()
	err := s.settings.Update(settings)
	current := s.settings.Settings()
	s.settingsMu.Unlock()

	if err != nil {
		return fmt.Errorf("%w: %w", ErrSettingsWrite, err)
	}

	s.logger.Info("settings saved", "model", current.Model, "drive", current.ClientID != "")
	s.initDrive(ctx, current)
	return nil
}

// Generate asks for riffs on topic. An empty model uses the configured one.
// Only one generation runs at a time.
func (s *Service) Generate(ctx context.Context, topic string, model models.Model) (*models.Generation, error) {
	if !s.generating.CompareAndSwap(false, true) {
		return nil, ErrGenerationInProgress
	}
	defer s.generating.Store(false)

	settings := s.Settings()
	if model == "" {
		model = settings.Model
	}

	if s.opts.GenerationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.GenerationTimeout)
		defer cancel()
	}

	return s.gen.Generate(ctx, settings.APIKey, model, topic)
}

// Generating reports whether a generation is running.
func (s *Service) Generating() bool {
	return s.generating.Load()
}

// SaveLocally stores article in the local database.
func (s *Service) SaveLocally(ctx context.Context, article models.Article) (models.SavedArticle, error) {
	return s.store.Save(ctx, article)
}

// ListSaved returns saved riffs, newest first.
func (s *Service) ListSaved(ctx context.Context) ([]models.SavedArticle, error) {
	posts, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(posts)-1; i < j; i, j = i+1, j-1 {
		posts[i], posts[j] = posts[j], posts[i]
	}
	return posts, nil
}

// DeleteSaved removes a saved riff. Unknown ids are not an error.
func (s *Service) DeleteSaved(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// ExportToDrive creates a Google Doc from article. Without a client id no
// network call is made.
func (s *Service) ExportToDrive(ctx context.Context, article models.Article) (*drive.Result, error) {
	if strings.TrimSpace(s.Settings().ClientID) == "" {
		return nil, drive.ErrMissingClientConfiguration
	}

	res, err := s.exporter.Export(ctx, article.Title, article.Content)
	if err != nil {
		s.logger.Error("drive export failed", "title", article.Title, "error", err)
		return nil, err
	}

	return res, nil
}

// ExportSaved exports the saved riff with id.
func (s *Service) ExportSaved(ctx context.Context, id string) (*drive.Result, models.SavedArticle, error) {
	post, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, models.SavedArticle{}, err
	}

	res, err := s.ExportToDrive(ctx, post.Article)
	return res, post, err
}

// DumpSaved writes every saved riff as Markdown into dir.
func (s *Service) DumpSaved(ctx context.Context, dir string) ([]string, error) {
	posts, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	return storage.DumpMarkdown(dir, posts)
}

// DriveStatus reports the exporter state.
func (s *Service) DriveStatus() (drive.State, error) {
	return s.exporter.Status()
}
