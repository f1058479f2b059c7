// Package config loads and saves the riff settings file.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/thedittmer/daily-riff/internal/models"
)

// Settings keys. These names are what ends up in config.yaml.
const (
	KeyAPIKey       = "gemini_api_key"
	KeyClientID     = "google_client_id"
	KeyClientSecret = "google_client_secret"
	KeyModel        = "gemini_model"
	KeySheetID      = "sheet_id"

	// MaskPrefix starts every masked secret.
	MaskPrefix = "••••"

	fileName  = "config"
	fileType  = "yaml"
	envPrefix = "RIFF"
)

// Validation errors.
var (
	ErrInvalidLogLevel = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidTimeout  = errors.New("behavior timeouts must be positive")
	ErrMissingAddr     = errors.New("server.addr is required")
	ErrNoConfigDir     = errors.New("config has no directory to save into")
)

// Config is the full settings file.
type Config struct {
	APIKey       string `mapstructure:"gemini_api_key"`
	ClientID     string `mapstructure:"google_client_id"`
	ClientSecret string `mapstructure:"google_client_secret"`
	Model        string `mapstructure:"gemini_model"`
	SheetID      string `mapstructure:"sheet_id"`

	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`
	Behavior struct {
		RequestTimeout    time.Duration `mapstructure:"request_timeout"`
		GenerationTimeout time.Duration `mapstructure:"generation_timeout"`
		ConsentTimeout    time.Duration `mapstructure:"consent_timeout"`
	} `mapstructure:"behavior"`
	Server struct {
		Addr           string   `mapstructure:"addr"`
		AllowedOrigins []string `mapstructure:"allowed_origins"`
	} `mapstructure:"server"`
	Theme struct {
		AccentColor string `mapstructure:"accent_color"`
	} `mapstructure:"theme"`
	Display struct {
		CompactView bool   `mapstructure:"compact_view"`
		DateFormat  string `mapstructure:"date_format"`
	} `mapstructure:"display"`

	dir string
	// env holds settings values that came from RIFF_* variables at load time.
	env map[string]string
}

// Settings is the user-editable part of the config.
type Settings struct {
	APIKey       string       `json:"apiKey"`
	ClientID     string       `json:"googleClientId"`
	ClientSecret string       `json:"googleClientSecret,omitempty"`
	Model        models.Model `json:"model"`
	SheetID      string       `json:"sheetId,omitempty"`
}

// DefaultDir returns $RIFF_HOME or ~/.daily-riff.
func DefaultDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("RIFF_HOME")); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}

	return filepath.Join(home, ".daily-riff"), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIKey, "")
	v.SetDefault(KeyClientID, "")
	v.SetDefault(KeyClientSecret, "")
	v.SetDefault(KeyModel, string(models.DefaultModel))
	v.SetDefault(KeySheetID, "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("behavior.request_timeout", "60s")
	v.SetDefault("behavior.generation_timeout", "120s")
	v.SetDefault("behavior.consent_timeout", "3m")
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})
	v.SetDefault("theme.accent_color", "#2DA44E")
	v.SetDefault("display.compact_view", false)
	v.SetDefault("display.date_format", "2006-01-02 15:04")
}

// LoadConfig reads config.yaml from dir. A missing file yields defaults.
// RIFF_* environment variables override file values.
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(fileName)
	v.SetConfigType(fileType)
	v.AddConfigPath(dir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{dir: dir, env: settingsFromEnv()}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// settingsFromEnv records the settings keys overridden by the environment.
func settingsFromEnv() map[string]string {
	env := make(map[string]string)
	for _, key := range settingsKeys {
		if val, ok := os.LookupEnv(envPrefix + "_" + strings.ToUpper(key)); ok && val != "" {
			env[key] = val
		}
	}
	return env
}

var settingsKeys = []string{KeyAPIKey, KeyClientID, KeyClientSecret, KeyModel, KeySheetID}

// SaveConfig writes the settings keys back to config.yaml with owner-only permissions.
// Other keys already in the file are kept. A value still equal to its RIFF_* override
// is not written, so environment-only secrets stay out of the file.
func SaveConfig(cfg *Config) error {
	if cfg.dir == "" {
		return ErrNoConfigDir
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	path := cfg.Path()
	file := viper.New()
	file.SetConfigFile(path)
	file.SetConfigType(fileType)
	if _, err := os.Stat(path); err == nil {
		if err := file.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	values := map[string]string{
		KeyAPIKey:       cfg.APIKey,
		KeyClientID:     cfg.ClientID,
		KeyClientSecret: cfg.ClientSecret,
		KeyModel:        cfg.Model,
		KeySheetID:      cfg.SheetID,
	}
	for _, key := range settingsKeys {
		if envVal, ok := cfg.env[key]; ok && envVal == values[key] {
			continue
		}
		file.Set(key, values[key])
	}

	if err := file.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	if err := os.Chmod(path, 0o600); err != nil {
		return fmt.Errorf("restrict config permissions: %w", err)
	}

	return nil
}

// Path is where SaveConfig writes.
func (c *Config) Path() string {
	return filepath.Join(c.dir, fileName+"."+fileType)
}

// Validate checks ambient options. Settings values are never rejected.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	if c.Behavior.RequestTimeout <= 0 || c.Behavior.GenerationTimeout <= 0 || c.Behavior.ConsentTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		return ErrMissingAddr
	}

	return nil
}

// Settings returns the user-editable settings. Unknown models fall back to the default.
func (c *Config) Settings() Settings {
	model, _ := models.ParseModel(c.Model)

	return Settings{
		APIKey:       c.APIKey,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Model:        model,
		SheetID:      c.SheetID,
	}
}

// Apply copies s into the config. Call SaveConfig to persist.
func (c *Config) Apply(s Settings) {
	model, _ := models.ParseModel(string(s.Model))

	c.APIKey = strings.TrimSpace(s.APIKey)
	c.ClientID = strings.TrimSpace(s.ClientID)
	c.ClientSecret = strings.TrimSpace(s.ClientSecret)
	c.Model = string(model)
	c.SheetID = strings.TrimSpace(s.SheetID)
}

// Mask hides all but the last four characters of a secret.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return MaskPrefix
	}
	return MaskPrefix + secret[len(secret)-4:]
}

// IsMasked reports whether s is a value produced by Mask.
func IsMasked(s string) bool {
	return strings.HasPrefix(s, MaskPrefix)
}

// LoadFeedsFromFile reads feed URLs from filename, skipping blanks and comments.
// Lines that are not http(s) URLs are returned separately so callers can warn.
func LoadFeedsFromFile(filename string) (feeds []string, invalid []string, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		url := strings.TrimSpace(scanner.Text())

		if url == "" || strings.HasPrefix(url, "#") {
			continue
		}

		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			invalid = append(invalid, fmt.Sprintf("line %d: %s", lineNum, url))
			continue
		}

		feeds = append(feeds, url)
	}

	return feeds, invalid, scanner.Err()
}

// Update applies s and persists the result.
func (c *Config) Update(s Settings) error {
	c.Apply(s)
	return SaveConfig(c)
}
