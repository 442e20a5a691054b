// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pkg/errors"

	"github.com/jeranaias/unirag-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete unirag configuration.
type Config struct {
	API     APIConfig     `toml:"api" json:"api"`
	Chat    ChatConfig    `toml:"chat" json:"chat"`
	Admin   AdminConfig   `toml:"admin" json:"admin"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	Log     LogConfig     `toml:"log" json:"log"`
	UI      UIConfig      `toml:"ui" json:"ui"`
}

// APIConfig configures the assistant backend connection.
type APIConfig struct {
	// BaseURL is the backend root, e.g. http://localhost:8000.
	BaseURL string `toml:"base_url" json:"base_url" env:"UNIRAG_API_BASE" env-default:"http://localhost:8000"`

	// Timeout bounds a single HTTP request.
	Timeout time.Duration `toml:"timeout" json:"timeout" env:"UNIRAG_API_TIMEOUT" env-default:"60s"`

	// MaxRetries is the number of extra attempts for idempotent reads.
	MaxRetries int `toml:"max_retries" json:"max_retries" env:"UNIRAG_API_MAX_RETRIES" env-default:"2"`

	// RateLimit caps outgoing requests per second. Zero disables limiting.
	RateLimit float64 `toml:"rate_limit" json:"rate_limit" env:"UNIRAG_API_RATE_LIMIT" env-default:"0"`
}

// ChatConfig configures the public chat experience.
type ChatConfig struct {
	UserID         string        `toml:"user_id" json:"user_id" env:"UNIRAG_USER_ID" env-default:"web"`
	RevealInterval time.Duration `toml:"reveal_interval" json:"reveal_interval" env:"UNIRAG_REVEAL_INTERVAL" env-default:"50ms"`
}

// AdminConfig configures the admin console.
type AdminConfig struct {
	UpdatedBy         string        `toml:"updated_by" json:"updated_by" env:"UNIRAG_ADMIN_UPDATED_BY" env-default:"admin01"`
	FeedbackLimit     int           `toml:"feedback_limit" json:"feedback_limit" env:"UNIRAG_ADMIN_FEEDBACK_LIMIT" env-default:"100"`
	TopQuestionsLimit int           `toml:"top_questions_limit" json:"top_questions_limit" env:"UNIRAG_ADMIN_TOP_QUESTIONS" env-default:"10"`
	RefreshInterval   time.Duration `toml:"refresh_interval" json:"refresh_interval" env:"UNIRAG_ADMIN_REFRESH" env-default:"10s"`
}

// StorageConfig selects where conversations and the admin token live.
type StorageConfig struct {
	// Backend is "file" (one JSON file per key) or "sqlite".
	Backend string `toml:"backend" json:"backend" env:"UNIRAG_STORAGE" env-default:"file"`

	// Dir overrides the state directory. Empty means ~/.unirag/state.
	Dir string `toml:"dir" json:"dir" env:"UNIRAG_STATE_DIR"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	Level string `toml:"level" json:"level" env:"UNIRAG_LOG_LEVEL" env-default:"info"`

	// File is the log destination. Empty means ~/.unirag/unirag.log.
	File string `toml:"file" json:"file" env:"UNIRAG_LOG_FILE"`
}

// UIConfig configures terminal rendering.
type UIConfig struct {
	Theme      string `toml:"theme" json:"theme" env:"UNIRAG_THEME" env-default:"dark"`
	NoMarkdown bool   `toml:"no_markdown" json:"no_markdown" env:"UNIRAG_NO_MARKDOWN"`
}

// Valid option sets.
var (
	ValidStorageBackends = []string{"file", "sqlite"}
	ValidLogLevels       = []string{"debug", "info", "warn", "warning", "error"}
	ValidThemes          = []string{"dark", "light", "auto"}
)

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a new Config with default values.
// Environment variables are not consulted.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    "http://localhost:8000",
			Timeout:    60 * time.Second,
			MaxRetries: 2,
		},
		Chat: ChatConfig{
			UserID:         "web",
			RevealInterval: 50 * time.Millisecond,
		},
		Admin: AdminConfig{
			UpdatedBy:         "admin01",
			FeedbackLimit:     100,
			TopQuestionsLimit: 10,
			RefreshInterval:   10 * time.Second,
		},
		Storage: StorageConfig{
			Backend: "file",
		},
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			Theme: "dark",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the unirag configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "could not determine home directory")
	}
	return filepath.Join(home, ".unirag"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o700)
}

// StateDir resolves the directory holding persisted client state.
func (c *Config) StateDir() (string, error) {
	if c.Storage.Dir != "" {
		return c.Storage.Dir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state"), nil
}

// LogFile resolves the log file path.
func (c *Config) LogFile() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "unirag.log"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads ~/.unirag/config.toml when present.
// Priority: UNIRAG_* env > TOML file > env-default tags.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML path.
// A missing file yields environment values and defaults only.
func LoadFromPath(path string) (*Config, error) {
	var cfg Config

	_, statErr := os.Stat(path)
	switch {
	case path != "" && statErr == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, errors.Wrapf(err, "config: read %s", path)
		}
	case path == "" || os.IsNotExist(statErr):
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, errors.Wrap(err, "config: read env")
		}
	default:
		return nil, errors.Wrapf(statErr, "config: stat %s", path)
	}

	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config: validate")
	}
	return &cfg, nil
}

// fillDefaults normalizes values that env-default tags cannot express.
func (c *Config) fillDefaults() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.UI.Theme = strings.ToLower(strings.TrimSpace(c.UI.Theme))
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration as commented TOML with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# unirag configuration file")
	fmt.Fprintln(&buf, "# Every key can be overridden with a UNIRAG_* environment variable.")
	fmt.Fprintln(&buf, "#")
	fmt.Fprintln(&buf, "# storage.backend: file | sqlite")
	fmt.Fprintln(&buf, "# log.level: debug | info | warn | error")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return errors.Wrap(err, "failed to encode config")
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0o600); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.API.BaseURL == "" {
		errs = append(errs, ValidationError{Field: "api.base_url", Message: "must not be empty"})
	} else if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{Field: "api.base_url", Message: "must be an http(s) URL"})
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, ValidationError{Field: "api.timeout", Message: "must be positive"})
	}
	if c.API.MaxRetries < 0 || c.API.MaxRetries > 10 {
		errs = append(errs, ValidationError{Field: "api.max_retries", Message: "must be between 0 and 10"})
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, ValidationError{Field: "api.rate_limit", Message: "must not be negative"})
	}

	if strings.TrimSpace(c.Chat.UserID) == "" {
		errs = append(errs, ValidationError{Field: "chat.user_id", Message: "must not be empty"})
	}
	if c.Chat.RevealInterval <= 0 {
		errs = append(errs, ValidationError{Field: "chat.reveal_interval", Message: "must be positive"})
	}

	if strings.TrimSpace(c.Admin.UpdatedBy) == "" {
		errs = append(errs, ValidationError{Field: "admin.updated_by", Message: "must not be empty"})
	}
	if c.Admin.FeedbackLimit <= 0 {
		errs = append(errs, ValidationError{Field: "admin.feedback_limit", Message: "must be positive"})
	}
	if c.Admin.TopQuestionsLimit <= 0 {
		errs = append(errs, ValidationError{Field: "admin.top_questions_limit", Message: "must be positive"})
	}
	if c.Admin.RefreshInterval < time.Second {
		errs = append(errs, ValidationError{Field: "admin.refresh_interval", Message: "must be at least 1s"})
	}

	if !contains(ValidStorageBackends, strings.ToLower(c.Storage.Backend)) {
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidStorageBackends, ", ")),
		})
	}
	if !contains(ValidLogLevels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels, ", ")),
		})
	}
	if !contains(ValidThemes, strings.ToLower(c.UI.Theme)) {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidThemes, ", ")),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "api.base_url").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "chat.user_id").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return errors.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, errors.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, errors.Errorf("field '%s' is a section", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, errors.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, errors.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

var durationType = reflect.TypeOf(time.Duration(0))

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		strVal = strings.TrimSpace(strVal)
		switch {
		case field.Type() == durationType:
			d, err := time.ParseDuration(strVal)
			if err != nil {
				return errors.Wrap(err, "invalid duration value")
			}
			field.SetInt(int64(d))
			return nil
		case field.Kind() == reflect.String:
			field.SetString(strVal)
			return nil
		case field.Kind() == reflect.Int || field.Kind() == reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return errors.Wrap(err, "invalid integer value")
			}
			field.SetInt(intVal)
			return nil
		case field.Kind() == reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return errors.Wrap(err, "invalid float value")
			}
			field.SetFloat(floatVal)
			return nil
		case field.Kind() == reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return errors.New("nil value")
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return errors.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	var keys []string
	root := reflect.TypeOf(Config{})
	for i := 0; i < root.NumField(); i++ {
		section := root.Field(i)
		prefix := tomlName(section)
		for j := 0; j < section.Type.NumField(); j++ {
			keys = append(keys, prefix+"."+tomlName(section.Type.Field(j)))
		}
	}
	return keys
}

func tomlName(f reflect.StructField) string {
	name := strings.Split(f.Tag.Get("toml"), ",")[0]
	if name == "" {
		return strings.ToLower(f.Name)
	}
	return name
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the configuration as TOML.
func (c *Config) String() string {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return buf.String()
}
