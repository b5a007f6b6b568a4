package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notepdf/internal/cache"
	"github.com/starford/notepdf/internal/convert"
	"github.com/starford/notepdf/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Source    SourceConfig      `yaml:"source"`
	Dest      DestConfig        `yaml:"dest"`
	Cache     CacheConfig       `yaml:"cache"`
	Converter ConverterConfig   `yaml:"converter"`
	Watch     WatchConfig       `yaml:"watch"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validators := []validation.Validatable{
		&c.App, &c.Source, &c.Dest, &c.Cache, &c.Converter, &c.Watch, &c.Auth,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds the status server configuration. Port 0 disables it.
// MCP mounts the MCP endpoint at /api/mcp.
type HTTPConfig struct {
	Port int  `yaml:"port"`
	MCP  bool `yaml:"mcp"`
}

// Enabled reports whether the status server should listen.
func (c *HTTPConfig) Enabled() bool {
	return c.Port > 0
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Min(0), validation.Max(65535)),
	)
}

// SourceConfig points at the tree of note files.
type SourceConfig struct {
	Path      string `yaml:"path"`
	Extension string `yaml:"extension"`
}

// Validate validates the source configuration.
func (c *SourceConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Extension, validation.Required, validation.Length(2, 0)),
	)
}

// DestConfig points at the mirrored PDF tree.
//
// Verify makes unchanged notes reconvert when their PDF has gone missing.
// It is off by default: the cache alone decides.
type DestConfig struct {
	Path   string `yaml:"path"`
	Verify bool   `yaml:"verify"`
}

// Validate validates the destination configuration.
func (c *DestConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// CacheConfig holds the fingerprint cache location and backend.
type CacheConfig struct {
	Path    string `yaml:"path"`
	Backend string `yaml:"backend"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Backend, validation.In(cache.BackendJSON, cache.BackendSQLite)),
	)
}

// ConverterConfig configures the external renderer.
type ConverterConfig struct {
	Command    string        `yaml:"command"`
	Policy     string        `yaml:"policy"`
	PDFType    string        `yaml:"pdf_type"`
	EnableLink bool          `yaml:"enable_link"`
	Args       []string      `yaml:"args"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Validate validates the converter configuration.
func (c *ConverterConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Command, validation.Required),
		validation.Field(&c.Policy, validation.In(convert.PolicyStrict, convert.PolicyLoose)),
		validation.Field(&c.PDFType, validation.In(convert.PDFTypeRaster, convert.PDFTypeVector)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// SupernoteOptions maps the configuration onto the renderer options.
func (c *ConverterConfig) SupernoteOptions() convert.SupernoteOptions {
	return convert.SupernoteOptions{
		Command:    c.Command,
		Policy:     c.Policy,
		PDFType:    c.PDFType,
		EnableLink: c.EnableLink,
		ExtraArgs:  c.Args,
	}
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// AuthConfig holds status server authentication.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a Config with default values. The cache path is
// left empty; the entry point derives it from the executable location.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Source: SourceConfig{
			Path:      "/volume1/Synology/Supernote/Note",
			Extension: storage.DefaultNoteExt,
		},
		Dest: DestConfig{
			Path: "/volume1/Sync/Notes/Supernote",
		},
		Cache: CacheConfig{
			Backend: cache.BackendJSON,
		},
		Converter: ConverterConfig{
			Command:    convert.DefaultCommand,
			Policy:     convert.PolicyStrict,
			PDFType:    convert.PDFTypeRaster,
			EnableLink: true,
			Timeout:    5 * time.Minute,
		},
		Watch: WatchConfig{
			Debounce: time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
