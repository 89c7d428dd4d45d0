package config

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/counsel/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "counsel.json"

	// DefaultPort is the default host port.
	DefaultPort = 3000

	// DefaultHost is the default host address.
	DefaultHost = "localhost"

	// DefaultUpstream is the default base URL of the portal endpoints.
	DefaultUpstream = "http://localhost:8080"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "counsel"
)

// Config represents the complete counsel.json configuration.
type Config struct {
	// Name is the deployment name, used in logs.
	Name string `json:"name,omitempty"`

	// Server contains the live host settings.
	Server ServerConfig `json:"server,omitempty"`

	// Upstream contains the portal endpoint settings.
	Upstream UpstreamConfig `json:"upstream,omitempty"`

	// Toast contains notification timings.
	Toast ToastConfig `json:"toast,omitempty"`

	// Submit contains submission lifecycle settings.
	Submit SubmitConfig `json:"submit,omitempty"`

	// Filter contains table filter settings.
	Filter FilterConfig `json:"filter,omitempty"`

	// Paths contains file locations.
	Paths PathsConfig `json:"paths,omitempty"`

	// S3 configures the bucket used when paths.uploads is an s3:// URL.
	S3 S3Config `json:"s3,omitempty"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Log contains logging settings.
	Log LogConfig `json:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains live host settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// AllowedOrigins restricts WebSocket origins. Empty allows same-origin
	// requests only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// UpstreamConfig contains portal endpoint settings.
type UpstreamConfig struct {
	// BaseURL is the absolute URL page endpoints are resolved against.
	BaseURL string `json:"baseURL,omitempty"`

	// Timeout bounds a single request (e.g., "30s").
	Timeout string `json:"timeout,omitempty"`
}

// ToastConfig contains notification timings.
type ToastConfig struct {
	Duration   string `json:"duration,omitempty"`
	Transition string `json:"transition,omitempty"`
}

// SubmitConfig contains submission lifecycle settings.
type SubmitConfig struct {
	// SafetyTimeout is used by pages that do not set their own.
	SafetyTimeout string `json:"safetyTimeout,omitempty"`
}

// FilterConfig contains table filter settings.
type FilterConfig struct {
	// Debounce delays search evaluation on debounced tables.
	Debounce string `json:"debounce,omitempty"`
}

// PathsConfig contains file locations.
type PathsConfig struct {
	// Pages is an optional page catalogue overriding the built-in one.
	Pages string `json:"pages,omitempty"`

	// Prefs is the preference file.
	Prefs string `json:"prefs,omitempty"`

	// Uploads is the staging directory for selected images, or
	// s3://bucket/prefix to stage them in a bucket.
	Uploads string `json:"uploads,omitempty"`
}

// S3Config contains bucket client settings. Credentials come from
// AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY.
type S3Config struct {
	// Region defaults to us-east-1.
	Region string `json:"region,omitempty"`

	// Endpoint selects an S3-compatible service such as MinIO.
	Endpoint string `json:"endpoint,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Upstream: UpstreamConfig{
			BaseURL: DefaultUpstream,
			Timeout: "30s",
		},
		Toast: ToastConfig{
			Duration:   "5s",
			Transition: "300ms",
		},
		Submit: SubmitConfig{
			SafetyTimeout: "5s",
		},
		Filter: FilterConfig{
			Debounce: "300ms",
		},
		Paths: PathsConfig{
			Prefs:   ".counsel/prefs.json",
			Uploads: ".counsel/uploads",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for counsel.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C402").
				WithDetail("No counsel.json found in " + filepath.Dir(path)).
				WithSuggestion("Create counsel.json or run without --config to use the defaults")
		}
		return nil, errors.New("C401").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("C401").
			WithDetail("Failed to parse counsel.json: " + err.Error()).
			WithSuggestion("Check that counsel.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("C401").Wrap(err)
	}

	// Add newline at end of file
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C401").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()

	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = d.Upstream.BaseURL
	}
	if c.Upstream.Timeout == "" {
		c.Upstream.Timeout = d.Upstream.Timeout
	}
	if c.Toast.Duration == "" {
		c.Toast.Duration = d.Toast.Duration
	}
	if c.Toast.Transition == "" {
		c.Toast.Transition = d.Toast.Transition
	}
	if c.Submit.SafetyTimeout == "" {
		c.Submit.SafetyTimeout = d.Submit.SafetyTimeout
	}
	if c.Filter.Debounce == "" {
		c.Filter.Debounce = d.Filter.Debounce
	}
	if c.Paths.Prefs == "" {
		c.Paths.Prefs = d.Paths.Prefs
	}
	if c.Paths.Uploads == "" {
		c.Paths.Uploads = d.Paths.Uploads
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("C401").
			WithField("server.port").
			WithDetail("Port must be between 0 and 65535")
	}

	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("C401").
			WithField("upstream.baseURL").
			WithDetail("Base URL must be absolute, got " + strconv.Quote(c.Upstream.BaseURL))
	}

	durations := []struct {
		field string
		value string
	}{
		{"upstream.timeout", c.Upstream.Timeout},
		{"toast.duration", c.Toast.Duration},
		{"toast.transition", c.Toast.Transition},
		{"submit.safetyTimeout", c.Submit.SafetyTimeout},
		{"filter.debounce", c.Filter.Debounce},
	}
	for _, d := range durations {
		if v, err := time.ParseDuration(d.value); err != nil || v <= 0 {
			return errors.New("C401").
				WithField(d.field).
				WithDetail("Invalid duration " + strconv.Quote(d.value)).
				WithSuggestion("Use a positive Go duration such as \"5s\" or \"300ms\"")
		}
	}

	if c.S3.Endpoint != "" {
		if u, err := url.Parse(c.S3.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("C401").
				WithField("s3.endpoint").
				WithDetail("Endpoint must be absolute, got " + strconv.Quote(c.S3.Endpoint))
		}
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("C401").
			WithField("log.format").
			WithDetail("Format must be \"text\" or \"json\"")
	}
	return nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// URL returns the base URL of the host.
func (c *Config) URL() string {
	return "http://" + c.Address()
}

// duration parses a validated duration, falling back to def.
func duration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// UpstreamTimeout returns the per-request timeout.
func (c *Config) UpstreamTimeout() time.Duration {
	return duration(c.Upstream.Timeout, 30*time.Second)
}

// ToastDuration returns how long a notification stays visible.
func (c *Config) ToastDuration() time.Duration {
	return duration(c.Toast.Duration, 5*time.Second)
}

// ToastTransition returns the leave animation length.
func (c *Config) ToastTransition() time.Duration {
	return duration(c.Toast.Transition, 300*time.Millisecond)
}

// SafetyTimeout returns the default submission safety timeout.
func (c *Config) SafetyTimeout() time.Duration {
	return duration(c.Submit.SafetyTimeout, 5*time.Second)
}

// FilterDebounce returns the search debounce.
func (c *Config) FilterDebounce() time.Duration {
	return duration(c.Filter.Debounce, 300*time.Millisecond)
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.New("C401").
			WithField("log.level").
			WithDetail("Unknown level " + strconv.Quote(c.Log.Level)).
			WithSuggestion("Use debug, info, warn or error")
	}
	return level, nil
}

// resolve makes path relative to the config directory.
func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// PagesPath returns the catalogue override path, or "" for the built-in
// catalogue.
func (c *Config) PagesPath() string {
	return c.resolve(c.Paths.Pages)
}

// PrefsPath returns the absolute preference file path.
func (c *Config) PrefsPath() string {
	return c.resolve(c.Paths.Prefs)
}

// UploadsPath returns the image staging directory. Bucket URLs are
// returned unchanged.
func (c *Config) UploadsPath() string {
	if c.UploadsInBucket() {
		return c.Paths.Uploads
	}
	return c.resolve(c.Paths.Uploads)
}

// UploadsInBucket reports whether images are staged in S3.
func (c *Config) UploadsInBucket() bool {
	return strings.HasPrefix(c.Paths.Uploads, "s3://")
}

// S3Region returns the bucket region.
func (c *Config) S3Region() string {
	if c.S3.Region == "" {
		return "us-east-1"
	}
	return c.S3.Region
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}
