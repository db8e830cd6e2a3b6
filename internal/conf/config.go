// config.go: settings for birdeye and the functions that load them.
package conf

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/logger"
	"github.com/birdeye-app/birdeye/internal/secrets"
)

//go:embed config.yaml
var configFiles embed.FS

// Record store backends
const (
	BackendREST   = "rest"
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
)

// ClassifierSettings configures the OpenAI-compatible vision endpoint.
type ClassifierSettings struct {
	BaseURL     string        // chat completions base URL
	APIKey      string        // bearer credential, required; may hold ${ENV} references
	APIKeyFile  string        // read the key from this file instead
	Model       string        // vision model name
	Temperature float64       // sampling temperature for both phases
	MaxTokens   int           // completion token cap, 0 leaves it to the server
	Timeout     time.Duration // per call deadline
}

// GeocodeSettings configures reverse geocoding of photo GPS positions.
type GeocodeSettings struct {
	Enabled   bool
	Endpoint  string        // Nominatim compatible /reverse URL
	Language  string        // accept-language, BCP 47
	Zoom      int           // detail level, 14 is neighbourhood
	Timeout   time.Duration // per lookup deadline
	RateLimit float64       // requests per second, Nominatim policy is 1
	UserAgent string        // Nominatim requires an identifying agent
}

// TranscodeSettings bounds the payload sent to the classifier.
type TranscodeSettings struct {
	MaxDimension int // longest side in pixels
	Quality      int // JPEG quality 1-100
}

// BatchSettings controls how uploads are processed.
type BatchSettings struct {
	MaxPhotos int // inputs beyond this are dropped
	Workers   int // photos identified in parallel, 1 is sequential
}

// MySQLSettings holds connection details for the mysql record backend.
type MySQLSettings struct {
	Host         string
	Port         int
	Username     string
	Password     string
	PasswordFile string
	Database     string
}

// RecordsSettings configures persistence of identification records.
type RecordsSettings struct {
	Backend    string        // rest, sqlite or mysql
	URL        string        // PostgREST base URL (rest backend)
	APIKey     string        // static bearer credential (rest backend)
	APIKeyFile string        // read the credential from this file instead
	Table      string        // collection / table name
	Timeout    time.Duration // per operation deadline
	ListLimit  int           // cap on per user queries
	SQLitePath string        // database file (sqlite backend)
	MySQL      MySQLSettings
}

// LeaderboardSettings configures the aggregated ranking.
type LeaderboardSettings struct {
	FetchLimit int           // records pulled per recompute
	CacheTTL   time.Duration // how long a computed board is served
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Listen            string
	MaxUploadMB       int
	SessionSecret     string // signs the session cookie; empty uses a per-process key
	SessionSecretFile string
}

// TelemetrySettings configures optional error reporting.
type TelemetrySettings struct {
	Enabled     bool
	DSN         string
	Environment string
}

// Settings contains all configuration options for birdeye.
type Settings struct {
	Debug       bool
	Logging     logger.LoggingConfig
	Classifier  ClassifierSettings
	Geocode     GeocodeSettings
	Transcode   TranscodeSettings
	Batch       BatchSettings
	Records     RecordsSettings
	Leaderboard LeaderboardSettings
	Server      ServerSettings
	Telemetry   TelemetrySettings
}

// Load reads defaults, the config file and environment variables into a
// validated Settings. An empty configFile searches the default paths; no
// file at all is fine and leaves the embedded defaults in place.
func Load(configFile string) (*Settings, error) {
	v, err := newViper(configFile)
	if err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := resolveSecrets(settings); err != nil {
		return nil, err
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error validating settings: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return settings, nil
}

// resolveSecrets replaces credentials with the content of their secret
// files and expands environment references in the inline values.
func resolveSecrets(s *Settings) error {
	for _, c := range []struct {
		file  string
		value *string
	}{
		{s.Classifier.APIKeyFile, &s.Classifier.APIKey},
		{s.Records.APIKeyFile, &s.Records.APIKey},
		{s.Records.MySQL.PasswordFile, &s.Records.MySQL.Password},
		{s.Server.SessionSecretFile, &s.Server.SessionSecret},
	} {
		v, err := secrets.Resolve(c.file, *c.value)
		if err != nil {
			return err
		}
		*c.value = v
	}
	return nil
}

// newViper builds a fresh viper instance so repeated loads never share state.
func newViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaultConfig(v)

	if err := v.ReadConfig(bytes.NewReader(defaultConfigYAML())); err != nil {
		return nil, errors.New(fmt.Errorf("error reading embedded config: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := configureEnvironmentVariables(v); err != nil {
		return nil, err
	}

	if configFile == "" {
		configFile = FindConfigFile()
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.MergeInConfig(); err != nil {
			return nil, errors.New(fmt.Errorf("fatal error reading config file: %w", err)).
				Component("conf").
				Category(errors.CategoryConfiguration).
				FileContext(configFile, 0).
				Build()
		}
	}

	return v, nil
}

// defaultConfigYAML returns the embedded config.yaml.
func defaultConfigYAML() []byte {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		// the file is compiled in; failing here is a build defect
		panic(fmt.Sprintf("embedded config.yaml missing: %v", err))
	}
	return data
}

// GetDefaultConfigPaths returns the directories searched for config.yaml.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "birdeye"))
	}
	return append(paths, "/etc/birdeye")
}

// FindConfigFile returns the first config.yaml on the search path, or "".
func FindConfigFile() string {
	for _, dir := range GetDefaultConfigPaths() {
		candidate := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// WriteDefaultConfig writes the embedded config.yaml to path, refusing to
// overwrite an existing file.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Newf("config file already exists: %s", path).
			Component("conf").
			Category(errors.CategoryValidation).
			Build()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(fmt.Errorf("error creating directories for config file: %w", err)).
			Component("conf").
			Category(errors.CategoryFileIO).
			Build()
	}
	if err := os.WriteFile(path, defaultConfigYAML(), 0o600); err != nil {
		return errors.New(fmt.Errorf("error writing default config file: %w", err)).
			Component("conf").
			Category(errors.CategoryFileIO).
			Build()
	}
	return nil
}

// Redacted returns the settings as YAML with credentials masked.
func (s *Settings) Redacted() (string, error) {
	c := *s
	mask := func(v string) string {
		if v == "" {
			return ""
		}
		return "********"
	}
	c.Classifier.APIKey = mask(c.Classifier.APIKey)
	c.Records.APIKey = mask(c.Records.APIKey)
	c.Records.MySQL.Password = mask(c.Records.MySQL.Password)
	c.Server.SessionSecret = mask(c.Server.SessionSecret)
	c.Telemetry.DSN = mask(c.Telemetry.DSN)

	out, err := yaml.Marshal(&c)
	if err != nil {
		return "", fmt.Errorf("error marshaling settings to YAML: %w", err)
	}
	return string(out), nil
}

// RequireClassifier reports the fatal condition of having no classifier
// credential. Callers check it before reading any input.
func (s *Settings) RequireClassifier() error {
	if s.Classifier.APIKey == "" {
		return errors.Newf("classifier API key is not configured (set BIRDEYE_CLASSIFIER_APIKEY or DASHSCOPE_API_KEY)").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Priority(errors.PriorityCritical).
			Build()
	}
	return nil
}
