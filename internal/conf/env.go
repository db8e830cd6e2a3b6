// env.go - environment variable configuration and validation
package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/birdeye-app/birdeye/internal/errors"
)

// envPrefix applies to every key through AutomaticEnv, e.g. BIRDEYE_SERVER_LISTEN.
const envPrefix = "BIRDEYE"

// envBinding holds metadata for environment variable bindings
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVars   []string           // Environment variable names, first set wins
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns the explicitly documented environment variables
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", []string{"BIRDEYE_DEBUG"}, validateEnvBool},

		{"classifier.apikey", []string{"BIRDEYE_CLASSIFIER_APIKEY", "DASHSCOPE_API_KEY"}, nil},
		{"classifier.baseurl", []string{"BIRDEYE_CLASSIFIER_BASEURL"}, validateEnvURL},
		{"classifier.model", []string{"BIRDEYE_CLASSIFIER_MODEL"}, nil},

		{"records.backend", []string{"BIRDEYE_RECORDS_BACKEND"}, validateEnvBackend},
		{"records.url", []string{"BIRDEYE_RECORDS_URL", "SUPABASE_URL"}, validateEnvURL},
		{"records.apikey", []string{"BIRDEYE_RECORDS_KEY", "SUPABASE_KEY"}, nil},

		{"batch.maxphotos", []string{"BIRDEYE_BATCH_MAXPHOTOS"}, validateEnvPositiveInt},
		{"batch.workers", []string{"BIRDEYE_BATCH_WORKERS"}, validateEnvPositiveInt},

		{"geocode.enabled", []string{"BIRDEYE_GEOCODE_ENABLED"}, validateEnvBool},

		{"telemetry.dsn", []string{"BIRDEYE_TELEMETRY_DSN", "SENTRY_DSN"}, validateEnvURL},
	}
}

// bindEnvVars sets up environment variable bindings with validation
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	for _, binding := range getEnvBindings() {
		args := append([]string{binding.ConfigKey}, binding.EnvVars...)
		if err := v.BindEnv(args...); err != nil {
			warnings = append(warnings, fmt.Sprintf("failed to bind %s: %v", binding.EnvVars[0], err))
			continue
		}

		if binding.Validate == nil {
			continue
		}
		for _, name := range binding.EnvVars {
			value := os.Getenv(name)
			if value == "" {
				continue
			}
			if err := binding.Validate(value); err != nil {
				warnings = append(warnings, fmt.Sprintf("invalid %s value '%s': %v", name, value, err))
			}
		}
	}

	if len(warnings) > 0 {
		return errors.Newf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - ")).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return nil
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables(v *viper.Viper) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return bindEnvVars(v)
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f", value)
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1, got %d", n)
	}
	return nil
}

func validateEnvURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("URL must include scheme and host, got '%s'", value)
	}
	return nil
}

func validateEnvBackend(value string) error {
	switch value {
	case BackendREST, BackendSQLite, BackendMySQL:
		return nil
	}
	return fmt.Errorf("backend must be one of rest, sqlite, mysql, got '%s'", value)
}
