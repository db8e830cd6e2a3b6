// Package secrets resolves credentials from mounted secret files or from
// environment references embedded in config values, so API keys need not
// live in config.yaml.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/logger"
)

const (
	componentName = "secrets"

	// tokens and passwords, not documents
	maxSecretFileSize = 64 * 1024
)

// ExpandString expands ${VAR} and ${VAR:-default} references in s. A
// reference without a default to an unset variable is an error.
func ExpandString(s string) (string, error) {
	if s == "" {
		return "", nil
	}

	var missing []string
	expanded := os.Expand(s, func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")
		if value := os.Getenv(name); value != "" {
			return value
		}
		if hasFallback {
			return fallback
		}
		missing = append(missing, name)
		return ""
	})

	if len(missing) > 0 {
		return "", errors.Newf("missing required environment variable(s): %s", strings.Join(missing, ", ")).
			Component(componentName).
			Category(errors.CategoryConfiguration).
			Build()
	}
	return expanded, nil
}

// ReadFile reads a secret from path, as mounted by Docker or Kubernetes
// under /run/secrets. Trailing newlines are trimmed; an empty file is an
// error. Group or world readable files are accepted with a warning.
func ReadFile(path string) (string, error) {
	if path == "" {
		return "", fileError(fmt.Errorf("secret file path is empty"), path)
	}
	clean := filepath.Clean(path)

	info, err := os.Stat(clean)
	if err != nil {
		return "", fileError(err, clean)
	}
	if !info.Mode().IsRegular() {
		return "", fileError(fmt.Errorf("secret path is not a regular file"), clean)
	}
	if info.Size() > maxSecretFileSize {
		return "", fileError(fmt.Errorf("secret file too large (max %d bytes)", maxSecretFileSize), clean)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Global().Module(componentName).Warn("secret file is readable by group or others",
			logger.String("path", clean),
			logger.String("perm", fmt.Sprintf("%04o", perm)))
	}

	data, err := os.ReadFile(clean)
	if err != nil {
		return "", fileError(err, clean)
	}
	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", fileError(fmt.Errorf("secret file is empty"), clean)
	}
	return secret, nil
}

// Resolve returns the secret from filePath when set, otherwise value with
// environment references expanded.
func Resolve(filePath, value string) (string, error) {
	if filePath != "" {
		return ReadFile(filePath)
	}
	return ExpandString(value)
}

func fileError(err error, path string) error {
	return errors.New(err).
		Component(componentName).
		Category(errors.CategoryConfiguration).
		Context("path", path).
		Build()
}
