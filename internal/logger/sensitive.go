package logger

import (
	"regexp"
	"strings"
)

// SensitiveDataPatterns contains regex patterns for values that must never reach a log sink
var SensitiveDataPatterns = []*regexp.Regexp{
	// Bearer credentials as sent to the classifier and the record store
	regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9-._~+/]+=*)`),
	// JWTs, e.g. PostgREST service keys
	regexp.MustCompile(`(eyJ[a-zA-Z0-9_-]{5,}\.eyJ[a-zA-Z0-9_-]{5,})\.[a-zA-Z0-9_-]{5,}`),
	// DashScope / OpenAI style secret keys
	regexp.MustCompile(`(sk-)[A-Za-z0-9]{8,}`),
	// key=value and key: value pairs
	regexp.MustCompile(`(?i)((api|access|auth|token|secret|key|passw(or)?d)[0-9a-z\-_\.]*[\s:=]+)([^;,\s]{5,})`),
}

// SensitiveKeywords are field keys whose string values are always redacted
var SensitiveKeywords = []string{
	"password", "secret", "token", "api_key", "apikey", "authorization", "credential",
}

// RedactSensitiveData replaces sensitive information with "[REDACTED]"
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}
	for _, pattern := range SensitiveDataPatterns {
		input = pattern.ReplaceAllString(input, "$1[REDACTED]")
	}
	return input
}

// isSensitiveKey reports whether a field key names a secret
func isSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, k := range SensitiveKeywords {
		if strings.Contains(keyLower, k) {
			return true
		}
	}
	return false
}
