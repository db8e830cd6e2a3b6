// conf/validate.go

package conf

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings validates the entire Settings struct. It also normalizes
// a few values in place (language tag, trailing slashes).
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	for _, check := range []func(*Settings) error{
		validateClassifierSettings,
		validateGeocodeSettings,
		validateTranscodeSettings,
		validateBatchSettings,
		validateRecordsSettings,
		validateLeaderboardSettings,
		validateServerSettings,
	} {
		if err := check(settings); err != nil {
			ve.Errors = append(ve.Errors, err.Error())
		}
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateClassifierSettings(s *Settings) error {
	c := &s.Classifier
	if err := validateHTTPURL("classifier.baseurl", c.BaseURL); err != nil {
		return err
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Model == "" {
		return fmt.Errorf("classifier.model must not be empty")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("classifier.temperature must be between 0 and 2, got %g", c.Temperature)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("classifier.timeout must be positive")
	}
	return nil
}

func validateGeocodeSettings(s *Settings) error {
	g := &s.Geocode
	if !g.Enabled {
		return nil
	}
	if err := validateHTTPURL("geocode.endpoint", g.Endpoint); err != nil {
		return err
	}
	tag, err := language.Parse(g.Language)
	if err != nil {
		return fmt.Errorf("geocode.language %q is not a valid language tag: %w", g.Language, err)
	}
	g.Language = tag.String()
	if g.Zoom < 0 || g.Zoom > 18 {
		return fmt.Errorf("geocode.zoom must be between 0 and 18, got %d", g.Zoom)
	}
	if g.Timeout <= 0 {
		return fmt.Errorf("geocode.timeout must be positive")
	}
	if g.RateLimit <= 0 {
		return fmt.Errorf("geocode.ratelimit must be positive")
	}
	return nil
}

func validateTranscodeSettings(s *Settings) error {
	t := s.Transcode
	if t.MaxDimension < 16 {
		return fmt.Errorf("transcode.maxdimension must be at least 16, got %d", t.MaxDimension)
	}
	if t.Quality < 1 || t.Quality > 100 {
		return fmt.Errorf("transcode.quality must be between 1 and 100, got %d", t.Quality)
	}
	return nil
}

func validateBatchSettings(s *Settings) error {
	if s.Batch.MaxPhotos < 1 {
		return fmt.Errorf("batch.maxphotos must be at least 1, got %d", s.Batch.MaxPhotos)
	}
	if s.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got %d", s.Batch.Workers)
	}
	return nil
}

func validateRecordsSettings(s *Settings) error {
	r := &s.Records
	if r.Table == "" {
		return fmt.Errorf("records.table must not be empty")
	}
	if r.Timeout <= 0 {
		return fmt.Errorf("records.timeout must be positive")
	}
	if r.ListLimit < 1 {
		return fmt.Errorf("records.listlimit must be at least 1")
	}
	switch r.Backend {
	case BackendREST:
		// an empty URL disables persistence
		if r.URL == "" {
			return nil
		}
		if err := validateHTTPURL("records.url", r.URL); err != nil {
			return err
		}
		r.URL = strings.TrimRight(r.URL, "/")
	case BackendSQLite:
		if r.SQLitePath == "" {
			return fmt.Errorf("records.sqlitepath must be set for the sqlite backend")
		}
	case BackendMySQL:
		if r.MySQL.Host == "" || r.MySQL.Database == "" {
			return fmt.Errorf("records.mysql.host and records.mysql.database must be set for the mysql backend")
		}
	default:
		return fmt.Errorf("records.backend must be one of rest, sqlite, mysql, got %q", r.Backend)
	}
	return nil
}

func validateLeaderboardSettings(s *Settings) error {
	if s.Leaderboard.FetchLimit < 1 {
		return fmt.Errorf("leaderboard.fetchlimit must be at least 1")
	}
	if s.Leaderboard.CacheTTL < 0 {
		return fmt.Errorf("leaderboard.cachettl must not be negative")
	}
	return nil
}

func validateServerSettings(s *Settings) error {
	if s.Server.Listen == "" {
		return fmt.Errorf("server.listen must not be empty")
	}
	if s.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.maxuploadmb must be at least 1")
	}
	return nil
}

func validateHTTPURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", key, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", key)
	}
	return nil
}
