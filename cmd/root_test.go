package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birdeye-app/birdeye/internal/app"
	"github.com/birdeye-app/birdeye/internal/buildinfo"
	"github.com/birdeye-app/birdeye/internal/errors"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ctx := &app.Context{Build: buildinfo.NewContext("1.2.3", "2024-07-15")}
	root := RootCommand(ctx)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestSubcommandsRegistered(t *testing.T) {
	root := RootCommand(app.NewContext())
	for _, name := range []string{"identify", "serve", "leaderboard", "records", "config", "version"} {
		c, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "birdeye 1.2.3 (built 2024-07-15")
}

func TestConfigInitAndShow(t *testing.T) {
	t.Setenv("BIRDEYE_CLASSIFIER_APIKEY", "sk-secret")
	path := filepath.Join(t.TempDir(), "birdeye", "config.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Default configuration written")
	assert.FileExists(t, path)

	_, err = execute(t, "config", "init", path)
	require.Error(t, err, "existing config must not be overwritten")

	out, err = execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "sk-secret")
	assert.Contains(t, out, "********")
}

func TestIdentifyFailsBeforeReadingWithoutKey(t *testing.T) {
	t.Setenv("BIRDEYE_CLASSIFIER_APIKEY", "")
	t.Setenv("DASHSCOPE_API_KEY", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("geocode:\n  enabled: false\n"), 0o600))

	_, err := execute(t, "--config", path, "identify", filepath.Join(dir, "missing.jpg"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestIdentifyRequiresArgs(t *testing.T) {
	_, err := execute(t, "identify")
	assert.Error(t, err)
}

func TestRecordsDeleteReportsMissingIDs(t *testing.T) {
	t.Setenv("BIRDEYE_CLASSIFIER_APIKEY", "sk-test")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := "logging:\n  console:\n    enabled: false\ngeocode:\n  enabled: false\nrecords:\n  backend: sqlite\n  sqlitepath: " + filepath.Join(dir, "records.db") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))

	out, err := execute(t, "--config", path, "records", "delete", "no-such-id")
	require.NoError(t, err)
	assert.Contains(t, out, "No record no-such-id")
	assert.NotContains(t, out, "Deleted")
}
