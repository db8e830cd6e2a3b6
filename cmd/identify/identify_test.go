package identify

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birdeye-app/birdeye/internal/app"
	"github.com/birdeye-app/birdeye/internal/buildinfo"
	"github.com/birdeye-app/birdeye/internal/errors"
	"github.com/birdeye-app/birdeye/internal/testutil"
)

const (
	candidatesAnswer = `{"candidates":[{"chinese_name":"白鹭","english_name":"Little Egret","confidence_pct":80}],"excluded":[]}`
	judgmentAnswer   = `{"chinese_name":"白鹭","english_name":"Little Egret","order_chinese":"鹈形目",` +
		`"order_english":"Pelecaniformes","family_chinese":"鹭科","family_english":"Ardeidae","confidence":"high",` +
		`"score_sharpness":18,"score_composition":16,"score_lighting":16,"score_background":12,"score_pose":12,"score_artistry":8}`
)

// newCompletionServer answers the two phases of each photo in turn; the
// batch runs with one worker so calls alternate.
func newCompletionServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		answer := candidatesAnswer
		if calls.Add(1)%2 == 0 {
			answer = judgmentAnswer
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": answer}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func writeFixture(t *testing.T, dir string, baseURL string) string {
	t.Helper()
	cfg := fmt.Sprintf(`
logging:
  console:
    enabled: false
classifier:
  apikey: sk-test
  baseurl: %s
geocode:
  enabled: false
batch:
  maxphotos: 2
  workers: 1
records:
  backend: sqlite
  sqlitepath: %s
`, baseURL, filepath.Join(dir, "records.db"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func TestIdentifyWritesArchiveAndRecords(t *testing.T) {
	for _, name := range []string{"BIRDEYE_CLASSIFIER_APIKEY", "DASHSCOPE_API_KEY", "BIRDEYE_RECORDS_BACKEND", "BIRDEYE_RECORDS_URL", "SUPABASE_URL"} {
		t.Setenv(name, "")
	}
	srv, calls := newCompletionServer(t)
	dir := t.TempDir()
	configPath := writeFixture(t, dir, srv.URL)

	var photos []string
	for i := range 3 {
		p := filepath.Join(dir, fmt.Sprintf("IMG_%d.jpg", i))
		require.NoError(t, os.WriteFile(p, testutil.JPEG(t, 40+i, 30), 0o600))
		photos = append(photos, p)
	}
	archivePath := filepath.Join(dir, "out.zip")

	ctx := &app.Context{ConfigFile: configPath, Build: buildinfo.NewContext("test", "")}
	cmd := Command(ctx)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--output", archivePath, "--nickname", "ana", "--format", "csv"}, photos...))
	require.NoError(t, cmd.ExecuteContext(t.Context()))

	assert.Equal(t, int32(4), calls.Load(), "third photo is beyond the batch cap")
	assert.Contains(t, stdout.String(), "白鹭")
	assert.Contains(t, stdout.String(), "good")
	assert.Contains(t, stderr.String(), "Saved 2 of 2 records for ana")

	zr, err := zip.OpenReader(archivePath)
	require.NoError(t, err)
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "bird_identification_results.json")
	assert.Len(t, names, 3)
}

func TestIdentifyMissingFile(t *testing.T) {
	t.Setenv("BIRDEYE_CLASSIFIER_APIKEY", "")
	t.Setenv("DASHSCOPE_API_KEY", "")
	srv, calls := newCompletionServer(t)
	dir := t.TempDir()

	ctx := &app.Context{ConfigFile: writeFixture(t, dir, srv.URL), Build: buildinfo.NewContext("test", "")}
	cmd := Command(ctx)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--output", "", filepath.Join(dir, "missing.jpg")})

	require.Error(t, cmd.ExecuteContext(t.Context()))
	assert.Zero(t, calls.Load())
}

func TestWriteFileRemovesPartialOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "birds.zip")

	err := writeFile(path, func(w io.Writer) error {
		_, _ = w.Write([]byte("PK\x03\x04 truncated"))
		return fmt.Errorf("disk full")
	})
	require.EqualError(t, err, "disk full")
	assert.NoFileExists(t, path)

	require.NoError(t, writeFile(path, func(w io.Writer) error {
		_, err := w.Write([]byte("ok"))
		return err
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))

	err = writeFile(filepath.Join(t.TempDir(), "missing", "birds.zip"), func(io.Writer) error { return nil })
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))
}
