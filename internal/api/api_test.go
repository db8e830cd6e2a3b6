package api

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/birdeye-app/birdeye/internal/archive"
	"github.com/birdeye-app/birdeye/internal/classifier/classifiertest"
	"github.com/birdeye-app/birdeye/internal/identify"
	"github.com/birdeye-app/birdeye/internal/leaderboard"
	"github.com/birdeye-app/birdeye/internal/logger"
	"github.com/birdeye-app/birdeye/internal/observability"
	"github.com/birdeye-app/birdeye/internal/records"
	"github.com/birdeye-app/birdeye/internal/session"
	"github.com/birdeye-app/birdeye/internal/testutil"
)

const (
	candidatesAnswer = `{"candidates":[{"chinese_name":"白鹭","english_name":"Little Egret","confidence_pct":80}]}`
	judgmentAnswer   = `结果如下：{"chinese_name":"白鹭","english_name":"Little Egret","order_chinese":"鹈形目",` +
		`"order_english":"Pelecaniformes","family_chinese":"鹭科","family_english":"Ardeidae","confidence":"high",` +
		`"score_sharpness":18,"score_composition":16,"score_lighting":16,"score_background":12,"score_pose":12,"score_artistry":8}`
)

type testEnv struct {
	server *Server
	stub   *classifiertest.Stub
	store  records.Store
}

func newTestEnv(t *testing.T, withRecords bool) *testEnv {
	t.Helper()
	log := logger.NewDiscard()
	m, err := observability.NewMetrics()
	require.NoError(t, err)

	stub := classifiertest.Phased(candidatesAnswer, judgmentAnswer)
	pipeline, err := session.NewPipeline(session.Deps{
		Orchestrator: identify.NewOrchestrator(stub, log, m.Classifier),
		Logger:       log,
		Metrics:      m.Pipeline,
	}, session.Config{MaxPhotos: 10, Workers: 2})
	require.NoError(t, err)

	deps := Deps{
		Sessions: session.NewManager(pipeline, log, m.Pipeline),
		Metrics:  m,
	}
	var store records.Store
	if withRecords {
		sql, err := records.OpenSQLite(filepath.Join(t.TempDir(), "records.db"), "", 0, log)
		require.NoError(t, err)
		t.Cleanup(func() { _ = sql.Close() })
		store = records.Instrument(sql, records.BackendSQLite, m.Records)
		deps.Records = store
		deps.Leaderboard = leaderboard.NewService(store, leaderboard.Config{}, log, m.Leaderboard)
	}

	s, err := New(Config{}, deps, log)
	require.NoError(t, err)
	return &testEnv{server: s, stub: stub, store: store}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.server.Echo().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createSession(t *testing.T) string {
	t.Helper()
	rec := e.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", http.NoBody))
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 10, resp.MaxPhotos)
	return resp.SessionID
}

func uploadRequest(t *testing.T, sessionID, nickname string, n int) *http.Request {
	t.Helper()
	return uploadTo(t, "/api/v1/sessions/"+sessionID+"/photos", nickname, n)
}

func uploadTo(t *testing.T, path, nickname string, n int) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	jpeg := testutil.JPEG(t, 48, 32)
	for i := range n {
		part, err := w.CreateFormFile(photoField, fmt.Sprintf("IMG_%02d.jpg", i))
		require.NoError(t, err)
		_, err = part.Write(jpeg)
		require.NoError(t, err)
	}
	if nickname != "" {
		require.NoError(t, w.WriteField("nickname", nickname))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, false, health["records"])

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "birdeye_")
}

func TestUploadSaveAndRank(t *testing.T) {
	env := newTestEnv(t, true)
	id := env.createSession(t)

	rec := env.do(t, uploadRequest(t, id, "ana", 2))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[UploadResponse](t, rec)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "白鹭", resp.Results[0].ChineseName)
	assert.Equal(t, 82, resp.Results[0].Score)
	assert.Equal(t, identify.GradeGood, resp.Results[0].ScoreGrade)
	assert.Equal(t, "IMG_01.jpg", resp.Results[1].OriginalName)
	assert.Equal(t, 2, resp.Saved)
	assert.Empty(t, resp.Warnings)
	assert.Equal(t, []string{"白鹭"}, resp.Summary.Species)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode[leaderboard.Board](t, rec)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, leaderboard.Entry{Nickname: "ana", SpeciesCount: 1, TotalCount: 2, AvgScore: 82, BestScore: 82}, board.Entries[0])

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/records?nickname=ana&limit=1", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	recs := decode[[]records.Record](t, rec)
	require.Len(t, recs, 1)
	assert.NotEmpty(t, recs[0].ThumbnailBase64)

	rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/records/"+string(recs[0].ID), http.NoBody))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/records/"+string(recs[0].ID), http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	errResp := decode[ErrorResponse](t, rec)
	assert.Len(t, errResp.CorrelationID, 8)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard", http.NoBody))
	board = decode[leaderboard.Board](t, rec)
	assert.Equal(t, 1, board.Entries[0].TotalCount, "delete invalidates the cached board")
}

func TestUploadIsCachedPerSession(t *testing.T) {
	env := newTestEnv(t, false)
	id := env.createSession(t)

	require.Equal(t, http.StatusOK, env.do(t, uploadRequest(t, id, "", 1)).Code)
	rec := env.do(t, uploadRequest(t, id, "", 1))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.True(t, decode[UploadResponse](t, rec).Results[0].Cached)
	assert.Equal(t, 2, env.stub.Calls())
}

func TestBatchCapAndArchive(t *testing.T) {
	env := newTestEnv(t, false)
	id := env.createSession(t)

	rec := env.do(t, uploadRequest(t, id, "", 12))
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[UploadResponse](t, rec)
	assert.Len(t, resp.Results, 10)
	assert.Equal(t, 2, resp.Dropped)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id+"/archive", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 11)
	names := make([]string, len(zr.File))
	for i, f := range zr.File {
		names[i] = f.Name
	}
	assert.Contains(t, names, archive.ManifestName)
	assert.Contains(t, names, "鹈形目(Pelecaniformes)/鹭科(Ardeidae)/白鹭_82分.jpg")
	assert.Contains(t, names, "鹈形目(Pelecaniformes)/鹭科(Ardeidae)/白鹭_82分_9.jpg")
}

func TestSessionLifecycleErrors(t *testing.T) {
	env := newTestEnv(t, false)
	id := env.createSession(t)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id+"/archive", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code, "no batch yet")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/photos", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	assert.Equal(t, http.StatusBadRequest, env.do(t, req).Code)

	assert.Equal(t, http.StatusNoContent, env.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/"+id, http.NoBody)).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/"+id, http.NoBody)).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, uploadRequest(t, id, "", 1)).Code)
}

func TestRecordsUnavailable(t *testing.T) {
	env := newTestEnv(t, false)
	id := env.createSession(t)

	for _, path := range []string{"/api/v1/records", "/api/v1/leaderboard"} {
		rec := env.do(t, httptest.NewRequest(http.MethodGet, path, http.NoBody))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
	assert.Equal(t, http.StatusServiceUnavailable, env.do(t, uploadRequest(t, id, "ana", 1)).Code)
	assert.Zero(t, env.stub.Calls(), "nothing is classified when the records cannot be saved")
}

func TestCookieSessionFlow(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/session/archive", http.NoBody))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, uploadTo(t, "/api/v1/session/photos", "", 2))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[UploadResponse](t, rec)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, SessionCookie, cookie.Name)
	assert.True(t, cookie.HttpOnly)

	// the cookie brings the caller back to the same session and its cache
	req := uploadTo(t, "/api/v1/session/photos", "", 2)
	req.AddCookie(cookie)
	rec = env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[UploadResponse](t, rec)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.True(t, second.Results[0].Cached)
	assert.Equal(t, 1, env.server.deps.Sessions.Len())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/session/archive", http.NoBody)
	req.AddCookie(cookie)
	rec = env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/session", http.NoBody)
	req.AddCookie(cookie)
	rec = env.do(t, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, env.server.deps.Sessions.Len())
	expired := rec.Result().Cookies()
	require.Len(t, expired, 1)
	assert.Negative(t, expired[0].MaxAge)

	// a forged cookie is ignored and a fresh session is issued
	req = uploadTo(t, "/api/v1/session/photos", "", 1)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "forged"})
	rec = env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, first.SessionID, decode[UploadResponse](t, rec).SessionID)
}

func TestCreateSessionSetsCookie(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/sessions", http.NoBody))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[SessionResponse](t, rec).SessionID

	req := uploadTo(t, "/api/v1/session/photos", "", 1)
	req.AddCookie(rec.Result().Cookies()[0])
	rec = env.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decode[UploadResponse](t, rec).SessionID)
}

func TestRecordsLimitValidation(t *testing.T) {
	env := newTestEnv(t, true)
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/records?limit=abc", http.NoBody))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
