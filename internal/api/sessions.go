package api

import (
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/birdeye-app/birdeye/internal/archive"
	"github.com/birdeye-app/birdeye/internal/identify"
	"github.com/birdeye-app/birdeye/internal/logger"
	"github.com/birdeye-app/birdeye/internal/photo"
	"github.com/birdeye-app/birdeye/internal/session"
)

// photoField is the multipart field carrying the uploaded photos.
const photoField = "photos"

// SessionResponse describes a new session.
type SessionResponse struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	MaxPhotos int       `json:"max_photos"`
}

// PhotoResult is one identified photo of an upload.
type PhotoResult struct {
	identify.Result
	ScoreGrade identify.Grade `json:"grade"`
	Cached     bool           `json:"cached"`
}

// UploadResponse is the outcome of a photo batch.
type UploadResponse struct {
	SessionID string          `json:"session_id"`
	Results   []PhotoResult   `json:"results"`
	Dropped   int             `json:"dropped"`
	Saved     int             `json:"saved"`
	Warnings  []string        `json:"warnings,omitempty"`
	Summary   session.Summary `json:"summary"`
}

func (s *Server) createSession(c echo.Context) error {
	sess := s.deps.Sessions.Create()
	if err := s.rememberSession(c, sess); err != nil {
		return s.HandleError(c, err, "failed to set session cookie", http.StatusInternalServerError)
	}
	return c.JSON(http.StatusCreated, SessionResponse{
		SessionID: sess.ID,
		CreatedAt: sess.Created,
		MaxPhotos: s.deps.Sessions.MaxPhotos(),
	})
}

func (s *Server) uploadPhotos(c echo.Context) error {
	sess, ok := s.deps.Sessions.Get(c.Param("id"))
	if !ok {
		return s.HandleError(c, nil, "session not found", http.StatusNotFound)
	}
	return s.upload(c, sess)
}

// uploadToCookieSession runs the batch in the caller's cookie session,
// starting one when needed.
func (s *Server) uploadToCookieSession(c echo.Context) error {
	sess, _, err := s.cookieSession(c, true)
	if err != nil {
		return s.HandleError(c, err, "failed to set session cookie", http.StatusInternalServerError)
	}
	return s.upload(c, sess)
}

func (s *Server) upload(c echo.Context, sess *session.Session) error {

	form, err := c.MultipartForm()
	if err != nil {
		return s.HandleError(c, err, "expected a multipart upload", http.StatusBadRequest)
	}
	files := form.File[photoField]
	if len(files) == 0 {
		return s.HandleError(c, nil, "no photos in field \""+photoField+"\"", http.StatusBadRequest)
	}

	nickname := c.FormValue("nickname")
	if nickname != "" && s.deps.Recorder == nil {
		return s.HandleError(c, nil, "no record store configured", http.StatusServiceUnavailable)
	}

	// only the batch cap is read; the rest is counted as dropped
	limit := min(len(files), s.deps.Sessions.MaxPhotos())
	inputs := make([]photo.Input, 0, len(files))
	for _, fh := range files[:limit] {
		in, err := readUpload(fh)
		if err != nil {
			return s.HandleError(c, err, "failed to read upload "+fh.Filename, http.StatusBadRequest)
		}
		inputs = append(inputs, in)
	}

	ctx := c.Request().Context()
	batch, err := s.deps.Sessions.Process(ctx, sess, inputs)
	if err != nil {
		return s.HandleError(c, err, "batch did not complete", statusFor(err))
	}
	if extra := len(files) - limit; extra > 0 {
		batch.Dropped += extra
		if s.deps.Metrics != nil {
			s.deps.Metrics.Pipeline.AddDropped(extra)
		}
	}

	resp := UploadResponse{
		SessionID: sess.ID,
		Results:   make([]PhotoResult, len(batch.Items)),
		Dropped:   batch.Dropped,
		Summary:   session.Summarize(batch.Results()),
	}
	for i, it := range batch.Items {
		resp.Results[i] = PhotoResult{Result: it.Result, ScoreGrade: it.Result.Grade(), Cached: it.Cached}
	}
	warnings := batch.Warnings

	if nickname != "" {
		saved, w := s.deps.Recorder.Save(ctx, nickname, batch.Items)
		resp.Saved = saved
		warnings = append(warnings, w...)
		if saved > 0 && s.deps.Leaderboard != nil {
			s.deps.Leaderboard.Invalidate()
		}
	}
	for _, w := range warnings {
		resp.Warnings = append(resp.Warnings, logger.RedactSensitiveData(w.Error()))
	}
	return c.JSON(http.StatusOK, resp)
}

func readUpload(fh *multipart.FileHeader) (photo.Input, error) {
	f, err := fh.Open()
	if err != nil {
		return photo.Input{}, err
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		return photo.Input{}, err
	}
	return photo.Input{Data: data, Filename: fh.Filename, DeclaredSize: fh.Size}, nil
}

func (s *Server) downloadArchive(c echo.Context) error {
	sess, ok := s.deps.Sessions.Get(c.Param("id"))
	if !ok {
		return s.HandleError(c, nil, "session not found", http.StatusNotFound)
	}
	return s.sendArchive(c, sess)
}

func (s *Server) downloadCookieArchive(c echo.Context) error {
	sess, ok, _ := s.cookieSession(c, false)
	if !ok {
		return s.HandleError(c, nil, "no session cookie", http.StatusNotFound)
	}
	return s.sendArchive(c, sess)
}

func (s *Server) sendArchive(c echo.Context, sess *session.Session) error {
	batch := sess.Latest()
	if batch == nil {
		return s.HandleError(c, nil, "session has no identified photos", http.StatusNotFound)
	}

	data, err := s.deps.Archive.Build(batch.ArchiveItems())
	if err != nil {
		return s.HandleError(c, err, "failed to build archive", http.StatusInternalServerError)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		`attachment; filename="birdeye.zip"; filename*=UTF-8''`+url.PathEscape(archive.DownloadName))
	return c.Blob(http.StatusOK, "application/zip", data)
}

func (s *Server) resetSession(c echo.Context) error {
	if !s.deps.Sessions.Reset(c.Param("id")) {
		return s.HandleError(c, nil, "session not found", http.StatusNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}

// resetCookieSession drops the caller's cookie session and expires the
// cookie. Without a live session it still clears the cookie.
func (s *Server) resetCookieSession(c echo.Context) error {
	if sess, ok, _ := s.cookieSession(c, false); ok {
		s.deps.Sessions.Reset(sess.ID)
	}
	if err := s.forgetSession(c); err != nil {
		return s.HandleError(c, err, "failed to clear session cookie", http.StatusInternalServerError)
	}
	return c.NoContent(http.StatusNoContent)
}
