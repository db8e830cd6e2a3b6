package api

import (
	"crypto/rand"
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"github.com/birdeye-app/birdeye/internal/logger"
	"github.com/birdeye-app/birdeye/internal/session"
)

const (
	// SessionCookie names the cookie remembering the caller's session.
	SessionCookie = "birdeye_session"
	sessionIDKey  = "id"
	// cookies outlive idle browser tabs but not a working day
	sessionCookieMaxAge = 12 * 60 * 60
)

// newCookieStore signs session cookies with a key derived from secret. An
// empty secret gets a random per-process key, so cookies do not survive a
// restart.
func newCookieStore(secret string, log logger.Logger) *sessions.CookieStore {
	var key []byte
	if secret == "" {
		key = make([]byte, sha256.Size)
		if _, err := rand.Read(key); err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		log.Info("no session secret configured, session cookies last until restart")
	} else {
		sum := sha256.Sum256([]byte(secret))
		key = sum[:]
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/api/v1",
		MaxAge:   sessionCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// cookieSession resolves the session named by the caller's cookie. With
// create set, a missing or stale cookie starts a new session and the
// cookie is (re)issued.
func (s *Server) cookieSession(c echo.Context, create bool) (*session.Session, bool, error) {
	// a tampered or expired cookie decodes to an empty session
	cs, _ := s.cookies.Get(c.Request(), SessionCookie)
	if id, ok := cs.Values[sessionIDKey].(string); ok {
		if sess, found := s.deps.Sessions.Get(id); found {
			return sess, true, nil
		}
	}
	if !create {
		return nil, false, nil
	}

	sess := s.deps.Sessions.Create()
	if err := s.rememberSession(c, sess); err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

// rememberSession writes sess into the caller's session cookie.
func (s *Server) rememberSession(c echo.Context, sess *session.Session) error {
	cs, _ := s.cookies.Get(c.Request(), SessionCookie)
	cs.Values[sessionIDKey] = sess.ID
	return cs.Save(c.Request(), c.Response())
}

// forgetSession expires the caller's session cookie.
func (s *Server) forgetSession(c echo.Context) error {
	cs, _ := s.cookies.Get(c.Request(), SessionCookie)
	cs.Options.MaxAge = -1
	delete(cs.Values, sessionIDKey)
	return cs.Save(c.Request(), c.Response())
}
