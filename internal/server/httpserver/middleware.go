package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionName      = "sheet_session"
	sessionAuthedKey = "authenticated"
)

const sessionMaxAge = 30 * 24 * 60 * 60

// NewSessionStore returns the cookie-backed store holding the site sign-in.
func NewSessionStore(secret string, secure bool) *sessions.CookieStore {
	st := sessions.NewCookieStore([]byte(secret))
	st.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return st
}

// HashSitePassword prepares the site password for comparison. An empty
// password yields a nil hash, which leaves the site open.
func HashSitePassword(password string) ([]byte, error) {
	if password == "" {
		return nil, nil
	}
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// requireSite rejects API calls from browsers that have not signed in.
func (h *Handler) requireSite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.siteGateEnabled() && !h.signedIn(r) {
			writeJSON(w, http.StatusUnauthorized, failure("sign-in required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) siteGateEnabled() bool {
	return len(h.opts.SitePasswordHash) > 0
}

func (h *Handler) signedIn(r *http.Request) bool {
	s, err := h.opts.Sessions.Get(r, sessionName)
	if err != nil {
		return false
	}
	ok, _ := s.Values[sessionAuthedKey].(bool)
	return ok
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
