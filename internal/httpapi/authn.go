package httpapi

import (
	"net/http"

	"praktika.org/internal/account"
	"praktika.org/internal/session"
)

const sessionCookie = "portal_session"

var publicPaths = map[string]bool{
	"/":                 true,
	"/healthz":          true,
	"/readyz":           true,
	"/metrics":          true,
	"/student-register": true,
	"/student-login":    true,
	"/faculty-login":    true,
	"/logout":           true,
}

// withAuth resolves the session cookie for every non-public path and
// attaches the session to the request context. Identity is always taken
// from the session, never from the request payload.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[r.URL.Path] || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		c, err := r.Cookie(sessionCookie)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}
		sess, err := a.sessions.Resolve(r.Context(), c.Value)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(session.ContextWithSession(r.Context(), sess)))
	})
}

func requireSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return sess, true
}

// requireRole extracts the request session and checks its role.
func requireRole(w http.ResponseWriter, r *http.Request, role string) (*session.Session, bool) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	if sess.Role != role {
		writeError(w, r, http.StatusUnauthorized, "insufficient privileges")
		return nil, false
	}
	return sess, true
}

func requireStudent(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	return requireRole(w, r, account.RoleStudent)
}

func requireFaculty(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	return requireRole(w, r, account.RoleFaculty)
}

func (a *API) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(a.sessions.TTL().Seconds()),
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
