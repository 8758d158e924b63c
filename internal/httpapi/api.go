package httpapi

import (
	"context"
	"net/http"
	"time"

	"praktika.org/internal/account"
	"praktika.org/internal/internship"
	"praktika.org/internal/obs"
	"praktika.org/internal/session"
	"praktika.org/internal/upload"
)

// ReadyProbe — простая проверка готовности (например, ping БД).
type ReadyProbe struct {
	Ping func(ctx context.Context) error
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.Ping == nil {
		return nil
	}
	return rp.Ping(ctx)
}

// API — HTTP слой поверх сервисов портала.
type API struct {
	mux         *http.ServeMux
	accounts    *account.Service
	sessions    *session.Manager
	internships *internship.Service
	files       *upload.DiskStore
	readyProbe  ReadyProbe
	version     string

	rateBurst  int
	ratePerSec int
}

const (
	// Uploads are capped at 10 MB; the body limit leaves room for the
	// multipart framing and form fields.
	maxRequestBytes = 12 << 20

	multipartMemory = 4 << 20
)

func New(rp ReadyProbe, version string, accounts *account.Service, sessions *session.Manager, internships *internship.Service, files *upload.DiskStore) *API {
	a := &API{
		mux:         http.NewServeMux(),
		accounts:    accounts,
		sessions:    sessions,
		internships: internships,
		files:       files,
		readyProbe:  rp,
		version:     version,
		rateBurst:   20,
		ratePerSec:  10,
	}

	// health/ready
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// auth
	a.mux.HandleFunc("/student-register", a.handleStudentRegister)
	a.mux.HandleFunc("/student-login", a.handleStudentLogin)
	a.mux.HandleFunc("/faculty-login", a.handleFacultyLogin)
	a.mux.HandleFunc("/logout", a.handleLogout)

	// student submissions
	a.mux.HandleFunc("/submit-internship-details", a.handleSubmitDetails)
	a.mux.HandleFunc("/submit-internship-report", a.handleSubmitReport)

	// session-scoped reads
	a.mux.HandleFunc("/api/session", a.handleSession)
	a.mux.HandleFunc("/api/student-profile", a.handleStudentProfile)
	a.mux.HandleFunc("/api/internship-details", a.handleGetDetails)
	a.mux.HandleFunc("/api/internship-report", a.handleGetReport)

	// faculty
	a.mux.HandleFunc("/api/teacher-students", a.handleTeacherStudents)
	a.mux.HandleFunc("/api/teacher-student/", a.handleTeacherStudent)
	a.mux.HandleFunc("/api/download/", a.handleDownload)

	// корень — 404
	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = MaxBodyBytes(h, maxRequestBytes)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "praktika-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := a.readyProbe.Check(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}
