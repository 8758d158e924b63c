package httpapi

import (
	"errors"
	"net/http"

	"praktika.org/internal/account"
	"praktika.org/internal/audit"
	"praktika.org/internal/internship"
)

type registerRequest struct {
	RegisterNumber  string `json:"registerNumber"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Department      string `json:"department"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	RegisterNumber string `json:"registerNumber,omitempty"`
	EmployeeID     string `json:"employeeId,omitempty"`
	Password       string `json:"password"`
}

func (a *API) handleStudentRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	acc, err := a.accounts.Register(r.Context(), account.RegisterInput{
		ID:              req.RegisterNumber,
		Role:            account.RoleStudent,
		Name:            req.Name,
		Email:           req.Email,
		Department:      req.Department,
		Phone:           req.Phone,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "account.register", map[string]any{
		"identity": acc.ID,
		"role":     acc.Role,
	})
	writeSuccess(w, "registration successful", map[string]any{
		"redirect": "/student-login",
	})
}

func (a *API) handleStudentLogin(w http.ResponseWriter, r *http.Request) {
	a.login(w, r, account.RoleStudent)
}

func (a *API) handleFacultyLogin(w http.ResponseWriter, r *http.Request) {
	a.login(w, r, account.RoleFaculty)
}

func (a *API) login(w http.ResponseWriter, r *http.Request, role string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := req.RegisterNumber
	if role == account.RoleFaculty {
		id = req.EmployeeID
	}
	acc, err := a.accounts.VerifyCredentials(r.Context(), id, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "account not found, please register first")
			return
		}
		writeDomainError(w, r, err)
		return
	}
	// Логин чужой роли не раскрывает существование аккаунта.
	if acc.Role != role {
		writeError(w, r, http.StatusNotFound, "account not found, please register first")
		return
	}

	token, _, err := a.sessions.Create(r.Context(), acc.ID, acc.Role)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	a.setSessionCookie(w, token)

	redirect := "/teacher-dashboard"
	if acc.Role == account.RoleStudent {
		st, err := a.internships.Status(r.Context(), acc.ID)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		redirect = redirectForStatus(st)
	}
	audit.LogEvent(r.Context(), "session.login", map[string]any{
		"identity": acc.ID,
		"role":     acc.Role,
	})
	writeSuccess(w, "login successful", map[string]any{
		"name":     acc.Name,
		"role":     acc.Role,
		"redirect": redirect,
	})
}

// redirectForStatus sends the student to the first form they have not
// completed yet.
func redirectForStatus(st internship.Status) string {
	switch st {
	case internship.StatusCompleted:
		return "/dashboard"
	case internship.StatusInProgress:
		return "/report-form"
	default:
		return "/details-form"
	}
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		_ = a.sessions.Destroy(r.Context(), c.Value)
	}
	clearSessionCookie(w)
	writeSuccess(w, "logged out", nil)
}

func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	writeSuccess(w, "session active", map[string]any{
		"identity": sess.Identity,
		"role":     sess.Role,
	})
}

func (a *API) handleStudentProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	sess, ok := requireStudent(w, r)
	if !ok {
		return
	}
	acc, err := a.accounts.Get(r.Context(), sess.Identity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, "profile", map[string]any{
		"profile": acc,
	})
}
