package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"praktika.org/internal/account"
	"praktika.org/internal/audit"
	"praktika.org/internal/upload"
)

func (a *API) handleTeacherStudents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := requireFaculty(w, r); !ok {
		return
	}
	rows, err := a.internships.Overview(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, "students", map[string]any{
		"students": rows,
	})
}

// handleTeacherStudent serves GET and DELETE on /api/teacher-student/{id}.
func (a *API) handleTeacherStudent(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireFaculty(w, r); !ok {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/teacher-student/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		rec, err := a.internships.StudentRecord(r.Context(), id)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeSuccess(w, "student", map[string]any{
			"student": rec,
		})
	case http.MethodDelete:
		a.deleteStudent(w, r, id)
	default:
		methodNotAllowed(w, r, "GET, DELETE")
	}
}

// deleteStudent removes the account, both submission records, and any
// stored files. The account is checked first so a bad id is a clean 404.
func (a *API) deleteStudent(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := a.accounts.Get(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := a.internships.DeleteStudent(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := a.files.RemoveAll(id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := a.accounts.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "account.delete", map[string]any{
		"identity": id,
	})
	writeSuccess(w, "student removed", nil)
}

// handleDownload serves /api/download/{id}/{type}/{filename}. Students can
// only fetch their own files; faculty can fetch any. The filename must match
// the one recorded on the submission, not just any file under the directory.
func (a *API) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	sess, ok := requireSession(w, r)
	if !ok {
		return
	}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/download/"), "/")
	if len(parts) != 3 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	id, kind, filename := parts[0], parts[1], parts[2]
	if sess.Role != account.RoleFaculty && sess.Identity != id {
		writeError(w, r, http.StatusUnauthorized, "insufficient privileges")
		return
	}

	fd, err := a.fileFor(r, id, kind)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if fd == nil || fd.StoredName != filename {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	path, err := a.files.Path(id, filename)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", fd.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(fd.Size, 10))
	w.Header().Set("Content-Disposition", `attachment; filename="`+fd.OriginalName+`"`)
	http.ServeFile(w, r, path)
}

func (a *API) fileFor(r *http.Request, id, kind string) (*upload.FileDescriptor, error) {
	switch kind {
	case "details":
		rec, err := a.internships.Details(r.Context(), id)
		if err != nil {
			return nil, err
		}
		return rec.File, nil
	case "report":
		rec, err := a.internships.Report(r.Context(), id)
		if err != nil {
			return nil, err
		}
		return rec.File, nil
	default:
		return nil, upload.ErrNotFound
	}
}
