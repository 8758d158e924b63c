package httpapi

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"praktika.org/internal/audit"
	"praktika.org/internal/internship"
	"praktika.org/internal/obs"
	"praktika.org/internal/upload"
)

// saveUpload validates and stores an optional multipart file. A missing
// file field is not an error: resubmissions may keep the previous file.
func (a *API) saveUpload(r *http.Request, identity, field, kind string) (*upload.FileDescriptor, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()
	fd, err := a.files.Save(identity, header.Filename, contentTypeOf(header), header.Size, file)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrUnsupportedType):
			obs.ObserveUpload(kind, "rejected_type")
		case errors.Is(err, upload.ErrTooLarge):
			obs.ObserveUpload(kind, "rejected_size")
		}
		return nil, err
	}
	obs.ObserveUpload(kind, "accepted")
	return fd, nil
}

func contentTypeOf(h *multipart.FileHeader) string {
	if ct := h.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func (a *API) handleSubmitDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	sess, ok := requireStudent(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	fd, err := a.saveUpload(r, sess.Identity, "offerLetter", "details")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	rec := internship.Details{
		Company:     r.FormValue("company"),
		Role:        r.FormValue("role"),
		MentorName:  r.FormValue("mentorName"),
		MentorEmail: r.FormValue("mentorEmail"),
		StartDate:   r.FormValue("startDate"),
		EndDate:     r.FormValue("endDate"),
		Stipend:     r.FormValue("stipend"),
	}
	saved, err := a.internships.UpsertDetails(r.Context(), sess.Identity, rec, fd)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "submission.details.upsert", map[string]any{
		"identity": sess.Identity,
		"company":  saved.Company,
		"has_file": saved.File != nil,
	})
	writeSuccess(w, "internship details submitted", map[string]any{
		"details": saved,
	})
}

func (a *API) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	sess, ok := requireStudent(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	fd, err := a.saveUpload(r, sess.Identity, "internshipReport", "report")
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	rating, _ := strconv.Atoi(r.FormValue("rating"))
	rec := internship.Report{
		InternshipType: r.FormValue("internshipType"),
		Role:           r.FormValue("role"),
		StartMonth:     r.FormValue("startMonth"),
		Mentor:         r.FormValue("mentor"),
		Summary:        r.FormValue("summary"),
		Rating:         rating,
		Declaration:    parseBool(r.FormValue("declaration")),
	}
	saved, err := a.internships.UpsertReport(r.Context(), sess.Identity, rec, fd)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	audit.LogEvent(r.Context(), "submission.report.upsert", map[string]any{
		"identity": sess.Identity,
		"has_file": saved.File != nil,
	})
	writeSuccess(w, "internship report submitted", map[string]any{
		"report": saved,
	})
}

// parseBool accepts both JS boolean serialization and checkbox values.
func parseBool(v string) bool {
	switch v {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}

func (a *API) handleGetDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	sess, ok := requireStudent(w, r)
	if !ok {
		return
	}
	rec, err := a.internships.Details(r.Context(), sess.Identity)
	if err != nil {
		if errors.Is(err, internship.ErrNotFound) {
			writeSuccess(w, "no details submitted", map[string]any{
				"hasDetails": false,
			})
			return
		}
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, "details", map[string]any{
		"hasDetails": true,
		"details":    rec,
	})
}

func (a *API) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	sess, ok := requireStudent(w, r)
	if !ok {
		return
	}
	rec, err := a.internships.Report(r.Context(), sess.Identity)
	if err != nil {
		if errors.Is(err, internship.ErrNotFound) {
			writeSuccess(w, "no report submitted", map[string]any{
				"hasReport": false,
			})
			return
		}
		writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, "report", map[string]any{
		"hasReport": true,
		"report":    rec,
	})
}
