package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"praktika.org/internal/account"
	"praktika.org/internal/internship"
	"praktika.org/internal/session"
	"praktika.org/internal/upload"
)

type apiClient struct {
	baseURL  string
	client   *http.Client
	accounts *account.Service
	t        *testing.T
}

func newTestAPI(t *testing.T) *apiClient {
	t.Helper()

	accStore := account.NewMemory()
	accounts, err := account.NewService(accStore)
	if err != nil {
		t.Fatalf("account service: %v", err)
	}
	sessions, err := session.NewManager(session.NewMemoryStore())
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	internships, err := internship.NewService(internship.NewMemory(), accStore)
	if err != nil {
		t.Fatalf("internship service: %v", err)
	}
	files, err := upload.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("new disk store: %v", err)
	}

	api := New(ReadyProbe{}, "test", accounts, sessions, internships, files)
	api.rateBurst = 1000
	api.ratePerSec = 1000

	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	client := srv.Client()
	client.Jar = jar

	return &apiClient{
		baseURL:  srv.URL,
		client:   client,
		accounts: accounts,
		t:        t,
	}
}

func (c *apiClient) post(path string, body any) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) get(path string) *http.Response {
	c.t.Helper()
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		c.t.Fatalf("get request: %v", err)
	}
	return resp
}

func (c *apiClient) del(path string) *http.Response {
	c.t.Helper()
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

type filePart struct {
	field       string
	name        string
	contentType string
	content     []byte
}

// postMultipart builds a multipart form the way the browser submits the
// details and report forms.
func (c *apiClient) postMultipart(path string, fields map[string]string, file *filePart) *http.Response {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			c.t.Fatalf("write field: %v", err)
		}
	}
	if file != nil {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="`+file.field+`"; filename="`+file.name+`"`)
		hdr.Set("Content-Type", file.contentType)
		part, err := mw.CreatePart(hdr)
		if err != nil {
			c.t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(file.content); err != nil {
			c.t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		c.t.Fatalf("close multipart: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("do request: %v", err)
	}
	return resp
}

func (c *apiClient) register(id, email string) {
	c.t.Helper()
	resp := c.post("/student-register", map[string]any{
		"registerNumber":  id,
		"name":            "Student " + id,
		"email":           email,
		"department":      "CSE",
		"password":        "secret1",
		"confirmPassword": "secret1",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("register status: %d", resp.StatusCode)
	}
}

func (c *apiClient) loginStudent(id, password string) *http.Response {
	c.t.Helper()
	return c.post("/student-login", map[string]any{
		"registerNumber": id,
		"password":       password,
	})
}

func decode[T any](t *testing.T, r *http.Response) T {
	t.Helper()
	defer r.Body.Close()
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func detailsFields() map[string]string {
	return map[string]string{
		"company":     "Acme Corp",
		"role":        "Backend Intern",
		"mentorName":  "J. Mentor",
		"mentorEmail": "mentor@acme.test",
		"startDate":   "2026-06-01",
		"endDate":     "2026-08-31",
		"stipend":     "15000",
	}
}

func TestStudentRegisterLoginSubmitFlow(t *testing.T) {
	api := newTestAPI(t)

	api.register("21BCE100", "s100@univ.test")

	resp := api.loginStudent("21BCE100", "secret1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status: %d", resp.StatusCode)
	}
	login := decode[map[string]any](t, resp)
	if login["redirect"] != "/details-form" {
		t.Fatalf("fresh student should land on details form, got %v", login["redirect"])
	}

	resp = api.postMultipart("/submit-internship-details", detailsFields(), &filePart{
		field:       "offerLetter",
		name:        "offer.pdf",
		contentType: "application/pdf",
		content:     bytes.Repeat([]byte("%PDF"), 256),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.get("/api/internship-details")
	got := decode[map[string]any](t, resp)
	if got["hasDetails"] != true {
		t.Fatalf("expected hasDetails true, got %v", got)
	}
	details := got["details"].(map[string]any)
	if details["company"] != "Acme Corp" {
		t.Fatalf("unexpected company: %v", details["company"])
	}
	if details["identity"] != "21BCE100" {
		t.Fatalf("identity must come from the session, got %v", details["identity"])
	}
	file := details["file"].(map[string]any)
	stored := file["stored_name"].(string)
	if !strings.HasPrefix(stored, "21BCE100-") || !strings.HasSuffix(stored, ".pdf") {
		t.Fatalf("stored name lacks identity prefix or extension: %s", stored)
	}

	// после деталей логин ведёт на форму отчёта
	resp = api.loginStudent("21BCE100", "secret1")
	login = decode[map[string]any](t, resp)
	if login["redirect"] != "/report-form" {
		t.Fatalf("expected /report-form, got %v", login["redirect"])
	}
}

func TestStudentSubmissionsAreIsolated(t *testing.T) {
	api := newTestAPI(t)
	other := newTestAPIOnSameServer(t, api)

	api.register("21BCE100", "s100@univ.test")
	other.register("21BCE200", "s200@univ.test")

	api.loginStudent("21BCE100", "secret1").Body.Close()
	resp := api.postMultipart("/submit-internship-details", detailsFields(), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	other.loginStudent("21BCE200", "secret1").Body.Close()
	got := decode[map[string]any](t, other.get("/api/internship-details"))
	if got["hasDetails"] != false {
		t.Fatalf("second student must not see first student's details: %v", got)
	}
}

// newTestAPIOnSameServer returns a client with its own cookie jar against
// the same server, so two users can hold sessions at once.
func newTestAPIOnSameServer(t *testing.T, base *apiClient) *apiClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &apiClient{
		baseURL:  base.baseURL,
		client:   &http.Client{Jar: jar},
		accounts: base.accounts,
		t:        t,
	}
}

func TestRegisterValidation(t *testing.T) {
	api := newTestAPI(t)
	api.register("21BCE100", "s100@univ.test")

	// повторная регистрация того же номера
	resp := api.post("/student-register", map[string]any{
		"registerNumber":  "21BCE100",
		"name":            "Someone Else",
		"email":           "other@univ.test",
		"department":      "ECE",
		"password":        "secret1",
		"confirmPassword": "secret1",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate register status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.post("/student-register", map[string]any{
		"registerNumber":  "21BCE300",
		"name":            "Short Password",
		"email":           "s300@univ.test",
		"department":      "CSE",
		"password":        "abc",
		"confirmPassword": "abc",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("short password status: %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLoginFailuresAreDistinguishable(t *testing.T) {
	api := newTestAPI(t)
	api.register("21BCE100", "s100@univ.test")

	resp := api.loginStudent("99XXX999", "secret1")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown identity status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.loginStudent("21BCE100", "wrongpass")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password status: %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["success"] != false {
		t.Fatalf("expected success false, got %v", body)
	}
}

func TestUploadRejections(t *testing.T) {
	api := newTestAPI(t)
	api.register("21BCE100", "s100@univ.test")
	api.loginStudent("21BCE100", "secret1").Body.Close()

	resp := api.postMultipart("/submit-internship-details", detailsFields(), &filePart{
		field:       "offerLetter",
		name:        "notes.txt",
		contentType: "text/plain",
		content:     []byte("plain text"),
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("text upload status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	// запись не должна была появиться
	got := decode[map[string]any](t, api.get("/api/internship-details"))
	if got["hasDetails"] != false {
		t.Fatalf("rejected upload must not persist details: %v", got)
	}

	resp = api.postMultipart("/submit-internship-details", detailsFields(), &filePart{
		field:       "offerLetter",
		name:        "big.pdf",
		contentType: "application/pdf",
		content:     bytes.Repeat([]byte("a"), 11<<20),
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("oversize upload status: %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestReportFlowAndFacultyOverview(t *testing.T) {
	api := newTestAPI(t)
	faculty := newTestAPIOnSameServer(t, api)

	api.register("21BCE100", "s100@univ.test")
	api.loginStudent("21BCE100", "secret1").Body.Close()

	resp := api.postMultipart("/submit-internship-details", detailsFields(), nil)
	resp.Body.Close()
	resp = api.postMultipart("/submit-internship-report", map[string]string{
		"internshipType": "industry",
		"role":           "Backend Intern",
		"startMonth":     "2026-06",
		"mentor":         "J. Mentor",
		"summary":        "Built the ingestion service.",
		"rating":         "5",
		"declaration":    "true",
	}, &filePart{
		field:       "internshipReport",
		name:        "report.pdf",
		contentType: "application/pdf",
		content:     bytes.Repeat([]byte("%PDF"), 256),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("report submit status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	// faculty account is bootstrapped out of band in production; register
	// through the service directly here
	registerFaculty(t, api, "FAC01", "fac@univ.test")

	resp = faculty.post("/faculty-login", map[string]any{
		"employeeId": "FAC01",
		"password":   "secret1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("faculty login status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	got := decode[map[string]any](t, faculty.get("/api/teacher-students"))
	students := got["students"].([]any)
	if len(students) != 1 {
		t.Fatalf("expected 1 student, got %d", len(students))
	}
	row := students[0].(map[string]any)
	if row["status"] != "Completed" {
		t.Fatalf("expected Completed, got %v", row["status"])
	}
	if row["hasDetails"] != true || row["hasReport"] != true {
		t.Fatalf("unexpected presence flags: %v", row)
	}

	// drill-down and download
	rec := decode[map[string]any](t, faculty.get("/api/teacher-student/21BCE100"))
	report := rec["student"].(map[string]any)["report"].(map[string]any)
	stored := report["file"].(map[string]any)["stored_name"].(string)

	dl := faculty.get("/api/download/21BCE100/report/" + stored)
	if dl.StatusCode != http.StatusOK {
		t.Fatalf("download status: %d", dl.StatusCode)
	}
	data, _ := io.ReadAll(dl.Body)
	dl.Body.Close()
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("downloaded content mismatch")
	}
	if cd := dl.Header.Get("Content-Disposition"); !strings.Contains(cd, "report.pdf") {
		t.Fatalf("missing original filename in disposition: %q", cd)
	}
}

func registerFaculty(t *testing.T, api *apiClient, id, email string) {
	t.Helper()
	// Faculty accounts never come through /student-register.
	_, err := api.accounts.Register(context.Background(), account.RegisterInput{
		ID:              id,
		Role:            account.RoleFaculty,
		Name:            "Prof " + id,
		Email:           email,
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	if err != nil {
		t.Fatalf("register faculty: %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	api := newTestAPI(t)
	api.register("21BCE100", "s100@univ.test")
	api.loginStudent("21BCE100", "secret1").Body.Close()

	resp := api.get("/api/session")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("session before logout: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.post("/logout", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = api.get("/api/session")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("session after logout: %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestFacultyEndpointsRejectStudents(t *testing.T) {
	api := newTestAPI(t)
	api.register("21BCE100", "s100@univ.test")
	api.loginStudent("21BCE100", "secret1").Body.Close()

	resp := api.get("/api/teacher-students")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("student on faculty endpoint: %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestDownloadOwnership(t *testing.T) {
	api := newTestAPI(t)
	other := newTestAPIOnSameServer(t, api)

	api.register("21BCE100", "s100@univ.test")
	other.register("21BCE200", "s200@univ.test")

	api.loginStudent("21BCE100", "secret1").Body.Close()
	resp := api.postMultipart("/submit-internship-details", detailsFields(), &filePart{
		field:       "offerLetter",
		name:        "offer.pdf",
		contentType: "application/pdf",
		content:     []byte("%PDF-1.4"),
	})
	resp.Body.Close()

	got := decode[map[string]any](t, api.get("/api/internship-details"))
	stored := got["details"].(map[string]any)["file"].(map[string]any)["stored_name"].(string)

	// владелец скачивает свой файл
	dl := api.get("/api/download/21BCE100/details/" + stored)
	if dl.StatusCode != http.StatusOK {
		t.Fatalf("owner download status: %d", dl.StatusCode)
	}
	dl.Body.Close()

	other.loginStudent("21BCE200", "secret1").Body.Close()
	dl = other.get("/api/download/21BCE100/details/" + stored)
	if dl.StatusCode != http.StatusUnauthorized {
		t.Fatalf("foreign download status: %d", dl.StatusCode)
	}
	dl.Body.Close()
}

func TestDeleteStudentRemovesEverything(t *testing.T) {
	api := newTestAPI(t)
	faculty := newTestAPIOnSameServer(t, api)

	api.register("21BCE100", "s100@univ.test")
	api.loginStudent("21BCE100", "secret1").Body.Close()
	resp := api.postMultipart("/submit-internship-details", detailsFields(), nil)
	resp.Body.Close()

	registerFaculty(t, api, "FAC01", "fac@univ.test")
	faculty.post("/faculty-login", map[string]any{
		"employeeId": "FAC01",
		"password":   "secret1",
	}).Body.Close()

	resp = faculty.del("/api/teacher-student/21BCE100")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	got := decode[map[string]any](t, faculty.get("/api/teacher-students"))
	if n := len(got["students"].([]any)); n != 0 {
		t.Fatalf("expected no students after delete, got %d", n)
	}

	resp = faculty.get("/api/teacher-student/21BCE100")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted student lookup status: %d", resp.StatusCode)
	}
	resp.Body.Close()

	// login must fail with not found after removal
	resp = api.loginStudent("21BCE100", "secret1")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted student login status: %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)
	resp := api.get("/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status: %d", resp.StatusCode)
	}
	body := decode[map[string]any](t, resp)
	if body["service"] != "praktika-api" {
		t.Fatalf("unexpected service name: %v", body["service"])
	}
}
