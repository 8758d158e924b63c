package internship

import (
	"errors"
	"time"

	"praktika.org/internal/upload"
)

var (
	ErrNotFound     = errors.New("internship: not found")
	ErrInvalidInput = errors.New("internship: invalid input")
)

// Status is the coarse per-student progress derived from record presence.
type Status string

const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Details is the placement record a student submits once the internship is
// secured. At most one exists per identity; resubmission replaces it.
type Details struct {
	Identity    string                 `json:"identity" bson:"_id"`
	Company     string                 `json:"company" bson:"company"`
	Role        string                 `json:"role" bson:"role"`
	MentorName  string                 `json:"mentor_name" bson:"mentor_name"`
	MentorEmail string                 `json:"mentor_email" bson:"mentor_email"`
	StartDate   string                 `json:"start_date" bson:"start_date"`
	EndDate     string                 `json:"end_date" bson:"end_date"`
	Stipend     string                 `json:"stipend,omitempty" bson:"stipend,omitempty"`
	File        *upload.FileDescriptor `json:"file,omitempty" bson:"file,omitempty"`
	SubmittedAt time.Time              `json:"submitted_at" bson:"submitted_at"`
}

// Report is the end-of-internship record. Field names follow the submission
// form payload.
type Report struct {
	Identity       string                 `json:"identity" bson:"_id"`
	InternshipType string                 `json:"internship_type" bson:"internship_type"`
	Role           string                 `json:"role" bson:"role"`
	StartMonth     string                 `json:"start_month" bson:"start_month"`
	Mentor         string                 `json:"mentor" bson:"mentor"`
	Summary        string                 `json:"summary" bson:"summary"`
	Rating         int                    `json:"rating" bson:"rating"`
	Declaration    bool                   `json:"declaration" bson:"declaration"`
	File           *upload.FileDescriptor `json:"file,omitempty" bson:"file,omitempty"`
	SubmittedAt    time.Time              `json:"submitted_at" bson:"submitted_at"`
}

// StudentStatus is one row of the faculty overview: the account joined with
// the presence of both record kinds.
type StudentStatus struct {
	Identity   string `json:"identity"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	HasDetails bool   `json:"hasDetails"`
	HasReport  bool   `json:"hasReport"`
	Status     Status `json:"status"`
}

// StudentRecord is a single student's full joined view for faculty.
type StudentRecord struct {
	Identity   string   `json:"identity"`
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Department string   `json:"department"`
	Phone      string   `json:"phone,omitempty"`
	Details    *Details `json:"details,omitempty"`
	Report     *Report  `json:"report,omitempty"`
	Status     Status   `json:"status"`
}

// DeriveStatus folds record presence into the coarse lifecycle status. The
// report is terminal, so its presence alone marks completion.
func DeriveStatus(hasDetails, hasReport bool) Status {
	switch {
	case hasReport:
		return StatusCompleted
	case hasDetails:
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}
