package account

import "time"

const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
)

// Account represents a registered portal user. The ID is the student's
// register number or the faculty member's employee id and is the primary
// key for every per-user record in the system.
type Account struct {
	ID           string    `json:"id" bson:"_id"`
	Role         string    `json:"role" bson:"role"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	Department   string    `json:"department" bson:"department"`
	Phone        string    `json:"phone,omitempty" bson:"phone,omitempty"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// RegisterInput carries the fields of a registration request before
// validation. Password is plaintext here and only here.
type RegisterInput struct {
	ID              string
	Role            string
	Name            string
	Email           string
	Department      string
	Phone           string
	Password        string
	ConfirmPassword string
}
