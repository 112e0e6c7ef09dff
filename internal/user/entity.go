// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

// Role is the closed set of account roles. Anything else is rejected at
// the boundary so an invalid role is never persisted.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleUser    Role = "user"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent, RoleUser:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

type User struct {
	ID            string     `db:"id"`
	Email         string     `db:"email"`
	PasswordHash  *string    `db:"password_hash"`
	Name          string     `db:"name"`
	Role          Role       `db:"role"`
	EmailVerified bool       `db:"email_verified"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	DeletedAt     *time.Time `db:"deleted_at"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleTeacher
}
