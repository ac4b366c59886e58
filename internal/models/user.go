package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a platform user. Profile fields are filled in during onboarding.
type User struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Image              string     `json:"image,omitempty"`
	Onboarded          bool       `json:"onboarded"`
	AcademicYear       string     `json:"academic_year,omitempty"`
	AcademicMajor      string     `json:"academic_major,omitempty"`
	AcademicUniversity string     `json:"academic_university,omitempty"`
	GraduationYear     string     `json:"graduation_year,omitempty"`
	City               string     `json:"city,omitempty"`
	State              string     `json:"state,omitempty"`
	Phone              string     `json:"phone,omitempty"`
	Birthday           *time.Time `json:"birthday,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Credentials holds the username/password pair used to sign in.
type Credentials struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserPublic is the directory view of a user.
type UserPublic struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Username           string    `json:"username"`
	Image              string    `json:"image,omitempty"`
	AcademicMajor      string    `json:"academic_major,omitempty"`
	AcademicUniversity string    `json:"academic_university,omitempty"`
}

// ToPublic converts User to UserPublic.
func (u *User) ToPublic(username string) UserPublic {
	return UserPublic{
		ID:                 u.ID,
		Name:               u.Name,
		Username:           username,
		Image:              u.Image,
		AcademicMajor:      u.AcademicMajor,
		AcademicUniversity: u.AcademicUniversity,
	}
}

// Onboarding is the profile submitted once after sign-up.
type Onboarding struct {
	FirstName          string
	LastName           string
	AcademicYear       string
	AcademicMajor      string
	AcademicUniversity string
	GraduationYear     string
	City               string
	State              string
	Phone              string
	Birthday           time.Time
}

// FullName joins the first and last name the way the profile stores it.
func (o Onboarding) FullName() string {
	return strings.TrimSpace(o.FirstName + " " + o.LastName)
}
