package domain

import "time"

type UserType string

const (
	UserTypeStudent UserType = "student"
	UserTypeAdmin   UserType = "admin"
)

// User is a simulated platform identity; no credentials are stored.
type User struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	UserType    UserType          `json:"userType"`
	Avatar      string            `json:"avatar,omitempty"`
	Institution string            `json:"institution,omitempty"`
	Program     string            `json:"academicProgram,omitempty"`
	Interests   []string          `json:"academicInterests,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.UserType == UserTypeAdmin
}
