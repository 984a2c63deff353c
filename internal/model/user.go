// Package model contain gorm model for recording data to database
package model

import (
	"time"

	"github.com/google/uuid"
)

var (
	// RoleAdmin is role of the system administrator
	RoleAdmin = "admin"
	// RoleHR is role of HR staff who manage candidates, payroll and reviews
	RoleHR = "hr"
	// RoleEmployee is role of a regular employee
	RoleEmployee = "employee"
)

// ContactInfo holds optional contact channels shared by users and candidates
type ContactInfo struct {
	Tel   *string `json:"tel"`
	Email *string `json:"email"`
}

// User represents an account that can log in to the system
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
	Username    string    `gorm:"uniqueIndex;not null" json:"username"`
	Password    string    `gorm:"type:text" json:"-"`
	GoogleID    string    `json:"-"`
	Role        string    `gorm:"type:text;default:'employee'" json:"role"`
	ContactInfo `gorm:"embedded"`
}

// UserResponse is the login/register response body for staff accounts
type UserResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"access_token"`
}

// EmployeeResponse is the login/register response body when the account owns
// an employee profile
type EmployeeResponse struct {
	User        Employee `json:"user"`
	AccessToken string   `json:"access_token"`
}
