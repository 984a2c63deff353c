package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// EditableEmployeeInfo contains the profile fields an employee may change
// themselves. Kept as an embedded struct so PATCH handlers can merge
// non-empty fields in one place.
type EditableEmployeeInfo struct {
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	Address     *string        `json:"address"`
	Education   *string        `json:"education"`
	BankAccount *string        `json:"bank_account"`
	SoftSkill   pq.StringArray `gorm:"type:text[]" json:"soft_skill"`
}

// Employee represents one employee profile owned by a User account.
// Monetary fields are numeric columns handled as decimals, never floats.
type Employee struct {
	UserID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	User                 User      `gorm:"foreignKey:UserID;references:ID" json:"user"`
	EmployeeCode         string    `gorm:"uniqueIndex;not null" json:"employee_code"`
	Position             string    `gorm:"type:text" json:"position"`
	DepartmentID         *uint     `json:"department_id"`
	Department           Department `gorm:"foreignKey:DepartmentID;references:ID" json:"-"`
	HireDate             time.Time  `gorm:"type:date" json:"hire_date"`
	BaseSalary           decimal.Decimal `gorm:"type:numeric(14,2)" json:"base_salary"`
	Allowance            decimal.Decimal `gorm:"type:numeric(14,2)" json:"allowance"`
	Deduction            decimal.Decimal `gorm:"type:numeric(14,2)" json:"deduction"`
	PhotoID              *int `json:"photo_id"`
	Photo                File `gorm:"foreignKey:PhotoID;references:ID" json:"-"`
	EditableEmployeeInfo `gorm:"embedded"`
}

// Department groups employees under one organizational unit
type Department struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
}

// PerformanceReview records one review of an employee for a period
type PerformanceReview struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index" json:"employee_id"`
	Employee   Employee  `gorm:"foreignKey:EmployeeID;references:UserID" json:"-"`
	ReviewerID uuid.UUID `gorm:"type:uuid;not null" json:"reviewer_id"`
	Reviewer   User      `gorm:"foreignKey:ReviewerID;references:ID" json:"-"`
	Period     string    `gorm:"type:text;not null" json:"period"`
	Score      int       `gorm:"check:score BETWEEN 1 AND 5" json:"score"`
	Comments   string    `gorm:"type:text" json:"comments"`
	CreatedAt  time.Time `json:"created_at"`
}
