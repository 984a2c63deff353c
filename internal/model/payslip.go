package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayslipStatus is the closed set of payment states of one payslip line item.
type PayslipStatus string

// Payslip status values. Only draft and issued payslips may be paid; paying
// an already-paid payslip is a no-op.
const (
	PayslipStatusDraft  PayslipStatus = "draft"
	PayslipStatusIssued PayslipStatus = "issued"
	PayslipStatusPaid   PayslipStatus = "paid"
)

// ParsePayslipStatus converts a raw string to a PayslipStatus, returning an
// error for unknown values.
func ParsePayslipStatus(s string) (PayslipStatus, error) {
	st := PayslipStatus(s)
	switch st {
	case PayslipStatusDraft, PayslipStatusIssued, PayslipStatusPaid:
		return st, nil
	}
	return "", fmt.Errorf("unknown payslip status %q", s)
}

// Payable reports whether a payment attempt is permitted in this status.
func (s PayslipStatus) Payable() bool {
	return s == PayslipStatusDraft || s == PayslipStatusIssued
}

// PayslipLineItem is one employee's payroll record for a pay period. Amounts
// are numeric columns handled as decimals so settlement arithmetic is exact.
type PayslipLineItem struct {
	ID         uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	EmployeeID uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_payslip_employee_period" json:"employee_id"`
	Employee   Employee        `gorm:"foreignKey:EmployeeID;references:UserID" json:"-"`
	Period     string          `gorm:"type:text;not null;uniqueIndex:idx_payslip_employee_period" json:"period"`
	BaseSalary decimal.Decimal `gorm:"type:numeric(14,2)" json:"base_salary"`
	Allowances decimal.Decimal `gorm:"type:numeric(14,2)" json:"allowances"`
	Deductions decimal.Decimal `gorm:"type:numeric(14,2)" json:"deductions"`
	Total      decimal.Decimal `gorm:"type:numeric(14,2)" json:"total"`
	Status     PayslipStatus   `gorm:"type:text;default:'draft'" json:"status"`
	PaidAt     *time.Time      `json:"paid_at"`
}

// ComputeTotal recalculates the payable total from its components.
func (p *PayslipLineItem) ComputeTotal() {
	p.Total = p.BaseSalary.Add(p.Allowances).Sub(p.Deductions)
}

// PayrollBatch is the persisted report of one batch settlement run.
type PayrollBatch struct {
	ID             uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	RunAt          time.Time       `gorm:"autoCreateTime" json:"run_at"`
	RunBy          uuid.UUID       `gorm:"type:uuid" json:"run_by"`
	TotalProcessed int             `json:"total_processed"`
	SuccessCount   int             `json:"success_count"`
	FailedCount    int             `json:"failed_count"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(14,2)" json:"total_amount"`

	Outcomes []PayrollBatchOutcome `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE" json:"outcomes"`
}

// PayrollBatchOutcome retains the per-item result of one settlement run.
type PayrollBatchOutcome struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	BatchID   uint   `gorm:"not null;index" json:"-"`
	PayslipID uint   `gorm:"not null" json:"payslip_id"`
	Paid      bool   `json:"paid"`
	Skipped   bool   `json:"skipped"`
	Reason    string `gorm:"type:text" json:"reason,omitempty"`
}
