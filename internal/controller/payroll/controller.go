// Package payroll provides HTTP handlers for payslip generation, issuing and
// batch settlement.
package payroll

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"PeopleFlow-backend/internal/database"
	"PeopleFlow-backend/internal/model"
	"PeopleFlow-backend/internal/payroll"
	"PeopleFlow-backend/internal/utilities"
)

// PayrollController handles payroll related endpoints.
type PayrollController struct {
	DB        *database.DBinstanceStruct
	Processor payroll.PaymentProcessor
	Opts      payroll.Options
}

// NewPayrollController creates a new instance of PayrollController with the
// provided database connection and payment processor.
func NewPayrollController(db *database.DBinstanceStruct, processor payroll.PaymentProcessor) *PayrollController {
	workers := 4
	if raw := os.Getenv("SETTLE_WORKERS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			workers = parsed
		}
	}
	return &PayrollController{
		DB:        db,
		Processor: processor,
		Opts: payroll.Options{
			Workers:     workers,
			ItemTimeout: 30 * time.Second,
		},
	}
}

type periodInfo struct {
	Period string `json:"period" binding:"required"`
}

type payslipIDsInfo struct {
	PayslipIDs []uint `json:"payslip_ids" binding:"required,min=1,unique"`
}

type settleResponse struct {
	BatchID uint `json:"batch_id"`
	payroll.SettlementResult
}

// GeneratePayslips creates one draft payslip per employee for the given
// period from the employee's salary fields. Employees that already have a
// payslip for the period are left untouched.
// @Summary Generate draft payslips for a pay period
// @Description Only HR or admin can access this endpoint
// @Tags Payroll
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param info body periodInfo true "Pay period, e.g. 2026-01"
// @Success 201 {array} model.PayslipLineItem "Newly created payslips"
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /payroll/generate [post]
func (pc *PayrollController) GeneratePayslips(c *gin.Context) {
	var info periodInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Period must be provided",
		})
		return
	}

	var employees []model.Employee
	if err := pc.DB.Find(&employees).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve employees: %s", err.Error()),
		})
		return
	}

	created := []model.PayslipLineItem{}
	err := pc.DB.Transaction(func(tx *gorm.DB) error {
		for _, emp := range employees {
			var existing model.PayslipLineItem
			err := tx.Where("employee_id = ? AND period = ?", emp.UserID, info.Period).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			item := model.PayslipLineItem{
				EmployeeID: emp.UserID,
				Period:     info.Period,
				BaseSalary: emp.BaseSalary,
				Allowances: emp.Allowance,
				Deductions: emp.Deduction,
				Status:     model.PayslipStatusDraft,
			}
			item.ComputeTotal()
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			created = append(created, item)
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to generate payslips: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, created)
}

// ListPayslips returns payslips, optionally filtered by period and status.
// @Summary List payslips
// @Description Only HR or admin can access this endpoint
// @Tags Payroll
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param period query string false "Filter by pay period"
// @Param status query string false "Filter by status (draft, issued, paid)"
// @Success 200 {array} model.PayslipLineItem
// @Failure 400 {object} utilities.ErrorResponse "Unknown status value"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /payroll [get]
func (pc *PayrollController) ListPayslips(c *gin.Context) {
	query := pc.DB.Order("id")

	if period := c.Query("period"); period != "" {
		query = query.Where("period = ?", period)
	}
	if raw := c.Query("status"); raw != "" {
		status, err := model.ParsePayslipStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: err.Error()})
			return
		}
		query = query.Where("status = ?", status)
	}

	var payslips []model.PayslipLineItem
	if err := query.Find(&payslips).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve payslips: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, payslips)
}

// IssuePayslips moves the given draft payslips to status issued.
// @Summary Issue draft payslips
// @Description Only HR or admin can access this endpoint
// @Tags Payroll
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param info body payslipIDsInfo true "Payslip IDs to issue"
// @Success 200 {object} map[string]int64 "Number of payslips issued"
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /payroll/issue [post]
func (pc *PayrollController) IssuePayslips(c *gin.Context) {
	var info payslipIDsInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "At least one payslip id must be provided, without repeats",
		})
		return
	}

	result := pc.DB.Model(&model.PayslipLineItem{}).
		Where("id IN ? AND status = ?", info.PayslipIDs, model.PayslipStatusDraft).
		Update("status", model.PayslipStatusIssued)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to issue payslips: %s", result.Error.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"issued": result.RowsAffected})
}

// SettleBatch runs one bulk payment over the selected payslips and persists
// the batch report. Re-running with the same IDs is safe: already-paid items
// are skipped without paying twice.
// @Summary Settle a batch of payslips
// @Description Only HR or admin can access this endpoint
// @Tags Payroll
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param info body payslipIDsInfo true "Payslip IDs to settle"
// @Success 200 {object} settleResponse
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 404 {object} utilities.ErrorResponse "Some payslip IDs not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /payroll/settle [post]
func (pc *PayrollController) SettleBatch(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var info payslipIDsInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "At least one payslip id must be provided, without repeats",
		})
		return
	}

	var batch model.PayrollBatch
	var result payroll.SettlementResult

	txErr := pc.DB.Transaction(func(tx *gorm.DB) error {
		var fetched []model.PayslipLineItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "payslip_line_items"}}).
			Preload("Employee").
			Where("id IN ?", info.PayslipIDs).
			Find(&fetched).Error; err != nil {
			return err
		}

		byID := make(map[uint]model.PayslipLineItem, len(fetched))
		for _, item := range fetched {
			byID[item.ID] = item
		}

		// Visit items in the order the caller submitted them.
		items := make([]model.PayslipLineItem, 0, len(info.PayslipIDs))
		for _, id := range info.PayslipIDs {
			item, ok := byID[id]
			if !ok {
				return &missingPayslipError{ID: id}
			}
			items = append(items, item)
		}

		var updated []model.PayslipLineItem
		updated, result = payroll.SettleBatch(c.Request.Context(), items, pc.Processor, pc.Opts)

		for i, item := range updated {
			if !result.Outcomes[i].Paid {
				continue
			}
			if err := tx.Model(&model.PayslipLineItem{ID: item.ID}).
				Updates(map[string]interface{}{"status": item.Status, "paid_at": item.PaidAt}).Error; err != nil {
				return err
			}
		}

		batch = model.PayrollBatch{
			RunBy:          user.ID,
			TotalProcessed: result.TotalProcessed,
			SuccessCount:   result.SuccessCount,
			FailedCount:    result.FailedCount,
			TotalAmount:    result.TotalAmount,
		}
		for _, o := range result.Outcomes {
			batch.Outcomes = append(batch.Outcomes, model.PayrollBatchOutcome{
				PayslipID: o.PayslipID,
				Paid:      o.Paid,
				Skipped:   o.Skipped,
				Reason:    o.Reason,
			})
		}
		return tx.Create(&batch).Error
	})

	var missingErr *missingPayslipError
	switch {
	case errors.As(txErr, &missingErr):
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: txErr.Error()})
		return
	case txErr != nil:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to settle batch: %s", txErr.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, settleResponse{
		BatchID:          batch.ID,
		SettlementResult: result,
	})
}

// ListBatches returns the persisted settlement reports, newest first.
// @Summary List settlement batch reports
// @Description Only HR or admin can access this endpoint
// @Tags Payroll
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.PayrollBatch
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /payroll/batches [get]
func (pc *PayrollController) ListBatches(c *gin.Context) {
	var batches []model.PayrollBatch
	if err := pc.DB.Preload("Outcomes").Order("run_at DESC").Find(&batches).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve batches: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, batches)
}

type missingPayslipError struct {
	ID uint
}

func (e *missingPayslipError) Error() string {
	return fmt.Sprintf("payslip %d not found", e.ID)
}
