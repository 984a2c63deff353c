// Package employee provides HTTP handlers for employee profiles, departments
// and performance reviews.
package employee

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"PeopleFlow-backend/internal/database"
	"PeopleFlow-backend/internal/model"
	"PeopleFlow-backend/internal/utilities"
)

// EmployeeController handles employee related endpoints.
type EmployeeController struct {
	DB *database.DBinstanceStruct
}

// NewEmployeeController creates a new instance of EmployeeController with the provided database connection.
func NewEmployeeController(db *database.DBinstanceStruct) *EmployeeController {
	return &EmployeeController{
		DB: db,
	}
}

type departmentInfo struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type reviewInfo struct {
	EmployeeID uuid.UUID `json:"employee_id" binding:"required"`
	Period     string    `json:"period" binding:"required"`
	Score      int       `json:"score" binding:"required,min=1,max=5"`
	Comments   string    `json:"comments"`
}

// MyProfile returns the employee profile of the logged in account.
// @Summary Get my employee profile
// @Tags Employee
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} model.Employee
// @Failure 404 {object} utilities.ErrorResponse "Account owns no employee profile"
// @Router /employee/me [get]
func (ec *EmployeeController) MyProfile(c *gin.Context) {
	employee, ok := ec.fetchOwnProfile(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, employee)
}

// UpdateMyProfile merges the non-empty editable fields from the request body
// into the caller's profile.
// @Summary Update my employee profile
// @Description Only non-empty fields are applied
// @Tags Employee
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param info body model.EditableEmployeeInfo true "Fields to update"
// @Success 200 {object} model.Employee
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 404 {object} utilities.ErrorResponse "Account owns no employee profile"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /employee/me [patch]
func (ec *EmployeeController) UpdateMyProfile(c *gin.Context) {
	employee, ok := ec.fetchOwnProfile(c)
	if !ok {
		return
	}

	var info model.EditableEmployeeInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	utilities.MergeNonEmpty(&employee.EditableEmployeeInfo, &info)

	if err := ec.DB.Save(&employee).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update profile: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, employee)
}

// UploadPhoto stores a profile photo for the logged in employee.
// @Summary Upload my profile photo
// @Description Only file smaller than 10 MB with .jpg, .jpeg, or .png extension is permitted
// @Tags Employee
// @Accept mpfd
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param photo formData file true "Upload your photo file"
// @Success 200 {object} model.Employee
// @Failure 404 {object} utilities.ErrorResponse "Account owns no employee profile"
// @Failure 413 {object} utilities.ErrorResponse "File size is larger than 10 MB"
// @Failure 415 {object} utilities.ErrorResponse "File extension is not allowed"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /employee/me/photo [post]
func (ec *EmployeeController) UploadPhoto(c *gin.Context) {
	employee, ok := ec.fetchOwnProfile(c)
	if !ok {
		return
	}

	rawFile, err := c.FormFile("photo")
	var maxBytesError *http.MaxBytesError
	if errors.As(err, &maxBytesError) {
		c.JSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{
			Error: err.Error(),
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve file: %s", err.Error()),
		})
		return
	}

	allowedExtensions := map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
	}
	extension := strings.ToLower(filepath.Ext(rawFile.Filename))
	if !allowedExtensions[extension] {
		c.JSON(http.StatusUnsupportedMediaType, utilities.ErrorResponse{
			Error: fmt.Sprintf("Unsupported file extension: %s", extension),
		})
		return
	}

	f, err := rawFile.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Cannot open file"})
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("failed to close uploaded file: %v", err)
		}
	}()

	fileBytes, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Cannot read file"})
		return
	}

	employee.Photo = model.File{Content: fileBytes, Extension: extension}
	if err := ec.DB.Session(&gorm.Session{FullSaveAssociations: true}).Save(&employee).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update profile: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, employee)
}

// ListDepartments returns all departments.
// @Summary List departments
// @Tags Employee
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.Department
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /employee/department [get]
func (ec *EmployeeController) ListDepartments(c *gin.Context) {
	var departments []model.Department
	if err := ec.DB.Order("name").Find(&departments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve departments: %s", err.Error()),
		})
		return
	}
	c.JSON(http.StatusOK, departments)
}

// CreateDepartment creates a new department.
// @Summary Create a department
// @Description Only admin can access this endpoint
// @Tags Employee
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param info body departmentInfo true "Department information"
// @Success 201 {object} model.Department
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body or duplicate name"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /employee/department [post]
func (ec *EmployeeController) CreateDepartment(c *gin.Context) {
	var info departmentInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Department name must be provided",
		})
		return
	}

	department := model.Department{
		Name:        info.Name,
		Description: info.Description,
	}
	if err := ec.DB.Create(&department).Error; err != nil {
		var pqErr *pgconn.PgError
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
				Error: "Department name already exists",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to create department: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, department)
}

// CreateReview records one performance review for an employee.
// @Summary Create a performance review
// @Description Only HR or admin can access this endpoint
// @Tags Employee
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param info body reviewInfo true "Review information, score between 1 and 5"
// @Success 201 {object} model.PerformanceReview
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body or unknown employee"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /employee/review [post]
func (ec *EmployeeController) CreateReview(c *gin.Context) {
	reviewer, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var info reviewInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	review := model.PerformanceReview{
		EmployeeID: info.EmployeeID,
		ReviewerID: reviewer.ID,
		Period:     info.Period,
		Score:      info.Score,
		Comments:   info.Comments,
	}
	if err := ec.DB.Create(&review).Error; err != nil {
		var pqErr *pgconn.PgError
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
				Error: "Unknown employee",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to create review: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, review)
}

// ListReviews returns the reviews of one employee, newest first.
// @Summary List performance reviews of an employee
// @Description Only HR or admin can access this endpoint
// @Tags Employee
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Employee user ID"
// @Success 200 {array} model.PerformanceReview
// @Failure 400 {object} utilities.ErrorResponse "Invalid employee id"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /employee/{id}/review [get]
func (ec *EmployeeController) ListReviews(c *gin.Context) {
	employeeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid employee id: %s", err.Error()),
		})
		return
	}

	var reviews []model.PerformanceReview
	if err := ec.DB.Where("employee_id = ?", employeeID).Order("created_at DESC").Find(&reviews).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve reviews: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, reviews)
}

func (ec *EmployeeController) fetchOwnProfile(c *gin.Context) (model.Employee, bool) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return model.Employee{}, false
	}

	var employee model.Employee
	err = ec.DB.Preload("User").Where("user_id = ?", user.ID).First(&employee).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Account owns no employee profile"})
		return employee, false
	case err != nil:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve profile: %s", err.Error()),
		})
		return employee, false
	}
	return employee, true
}
