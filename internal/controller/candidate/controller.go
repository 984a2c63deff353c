// Package candidate provides HTTP handlers for the recruitment workflow.
package candidate

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"PeopleFlow-backend/internal/controller/file"
	"PeopleFlow-backend/internal/database"
	"PeopleFlow-backend/internal/model"
	"PeopleFlow-backend/internal/recruitment"
	"PeopleFlow-backend/internal/utilities"
)

// CandidateController handles candidate application and workflow endpoints.
type CandidateController struct {
	DB      *database.DBinstanceStruct
	Locks   *recruitment.LockTable
	Storage file.StorageClient
}

const documentObjectPrefix = "candidate-documents"

// NewCandidateController creates a new instance of CandidateController with
// the provided database connection. Storage may be nil, in which case
// document blobs stay inline in the database.
func NewCandidateController(db *database.DBinstanceStruct, storage file.StorageClient) *CandidateController {
	return &CandidateController{
		DB:      db,
		Locks:   recruitment.NewLockTable(),
		Storage: storage,
	}
}

type applicationInfo struct {
	FullName   string `json:"full_name" binding:"required"`
	Position   string `json:"position" binding:"required"`
	Education  string `json:"education"`
	Experience string `json:"experience"`
	Tel        *string `json:"tel"`
	Email      *string `json:"email"`
}

type rejectInfo struct {
	Reason string `json:"reason"`
}

// SubmitApplication handles the creation of a new candidate application.
// @Summary Submit a job application
// @Description Public endpoint. Every application starts in status "new".
// @Tags Candidate
// @Accept json
// @Produce json
// @Param application body applicationInfo true "Applicant information"
// @Success 201 {object} model.Candidate "Successfully submitted application"
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /candidate [post]
func (cc *CandidateController) SubmitApplication(c *gin.Context) {
	var info applicationInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	candidate := model.Candidate{
		FullName:   info.FullName,
		Position:   info.Position,
		Education:  info.Education,
		Experience: info.Experience,
		AppliedAt:  time.Now(),
		Status:     model.CandidateStatusNew,
		ContactInfo: model.ContactInfo{
			Tel:   info.Tel,
			Email: info.Email,
		},
	}

	if err := cc.DB.Create(&candidate).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to create application: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, candidate)
}

// ListCandidates returns all candidates, optionally filtered by status.
// @Summary List candidates
// @Description Only HR or admin can access this endpoint
// @Tags Candidate
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param status query string false "Filter by status (new, validating, accepted, rejected)"
// @Success 200 {array} model.Candidate
// @Failure 400 {object} utilities.ErrorResponse "Unknown status value"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /candidate [get]
func (cc *CandidateController) ListCandidates(c *gin.Context) {
	query := cc.DB.Preload("Documents")

	if raw := c.Query("status"); raw != "" {
		status, err := model.ParseCandidateStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: err.Error()})
			return
		}
		query = query.Where("status = ?", status)
	}

	var candidates []model.Candidate
	if err := query.Order("applied_at DESC").Find(&candidates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve candidates: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, candidates)
}

// GetCandidate returns one candidate with its document registry.
// @Summary Get one candidate
// @Description Only HR or admin can access this endpoint
// @Tags Candidate
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Candidate ID"
// @Success 200 {object} model.Candidate
// @Failure 404 {object} utilities.ErrorResponse "Candidate not found"
// @Router /candidate/{id} [get]
func (cc *CandidateController) GetCandidate(c *gin.Context) {
	candidate, ok := cc.fetchCandidate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, candidate)
}

// BeginValidation moves a new candidate into review.
// @Summary Begin validating a candidate
// @Description Only HR or admin can access this endpoint
// @Tags Candidate
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Candidate ID"
// @Success 200 {object} model.Candidate
// @Failure 404 {object} utilities.ErrorResponse "Candidate not found"
// @Failure 409 {object} utilities.ErrorResponse "Transition not permitted from current status"
// @Router /candidate/{id}/begin-validation [post]
func (cc *CandidateController) BeginValidation(c *gin.Context) {
	cc.transition(c, recruitment.BeginValidation)
}

// Accept marks a candidate under validation as accepted.
// @Summary Accept a candidate
// @Description Fails while any mandatory document is missing. Only HR or admin can access this endpoint.
// @Tags Candidate
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Candidate ID"
// @Success 200 {object} model.Candidate
// @Failure 404 {object} utilities.ErrorResponse "Candidate not found"
// @Failure 409 {object} utilities.ErrorResponse "Transition not permitted from current status"
// @Failure 412 {object} utilities.ErrorResponse "Mandatory documents missing"
// @Router /candidate/{id}/accept [post]
func (cc *CandidateController) Accept(c *gin.Context) {
	cc.transition(c, recruitment.Accept)
}

// Reject marks a candidate under validation as rejected.
// @Summary Reject a candidate
// @Description The reason is stored verbatim. Only HR or admin can access this endpoint.
// @Tags Candidate
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Candidate ID"
// @Param info body rejectInfo false "Rejection reason"
// @Success 200 {object} model.Candidate
// @Failure 404 {object} utilities.ErrorResponse "Candidate not found"
// @Failure 409 {object} utilities.ErrorResponse "Transition not permitted from current status"
// @Router /candidate/{id}/reject [post]
func (cc *CandidateController) Reject(c *gin.Context) {
	var info rejectInfo
	// Body is optional, a missing body means an empty reason
	_ = c.ShouldBindJSON(&info)

	cc.transition(c, func(candidate model.Candidate) (model.Candidate, error) {
		return recruitment.Reject(candidate, info.Reason)
	})
}

// UploadDocument stores one evidence file and attaches its reference to the
// candidate's document registry. Re-uploading a kind replaces the reference.
// @Summary Upload a candidate document
// @Description Only file smaller than 10 MB with .pdf, .jpg, .jpeg, or .png extension is permitted. Only HR or admin can access this endpoint.
// @Tags Candidate
// @Accept mpfd
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Candidate ID"
// @Param kind path string true "Document kind (photo, idCard, certificate, cv, applicationLetter, policeRecord, healthCertificate)"
// @Param document formData file true "Upload the document file"
// @Success 200 {object} model.Candidate
// @Failure 400 {object} utilities.ErrorResponse "Unknown document kind"
// @Failure 404 {object} utilities.ErrorResponse "Candidate not found"
// @Failure 409 {object} utilities.ErrorResponse "Candidate already decided"
// @Failure 413 {object} utilities.ErrorResponse "File size is larger than 10 MB"
// @Failure 415 {object} utilities.ErrorResponse "File extension is not allowed"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /candidate/{id}/document/{kind} [post]
func (cc *CandidateController) UploadDocument(c *gin.Context) {
	kind, err := model.ParseDocumentKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	fileBytes, extension, ok := cc.readDocumentFile(c)
	if !ok {
		return
	}

	candidateID, ok := cc.parseID(c)
	if !ok {
		return
	}

	unlock := cc.Locks.Lock(candidateID)
	defer unlock()

	candidate, ok := cc.fetchCandidateByID(c, candidateID)
	if !ok {
		return
	}

	// The registry is frozen after the decision; fail before the blob is
	// stored so a refused upload leaves nothing behind.
	if candidate.Status.IsTerminal() {
		cc.writeWorkflowError(c, &recruitment.IllegalStateError{Status: candidate.Status})
		return
	}

	var fileRecord model.File
	if err := file.PersistFileData(cc.Storage, &fileRecord, fileBytes, extension, documentObjectPrefix); err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to store document: %s", err.Error()),
		})
		return
	}
	if err := cc.DB.Create(&fileRecord).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to store document: %s", err.Error()),
		})
		return
	}

	updated, err := recruitment.AttachDocument(candidate, kind, fmt.Sprintf("file:%d", fileRecord.ID))
	if err != nil {
		cc.writeWorkflowError(c, err)
		return
	}

	for i := range updated.Documents {
		if updated.Documents[i].Kind == kind {
			updated.Documents[i].FileID = &fileRecord.ID
		}
	}

	if err := cc.DB.Session(&gorm.Session{FullSaveAssociations: true}).Save(&updated).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update candidate: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, updated)
}

// transition runs one workflow operation under the candidate's lock and
// persists the result.
func (cc *CandidateController) transition(c *gin.Context, op func(model.Candidate) (model.Candidate, error)) {
	candidateID, ok := cc.parseID(c)
	if !ok {
		return
	}

	unlock := cc.Locks.Lock(candidateID)
	defer unlock()

	candidate, ok := cc.fetchCandidateByID(c, candidateID)
	if !ok {
		return
	}

	updated, err := op(candidate)
	if err != nil {
		cc.writeWorkflowError(c, err)
		return
	}

	if err := cc.DB.Save(&updated).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update candidate: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (cc *CandidateController) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid candidate id: %s", err.Error()),
		})
		return uuid.Nil, false
	}
	return id, true
}

func (cc *CandidateController) fetchCandidate(c *gin.Context) (model.Candidate, bool) {
	id, ok := cc.parseID(c)
	if !ok {
		return model.Candidate{}, false
	}
	return cc.fetchCandidateByID(c, id)
}

func (cc *CandidateController) fetchCandidateByID(c *gin.Context, id uuid.UUID) (model.Candidate, bool) {
	var candidate model.Candidate
	err := cc.DB.Preload("Documents").Where("id = ?", id).First(&candidate).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Candidate not found"})
		return candidate, false
	case err != nil:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve candidate: %s", err.Error()),
		})
		return candidate, false
	}
	return candidate, true
}

// writeWorkflowError maps workflow engine errors to HTTP statuses.
func (cc *CandidateController) writeWorkflowError(c *gin.Context, err error) {
	var transitionErr *recruitment.IllegalTransitionError
	var preconditionErr *recruitment.PreconditionFailedError
	var stateErr *recruitment.IllegalStateError

	switch {
	case errors.As(err, &transitionErr), errors.As(err, &stateErr):
		c.JSON(http.StatusConflict, utilities.ErrorResponse{Error: err.Error()})
	case errors.As(err, &preconditionErr):
		c.JSON(http.StatusPreconditionFailed, utilities.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: err.Error()})
	}
}

var allowedDocumentExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// readDocumentFile reads the uploaded "document" form file and validates its
// extension.
func (cc *CandidateController) readDocumentFile(c *gin.Context) ([]byte, string, bool) {
	rawFile, err := c.FormFile("document")
	var maxBytesError *http.MaxBytesError
	if errors.As(err, &maxBytesError) {
		c.JSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{
			Error: err.Error(),
		})
		return nil, "", false
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve file: %s", err.Error()),
		})
		return nil, "", false
	}

	extension := strings.ToLower(filepath.Ext(rawFile.Filename))
	if !allowedDocumentExtensions[extension] {
		c.JSON(http.StatusUnsupportedMediaType, utilities.ErrorResponse{
			Error: fmt.Sprintf("Unsupported file extension: %s", extension),
		})
		return nil, "", false
	}

	f, err := rawFile.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Cannot open file"})
		return nil, "", false
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("failed to close uploaded file: %v", err)
		}
	}()

	fileBytes, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Cannot read file"})
		return nil, "", false
	}

	return fileBytes, extension, true
}
