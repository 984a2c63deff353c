// Package file provides HTTP handlers for file-related operations.
package file

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"PeopleFlow-backend/internal/database"
	"PeopleFlow-backend/internal/model"
	"PeopleFlow-backend/internal/utilities"
)

// FileController handles file related endpoints
type FileController struct {
	DB      *database.DBinstanceStruct
	Storage StorageClient
}

// NewFileController creates a new instance of FileController
func NewFileController(db *database.DBinstanceStruct, storage StorageClient) *FileController {
	return &FileController{
		DB:      db,
		Storage: storage,
	}
}

// GetFile function retrieves a file from the database and sends it as a downloadable attachment in
// the response.
// @Summary Retrieve dowloadable attachment
// @Tags File
// @Produce octet-stream
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "ID of wanted file"
// @Success 200 {string} binary "Successfully retrieve file"
// @Failure 400 {object} utilities.ErrorResponse "Invalid authorization header"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 404 {object} utilities.ErrorResponse "Given file id not found"
// @Failure 500 {object} utilities.ErrorResponse "Fail to send file content"
// @Router /file/{id} [get]
func (fc *FileController) GetFile(c *gin.Context) {
	var file model.File
	id := c.Param("id")

	if err := fc.DB.First(&file, id).Error; err != nil {
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "File not found"})
		return
	}

	fc.writeFileResponse(c, &file)
}

func (fc *FileController) writeFileResponse(c *gin.Context, file *model.File) {
	c.Writer.Header().Set("Content-Disposition", "attachment; filename="+fmt.Sprint(file.ID)+file.Extension)
	c.Writer.Header().Set("Content-Type", "application/octet-stream")

	if file.StorageObjectName != nil {
		if fc.Storage == nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: "Cloud storage is disabled while the requested file is stored remotely",
			})
			return
		}
		reader, size, err := fc.Storage.DownloadFile(*file.StorageObjectName)
		if err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to download file from storage: %s", err.Error()),
			})
			return
		}
		defer func() {
			if err := reader.Close(); err != nil {
				log.Printf("failed to close storage reader: %v", err)
			}
		}()

		if size > 0 {
			c.Writer.Header().Set("Content-Length", fmt.Sprint(size))
		}
		if _, err := io.Copy(c.Writer, reader); err != nil {
			fc.handleWriterError(c)
		}
		return
	}

	c.Writer.Header().Set("Content-Length", fmt.Sprint(len(file.Content)))
	if _, err := c.Writer.Write(file.Content); err != nil {
		fc.handleWriterError(c)
	}
}

// ListStoredObjects returns the names of remotely stored objects, optionally
// restricted to a prefix. With cloud storage disabled there are no remote
// objects and the list is empty.
// @Summary List remotely stored objects
// @Description Only HR or admin can access this endpoint
// @Tags File
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param prefix query string false "Only list objects under this prefix"
// @Success 200 {object} map[string][]string
// @Failure 500 {object} utilities.ErrorResponse "Storage error"
// @Router /file [get]
func (fc *FileController) ListStoredObjects(c *gin.Context) {
	names := []string{}
	if fc.Storage != nil {
		listed, err := fc.Storage.ListObjects(c.Query("prefix"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to list objects: %s", err.Error()),
			})
			return
		}
		names = append(names, listed...)
	}

	c.JSON(http.StatusOK, gin.H{"objects": names})
}

func (fc *FileController) handleWriterError(c *gin.Context) {
	if !c.Writer.Written() {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: "Failed to send file content",
		})
	} else {
		c.Abort()
	}
}

// PersistFileData fills one file record from raw bytes. With a storage client
// the bytes go to the bucket and only the object name is kept; otherwise the
// content stays inline.
func PersistFileData(storage StorageClient, file *model.File, fileBytes []byte, extension, prefix string) error {
	file.Extension = extension
	if storage == nil {
		file.Content = fileBytes
		file.StorageObjectName = nil
		return nil
	}

	objectName := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), extension)
	if err := storage.UploadFile(objectName, bytes.NewReader(fileBytes)); err != nil {
		return err
	}

	file.StorageObjectName = &objectName
	file.Content = nil
	return nil
}
