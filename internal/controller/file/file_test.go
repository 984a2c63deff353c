package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"

	"PeopleFlow-backend/internal/database"
	"PeopleFlow-backend/internal/model"
)

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	var err error
	var midTeardown func(context.Context, ...testcontainers.TerminateOption) error
	midTeardown, testDB, err = database.GetTestDB()
	if err != nil {
		os.Exit(1)
	}
	m.Run()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if midTeardown != nil {
		_ = midTeardown(ctx)
	}
}

type mockStorageClient struct {
	objects map[string][]byte
}

func newMockStorageClient() *mockStorageClient {
	return &mockStorageClient{
		objects: make(map[string][]byte),
	}
}

func (m *mockStorageClient) UploadFile(objectName string, fileData io.Reader) error {
	data, err := io.ReadAll(fileData)
	if err != nil {
		return err
	}
	m.objects[objectName] = data
	return nil
}

func (m *mockStorageClient) DownloadFile(objectName string) (io.ReadCloser, int64, error) {
	data, ok := m.objects[objectName]
	if !ok {
		return nil, 0, fmt.Errorf("object %s not found", objectName)
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (m *mockStorageClient) ListObjects(prefix string) ([]string, error) {
	var names []string
	for name := range m.objects {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func getFile(r *gin.Engine, id string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, "/file/"+id, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGetFile_Inline(t *testing.T) {
	f := model.File{Content: []byte("inline blob"), Extension: ".pdf"}
	assert.NoError(t, testDB.Create(&f).Error)

	r := gin.New()
	fc := NewFileController(testDB, nil)
	r.GET("/file/:id", fc.GetFile)

	rec := getFile(r, fmt.Sprint(f.ID))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "inline blob", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".pdf")
}

func TestGetFile_FromStorage(t *testing.T) {
	mockStorage := newMockStorageClient()
	objectName := "candidate-documents/test-object.pdf"
	mockStorage.objects[objectName] = []byte("remote blob")

	f := model.File{Extension: ".pdf", StorageObjectName: &objectName}
	assert.NoError(t, testDB.Create(&f).Error)

	r := gin.New()
	fc := NewFileController(testDB, mockStorage)
	r.GET("/file/:id", fc.GetFile)

	rec := getFile(r, fmt.Sprint(f.ID))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "remote blob", rec.Body.String())
}

func TestGetFile_RemoteWithoutStorage(t *testing.T) {
	objectName := "candidate-documents/orphan.pdf"
	f := model.File{Extension: ".pdf", StorageObjectName: &objectName}
	assert.NoError(t, testDB.Create(&f).Error)

	r := gin.New()
	fc := NewFileController(testDB, nil)
	r.GET("/file/:id", fc.GetFile)

	rec := getFile(r, fmt.Sprint(f.ID))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetFile_NotFound(t *testing.T) {
	r := gin.New()
	fc := NewFileController(testDB, nil)
	r.GET("/file/:id", fc.GetFile)

	rec := getFile(r, "999999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListStoredObjects_PrefixFilter(t *testing.T) {
	mockStorage := newMockStorageClient()
	mockStorage.objects["candidate-documents/a.pdf"] = []byte("a")
	mockStorage.objects["candidate-documents/b.png"] = []byte("b")
	mockStorage.objects["photos/c.png"] = []byte("c")

	r := gin.New()
	fc := NewFileController(testDB, mockStorage)
	r.GET("/file", fc.ListStoredObjects)

	req, _ := http.NewRequest(http.MethodGet, "/file?prefix=candidate-documents/", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"candidate-documents/a.pdf", "candidate-documents/b.png"}, resp["objects"])
}

func TestListStoredObjects_StorageDisabled(t *testing.T) {
	r := gin.New()
	fc := NewFileController(testDB, nil)
	r.GET("/file", fc.ListStoredObjects)

	req, _ := http.NewRequest(http.MethodGet, "/file", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]string
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp["objects"])
}

func TestPersistFileData_Inline(t *testing.T) {
	var f model.File
	assert.NoError(t, PersistFileData(nil, &f, []byte("payload"), ".png", "photos"))

	assert.Equal(t, []byte("payload"), f.Content)
	assert.Equal(t, ".png", f.Extension)
	assert.Nil(t, f.StorageObjectName)
}

func TestPersistFileData_WithStorage(t *testing.T) {
	mockStorage := newMockStorageClient()

	var f model.File
	assert.NoError(t, PersistFileData(mockStorage, &f, []byte("payload"), ".png", "photos"))

	assert.Nil(t, f.Content)
	if assert.NotNil(t, f.StorageObjectName) {
		assert.Contains(t, *f.StorageObjectName, "photos/")
		assert.Equal(t, []byte("payload"), mockStorage.objects[*f.StorageObjectName])
	}
}
