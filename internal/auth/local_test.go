package auth

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"

	"PeopleFlow-backend/internal/database"
	"PeopleFlow-backend/internal/utilities"
)

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	var err error
	var teardown func(context.Context, ...testcontainers.TerminateOption) error
	teardown, testDB, err = database.GetTestDB()
	if err != nil {
		os.Exit(1)
	}
	m.Run()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if teardown != nil {
		_ = teardown(ctx)
	}
}

func TestLocalRegister_Success(t *testing.T) {
	handler := NewLocalAuthHandler(testDB)
	rec, resp, err := utilities.SimulateAPICall(handler.LocalRegisterHandler, "/register", http.MethodPost, map[string]string{
		"username": "new_hr_user",
		"password": "VerySecret1!",
		"role":     "hr",
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, resp["access_token"])
}

func TestLocalRegister_DuplicateUsername(t *testing.T) {
	handler := NewLocalAuthHandler(testDB)
	rec, _, err := utilities.SimulateAPICall(handler.LocalRegisterHandler, "/register", http.MethodPost, map[string]string{
		"username": database.TestUserHR.Username,
		"password": "VerySecret1!",
		"role":     "hr",
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLocalRegister_ShortPassword(t *testing.T) {
	handler := NewLocalAuthHandler(testDB)
	rec, _, err := utilities.SimulateAPICall(handler.LocalRegisterHandler, "/register", http.MethodPost, map[string]string{
		"username": "short_pw_user",
		"password": "short",
		"role":     "employee",
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLocalRegister_InvalidRole(t *testing.T) {
	handler := NewLocalAuthHandler(testDB)
	rec, _, err := utilities.SimulateAPICall(handler.LocalRegisterHandler, "/register", http.MethodPost, map[string]string{
		"username": "wannabe_admin",
		"password": "VerySecret1!",
		"role":     "admin",
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLocalLogin_Success(t *testing.T) {
	handler := NewLocalAuthHandler(testDB)
	rec, resp, err := utilities.SimulateAPICall(handler.LocalLoginHandler, "/login", http.MethodPost, map[string]string{
		"username": database.TestUserHR.Username,
		"password": database.TestSeedPassword,
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, resp["access_token"])
}

func TestLocalLogin_EmployeeGetsProfile(t *testing.T) {
	handler := NewLocalAuthHandler(testDB)
	rec, resp, err := utilities.SimulateAPICall(handler.LocalLoginHandler, "/login", http.MethodPost, map[string]string{
		"username": database.TestUserEmployee1.Username,
		"password": database.TestSeedPassword,
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, resp["access_token"])

	user, ok := resp["user"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, database.TestEmployee1.EmployeeCode, user["employee_code"])
}

func TestLocalLogin_WrongPassword(t *testing.T) {
	handler := NewLocalAuthHandler(testDB)
	rec, _, err := utilities.SimulateAPICall(handler.LocalLoginHandler, "/login", http.MethodPost, map[string]string{
		"username": database.TestUserHR.Username,
		"password": "definitely-wrong",
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLocalLogin_UnknownUser(t *testing.T) {
	handler := NewLocalAuthHandler(testDB)
	rec, _, err := utilities.SimulateAPICall(handler.LocalLoginHandler, "/login", http.MethodPost, map[string]string{
		"username": "ghost",
		"password": "whatever123",
	})
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
