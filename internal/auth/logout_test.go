package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
)

func logoutContext(token string, claims *jwt.RegisteredClaims) (*httptest.ResponseRecorder, *gin.Context) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	req, _ := http.NewRequest(http.MethodPost, "/logout", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	c.Request = req
	if claims != nil {
		c.Set("claims", claims)
	}
	return rec, c
}

func TestLogout_Success(t *testing.T) {
	store := NewInMemoryBlacklistStore()
	lc := NewLogoutController(store)

	claims := &jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	rec, c := logoutContext("token-to-revoke", claims)
	lc.LogoutHandler(c)

	assert.Equal(t, http.StatusOK, rec.Code)

	blacklisted, err := store.IsBlacklisted("token-to-revoke")
	assert.NoError(t, err)
	assert.True(t, blacklisted)
}

func TestLogout_MissingToken(t *testing.T) {
	lc := NewLogoutController(NewInMemoryBlacklistStore())

	rec, c := logoutContext("", nil)
	lc.LogoutHandler(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_MissingClaims(t *testing.T) {
	lc := NewLogoutController(NewInMemoryBlacklistStore())

	rec, c := logoutContext("token-without-claims", nil)
	lc.LogoutHandler(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
