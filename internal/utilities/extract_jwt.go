package utilities

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// ExtractBearerToken pulls the token out of the Authorization header.
func ExtractBearerToken(c *gin.Context) (string, error) {
	const bearerSchema = "Bearer "
	authHeader := c.GetHeader("Authorization")

	if len(authHeader) <= len(bearerSchema) {
		return "", fmt.Errorf("Invalid authorization header")
	}

	return authHeader[len(bearerSchema):], nil
}
