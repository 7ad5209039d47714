package middleware

import "github.com/gin-gonic/gin"

// MustGetUserID gets the user ID from context or panics. Only for handlers
// behind Auth().
func MustGetUserID(c *gin.Context) int64 {
	userID, exists := GetUserID(c)
	if !exists {
		panic("user_id not found in context")
	}
	return userID
}

// MustGetJTI gets the token ID from context or panics.
func MustGetJTI(c *gin.Context) string {
	jti, exists := GetJTI(c)
	if !exists {
		panic("jti not found in context")
	}
	return jti
}

// IsAuthenticated checks if the request carries a validated principal.
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get("user_id")
	return exists
}

// IsAdmin checks if the principal is a back-office admin.
func IsAdmin(c *gin.Context) bool {
	return HasRole(c, "admin")
}
