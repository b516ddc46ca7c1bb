package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HeaderUserID carries the authenticated user id, set by the upstream
// gateway. Authentication itself happens outside this service.
const HeaderUserID = "X-User-ID"

// userID extracts the authenticated user id or aborts with 401.
func userID(c *gin.Context) (string, bool) {
	id := c.GetHeader(HeaderUserID)
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return "", false
	}
	return id, true
}
