// Package httpctx reads and writes the per-request viewer identity that the
// token middleware stores on the gin context.
package httpctx

import "github.com/gin-gonic/gin"

const (
	userIDKey  = "viewerID"
	isAdminKey = "viewerIsAdmin"
)

// SetViewer records the authenticated user on the request context.
func SetViewer(c *gin.Context, userID uint, isAdmin bool) {
	c.Set(userIDKey, userID)
	c.Set(isAdminKey, isAdmin)
}

// CurrentUserID returns the authenticated user's id, if any.
func CurrentUserID(c *gin.Context) (uint, bool) {
	uid, ok := c.Value(userIDKey).(uint)
	return uid, ok
}

// IsAdminRequest reports whether the request came from an admin account.
func IsAdminRequest(c *gin.Context) bool {
	isAdmin, ok := c.Value(isAdminKey).(bool)
	return ok && isAdmin
}
