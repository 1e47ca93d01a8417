package auth

import "github.com/gin-gonic/gin"

// GetPrincipal returns the principal AuthRequired stored in the request context, or false if the
// request was not authenticated.
func GetPrincipal(c *gin.Context) (Principal, bool) {
	return FromContext(c.Request.Context())
}
