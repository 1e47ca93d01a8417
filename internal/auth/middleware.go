package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/heejin0702/anpetna-care/internal/pkg/apperror"
	"github.com/heejin0702/anpetna-care/internal/pkg/response"
)

var (
	errMissingHeader = apperror.Unauthorized("missing Authorization header")
	errHeaderFormat  = apperror.Unauthorized("invalid Authorization header format")
	errInvalidToken  = apperror.Unauthorized("invalid or expired token")
	errNoPrincipal   = apperror.Unauthorized("unauthorized")
	errAdminOnly     = apperror.Forbidden("forbidden: admin access required")
)

// AuthRequired validates the bearer token and attaches the principal to the request.
func AuthRequired(jwtManager *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, errMissingHeader)
			return
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
			abort(c, errHeaderFormat)
			return
		}

		principal, err := jwtManager.ParseAndValidate(token)
		if err != nil {
			_ = c.Error(err)
			abort(c, errInvalidToken)
			return
		}

		c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), principal))

		c.Next()
	}
}

// RequireAdmin ensures the authenticated principal is an administrator.
// It MUST be used after AuthRequired.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		switch {
		case !ok:
			abort(c, errNoPrincipal)
		case !p.IsAdmin():
			abort(c, errAdminOnly)
		default:
			c.Next()
		}
	}
}

func abort(c *gin.Context, err *apperror.AppError) {
	response.Error(c, err)
	c.Abort()
}
