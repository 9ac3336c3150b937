package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emrs-app/exam-timetable-api/internal/models"
	appErrors "github.com/emrs-app/exam-timetable-api/pkg/errors"
	"github.com/emrs-app/exam-timetable-api/pkg/response"
)

// RBAC enforces role-based access control for routes.
func RBAC(allowed ...string) gin.HandlerFunc {
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed))
	for _, a := range allowed {
		allowedRoles[models.UserRole(a)] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}

// OwnDepartmentLevel lets students read only the department and level carried in their token.
// Admins pass through. Route params are named departmentId and level.
func OwnDepartmentLevel() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if claims.Role == models.RoleAdmin {
			c.Next()
			return
		}

		level, err := strconv.Atoi(c.Param("level"))
		if err != nil || claims.DepartmentID == "" || claims.DepartmentID != c.Param("departmentId") || claims.Level != level {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "students can only view their own department and level"))
			c.Abort()
			return
		}
		c.Next()
	}
}
