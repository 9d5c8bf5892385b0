package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mynu/mynu-backend/internal/app/model"
	"github.com/mynu/mynu-backend/internal/authz"
	"github.com/mynu/mynu-backend/internal/errors"
)

// UserFinder loads the current user row.
type UserFinder interface {
	FindByID(id uint) (*model.User, error)
}

// RequirePermission checks the permission against the user's current role. The
// role is read from the database because subscription changes do not reissue tokens.
func RequirePermission(registry *authz.Registry, users UserFinder, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		userID, ok := GetUserID(c)
		if !ok {
			errors.Unauthorized(c, "")
			c.Abort()
			return
		}

		role, _ := GetUserRole(c)
		if users != nil {
			user, err := users.FindByID(userID)
			if err != nil {
				log.Warn("Authenticated user not found", map[string]interface{}{
					"user_id": userID,
				})
				errors.Unauthorized(c, "")
				c.Abort()
				return
			}
			role = user.Role
			c.Set(UserRoleKey, role)
		}

		if !registry.Can(role, permission) {
			log.Warn("Permission denied", map[string]interface{}{
				"user_id":    userID,
				"role":       role,
				"permission": permission,
			})
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzPermissionMissing, "Seu plano não inclui este recurso. Assine um plano para continuar")
			c.Abort()
			return
		}

		c.Next()
	}
}
