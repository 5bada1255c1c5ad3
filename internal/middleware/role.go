package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Role values carried in the JWT "role" claim.
const (
	RoleOwner    = "OWNER"
	RoleStaff    = "STAFF"
	RoleCustomer = "CUSTOMER"
)

// RequireRole enforces that the authenticated caller holds one of the
// given roles. It assumes JWTAuth already stored the role claim in the
// context under "role"; anything else is rejected with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("role").(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
