package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Role names carried in the JWT "role" claim.  Admins can list and
// inspect bookings across users; only super admins may force a booking
// status transition.
const (
    RoleCustomer   = "CUSTOMER"
    RoleAdmin      = "ADMIN"
    RoleSuperAdmin = "SUPER_ADMIN"
)

// RequireRole returns a middleware that enforces that the authenticated
// user carries one of the given roles.  It assumes JWTAuth has already
// stored the role in the context under "role"; a missing or unknown
// role is rejected with 403 Forbidden.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get("role").(string)
            if !ok || !allowed[role] {
                return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
