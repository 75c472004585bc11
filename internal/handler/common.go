package handler // handler defines http handlers

import (
    "errors"

    "github.com/labstack/echo/v4"
)

// getUserID extracts the authenticated user's id from echo.Context.
// JWTAuth stores the token's subject claim under "user_id"; bookings
// reference users by uuid, so only string subjects are accepted.
func getUserID(c echo.Context) (string, error) {
    if v, ok := c.Get("user_id").(string); ok && v != "" {
        return v, nil
    }
    return "", errors.New("invalid user_id in context")
}
