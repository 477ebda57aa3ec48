package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// AuthMiddleware authenticates the request and resolves the caller's
// tenant. JWT callers carry their group_id as a claim; the master API key
// bypasses JWT validation but must name the tenant explicitly through the
// X-Group-ID header, since the key itself belongs to no tenant.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		token := strings.Split(authHeader, " ")[1]
		app := c.(*AppContext).App

		// Master API Key bypass
		if app.MasterAPIKey != "" && token == app.MasterAPIKey {
			groupID := c.Request().Header.Get("X-Group-ID")
			if groupID == "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "X-Group-ID header required with master key"})
			}
			c.(*AppContext).User = &AppUser{
				GroupID: groupID,
				Role:    "admin",
			}
			return next(c)
		}

		// Parse JWT token
		k := *app.Key
		parsed, err := jwt.Parse(token, k.Keyfunc)
		if err != nil || !parsed.Valid {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		}

		var userID int64
		if idClaim, ok := claims["id"].(string); ok {
			userID, err = strconv.ParseInt(idClaim, 10, 64)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid user ID"})
			}
		} else if idFloat, ok := claims["id"].(float64); ok {
			userID = int64(idFloat)
		} else {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid user ID"})
		}

		groupID, ok := claims["group_id"].(string)
		if !ok || groupID == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Token carries no group"})
		}

		role := "user"
		if roleClaim, ok := claims["role"].(string); ok {
			role = roleClaim
		}

		c.(*AppContext).User = &AppUser{
			UserID:  userID,
			GroupID: groupID,
			Role:    role,
		}

		return next(c)
	}
}
