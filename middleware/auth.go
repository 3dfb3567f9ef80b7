package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"ethics-review-api/models"
	"ethics-review-api/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload expected from the token issuer. Only HS256 tokens
// signed with JWT_SECRET are accepted.
type Claims struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the bearer token and resolves the caller through
// the directory. The directory's role wins over the token's so a role change
// applies without re-login.
func AuthMiddleware(directory services.Directory, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get token from header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authorization header is required"})
			c.Abort()
			return
		}

		// Check Bearer prefix
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid or expired token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*Claims)
		if !ok || claims.UserID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid token claims"})
			c.Abort()
			return
		}

		// Check if user still exists
		identity, err := directory.Lookup(c.Request.Context(), claims.UserID)
		if err != nil {
			if !errors.Is(err, services.ErrUnknownIdentity) {
				log.Printf("auth: directory lookup for %s failed: %v", claims.UserID, err)
			}
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not found"})
			c.Abort()
			return
		}

		// Set user info in context
		c.Set("userID", identity.ID)
		c.Set("email", identity.Email)
		c.Set("role", identity.Role)

		c.Next()
	}
}

// CurrentActor returns the caller resolved by AuthMiddleware.
func CurrentActor(c *gin.Context) (services.Actor, bool) {
	userID := c.GetString("userID")
	roleVal, exists := c.Get("role")
	if userID == "" || !exists {
		return services.Actor{}, false
	}
	role, ok := roleVal.(models.Role)
	if !ok {
		return services.Actor{}, false
	}
	return services.Actor{ID: userID, Role: role}, true
}

// RequireRole checks if user has specific role
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, exists := CurrentActor(c)
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Role not found"})
			c.Abort()
			return
		}

		allowed := false
		for _, role := range roles {
			if actor.Role == role {
				allowed = true
				break
			}
		}

		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}
