package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"steam-soundboard/backend/pkg/jwt"
	"steam-soundboard/backend/pkg/logger"
)

// BanChecker reports whether the identity is currently banned. The check
// runs against the user store on every request so a ban takes effect
// before the session token expires.
type BanChecker interface {
	IsBanned(ctx context.Context, steamID string) (bool, error)
}

// JWTAuthMiddleware validates the bearer session token and stores the
// caller's identity in the gin context.
func JWTAuthMiddleware(jwtService *jwt.Service, bans BanChecker, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		if bans != nil {
			banned, err := bans.IsBanned(c.Request.Context(), claims.SteamID)
			if err != nil {
				log.Warn("ban check failed, allowing request", "steam_id", claims.SteamID, "error", err.Error())
			} else if banned {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Your account is banned"})
				return
			}
		}

		c.Set("userID", claims.UserID)
		c.Set("steamID", claims.SteamID)
		c.Set("username", claims.Username)
		c.Set("admin", claims.Admin)

		ctx := context.WithValue(c.Request.Context(), SteamIDKey, claims.SteamID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// AdminOnly rejects callers whose session does not carry the admin flag.
// Must run after JWTAuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("admin") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}
