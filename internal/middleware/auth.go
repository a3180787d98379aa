package middleware

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"accounts-api/internal/cache"
	"accounts-api/internal/entities"
	"accounts-api/internal/jwt"
	"accounts-api/internal/repository"
)

// Context key under which the authenticated user is stored.
const userContextKey = "user"

// TTL for cached user records loaded by the guard.
const userCacheTTL = time.Minute

// AuthMiddleware returns a Gin middleware that verifies the bearer token,
// loads the full user record, and attaches it to the request context.
// cacheClient may be nil; lookups then always hit the repository.
func AuthMiddleware(jwtService *jwt.JWTService, userRepo repository.UserRepository, cacheClient cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Missing or malformed authorization header",
			})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		user, err := loadUser(c, claims.UserID, userRepo, cacheClient)
		if err != nil {
			// Token is valid but the account no longer exists.
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// loadUser fetches the user behind a token, going through the cache when one
// is available.
func loadUser(c *gin.Context, id int64, userRepo repository.UserRepository, cacheClient cache.Cache) (*entities.User, error) {
	ctx := c.Request.Context()
	key := fmt.Sprintf("user:%d", id)

	if cacheClient != nil {
		var cached entities.User
		if err := cacheClient.GetJSON(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if cacheClient != nil {
		if err := cacheClient.SetJSON(ctx, key, user, userCacheTTL); err != nil {
			log.Printf("Warning: failed to cache user %d: %v", id, err)
		}
	}
	return user, nil
}

// CurrentUser returns the authenticated user attached by AuthMiddleware
func CurrentUser(c *gin.Context) (*entities.User, bool) {
	val, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	user, ok := val.(*entities.User)
	return user, ok
}
