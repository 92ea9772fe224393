package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/grandbet/deposit-service/internal/api/handlers/common"
	"github.com/grandbet/deposit-service/internal/domain/entities"
)

// PlayerClaims are the JWT claims issued by the platform's auth service.
// This service only validates them; issuing is out of scope.
type PlayerClaims struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the bearer token and installs the user
// profile the deposit flow depends on.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			common.RespondUnauthorized(c, "Missing bearer token")
			c.Abort()
			return
		}

		claims := &PlayerClaims{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims,
			func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
		if err != nil || !token.Valid {
			common.RespondUnauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			common.RespondUnauthorized(c, "Invalid token subject")
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("user_profile", entities.UserProfile{
			ID:          userID,
			DisplayName: claims.DisplayName,
			Email:       claims.Email,
		})
		c.Next()
	}
}
