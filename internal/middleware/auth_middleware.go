package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims is the token shape issued by the external identity service.
// The dispatch core trusts the entity id and role once the signature checks
// out; credential issuance itself lives elsewhere.
type JWTClaims struct {
	EntityID   string `json:"entity_id"`
	EntityType string `json:"entity_type"`
	jwt.RegisteredClaims
}

// AuthRequired validates the bearer token and sets entity context.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
			c.Abort()
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*JWTClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		if claims.EntityID == "" || claims.EntityType == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Incomplete token claims"})
			c.Abort()
			return
		}

		c.Set("entity_id", claims.EntityID)
		c.Set("entity_type", claims.EntityType)

		c.Next()
	}
}

// RoleRequired restricts a route to the given entity types.
func RoleRequired(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		entityType, exists := c.Get("entity_type")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Entity type not found"})
			c.Abort()
			return
		}

		entityTypeStr, ok := entityType.(string)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid entity type"})
			c.Abort()
			return
		}

		for _, role := range roles {
			if entityTypeStr == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient role"})
		c.Abort()
	}
}
