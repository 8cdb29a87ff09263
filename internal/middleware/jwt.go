package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserIDKey is the gin context key holding the caller's profile id.
const UserIDKey = "userID"

const clockSkew = 30 * time.Second

// JWTAuth accepts HS256 bearer tokens whose subject is a profile uuid and
// stores that uuid under UserIDKey. Every rejection is a 401 with reason
// "unauthenticated"; the message says which check failed.
func JWTAuth(secret string) gin.HandlerFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(clockSkew),
	)
	key := []byte(secret)

	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			reject(c, "missing or invalid authorization header")
			return
		}

		var claims jwt.RegisteredClaims
		if _, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) { return key, nil }); err != nil {
			reject(c, "invalid token")
			return
		}
		if claims.Subject == "" {
			reject(c, "sub missing in token")
			return
		}
		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			reject(c, "sub is not a profile id")
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func reject(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "reason": "unauthenticated"})
}
