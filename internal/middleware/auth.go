package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/basel-ax/roomdream/internal/domain"
)

const userIDKey = "roomdream.user_id"

// Authenticate verifies an HS256 bearer token and stores its subject as the
// user id. Requests without a valid token are rejected before any handler runs.
func Authenticate(secret []byte, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := parseToken(c.GetHeader("Authorization"), secret, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"code": domain.KindUnauthorized, "message": "authentication required"},
			})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" when there is none.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func parseToken(header string, secret []byte, issuer string) (string, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return "", errors.New("missing bearer token")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if issuer != "" && !claims.VerifyIssuer(issuer, true) {
		return "", errors.New("unexpected issuer")
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}

	return claims.Subject, nil
}
