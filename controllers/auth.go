package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// AnonymousUser The user of requests without a token
const AnonymousUser = "anonymous"

const userKey = "username"

// JwtAuthMiddleware Resolve the current user from an HS256 bearer token signed with secret.
// Without a secret tokens are not checked and every request is anonymous.
// With a secret every request needs a valid token.
func JwtAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Set(userKey, AnonymousUser)
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		username, err := parseToken(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			log.Debug(fmt.Sprintf("Rejecting token: %s", err.Error()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(userKey, username)
		c.Next()
	}
}

// parseToken Verify the token and return its username claim
func parseToken(tokenString string, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid claims")
	}
	username, ok := claims[userKey].(string)
	if !ok || username == "" {
		return "", errors.New("token has no username")
	}
	return username, nil
}

// CurrentUser The user resolved by JwtAuthMiddleware
func CurrentUser(c *gin.Context) string {
	if username := c.GetString(userKey); username != "" {
		return username
	}
	return AnonymousUser
}
