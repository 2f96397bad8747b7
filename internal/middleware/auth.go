package middleware

import (
	"errors"
	"net/http"
	"strings"

	"balcao/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ClaimsKey = "claims"
)

// Roles carried by tokens of the identity provider.
const (
	RoleOperator = "operator"
	RoleManager  = "manager"
	RoleAdmin    = "admin"
)

var errNoStore = errors.New("token has no store")

// JWTClaims are the custom claims embedded in every access token. Tokens are
// issued elsewhere; this service only verifies them.
type JWTClaims struct {
	UserID  string `json:"user_id"`
	StoreID string `json:"store_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuth validates the Bearer token on every protected route.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Autenticação necessária"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("Token inválido ou expirado"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects requests whose JWT role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims, ok := c.MustGet(ClaimsKey).(*JWTClaims)
		if !ok || !allowed[claims.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("Permissão insuficiente"))
			return
		}
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *JWTClaims {
	claims, _ := c.MustGet(ClaimsKey).(*JWTClaims)
	return claims
}

// StoreID returns the store the token is bound to.
func StoreID(c *gin.Context) (uuid.UUID, error) {
	claims, _ := c.Get(ClaimsKey)
	jc, ok := claims.(*JWTClaims)
	if !ok {
		return uuid.Nil, errNoStore
	}
	id, err := uuid.Parse(jc.StoreID)
	if err != nil {
		return uuid.Nil, errNoStore
	}
	return id, nil
}

// UserID returns the operator behind the token, or nil.
func UserID(c *gin.Context) *uuid.UUID {
	claims, _ := c.Get(ClaimsKey)
	jc, ok := claims.(*JWTClaims)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(jc.UserID)
	if err != nil {
		return nil
	}
	return &id
}
