package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "hearth/internal/errors"
	"hearth/internal/models"
)

const (
	userIDKey      = "userID"
	emailKey       = "email"
	tokenIssuer    = "hearth-api"
	accessTokenTyp = "access"
)

// JWTClaims represents the claims in the JWT
type JWTClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies access tokens with a shared HMAC secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer whose tokens live for ttl.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateAccessToken generates a JWT access token for a user.
func (i *TokenIssuer) GenerateAccessToken(user *models.User) (string, error) {
	now := i.now()
	claims := &JWTClaims{
		UserID:    user.ID,
		Email:     user.Email,
		TokenType: accessTokenTyp,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// ParseAccessToken validates tokenString and returns its claims.
func (i *TokenIssuer) ParseAccessToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.TokenType != accessTokenTyp || claims.UserID == "" {
		return nil, fmt.Errorf("token is not an access token")
	}
	return claims, nil
}

// AuthMiddleware verifies the bearer token and sets the user in the context.
func AuthMiddleware(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Authorization header is required"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid authorization header format"))
			return
		}

		claims, err := issuer.ParseAccessToken(parts[1])
		if err != nil {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid or expired token"))
			return
		}

		c.Set(userIDKey, claims.UserID)
		c.Set(emailKey, claims.Email)
		c.Next()
	}
}

func abortWithError(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.StatusCode, gin.H{
		"error": gin.H{
			"code":    err.Code,
			"message": err.Message,
		},
	})
}
