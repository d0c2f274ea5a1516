package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"lwm2mbridge/pkg/config"
	"lwm2mbridge/pkg/dispatcher"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer is the iss claim of every operator session token.
const TokenIssuer = "lwm2m-bridge"

// operatorKey is the gin context key holding the authenticated operator.
const operatorKey = "operator"

// OperatorClaims identify the operator allowed to trigger LwM2M operations.
// The operator name travels in the subject claim.
type OperatorClaims struct {
	jwt.RegisteredClaims
}

// JwtAuth issues and checks operator session tokens.
type JwtAuth struct {
	secret      []byte
	operator    string
	passHash    []byte
	sessionTime time.Duration
	now         func() time.Time
}

// Auth creates a JwtAuth for the single configured operator.
func Auth(cfg *config.Config) *JwtAuth {
	return &JwtAuth{
		secret:      []byte(cfg.JWTSecret),
		operator:    cfg.AdminUser,
		passHash:    []byte(cfg.AdminHash),
		sessionTime: time.Duration(cfg.SessionDurationHours) * time.Hour,
		now:         time.Now,
	}
}

// LoginRequest represents the login payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler checks the operator credentials and issues a session token.
func (a *JwtAuth) LoginHandler(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	// Same answer for unknown user and wrong password
	if req.Username != a.operator || bcrypt.CompareHashAndPassword(a.passHash, []byte(req.Password)) != nil {
		respondError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := a.issue(req.Username)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to sign token")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "expiresIn": int(a.sessionTime.Seconds())})
}

func (a *JwtAuth) issue(operator string) (string, error) {
	now := a.now()
	claims := OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   operator,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.sessionTime)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// verify parses a bearer token and returns the operator it was issued to.
func (a *JwtAuth) verify(tokenString string) (string, error) {
	claims := &OperatorClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", errors.New("invalid or expired token")
	}
	if !claims.VerifyIssuer(TokenIssuer, true) {
		return "", errors.New("token was not issued by " + TokenIssuer)
	}
	if claims.Subject != a.operator {
		return "", errors.New("token subject is not the configured operator")
	}
	return claims.Subject, nil
}

// JWTMiddleware admits requests carrying a valid operator token and records
// the operator on the request context for the dispatcher logs.
func (a *JwtAuth) JWTMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respondError(c, http.StatusUnauthorized, "authorization header required")
			return
		}

		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") {
			respondError(c, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		operator, err := a.verify(tokenString)
		if err != nil {
			respondError(c, http.StatusUnauthorized, err.Error())
			return
		}

		c.Set(operatorKey, operator)
		c.Request = c.Request.WithContext(dispatcher.WithOperator(c.Request.Context(), operator))
		c.Next()
	}
}

// SecurityHeaders returns a middleware that sets security headers
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
