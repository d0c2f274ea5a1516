package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lwm2mbridge/pkg/config"
	"lwm2mbridge/pkg/dispatcher"
	"lwm2mbridge/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeDispatcher struct {
	result   models.OperationResult
	received *models.OperationRequest
	operator string
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, req models.OperationRequest) models.OperationResult {
	f.received = &req
	f.operator, _ = dispatcher.OperatorFrom(ctx)
	return f.result
}

func newRouter(t *testing.T, d OperationDispatcher) (*gin.Engine, *JwtAuth) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("pass"), bcrypt.MinCost)
	require.NoError(t, err)
	auth := Auth(&config.Config{
		JWTSecret:            "test-secret",
		AdminUser:            "admin",
		AdminHash:            string(hash),
		SessionDurationHours: 1,
	})

	router := gin.New()
	router.Use(SecurityHeaders())
	RegisterHealthRoute(router)
	router.POST("/login", auth.LoginHandler)
	g := router.Group("/api/v1")
	g.Use(auth.JWTMiddleware())
	RegisterOperationRoute(g, d)
	return router, auth
}

func login(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"admin","password":"pass"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expiresIn"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	assert.Equal(t, 3600, body.ExpiresIn)
	return body.Token
}

func TestOperationRoutePassesResultThrough(t *testing.T) {
	d := &fakeDispatcher{result: models.OperationResult{StatusCode: http.StatusNotAcceptable, Body: `{"error":"operation foo is not implemented for AWS-CoioteDM integration"}`}}
	router, _ := newRouter(t, d)
	token := login(t, router)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/operations", strings.NewReader(`{"operation":"foo","thingName":"t","keys":["3/0/1"]}`))
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotAcceptable, w.Code)
	assert.JSONEq(t, d.result.Body, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	require.NotNil(t, d.received)
	assert.Equal(t, []string{"3/0/1"}, d.received.Keys)
	assert.Equal(t, "admin", d.operator)
}

func TestOperationRouteRejectsMalformedJSON(t *testing.T) {
	d := &fakeDispatcher{}
	router, _ := newRouter(t, d)
	token := login(t, router)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/operations", strings.NewReader(`{"keys": "not-an-array"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid operation request")
	assert.Nil(t, d.received)
}

func TestOperationRouteRequiresToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header"},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "bad token", header: "Bearer not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDispatcher{}
			router, _ := newRouter(t, d)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/operations", strings.NewReader(`{}`))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Nil(t, d.received)
		})
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	router, _ := newRouter(t, &fakeDispatcher{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"admin","password":"nope"}`))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"invalid credentials"}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	router, _ := newRouter(t, &fakeDispatcher{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func signed(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, OperatorClaims{RegisteredClaims: claims}).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestOperationRouteRejectsForeignTokens(t *testing.T) {
	secret := []byte("test-secret")
	now := time.Now()
	valid := jwt.RegisteredClaims{
		Issuer:    TokenIssuer,
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	foreignIssuer := valid
	foreignIssuer.Issuer = "nms-lite"
	noIssuer := valid
	noIssuer.Issuer = ""
	otherSubject := valid
	otherSubject.Subject = "mallory"
	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "own token", token: signed(t, jwt.SigningMethodHS256, secret, valid), want: http.StatusOK},
		{name: "foreign issuer", token: signed(t, jwt.SigningMethodHS256, secret, foreignIssuer), want: http.StatusUnauthorized},
		{name: "missing issuer", token: signed(t, jwt.SigningMethodHS256, secret, noIssuer), want: http.StatusUnauthorized},
		{name: "other subject", token: signed(t, jwt.SigningMethodHS256, secret, otherSubject), want: http.StatusUnauthorized},
		{name: "expired", token: signed(t, jwt.SigningMethodHS256, secret, expired), want: http.StatusUnauthorized},
		{name: "other hmac", token: signed(t, jwt.SigningMethodHS512, secret, valid), want: http.StatusUnauthorized},
		{name: "wrong secret", token: signed(t, jwt.SigningMethodHS256, []byte("other"), valid), want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &fakeDispatcher{result: models.OperationResult{StatusCode: http.StatusOK, Body: `{}`}}
			router, _ := newRouter(t, d)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/operations", strings.NewReader(`{"operation":"read","thingName":"t","keys":["3"]}`))
			req.Header.Set("Authorization", "Bearer "+tt.token)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want != http.StatusOK {
				assert.Nil(t, d.received)
			}
		})
	}
}

func TestLoginTokenClaims(t *testing.T) {
	router, _ := newRouter(t, &fakeDispatcher{})
	token := login(t, router)

	claims := &OperatorClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, TokenIssuer, claims.Issuer)
	assert.Equal(t, "admin", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}
