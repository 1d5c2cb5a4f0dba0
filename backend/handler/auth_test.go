package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/AnTengye/contractreview/backend/config"
	"github.com/AnTengye/contractreview/backend/middleware"
)

func authTestConfig(users ...config.User) *config.Config {
	return &config.Config{
		Auth:  config.AuthConfig{JWTSecret: "test-secret", TokenExpireHours: 24},
		Users: users,
	}
}

func postLogin(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthHandlerLogin(t *testing.T) {
	cfg := authTestConfig(config.User{Username: "reviewer", Password: "testpass", Tenant: "legal"})
	router := gin.New()
	router.POST("/login", NewAuthHandler(cfg).Login)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid login", `{"username": "reviewer", "password": "testpass"}`, http.StatusOK},
		{"unknown user", `{"username": "nobody", "password": "testpass"}`, http.StatusUnauthorized},
		{"wrong password", `{"username": "reviewer", "password": "wrong"}`, http.StatusUnauthorized},
		{"missing password", `{"username": "reviewer"}`, http.StatusBadRequest},
		{"invalid json", `invalid json`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postLogin(router, tt.body)
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp LoginResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "reviewer", resp.Username)
			assert.Equal(t, "legal", resp.Tenant)
			assert.NotEmpty(t, resp.ExpiresAt)

			claims, err := middleware.ParseToken(resp.Token, &cfg.Auth)
			require.NoError(t, err)
			assert.Equal(t, "legal", claims.Tenant)
		})
	}
}

func TestAuthHandlerLoginBcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := authTestConfig(config.User{Username: "hashed", Password: string(hash), Tenant: "t"})
	router := gin.New()
	router.POST("/login", NewAuthHandler(cfg).Login)

	assert.Equal(t, http.StatusOK, postLogin(router, `{"username": "hashed", "password": "s3cret"}`).Code)

	body, _ := json.Marshal(map[string]string{"username": "hashed", "password": string(hash)})
	assert.Equal(t, http.StatusUnauthorized, postLogin(router, string(body)).Code,
		"the stored hash itself must not be accepted as a password")
}

func TestCheckPassword(t *testing.T) {
	tests := []struct {
		stored, given string
		want          bool
	}{
		{"plain", "plain", true},
		{"plain", "other", false},
		{"plain", "", false},
		{"$2a$10$invalidhash", "anything", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, checkPassword(tt.stored, tt.given), "%q vs %q", tt.stored, tt.given)
	}
}

func TestAuthHandlerGetCurrentUser(t *testing.T) {
	router := withTenant("GET", "/me", NewAuthHandler(authTestConfig()).GetCurrentUser)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/me", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, map[string]string{"username": "alice", "tenant": "tenant1"}, resp)
}
