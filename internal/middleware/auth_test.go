package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mockai/pkg/auth"
	"mockai/pkg/response"
)

func protectedRouter(tokens auth.TokenManager) *gin.Engine {
	router := gin.New()
	router.Use(Auth(tokens))
	router.GET("/api/v1/results", func(c *gin.Context) {
		response.Success(c, gin.H{"userId": GetUserID(c)})
	})
	return router
}

func TestAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("testsecret", 15*time.Minute)
	valid, err := jwtManager.GenerateToken("507f1f77bcf86cd799439011")
	require.NoError(t, err)
	foreign, err := auth.NewJWTManager("differentsecret", 15*time.Minute).GenerateToken("user123")
	require.NoError(t, err)
	expired, err := auth.NewJWTManager("testsecret", -time.Minute).GenerateToken("user123")
	require.NoError(t, err)

	tests := []struct {
		name           string
		header         string
		query          string
		upgrade        bool
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "valid bearer token",
			header:         "Bearer " + valid,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing header",
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "missing authorization header",
		},
		{
			name:           "token without Bearer prefix",
			header:         valid,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "invalid authorization header format",
		},
		{
			name:           "wrong scheme",
			header:         "Basic " + valid,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "invalid authorization header format",
		},
		{
			name:           "empty bearer token",
			header:         "Bearer ",
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "invalid authorization header format",
		},
		{
			name:           "garbage token",
			header:         "Bearer invalid.token.here",
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "invalid or expired token",
		},
		{
			name:           "token signed with another secret",
			header:         "Bearer " + foreign,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "invalid or expired token",
		},
		{
			name:           "expired token",
			header:         "Bearer " + expired,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "invalid or expired token",
		},
		{
			name:           "query token on websocket upgrade",
			query:          valid,
			upgrade:        true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "query token on a plain request",
			query:          valid,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "missing authorization header",
		},
		{
			name:           "invalid query token on websocket upgrade",
			query:          "invalid.token.here",
			upgrade:        true,
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "invalid or expired token",
		},
	}

	router := protectedRouter(jwtManager)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/api/v1/results"
			if tt.query != "" {
				target += "?access_token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.upgrade {
				req.Header.Set("Connection", "Upgrade")
				req.Header.Set("Upgrade", "websocket")
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var resp response.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			if tt.expectedError != "" {
				assert.False(t, resp.Success)
				assert.Equal(t, tt.expectedError, resp.Error)
				return
			}
			assert.True(t, resp.Success)
			assert.Contains(t, w.Body.String(), "507f1f77bcf86cd799439011")
		})
	}
}

func TestAuth_AbortsChain(t *testing.T) {
	jwtManager := auth.NewJWTManager("testsecret", 15*time.Minute)
	reached := false

	router := gin.New()
	router.Use(Auth(jwtManager))
	router.POST("/api/v1/questions", func(c *gin.Context) {
		reached = true
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/questions", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, reached)
}

func TestGetUserID(t *testing.T) {
	t.Run("returns user ID when set", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set(UserIDKey, "507f1f77bcf86cd799439011")

		assert.Equal(t, "507f1f77bcf86cd799439011", GetUserID(c))
	})

	t.Run("returns empty string when not set", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())

		assert.Empty(t, GetUserID(c))
	})
}
