package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret-key"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret string, claims JWTClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	assert.NoError(t, err)
	return signed
}

// ==================== Authenticate Tests ====================

func TestAuthMiddleware_Authenticate_Success(t *testing.T) {
	// Arrange
	middleware := NewAuthMiddleware(testSecret)

	accessToken := signToken(t, testSecret, JWTClaims{
		UserID:   "user-1",
		Email:    "user@example.com",
		RoleName: "accounting",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
		},
	})

	router := gin.New()
	router.GET("/protected", middleware.Authenticate(), func(c *gin.Context) {
		gotUserID, _ := c.Get("user_id")
		gotRole, _ := c.Get("role_name")
		assert.Equal(t, "user-1", gotUserID)
		assert.Equal(t, "accounting", gotRole)
		c.String(http.StatusOK, "OK")
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestAuthMiddleware_Authenticate_NoAuthHeader(t *testing.T) {
	// Arrange
	middleware := NewAuthMiddleware(testSecret)

	router := gin.New()
	router.GET("/protected", middleware.Authenticate(), func(c *gin.Context) {
		t.Error("Handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_Authenticate_InvalidFormat(t *testing.T) {
	// Arrange
	middleware := NewAuthMiddleware(testSecret)

	testCases := []struct {
		name       string
		authHeader string
	}{
		{"No Bearer prefix", "token-without-bearer"},
		{"Wrong prefix", "Basic token"},
		{"Only Bearer", "Bearer"},
		{"Extra parts", "Bearer token extra"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/protected", middleware.Authenticate(), func(c *gin.Context) {
				t.Error("Handler should not be called")
			})

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", tc.authHeader)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuthMiddleware_Authenticate_WrongSecret(t *testing.T) {
	// Arrange
	middleware := NewAuthMiddleware(testSecret)

	accessToken := signToken(t, "other-secret", JWTClaims{
		UserID:   "user-1",
		RoleName: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
		},
	})

	router := gin.New()
	router.GET("/protected", middleware.Authenticate(), func(c *gin.Context) {
		t.Error("Handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_Authenticate_ExpiredToken(t *testing.T) {
	// Arrange
	middleware := NewAuthMiddleware(testSecret)

	accessToken := signToken(t, testSecret, JWTClaims{
		UserID:   "user-1",
		RoleName: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Minute)),
		},
	})

	router := gin.New()
	router.GET("/protected", middleware.Authenticate(), func(c *gin.Context) {
		t.Error("Handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ==================== RequireRole Tests ====================

func TestAuthMiddleware_RequireRole_Success(t *testing.T) {
	// Arrange
	middleware := NewAuthMiddleware(testSecret)

	router := gin.New()
	router.GET("/admin", func(c *gin.Context) {
		c.Set("role_name", "admin")
		c.Next()
	}, middleware.RequireRole("admin", "manager"), func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_RequireRole_Forbidden(t *testing.T) {
	// Arrange
	middleware := NewAuthMiddleware(testSecret)

	router := gin.New()
	router.GET("/admin", func(c *gin.Context) {
		c.Set("role_name", "staff")
		c.Next()
	}, middleware.RequireRole("admin"), func(c *gin.Context) {
		t.Error("Handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthMiddleware_RequireRole_NoRoleInContext(t *testing.T) {
	// Arrange
	middleware := NewAuthMiddleware(testSecret)

	router := gin.New()
	router.GET("/admin", middleware.RequireRole("admin"), func(c *gin.Context) {
		t.Error("Handler should not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()

	// Act
	router.ServeHTTP(rec, req)

	// Assert
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
