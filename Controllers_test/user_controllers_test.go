package Controllers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/aerocomidas/restaurant-pos/controllers"
	"github.com/aerocomidas/restaurant-pos/middlewares"
)

func setupUserRouter(db *gorm.DB) *gin.Engine {
	userCtrl := controllers.NewUserController(db)

	r := gin.New()
	r.POST("/register", userCtrl.Register)
	r.POST("/login", userCtrl.Login)

	auth := r.Group("/api")
	auth.Use(middlewares.AuthMiddleware())
	auth.GET("/profile", userCtrl.GetProfile)
	auth.POST("/logout", userCtrl.Logout)
	auth.GET("/users", userCtrl.GetAllUsers)
	return r
}

func registerAndLogin(t *testing.T, r *gin.Engine, email, role string) string {
	t.Helper()
	w := doJSON(t, r, "POST", "/register", map[string]interface{}{
		"name":     "Test User",
		"email":    email,
		"password": "s3cret-pass",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, "POST", "/login", map[string]interface{}{
		"email":    email,
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := decodeData(t, w)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func authGet(t *testing.T, r *gin.Engine, url, token string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest("GET", url, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterValidation(t *testing.T) {
	db := setupTestDB(t)
	r := setupUserRouter(db)

	// Unknown role.
	w := doJSON(t, r, "POST", "/register", map[string]interface{}{
		"name": "X", "email": "x@example.com", "password": "longenough", "role": "chef",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Short password fails binding.
	w = doJSON(t, r, "POST", "/register", map[string]interface{}{
		"name": "X", "email": "x@example.com", "password": "short", "role": "staff",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginAndProfile(t *testing.T) {
	db := setupTestDB(t)
	r := setupUserRouter(db)

	token := registerAndLogin(t, r, "waiter@example.com", "waiter")

	w := authGet(t, r, "/api/profile", token)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "waiter@example.com", data["email"])
	assert.Equal(t, "waiter", data["role"])

	// Wrong password.
	w = doJSON(t, r, "POST", "/login", map[string]interface{}{
		"email":    "waiter@example.com",
		"password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// No token at all.
	w = authGet(t, r, "/api/profile", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleRestrictedListing(t *testing.T) {
	db := setupTestDB(t)
	r := setupUserRouter(db)

	staffToken := registerAndLogin(t, r, "staff@example.com", "staff")
	w := authGet(t, r, "/api/users", staffToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminToken := registerAndLogin(t, r, "admin@example.com", "admin")
	w = authGet(t, r, "/api/users", adminToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogoutBlacklistsToken(t *testing.T) {
	db := setupTestDB(t)
	r := setupUserRouter(db)

	token := registerAndLogin(t, r, "staffer@example.com", "staff")

	req, err := http.NewRequest("POST", "/api/logout", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = authGet(t, r, "/api/profile", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
