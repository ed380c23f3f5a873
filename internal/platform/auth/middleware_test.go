package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signed(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func newRouter(roles ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := []gin.HandlerFunc{RequireAuth(testSecret)}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, Subject(c))
	})
	r.GET("/p", handlers...)
	return r
}

func do(r http.Handler, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	r := newRouter()
	valid := signed(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
		"sub":  "hr-001",
		"role": RoleHR,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	w := do(r, "Bearer "+valid)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hr-001", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer ").Code)

	wrongKey := signed(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "x"})
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer "+wrongKey).Code)

	expired := signed(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{
		"sub": "x",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer "+expired).Code)

	noSub := signed(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"role": RoleAdmin})
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer "+noSub).Code)

	hs512 := signed(t, jwt.SigningMethodHS512, testSecret, jwt.MapClaims{"sub": "x"})
	assert.Equal(t, http.StatusUnauthorized, do(r, "Bearer "+hs512).Code)
}

func TestRequireRole(t *testing.T) {
	r := newRouter(RoleAdmin)

	admin := signed(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "a", "role": RoleAdmin})
	hr := signed(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "h", "role": RoleHR})
	none := signed(t, jwt.SigningMethodHS256, testSecret, jwt.MapClaims{"sub": "n"})

	assert.Equal(t, http.StatusOK, do(r, "Bearer "+admin).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "Bearer "+hr).Code)
	assert.Equal(t, http.StatusForbidden, do(r, "Bearer "+none).Code)
}
