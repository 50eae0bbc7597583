package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authTestRouter() (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var seenUserID string
	r.GET("/protected", Auth, func(ctx *gin.Context) {
		seenUserID = UserID(ctx)
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r, &seenUserID
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestAuthRejectsMissingCookie(t *testing.T) {
	r, _ := authTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication required")
}

func TestAuthAcceptsCookieAndExtractsUserID(t *testing.T) {
	r, seenUserID := authTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: signedToken(t, jwt.MapClaims{"userId": "user-42"})})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-42", *seenUserID)
}

func TestAuthFallsBackToSubClaim(t *testing.T) {
	r, seenUserID := authTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: signedToken(t, jwt.MapClaims{"sub": "user-7"})})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-7", *seenUserID)
}

func TestAuthAcceptsOpaqueToken(t *testing.T) {
	// Presence of the cookie is the authorization signal; a token that is
	// not a JWT still passes, just without a user id on the context.
	r, seenUserID := authTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "not-a-jwt"})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", *seenUserID)
}
