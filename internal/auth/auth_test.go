package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueParse(t *testing.T) {
	tok, err := Issue("certgen", "key", time.Hour, time.Now())
	require.NoError(t, err)

	claims, err := Parse(tok.Value, "key", "certgen")
	require.NoError(t, err)
	assert.Equal(t, AdminRole, claims.Role)
	assert.Equal(t, AdminSubject, claims.Subject)

	_, err = Parse(tok.Value, "other", "certgen")
	assert.Error(t, err)
	_, err = Parse(tok.Value, "key", "someone-else")
	assert.Error(t, err)
}

func TestParseExpired(t *testing.T) {
	tok, err := Issue("certgen", "key", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = Parse(tok.Value, "key", "certgen")
	assert.Error(t, err)
}

func TestAdminAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", AdminAuth("key", "certgen"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tok, err := Issue("certgen", "key", time.Hour, time.Now())
	require.NoError(t, err)

	cases := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{"none", func(*http.Request) {}, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok.Value) }, http.StatusNoContent},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: tok.Value}) }, http.StatusNoContent},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			tc.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}
