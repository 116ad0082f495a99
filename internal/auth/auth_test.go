package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	tok := NewToken("s3cret")
	tests := []struct {
		name   string
		header map[string]string
		want   bool
	}{
		{"none", nil, false},
		{"bearer", map[string]string{"Authorization": "Bearer s3cret"}, true},
		{"bearer lowercase scheme", map[string]string{"Authorization": "bearer s3cret"}, true},
		{"basic scheme", map[string]string{"Authorization": "Basic s3cret"}, false},
		{"wrong", map[string]string{"Authorization": "Bearer nope"}, false},
		{"custom header", map[string]string{HeaderName: "s3cret"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.header {
				r.Header.Set(k, v)
			}
			if got := tok.Check(r); got != tc.want {
				t.Fatalf("Check = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDisabledAllowsAll(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	var nilTok *Token
	assert.False(t, nilTok.Enabled())
	assert.True(t, nilTok.Check(r))
	assert.True(t, NewToken("").Check(r))
}

func TestGinAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	g.Use(NewToken("s3cret").GinAuth())
	g.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	rec := httptest.NewRecorder()
	g.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	g.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGenerate(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
