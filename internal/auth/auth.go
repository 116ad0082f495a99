// Package auth guards the control API with a shared bearer token.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderName is accepted as an alternative to "Authorization: Bearer".
const HeaderName = "X-Devterm-Token"

// Token is a static shared secret. The zero value and a nil *Token allow
// every request.
type Token struct {
	secret []byte
}

func NewToken(secret string) *Token {
	return &Token{secret: []byte(secret)}
}

// Enabled reports whether requests must carry the token.
func (t *Token) Enabled() bool { return t != nil && len(t.secret) > 0 }

// Check reports whether r carries the token.
func (t *Token) Check(r *http.Request) bool {
	if !t.Enabled() {
		return true
	}
	got := r.Header.Get(HeaderName)
	if got == "" {
		h := r.Header.Get("Authorization")
		if scheme, v, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			got = strings.TrimSpace(v)
		}
	}
	if got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), t.secret) == 1
}

// GinAuth rejects requests without the token with 401.
func (t *Token) GinAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if t.Check(c.Request) {
			c.Next()
			return
		}
		c.Header("WWW-Authenticate", `Bearer realm="devterm"`)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "authentication required",
			"kind":  "unauthorized",
		})
	}
}

// Generate returns a random 32 byte token, hex encoded.
func Generate() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
