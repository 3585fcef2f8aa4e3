package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sieve/models"
)

// KeyIDContextKey holds the id of the key that authenticated the request.
// Raw keys never leave this middleware; rate limiting and logs use the id.
const KeyIDContextKey = "key_id"

// Auth accepts a key from either
//
//	X-API-Key: <key>
//	Authorization: Bearer <key>
//
// and compares its digest against every configured key in constant time.
// With no keys configured the API is open; a list of blank keys rejects
// everything.
func Auth(apiKeys []string) gin.HandlerFunc {
	if len(apiKeys) == 0 {
		return func(c *gin.Context) { c.Next() }
	}
	ring := newKeyring(apiKeys)

	return func(c *gin.Context) {
		key := requestKey(c.Request)
		if key == "" {
			unauthorized(c, "missing API key: provide X-API-Key header or Authorization: Bearer <key>")
			return
		}
		if !ring.match(key) {
			slog.Debug("rejected request with unknown API key", "path", c.FullPath(), "ip", c.ClientIP(), "key_id", KeyID(key))
			unauthorized(c, "invalid API key")
			return
		}

		c.Set(KeyIDContextKey, KeyID(key))
		c.Next()
	}
}

// KeyID is a short stable identifier for a key, safe to log.
func KeyID(key string) string {
	d := sha256.Sum256([]byte(key))
	return hex.EncodeToString(d[:6])
}

type keyring [][sha256.Size]byte

func newKeyring(keys []string) keyring {
	var ring keyring
	seen := make(map[[sha256.Size]byte]struct{}, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		d := sha256.Sum256([]byte(k))
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		ring = append(ring, d)
	}
	return ring
}

// match checks every entry so the time taken does not depend on which key
// matched.
func (r keyring) match(key string) bool {
	d := sha256.Sum256([]byte(key))
	found := 0
	for i := range r {
		found |= subtle.ConstantTimeCompare(d[:], r[i][:])
	}
	return found == 1
}

// requestKey prefers X-API-Key. The bearer scheme name is case-insensitive.
func requestKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="sieve"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ExtractResponse{
		Success: false,
		Error:   &models.ErrorDetail{Code: models.ErrCodeUnauthorized, Message: msg},
	})
}
