package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ClaimsKey is the gin context key holding ScanClaims.
const ClaimsKey = "scanClaims"

// ScanAuth requires a valid scan token in the "t" query parameter.
func ScanAuth(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("t")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing scan token"})
			return
		}
		claims, err := ParseScanToken(token, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid scan token"})
			return
		}
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}
