package qr

import (
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

// DefaultSize is the PNG edge length in pixels.
const DefaultSize = 256

// ScanURL builds the link a session's QR code points to.
func ScanURL(baseURL, sessionID, token string) string {
	q := url.Values{}
	q.Set("sessionId", sessionID)
	if token != "" {
		q.Set("t", token)
	}
	return strings.TrimRight(baseURL, "/") + "/scan?" + q.Encode()
}

// PNG renders content as a QR code with medium error recovery.
func PNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}
