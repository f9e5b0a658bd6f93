package pipeline

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-etims/core"
)

// DefaultExpiryMarkers are the gateway fault messages known to mean the bearer
// token was rejected. The remote side does not document them; they are matched
// case-insensitively as substrings.
var DefaultExpiryMarkers = []string{
	"access token expired",
	"invalid token",
}

// ExpiryDetector decides whether a response is an expired-token signal.
type ExpiryDetector struct {
	markers []string
}

func NewExpiryDetector(extra ...string) ExpiryDetector {
	markers := make([]string, 0, len(DefaultExpiryMarkers)+len(extra))
	seen := map[string]struct{}{}
	for _, marker := range append(append([]string(nil), DefaultExpiryMarkers...), extra...) {
		marker = strings.ToLower(strings.TrimSpace(marker))
		if marker == "" {
			continue
		}
		if _, ok := seen[marker]; ok {
			continue
		}
		seen[marker] = struct{}{}
		markers = append(markers, marker)
	}
	return ExpiryDetector{markers: markers}
}

func (d ExpiryDetector) Markers() []string {
	return append([]string(nil), d.markers...)
}

// Expired reports HTTP 401, or a gateway fault whose faultstring contains one
// of the markers.
func (d ExpiryDetector) Expired(status int, body map[string]any) bool {
	if status == http.StatusUnauthorized {
		return true
	}
	message := strings.ToLower(faultString(body))
	if message == "" {
		return false
	}
	for _, marker := range d.markers {
		if strings.Contains(message, marker) {
			return true
		}
	}
	return false
}

func faultString(body map[string]any) string {
	fault, ok := body["fault"].(map[string]any)
	if !ok {
		return ""
	}
	return core.StringValue(fault["faultstring"])
}
