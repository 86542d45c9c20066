package identity

import (
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Describes who is making an AI call: an authenticated user, a service
// holding an API key, or an anonymous caller known only by IP. Tier drives
// the rate limit multiplier.
type Identity struct {
	UserID   *uuid.UUID
	APIKeyID *uuid.UUID
	Tier     string
	ClientIP string
}

func (i Identity) Authenticated() bool {
	return i.UserID != nil || i.APIKeyID != nil
}

// RateKey returns the stable key rate limit counters are bucketed by.
// Authenticated callers key by id so limits follow them across devices;
// anonymous callers key by client address.
func (i Identity) RateKey() string {
	switch {
	case i.UserID != nil:
		return "user:" + i.UserID.String()
	case i.APIKeyID != nil:
		return "key:" + i.APIKeyID.String()
	default:
		return "ip:" + i.ClientIP
	}
}

func Anonymous(clientIP string) Identity {
	return Identity{ClientIP: clientIP}
}

// ClientIP extracts the caller address: the first entry of X-Forwarded-For
// when the request came through a proxy, else the direct connection address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
