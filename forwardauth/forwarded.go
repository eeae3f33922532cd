package forwardauth

import (
	"fmt"
	"net/http"
	"strings"
)

type (
	// SecureMode controls the Secure flag on issued cookies
	SecureMode byte
)

const (
	// SecureAuto follows X-Forwarded-Proto (or TLS on the direct connection)
	SecureAuto SecureMode = iota
	SecureAlways
	SecureNever
)

const (
	headerForwardedProto = "X-Forwarded-Proto"
	headerForwardedHost  = "X-Forwarded-Host"
	headerForwardedPort  = "X-Forwarded-Port"
	headerForwardedURI   = "X-Forwarded-Uri"
)

func ParseSecureMode(value string) (SecureMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return SecureAuto, nil
	case "always", "true":
		return SecureAlways, nil
	case "never", "false":
		return SecureNever, nil
	}
	return SecureAuto, fmt.Errorf("unknown secure cookie mode %q, expecting auto, always or never", value)
}

func (m SecureMode) String() string {
	switch m {
	case SecureAlways:
		return "always"
	case SecureNever:
		return "never"
	}
	return "auto"
}

// IsSecure reports whether the client reached the proxy over https.
// Without any forwarded protocol the channel is assumed to be plaintext.
func IsSecure(r *http.Request, mode SecureMode) bool {
	switch mode {
	case SecureAlways:
		return true
	case SecureNever:
		return false
	}
	if proto := r.Header.Get(headerForwardedProto); proto != "" {
		return strings.EqualFold(strings.TrimSpace(proto), "https")
	}
	return r.TLS != nil
}

// OriginalURL rebuilds the URL the client asked the proxy for. It needs
// all four forwarded headers; ok is false otherwise.
func OriginalURL(r *http.Request) (string, bool) {
	proto := r.Header.Get(headerForwardedProto)
	host := r.Header.Get(headerForwardedHost)
	port := r.Header.Get(headerForwardedPort)
	uri := r.Header.Get(headerForwardedURI)
	if proto == "" || host == "" || port == "" || uri == "" {
		return "", false
	}
	proto = strings.ToLower(proto)
	if proto != "http" && proto != "https" {
		return "", false
	}
	if !strings.HasPrefix(uri, "/") {
		uri = "/" + uri
	}
	return fmt.Sprintf("%v://%v:%v%v", proto, host, port, uri), true
}
