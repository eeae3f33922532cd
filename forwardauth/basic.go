package forwardauth

import (
	"encoding/base64"
	"fmt"
	"strings"
)

type (
	// Credentials is a decoded Basic-Auth user id and password
	Credentials struct {
		UserID   string
		Password string
	}

	// MalformedCredentials means the Authorization header could not be
	// read as Basic credentials. Callers treat it as "no credentials".
	MalformedCredentials struct {
		Reason string
	}
)

const basicScheme = "basic"

func (m MalformedCredentials) Error() string {
	return fmt.Sprintf("malformed basic credentials: %v", m.Reason)
}

// ParseBasic decodes a "Basic <base64(user:pass)>" header value.
// The password may itself contain ':'.
func ParseBasic(header string) (Credentials, error) {
	header = strings.TrimSpace(header)
	idx := strings.IndexByte(header, ' ')
	if idx < 0 || !strings.EqualFold(header[:idx], basicScheme) {
		return Credentials{}, MalformedCredentials{Reason: "scheme is not Basic"}
	}
	encoded := strings.TrimSpace(header[idx+1:])
	if encoded == "" {
		return Credentials{}, MalformedCredentials{Reason: "empty credentials"}
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Credentials{}, MalformedCredentials{Reason: "invalid base64"}
	}
	pair := string(decoded)
	sep := strings.IndexByte(pair, ':')
	if sep < 0 {
		return Credentials{}, MalformedCredentials{Reason: "missing ':' separator"}
	}
	return Credentials{UserID: pair[:sep], Password: pair[sep+1:]}, nil
}
