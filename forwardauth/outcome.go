package forwardauth

import (
	"net/http"
	"strings"
)

type (
	// Identity is who a request was authenticated as. It only lives for
	// the duration of a single request.
	Identity struct {
		UserID          string
		Password        string
		SuppressSession bool
	}

	// Source tells which credential channel produced an Identity
	Source byte

	// Outcome is either Authenticated or Unauthenticated
	Outcome interface {
		outcome()
	}

	Authenticated struct {
		Identity    Identity
		Via         Source
		IssueCookie *http.Cookie
		// Redirect is the original request URL when the client should be
		// sent back there to retry with its new cookie
		Redirect string
	}

	Unauthenticated struct {
		ClearCookie *http.Cookie
	}
)

const (
	ViaCookie Source = iota + 1
	ViaHeader
)

// NoSaveSuffix marks a user id that asks not to be remembered
const NoSaveSuffix = "-nosave"

func (Authenticated) outcome()   {}
func (Unauthenticated) outcome() {}

func (s Source) String() string {
	switch s {
	case ViaCookie:
		return "cookie"
	case ViaHeader:
		return "header"
	}
	return "none"
}

// NewIdentity decides once, at the extraction boundary, whether the
// caller opted out of the session cookie.
func NewIdentity(c Credentials, noSaveEnabled bool) Identity {
	id := Identity{UserID: c.UserID, Password: c.Password}
	if noSaveEnabled {
		if user := strings.TrimSuffix(c.UserID, NoSaveSuffix); user != c.UserID {
			id.UserID = user
			id.SuppressSession = true
		}
	}
	return id
}
