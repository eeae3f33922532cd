package forwardauth

import (
	"fmt"
	"net/http"
	"strconv"
)

const challengeBody = `<html>
<head><title>401 Authorization Required</title></head>
<body>
<center><h1>401 Authorization Required</h1></center>
</body>
</html>`

type (
	// Shaper writes outcomes to the wire
	Shaper struct {
		Realm      string
		UserHeader string
	}
)

// Render writes o to w. Authenticated requests get the identity header
// (and a Set-Cookie when a session was established); everything else
// gets a Basic challenge.
func (s Shaper) Render(w http.ResponseWriter, o Outcome) {
	switch o := o.(type) {
	case Authenticated:
		s.renderAuthenticated(w, o)
	case Unauthenticated:
		s.RenderChallenge(w, o.ClearCookie)
	default:
		s.RenderChallenge(w, nil)
	}
}

func (s Shaper) renderAuthenticated(w http.ResponseWriter, o Authenticated) {
	h := w.Header()
	h.Set(s.UserHeader, o.Identity.UserID)
	if o.IssueCookie != nil {
		h.Add("Set-Cookie", o.IssueCookie.String())
	}
	if o.Redirect != "" {
		h.Set("Location", o.Redirect)
		w.WriteHeader(http.StatusFound)
		return
	}
	h.Set("Content-Length", "0")
	w.WriteHeader(http.StatusOK)
}

// RenderChallenge writes the 401 response. clear, when not nil, is sent
// as a Set-Cookie that removes the stale session cookie.
func (s Shaper) RenderChallenge(w http.ResponseWriter, clear *http.Cookie) {
	h := w.Header()
	h.Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", s.Realm))
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(challengeBody)))
	if clear != nil {
		h.Add("Set-Cookie", clear.String())
	}
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(challengeBody))
}
