package session

import (
	"net/http"
	"time"
)

type (
	// Attributes are the cookie flags derived from configuration and
	// the channel the request arrived on
	Attributes struct {
		Domain   string
		Path     string
		MaxAge   int
		Expires  time.Time
		Secure   bool
		HTTPOnly bool
	}

	// Policy renders session cookies with a fixed name, domain and lifetime
	Policy struct {
		Name     string
		Domain   string
		Lifetime Lifetime

		now func() time.Time
	}
)

// CookieAttributes computes the attributes for a freshly issued cookie.
// Session scoped cookies carry no expiry at all.
func CookieAttributes(lifetime Lifetime, domain string, secure bool, now time.Time) Attributes {
	attrs := Attributes{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HTTPOnly: true,
	}
	switch lifetime.Kind {
	case Permanent:
		attrs.MaxAge = int(PermanentAge / time.Second)
		attrs.Expires = now.Add(PermanentAge).UTC()
	case Limited:
		attrs.MaxAge = int(lifetime.Duration / time.Second)
		if attrs.MaxAge < 1 {
			attrs.MaxAge = 1
		}
	}
	return attrs
}

func NewPolicy(name, domain string, lifetime Lifetime) Policy {
	return Policy{
		Name:     name,
		Domain:   domain,
		Lifetime: lifetime,
		now:      time.Now,
	}
}

func (p Policy) Attributes(secure bool) Attributes {
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	return CookieAttributes(p.Lifetime, p.Domain, secure, now())
}

// Issue builds the Set-Cookie entry carrying value
func (p Policy) Issue(value string, secure bool) *http.Cookie {
	attrs := p.Attributes(secure)
	return &http.Cookie{
		Name:     p.Name,
		Value:    value,
		Domain:   attrs.Domain,
		Path:     attrs.Path,
		MaxAge:   attrs.MaxAge,
		Expires:  attrs.Expires,
		Secure:   attrs.Secure,
		HttpOnly: attrs.HTTPOnly,
	}
}

// Removal builds the Set-Cookie entry that makes a browser drop the
// session cookie. Domain and path must match the issued cookie or the
// browser keeps the original.
func (p Policy) Removal(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     p.Name,
		Value:    "",
		Domain:   p.Domain,
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		Secure:   secure,
		HttpOnly: true,
	}
}
