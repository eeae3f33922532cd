package session

import (
	"net/http"
	"strings"
)

type (
	// Jar holds the cookies a request arrived with and the changes the
	// response should carry. The original set is read-only.
	Jar struct {
		original []http.Cookie
		// names covers every cookie name on the wire, including cookies
		// whose values net/http refuses to parse
		names map[string]struct{}
		delta []*http.Cookie
	}
)

// NewJar parses the Cookie headers of r
func NewJar(r *http.Request) *Jar {
	cookies := r.Cookies()
	original := make([]http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		original = append(original, *c)
	}
	return &Jar{original: original, names: cookieNames(r.Header["Cookie"])}
}

func cookieNames(lines []string) map[string]struct{} {
	names := make(map[string]struct{})
	for _, line := range lines {
		for _, part := range strings.Split(line, ";") {
			name, _, _ := strings.Cut(strings.TrimSpace(part), "=")
			if name = strings.TrimSpace(name); name != "" {
				names[name] = struct{}{}
			}
		}
	}
	return names
}

// Values returns the values of every original cookie called name,
// in the order the client sent them
func (j *Jar) Values(name string) []string {
	var out []string
	for _, c := range j.original {
		if c.Name == name {
			out = append(out, c.Value)
		}
	}
	return out
}

// Has reports whether the request carried a cookie called name, even
// one with an unparseable value
func (j *Jar) Has(name string) bool {
	if _, ok := j.names[name]; ok {
		return true
	}
	for _, c := range j.original {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Add records a cookie to be set on the response
func (j *Jar) Add(c *http.Cookie) {
	j.delta = append(j.delta, c)
}

// Remove records a removal cookie, but only when the client actually
// has a cookie by that name
func (j *Jar) Remove(removal *http.Cookie) bool {
	if !j.Has(removal.Name) {
		return false
	}
	j.delta = append(j.delta, removal)
	return true
}

// Pending returns the last change recorded for name, or nil
func (j *Jar) Pending(name string) *http.Cookie {
	for i := len(j.delta) - 1; i >= 0; i-- {
		if j.delta[i].Name == name {
			return j.delta[i]
		}
	}
	return nil
}

// Delta returns the cookies to send back, in insertion order
func (j *Jar) Delta() []*http.Cookie {
	out := make([]*http.Cookie, len(j.delta))
	copy(out, j.delta)
	return out
}
