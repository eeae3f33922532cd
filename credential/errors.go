package credential

import "fmt"

type (
	// UnsupportedHash is returned when a stored hash uses a scheme
	// this package cannot verify
	UnsupportedHash struct {
		User   string
		Prefix string
	}

	// MalformedLine is returned for htpasswd lines without a user:hash pair
	MalformedLine struct {
		Line int
	}

	// MalformedHash is returned when a known scheme carries an unparseable hash
	MalformedHash struct {
		User   string
		Scheme string
		cause  error
	}
)

func (u UnsupportedHash) Error() string {
	return fmt.Sprintf("hash for user %v uses an unsupported scheme %q", u.User, u.Prefix)
}

func (m MalformedLine) Error() string {
	return fmt.Sprintf("line %v is not a valid user:hash entry", m.Line)
}

func (m MalformedHash) Error() string {
	return fmt.Sprintf("%v hash for user %v is malformed, cause %v", m.Scheme, m.User, m.cause)
}

func (m MalformedHash) Unwrap() error {
	return m.cause
}
