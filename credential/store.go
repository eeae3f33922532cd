// Package credential holds the password-hash store used to verify
// Basic-Auth credentials.
//
// A store is a snapshot loaded once at startup, either from an htpasswd
// file (or inline contents) or from a sqlite database. After loading it
// is never mutated, so a single instance is shared by every request
// without locking.
package credential

import (
	"sort"

	"github.com/cespare/xxhash/v2"
	htpasswd "github.com/tg123/go-htpasswd"
)

type (
	// Store answers whether a user id and password match a stored hash
	Store interface {
		Check(userID, password string) bool
	}

	// Snapshot is an immutable set of user ids and their parsed hashes
	Snapshot struct {
		users       map[string]htpasswd.EncodedPasswd
		fingerprint uint64
	}
)

func newSnapshot(users map[string]htpasswd.EncodedPasswd, source []byte) *Snapshot {
	return &Snapshot{
		users:       users,
		fingerprint: xxhash.Sum64(source),
	}
}

// Check compares password against the hash stored for userID.
// Unknown users are reported as a mismatch.
func (s *Snapshot) Check(userID, password string) bool {
	if s == nil {
		return false
	}
	v, ok := s.users[userID]
	if !ok {
		return false
	}
	return v.MatchesPassword(password)
}

// Len returns how many users are known
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.users)
}

// Users returns the sorted list of user ids
func (s *Snapshot) Users() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.users))
	for k := range s.users {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Fingerprint identifies the revision of the source the snapshot was
// loaded from. It is not a security primitive.
func (s *Snapshot) Fingerprint() uint64 {
	if s == nil {
		return 0
	}
	return s.fingerprint
}
