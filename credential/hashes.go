package credential

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	htpasswd "github.com/tg123/go-htpasswd"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

type (
	bcryptHash []byte

	argon2idHash struct {
		memory      uint32
		time        uint32
		parallelism uint8
		salt        []byte
		key         []byte
	}

	hashSystem struct {
		scheme string
		accept htpasswd.PasswdParser
	}
)

const (
	argon2Prefix  = "$argon2id$"
	argon2Version = "v=19"
)

// hashSystems are tried in order; each one either claims the stored
// value (by prefix) or passes it on. apr1 and {SHA} come from go-htpasswd.
var hashSystems = []hashSystem{
	{"bcrypt", acceptBcrypt},
	{"apr1", htpasswd.AcceptMd5},
	{"sha1", htpasswd.AcceptSha},
	{"argon2id", acceptArgon2id},
}

// parseHash turns a stored hash into something that can verify
// passwords. Hashes are parsed once while loading so a broken
// entry fails startup instead of a request.
func parseHash(user, stored string) (htpasswd.EncodedPasswd, error) {
	for _, sys := range hashSystems {
		enc, err := sys.accept(stored)
		if err != nil {
			return nil, MalformedHash{User: user, Scheme: sys.scheme, cause: err}
		}
		if enc != nil {
			return enc, nil
		}
	}
	prefix := stored
	if len(prefix) > 5 {
		prefix = prefix[:5]
	}
	return nil, UnsupportedHash{User: user, Prefix: prefix}
}

func acceptBcrypt(stored string) (htpasswd.EncodedPasswd, error) {
	if !strings.HasPrefix(stored, "$2a$") && !strings.HasPrefix(stored, "$2b$") && !strings.HasPrefix(stored, "$2y$") {
		return nil, nil
	}
	if _, err := bcrypt.Cost([]byte(stored)); err != nil {
		return nil, err
	}
	return bcryptHash(stored), nil
}

func acceptArgon2id(stored string) (htpasswd.EncodedPasswd, error) {
	if !strings.HasPrefix(stored, argon2Prefix) {
		return nil, nil
	}
	h, err := parseArgon2id(stored)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (b bcryptHash) MatchesPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(b), []byte(password)) == nil
}

func (a argon2idHash) MatchesPassword(password string) bool {
	computed := argon2.IDKey([]byte(password), a.salt, a.time, a.memory, a.parallelism, uint32(len(a.key)))
	return subtle.ConstantTimeCompare(computed, a.key) == 1
}

// parseArgon2id reads the PHC string format:
// $argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>
func parseArgon2id(stored string) (argon2idHash, error) {
	var h argon2idHash
	parts := strings.Split(stored, "$")
	if len(parts) != 6 || parts[0] != "" {
		return h, errors.New("invalid PHC format")
	}
	if parts[2] != argon2Version {
		return h, fmt.Errorf("unsupported argon2 version %v", parts[2])
	}
	var memorySet, timeSet, parallelismSet bool
	for _, pair := range strings.Split(parts[3], ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return h, errors.New("invalid parameter entry")
		}
		switch kv[0] {
		case "m":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v == 0 {
				return h, errors.New("invalid memory parameter")
			}
			h.memory, memorySet = uint32(v), true
		case "t":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v == 0 {
				return h, errors.New("invalid time parameter")
			}
			h.time, timeSet = uint32(v), true
		case "p":
			v, err := strconv.ParseUint(kv[1], 10, 8)
			if err != nil || v == 0 {
				return h, errors.New("invalid parallelism parameter")
			}
			h.parallelism, parallelismSet = uint8(v), true
		default:
			return h, fmt.Errorf("unsupported parameter %v", kv[0])
		}
	}
	if !memorySet || !timeSet || !parallelismSet {
		return h, errors.New("missing parameters")
	}
	var err error
	if h.salt, err = decodePHC(parts[4]); err != nil || len(h.salt) == 0 {
		return h, errors.New("invalid salt encoding")
	}
	if h.key, err = decodePHC(parts[5]); err != nil || len(h.key) == 0 {
		return h, errors.New("invalid key encoding")
	}
	return h, nil
}

// decodePHC accepts both the unpadded encoding used by the reference
// implementation and padded standard base64.
func decodePHC(s string) ([]byte, error) {
	if strings.HasSuffix(s, "=") {
		return base64.StdEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}
