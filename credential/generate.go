package credential

import (
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgoBcrypt   = "bcrypt"
	AlgoArgon2id = "argon2id"

	argon2Memory      = 64 * 1024
	argon2Time        = 3
	argon2Parallelism = 2
	argon2SaltLen     = 16
	argon2KeyLen      = 32
)

// Generate hashes password with the given algorithm, returning a value
// suitable for the hash column of an htpasswd line
func Generate(algo, password string, random io.Reader) (string, error) {
	switch algo {
	case AlgoBcrypt, "":
		buf, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("unable to hash password with bcrypt, cause %w", err)
		}
		return string(buf), nil
	case AlgoArgon2id:
		salt := make([]byte, argon2SaltLen)
		if _, err := io.ReadFull(random, salt); err != nil {
			return "", fmt.Errorf("unable to generate salt, cause %w", err)
		}
		key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Parallelism, argon2KeyLen)
		return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
			argon2.Version, argon2Memory, argon2Time, argon2Parallelism,
			base64.RawStdEncoding.EncodeToString(salt),
			base64.RawStdEncoding.EncodeToString(key)), nil
	}
	return "", fmt.Errorf("unknown hash algorithm %q", algo)
}
