// Package session mints and validates the "remember me" cookie.
//
// The cookie value is the XChaCha20-Poly1305 sealed form of a small JSON
// payload. The cookie name is bound as associated data, so a value is only
// valid under the name it was issued for. Decoding is all-or-nothing: any
// framing, authentication or parsing failure yields InvalidCookie.
package session

import (
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	// MinSecretLength is the smallest accepted amount of key material
	MinSecretLength = 32

	formatVersion = byte(1)
	kdfInfo       = "rememberme session cookie"
)

var (
	valueEncoding = base64.RawURLEncoding.Strict()
)

type (
	// Payload is what travels inside the cookie. The password is kept so
	// every cookie use is re-validated against the credential store.
	Payload struct {
		UserID   string `json:"u"`
		Password string `json:"p"`
	}

	// Codec seals and opens cookie values, safe for concurrent use
	Codec struct {
		aead   cipher.AEAD
		ad     []byte
		random io.Reader
	}

	// InvalidCookie is returned for any value Decode refuses
	InvalidCookie struct {
		Reason string
	}
)

func (i InvalidCookie) Error() string {
	return fmt.Sprintf("invalid session cookie: %v", i.Reason)
}

// NewCodec derives the cookie key from secret with HKDF-SHA256.
// secret must hold at least MinSecretLength bytes.
func NewCodec(secret []byte, cookieName string) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("secret must have at least %v bytes, got %v", MinSecretLength, len(secret))
	}
	key := make([]byte, chacha20poly1305.KeySize)
	_, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(kdfInfo)), key)
	if err != nil {
		return nil, fmt.Errorf("unable to derive cookie key, cause %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("unable to create cookie cipher, cause %w", err)
	}
	ad := make([]byte, 0, len(cookieName)+1)
	ad = append(ad, formatVersion)
	ad = append(ad, cookieName...)
	return &Codec{
		aead:   aead,
		ad:     ad,
		random: rand.Reader,
	}, nil
}

// Encode seals p into an opaque, cookie-safe string
func (c *Codec) Encode(p Payload) (string, error) {
	plain, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("unable to serialize session payload, cause %w", err)
	}
	buf := make([]byte, 1+c.aead.NonceSize(), 1+c.aead.NonceSize()+len(plain)+c.aead.Overhead())
	buf[0] = formatVersion
	nonce := buf[1:]
	if _, err := io.ReadFull(c.random, nonce); err != nil {
		return "", fmt.Errorf("unable to generate nonce, cause %w", err)
	}
	sealed := c.aead.Seal(buf, nonce, plain, c.ad)
	return valueEncoding.EncodeToString(sealed), nil
}

// Decode opens a value produced by Encode
func (c *Codec) Decode(value string) (Payload, error) {
	var p Payload
	// the decoder silently skips line breaks, which would let two
	// distinct strings open to the same payload
	if strings.ContainsAny(value, "\r\n") {
		return p, InvalidCookie{Reason: "unexpected line break"}
	}
	raw, err := valueEncoding.DecodeString(value)
	if err != nil {
		return p, InvalidCookie{Reason: "malformed encoding"}
	}
	headerLen := 1 + c.aead.NonceSize()
	if len(raw) < headerLen+c.aead.Overhead() {
		return p, InvalidCookie{Reason: "value too short"}
	}
	if raw[0] != formatVersion {
		return p, InvalidCookie{Reason: "unknown format version"}
	}
	plain, err := c.aead.Open(nil, raw[1:headerLen], raw[headerLen:], c.ad)
	if err != nil {
		return p, InvalidCookie{Reason: "authentication failed"}
	}
	dec := json.NewDecoder(bytes.NewReader(plain))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Payload{}, InvalidCookie{Reason: "unreadable payload"}
	}
	if dec.More() {
		return Payload{}, InvalidCookie{Reason: "trailing payload data"}
	}
	if p.UserID == "" {
		return Payload{}, InvalidCookie{Reason: "empty user id"}
	}
	return p, nil
}
