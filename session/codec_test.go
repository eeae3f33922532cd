package session

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/EchelonFour/traefik-basicauth-rememberme/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/chacha20poly1305"
)

const cookieName = "_auth_remember_me"

func newTestCodec(t *testing.T) *Codec {
	c, err := NewCodec(testutil.SecretBytes(t), cookieName)
	require.NoError(t, err)
	return c
}

func TestRoundTrip(t *testing.T) {
	c := newTestCodec(t)
	for _, p := range []Payload{
		{UserID: "alice", Password: "secret"},
		{UserID: "bob", Password: ""},
		{UserID: "carol", Password: "pass:with:colons"},
		{UserID: "dåve", Password: "ünïcode ✓"},
		{UserID: strings.Repeat("x", 200), Password: strings.Repeat("y", 200)},
	} {
		value, err := c.Encode(p)
		require.NoError(t, err)
		assert.NotContains(t, value, p.UserID)
		got, err := c.Decode(value)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestEncodeIsRandomized(t *testing.T) {
	c := newTestCodec(t)
	a, err := c.Encode(Payload{UserID: "alice", Password: "secret"})
	require.NoError(t, err)
	b, err := c.Encode(Payload{UserID: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEverySingleBitFlipIsRejected(t *testing.T) {
	c := newTestCodec(t)
	value, err := c.Encode(Payload{UserID: "alice", Password: "secret"})
	require.NoError(t, err)
	for i := 0; i < len(value); i++ {
		for bit := 0; bit < 8; bit++ {
			flipped := []byte(value)
			flipped[i] ^= 1 << bit
			_, err := c.Decode(string(flipped))
			var invalid InvalidCookie
			if !errors.As(err, &invalid) {
				t.Fatalf("flipping bit %v of byte %v was accepted: %v", bit, i, err)
			}
		}
	}
}

func TestEverySingleBitFlipOfRawBytesIsRejected(t *testing.T) {
	c := newTestCodec(t)
	value, err := c.Encode(Payload{UserID: "alice", Password: "secret"})
	require.NoError(t, err)
	raw, err := base64.RawURLEncoding.DecodeString(value)
	require.NoError(t, err)
	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			flipped := append([]byte(nil), raw...)
			flipped[i] ^= 1 << bit
			_, err := c.Decode(base64.RawURLEncoding.EncodeToString(flipped))
			assert.Error(t, err, "byte %v bit %v", i, bit)
		}
	}
}

func TestDecodeRejects(t *testing.T) {
	c := newTestCodec(t)
	other, err := NewCodec([]byte(strings.Repeat("k", 32)), cookieName)
	require.NoError(t, err)
	renamed, err := NewCodec(testutil.SecretBytes(t), "other_cookie")
	require.NoError(t, err)

	value, err := c.Encode(Payload{UserID: "alice", Password: "secret"})
	require.NoError(t, err)

	_, err = other.Decode(value)
	assert.Error(t, err, "different secret")
	_, err = renamed.Decode(value)
	assert.Error(t, err, "value moved to another cookie name")

	for name, bad := range map[string]string{
		"empty":       "",
		"not base64":  "!!!!",
		"padded":      value + "=",
		"line break":  value[:10] + "\n" + value[10:],
		"truncated":   value[:len(value)-2],
		"short":       base64.RawURLEncoding.EncodeToString([]byte{formatVersion, 1, 2, 3}),
		"extra bytes": value + "AA",
	} {
		_, err := c.Decode(bad)
		var invalid InvalidCookie
		assert.True(t, errors.As(err, &invalid), "%v: %v", name, err)
	}
}

func TestDecodeRejectsBadPlaintext(t *testing.T) {
	c := newTestCodec(t)
	seal := func(version byte, plain string) string {
		nonce := make([]byte, chacha20poly1305.NonceSizeX)
		buf := append([]byte{version}, nonce...)
		return base64.RawURLEncoding.EncodeToString(c.aead.Seal(buf, nonce, []byte(plain), c.ad))
	}
	_, err := c.Decode(seal(formatVersion, `{"u":"alice","p":"secret"}`))
	require.NoError(t, err, "control value must decode")

	for name, plain := range map[string]string{
		"not json":      `alice:secret`,
		"unknown field": `{"u":"alice","p":"secret","admin":true}`,
		"empty user":    `{"u":"","p":"secret"}`,
		"trailing":      `{"u":"alice","p":"secret"}{}`,
	} {
		_, err := c.Decode(seal(formatVersion, plain))
		assert.Error(t, err, name)
	}
	_, err = c.Decode(seal(formatVersion+1, `{"u":"alice","p":"secret"}`))
	assert.Error(t, err, "unknown version")
}

func TestNewCodecRequiresLongSecret(t *testing.T) {
	_, err := NewCodec(make([]byte, MinSecretLength-1), cookieName)
	assert.Error(t, err)
}
