// Package config resolves the gateway settings from Lua config files, an
// optional .env file and APP_* environment variables, in that order of
// increasing precedence.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/EchelonFour/traefik-basicauth-rememberme/forwardauth"
	"github.com/EchelonFour/traefik-basicauth-rememberme/session"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	EnvPrefix     = "APP_"
	SecretEnvVar  = EnvPrefix + "SECRET"
	RunModeEnvVar = "RUN_MODE"

	DefaultRunMode = "development"

	generatedSecretSize = 64
)

type (
	Config struct {
		Realm            string
		CookieName       string
		CookieDomain     string
		CookieLifetime   session.Lifetime
		HtpasswdPath     string
		HtpasswdContents string
		CredentialsDB    string
		UserHeader       string
		Listen           string
		Secret           Secret
		NoSaveEnabled    bool
		LoginRedirect    bool
		VerifyCacheTTL   time.Duration
		SecureCookie     forwardauth.SecureMode

		RunMode string
		// Files lists the config files that were actually evaluated
		Files []string
	}

	// Secret never renders its key material, not even through %#v
	Secret struct {
		key       []byte
		Generated bool
	}

	Options struct {
		// Dir holds default.lua, <run mode>.lua and local.lua
		Dir string
		// DotEnv is the path of the .env file, empty means ".env"
		DotEnv string

		// LookupEnv reports set-but-empty variables as present, an empty
		// APP_* value clears whatever the files configured
		LookupEnv func(string) (string, bool)
		Setenv    func(string, string) error
		Random func([]byte) (int, error)
	}
)

func (s Secret) Bytes() []byte { return s.key }

func (s Secret) String() string { return "[redacted]" }

func (s Secret) GoString() string { return "config.Secret{[redacted]}" }

func (s Secret) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func defaults() fileConfig {
	return fileConfig{
		Realm:          "Please sign in",
		CookieName:     "_auth_remember_me",
		CookieLifetime: "permanent",
		HtpasswdPath:   ".htpasswd",
		UserHeader:     "x-user",
		Listen:         "0.0.0.0:80",
		VerifyCacheTTL: "0s",
		SecureCookie:   "auto",
	}
}

// Load resolves and validates the configuration. The secret variable is
// cleared from the process environment once read.
func Load(opts Options) (*Config, error) {
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}
	if opts.Setenv == nil {
		opts.Setenv = os.Setenv
	}
	if opts.Random == nil {
		opts.Random = rand.Read
	}
	if opts.DotEnv == "" {
		opts.DotEnv = ".env"
	}

	dotenv, err := godotenv.Read(opts.DotEnv)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, ConfigurationError{Field: opts.DotEnv, Reason: "unable to read env file", Cause: err}
	}
	// .env never overrides the real environment
	lookupEnv := func(name string) (string, bool) {
		if v, ok := opts.LookupEnv(name); ok {
			return v, true
		}
		v, ok := dotenv[name]
		return v, ok
	}
	getenv := func(name string) string {
		v, _ := lookupEnv(name)
		return v
	}

	runMode := getenv(RunModeEnvVar)
	if runMode == "" {
		runMode = DefaultRunMode
	}

	raw := defaults()
	var files []string
	if opts.Dir != "" {
		files, err = loadLuaFiles(&raw, getenv,
			filepath.Join(opts.Dir, "default.lua"),
			filepath.Join(opts.Dir, runMode+".lua"),
			filepath.Join(opts.Dir, "local.lua"))
		if err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&raw, lookupEnv); err != nil {
		return nil, err
	}
	if v, ok := opts.LookupEnv(SecretEnvVar); ok && v != "" {
		// best effort, the value is already in memory
		_ = opts.Setenv(SecretEnvVar, "")
	}

	cfg, err := raw.resolve(opts.Random)
	if err != nil {
		return nil, err
	}
	cfg.RunMode = runMode
	cfg.Files = files
	return cfg, nil
}

func applyEnv(raw *fileConfig, lookupEnv func(string) (string, bool)) error {
	strs := map[string]*string{
		"REALM":             &raw.Realm,
		"COOKIE_NAME":       &raw.CookieName,
		"COOKIE_DOMAIN":     &raw.CookieDomain,
		"COOKIE_LIFETIME":   &raw.CookieLifetime,
		"HTPASSWD_PATH":     &raw.HtpasswdPath,
		"HTPASSWD_CONTENTS": &raw.HtpasswdContents,
		"CREDENTIALS_DB":    &raw.CredentialsDB,
		"USER_HEADER":       &raw.UserHeader,
		"LISTEN":            &raw.Listen,
		"SECRET":            &raw.Secret,
		"VERIFY_CACHE_TTL":  &raw.VerifyCacheTTL,
		"SECURE_COOKIE":     &raw.SecureCookie,
	}
	for name, dst := range strs {
		if v, ok := lookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}
	bools := map[string]*bool{
		"NO_SAVE_ENABLED": &raw.NoSaveEnabled,
		"LOGIN_REDIRECT":  &raw.LoginRedirect,
	}
	for name, dst := range bools {
		v, ok := lookupEnv(EnvPrefix + name)
		if !ok {
			continue
		}
		if v == "" {
			*dst = false
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return ConfigurationError{Field: EnvPrefix + name, Reason: "expecting a boolean", Cause: err}
		}
		*dst = b
	}
	return nil
}

func (raw fileConfig) resolve(random func([]byte) (int, error)) (*Config, error) {
	cfg := &Config{
		Realm:            raw.Realm,
		CookieName:       raw.CookieName,
		CookieDomain:     raw.CookieDomain,
		HtpasswdPath:     raw.HtpasswdPath,
		HtpasswdContents: raw.HtpasswdContents,
		CredentialsDB:    raw.CredentialsDB,
		UserHeader:       strings.ToLower(raw.UserHeader),
		Listen:           raw.Listen,
		NoSaveEnabled:    raw.NoSaveEnabled,
		LoginRedirect:    raw.LoginRedirect,
	}

	if cfg.Realm == "" || strings.ContainsAny(cfg.Realm, "\r\n\x00") {
		return nil, ConfigurationError{Field: "realm", Reason: "must be a non-empty single line"}
	}
	if !isToken(cfg.CookieName) {
		return nil, ConfigurationError{Field: "cookie_name", Reason: fmt.Sprintf("%q is not a valid cookie name", cfg.CookieName)}
	}
	if cfg.CookieDomain != "" && !isDomain(cfg.CookieDomain) {
		return nil, ConfigurationError{Field: "cookie_domain", Reason: fmt.Sprintf("%q is not a valid domain", cfg.CookieDomain)}
	}
	if !isToken(cfg.UserHeader) {
		return nil, ConfigurationError{Field: "user_header", Reason: fmt.Sprintf("%q is not a valid header name", cfg.UserHeader)}
	}
	if _, _, err := net.SplitHostPort(cfg.Listen); err != nil {
		return nil, ConfigurationError{Field: "listen", Reason: "expecting host:port", Cause: err}
	}
	if cfg.HtpasswdContents == "" && cfg.CredentialsDB == "" && cfg.HtpasswdPath == "" {
		return nil, ConfigurationError{Field: "htpasswd_path", Reason: "no credential source configured"}
	}

	var err error
	if cfg.CookieLifetime, err = session.ParseLifetime(raw.CookieLifetime); err != nil {
		return nil, ConfigurationError{Field: "cookie_lifetime", Reason: "invalid lifetime", Cause: err}
	}
	if cfg.VerifyCacheTTL, err = time.ParseDuration(raw.VerifyCacheTTL); err != nil {
		return nil, ConfigurationError{Field: "verify_cache_ttl", Reason: "invalid duration", Cause: err}
	} else if cfg.VerifyCacheTTL < 0 {
		return nil, ConfigurationError{Field: "verify_cache_ttl", Reason: "cannot be negative"}
	}
	if cfg.SecureCookie, err = forwardauth.ParseSecureMode(raw.SecureCookie); err != nil {
		return nil, ConfigurationError{Field: "secure_cookie", Reason: "invalid mode", Cause: err}
	}
	if cfg.Secret, err = resolveSecret(raw.Secret, random); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveSecret(value string, random func([]byte) (int, error)) (Secret, error) {
	if value == "" {
		key := make([]byte, generatedSecretSize)
		if _, err := random(key); err != nil {
			return Secret{}, ConfigurationError{Field: "secret", Reason: "unable to generate a random secret", Cause: err}
		}
		return Secret{key: key, Generated: true}, nil
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(value))
	if err != nil {
		// never include the value itself
		return Secret{}, ConfigurationError{Field: "secret", Reason: "must be standard base64"}
	}
	if len(key) < session.MinSecretLength {
		return Secret{}, ConfigurationError{Field: "secret", Reason: fmt.Sprintf("decoded secret has %v bytes, need at least %v", len(key), session.MinSecretLength)}
	}
	return Secret{key: key}, nil
}

// MarshalZerologObject logs every setting except the secret material.
func (c *Config) MarshalZerologObject(e *zerolog.Event) {
	e.Str("realm", c.Realm).
		Str("cookie_name", c.CookieName).
		Str("cookie_domain", c.CookieDomain).
		Stringer("cookie_lifetime", c.CookieLifetime).
		Str("htpasswd_path", c.HtpasswdPath).
		Bool("htpasswd_contents", c.HtpasswdContents != "").
		Str("credentials_db", c.CredentialsDB).
		Str("user_header", c.UserHeader).
		Str("listen", c.Listen).
		Bool("generated_secret", c.Secret.Generated).
		Bool("no_save_enabled", c.NoSaveEnabled).
		Bool("login_redirect", c.LoginRedirect).
		Dur("verify_cache_ttl", c.VerifyCacheTTL).
		Stringer("secure_cookie", c.SecureCookie).
		Str("run_mode", c.RunMode).
		Strs("files", c.Files)
}

// isToken reports whether s is an RFC 7230 token, which covers both
// cookie names and header field names.
func isToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0:
		default:
			return false
		}
	}
	return true
}

func isDomain(s string) bool {
	s = strings.TrimPrefix(s, ".")
	if s == "" || len(s) > 253 {
		return false
	}
	for _, label := range strings.Split(s, ".") {
		if label == "" || len(label) > 63 || label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-') {
				return false
			}
		}
	}
	return true
}
