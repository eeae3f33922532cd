package forwardauth

import (
	"context"
	"time"

	"github.com/EchelonFour/traefik-basicauth-rememberme/credential"
	"github.com/EchelonFour/traefik-basicauth-rememberme/internal/logutil"
	"github.com/EchelonFour/traefik-basicauth-rememberme/session"
)

type (
	// Engine classifies a request as authenticated or not. It holds no
	// mutable state and is shared by every request.
	Engine struct {
		store         credential.Store
		codec         *session.Codec
		policy        session.Policy
		noSaveEnabled bool
		loginRedirect bool
		metrics       *Metrics
	}

	EngineOptions struct {
		Store  credential.Store
		Codec  *session.Codec
		Policy session.Policy
		// NoSaveEnabled honours the -nosave user id suffix
		NoSaveEnabled bool
		// LoginRedirect sends a freshly logged in client back to the
		// original URL instead of answering 200
		LoginRedirect bool
		Metrics       *Metrics
	}

	// Request carries the already-read header values a decision needs
	Request struct {
		Authorization string
		Jar           *session.Jar
		Secure        bool
		OriginalURL   string
	}
)

func NewEngine(opts EngineOptions) *Engine {
	return &Engine{
		store:         opts.Store,
		codec:         opts.Codec,
		policy:        opts.Policy,
		noSaveEnabled: opts.NoSaveEnabled,
		loginRedirect: opts.LoginRedirect,
		metrics:       opts.Metrics,
	}
}

// Decide tries the session cookie first, then the Authorization header,
// and otherwise returns a challenge. A failure on one channel never
// prevents trying the next one.
func (e *Engine) Decide(ctx context.Context, req Request) Outcome {
	if req.Jar == nil {
		req.Jar = &session.Jar{}
	}
	if id, ok := e.tryCookie(ctx, req.Jar); ok {
		e.metrics.decision(ViaCookie.String())
		return Authenticated{Identity: id, Via: ViaCookie}
	}
	if id, ok := e.tryHeader(ctx, req.Authorization); ok {
		e.metrics.decision(ViaHeader.String())
		out := Authenticated{Identity: id, Via: ViaHeader}
		if id.SuppressSession {
			return out
		}
		e.mint(ctx, id, req)
		out.IssueCookie = req.Jar.Pending(e.policy.Name)
		if out.IssueCookie != nil && e.loginRedirect && req.OriginalURL != "" {
			out.Redirect = req.OriginalURL
		}
		return out
	}
	e.metrics.decision("challenge")
	req.Jar.Remove(e.policy.Removal(req.Secure))
	return Unauthenticated{ClearCookie: req.Jar.Pending(e.policy.Name)}
}

func (e *Engine) tryCookie(ctx context.Context, jar *session.Jar) (Identity, bool) {
	log := logutil.GetOrDefault(ctx)
	for _, value := range jar.Values(e.policy.Name) {
		payload, err := e.codec.Decode(value)
		if err != nil {
			e.metrics.reject("invalid_cookie")
			log.Debug().Err(err).Msg("Ignoring session cookie")
			continue
		}
		if !e.check(ViaCookie, payload.UserID, payload.Password) {
			e.metrics.reject("stale_cookie")
			log.Info().Str("user", payload.UserID).Msg("Session cookie credentials are no longer valid")
			continue
		}
		return Identity{UserID: payload.UserID, Password: payload.Password}, true
	}
	return Identity{}, false
}

func (e *Engine) tryHeader(ctx context.Context, header string) (Identity, bool) {
	if header == "" {
		return Identity{}, false
	}
	log := logutil.GetOrDefault(ctx)
	creds, err := ParseBasic(header)
	if err != nil {
		e.metrics.reject("malformed_header")
		log.Info().Err(err).Msg("Invalid authorization header, ignoring")
		return Identity{}, false
	}
	id := NewIdentity(creds, e.noSaveEnabled)
	if !e.check(ViaHeader, id.UserID, id.Password) {
		e.metrics.reject("invalid_credentials")
		log.Info().Str("user", id.UserID).Msg("Invalid credentials")
		return Identity{}, false
	}
	return id, true
}

func (e *Engine) check(via Source, user, password string) bool {
	started := time.Now()
	defer e.metrics.observeCheck(via, started)
	return e.store.Check(user, password)
}

// mint records a fresh session cookie in the jar. When the cookie cannot
// be sealed the request is still authenticated, the client just is not
// remembered.
func (e *Engine) mint(ctx context.Context, id Identity, req Request) {
	value, err := e.codec.Encode(session.Payload{UserID: id.UserID, Password: id.Password})
	if err != nil {
		log := logutil.GetOrDefault(ctx)
		log.Error().Err(err).Msg("Unable to seal session cookie")
		return
	}
	req.Jar.Add(e.policy.Issue(value, req.Secure))
}
