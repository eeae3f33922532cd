package forwardauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/EchelonFour/traefik-basicauth-rememberme/internal/logutil"
	"github.com/EchelonFour/traefik-basicauth-rememberme/session"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

const (
	HealthPath  = "/.forward-auth/health"
	MetricsPath = "/.forward-auth/metrics"

	headerRequestID = "X-Request-Id"
)

type (
	HandlerOptions struct {
		Secure SecureMode
		// Users and GeneratedSecret are reported by the health endpoint
		Users           int
		GeneratedSecret bool
		// Metrics is optional
		Metrics *Metrics
	}

	healthReport struct {
		Status          string `json:"status"`
		Users           int    `json:"users"`
		GeneratedSecret bool   `json:"generated_secret"`
	}
)

// AsHandler exposes the engine over HTTP. Every path other than the
// health and metrics endpoints, with any method, is a forward-auth
// check; routing failures and panics resolve to the same challenge.
func AsHandler(ctx context.Context, engine *Engine, shaper Shaper, opts HandlerOptions) http.Handler {
	router := httprouter.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false
	router.HandleMethodNotAllowed = false
	router.HandleOPTIONS = false

	router.GET(HealthPath, health(opts))
	if opts.Metrics != nil {
		router.Handler("GET", MetricsPath, opts.Metrics.Handler())
	}

	router.NotFound = withRequestLogger(ctx, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := Request{
			Authorization: r.Header.Get("Authorization"),
			Jar:           session.NewJar(r),
			Secure:        IsSecure(r, opts.Secure),
		}
		req.OriginalURL, _ = OriginalURL(r)
		outcome := engine.Decide(r.Context(), req)
		shaper.Render(w, outcome)
	}))
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		log := logutil.GetOrDefault(r.Context())
		log.Error().Str("panic", fmt.Sprint(v)).Msg("Issue validating user")
		shaper.RenderChallenge(w, nil)
	}
	return router
}

func health(opts HandlerOptions) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		err := json.NewEncoder(w).Encode(healthReport{
			Status:          "ok",
			Users:           opts.Users,
			GeneratedSecret: opts.GeneratedSecret,
		})
		if err != nil {
			log := logutil.GetOrDefault(r.Context())
			log.Debug().Err(err).Msg("Unable to write health report")
		}
	}
}

// withRequestLogger attaches a request scoped logger to the context
func withRequestLogger(ctx context.Context, next http.Handler) http.Handler {
	base := logutil.GetOrDefault(ctx)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		log := base.With().
			Str("request.id", id).
			Str("method", r.Method).
			Str("forwarded.host", r.Header.Get(headerForwardedHost)).
			Str("forwarded.uri", r.Header.Get(headerForwardedURI)).
			Logger()
		log.Debug().
			Str("path", r.URL.Path).
			Str("remote.addr", r.RemoteAddr).
			Str("referer", r.Referer()).
			Msg("received request")
		next.ServeHTTP(w, r.WithContext(logutil.WithLogger(r.Context(), log)))
	})
}
