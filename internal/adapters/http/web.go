package web

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"bulkmail/internal/adapters/http/middleware"
	"bulkmail/internal/adapters/http/perf"
	"bulkmail/internal/adapters/metrics"
	accountStore "bulkmail/internal/adapters/storage/account"
	mailStore "bulkmail/internal/adapters/storage/mail"
	"bulkmail/internal/application/orchestrators"
	accountDomain "bulkmail/internal/domain/account"
)

// DefaultRateLimitPerSecond is the per-IP request budget when none is configured.
const DefaultRateLimitPerSecond = 10

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore accountStore.Store
	MailStore    mailStore.Store
}

// Options configures NewMux.
type Options struct {
	Transport          orchestrators.TransportSource
	MailFrom           string
	Tokens             *middleware.TokenIssuer
	Metrics            *metrics.Metrics
	Collector          *perf.Collector
	CORSOrigins        []string
	CSRFKey            []byte
	RateLimitPerSecond int
	SlowRequestMs      int
}

// api carries handler dependencies.
type api struct {
	stores     *Stores
	tokens     *middleware.TokenIssuer
	dispatcher *orchestrators.Dispatcher
	metrics    *metrics.Metrics
	collector  *perf.Collector
	now        func() time.Time
}

// NewMux wires HTTP handlers for the service. Background work started here
// (the rate limiter sweep) stops when ctx is done.
// PRE: s has both stores; opts.Tokens and opts.Transport are set; opts.CSRFKey is 32 bytes
func NewMux(ctx context.Context, s *Stores, opts Options) http.Handler {
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.RateLimitPerSecond <= 0 {
		opts.RateLimitPerSecond = DefaultRateLimitPerSecond
	}

	a := &api{
		stores: s,
		tokens: opts.Tokens,
		dispatcher: &orchestrators.Dispatcher{
			Transport: opts.Transport,
			From:      opts.MailFrom,
			Observer:  opts.Metrics,
		},
		metrics:   opts.Metrics,
		collector: opts.Collector,
		now:       time.Now,
	}

	mux := http.NewServeMux()
	a.registerRoutes(mux, opts.Metrics.Handler())

	limiter := middleware.NewRateLimiter(ctx, opts.RateLimitPerSecond, time.Second)

	// Outermost first: Timing -> CORS -> RateLimit -> CSRF -> SecurityHeaders -> mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, trustedHosts(opts.CORSOrigins)),
		middleware.RateLimit(limiter),
		middleware.CORS(opts.CORSOrigins),
		middleware.Timing(middleware.TimingConfig{
			SlowMs:    opts.SlowRequestMs,
			Collector: opts.Collector,
			Observer:  opts.Metrics,
		}),
	)
}

func (a *api) registerRoutes(mux *http.ServeMux, metricsHandler http.Handler) {
	authed := middleware.RequireAuth(a.tokens, a.stores.AccountStore)
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return authed(middleware.RequireRole(accountDomain.RoleAdmin)(h))
	}

	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("POST /api/auth/login", a.handleLogin)
	mux.Handle("POST /api/mail/send", authed(http.HandlerFunc(a.handleSendMail)))
	mux.Handle("GET /api/mail/history", authed(http.HandlerFunc(a.handleHistory)))
	mux.Handle("GET /api/mail/history/{id}", authed(http.HandlerFunc(a.handleHistoryRecord)))
	mux.Handle("GET /api/admin/perf", adminOnly(a.handlePerf))
	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("/", handleNotFound)
}

// trustedHosts reduces origins to the host[:port] form the CSRF check compares against.
func trustedHosts(extra []string) []string {
	var hosts []string
	for _, o := range append(append([]string{}, middleware.DefaultCORSOrigins...), extra...) {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
		}
	}
	return hosts
}
