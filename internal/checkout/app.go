// Package checkout assembles the HTTP application: middleware, metrics,
// health endpoints and the identity-guarded basket and order routes.
package checkout

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"BasketStore/internal/basket"
	"BasketStore/internal/identity"
	"BasketStore/internal/order"
	"BasketStore/internal/user"
	"BasketStore/pkg/kit"
)

func init() {
	// Money fields render as plain JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

const readyTimeout = 1 * time.Second

type HTTPDeps struct {
	Log      *zap.Logger
	Service  string
	Registry *prometheus.Registry

	MetricsEnabled bool
	MetricsToken   string

	RateLimit         int
	RateWindowSeconds int
}

type Deps struct {
	Users   user.Store
	Baskets *basket.Server
	Orders  *order.Server

	// Readiness probes, typically the DB and the basket cache.
	Pings []func(context.Context) error
}

func NewHandler(d Deps, deps HTTPDeps) http.Handler {
	r := chi.NewRouter()

	setupMiddleware(r, deps)
	setupMetrics(r, deps)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", readyz(d, deps.Log))

	r.Group(func(pr chi.Router) {
		pr.Use(identity.Require(d.Users, deps.Log))
		pr.Mount("/basket", d.Baskets.Routes())
		pr.Mount("/orders", d.Orders.Routes())
	})

	return r
}

func setupMiddleware(r *chi.Mux, deps HTTPDeps) {
	r.Use(chimw.RequestID)
	r.Use(kit.Recoverer)
	r.Use(kit.Logging(deps.Log))

	if deps.RateLimit > 0 {
		r.Use(kit.NewIPRateLimiter(deps.RateLimit, deps.RateWindowSeconds).Middleware)
	}
}

func setupMetrics(r *chi.Mux, deps HTTPDeps) {
	if deps.Registry == nil {
		return
	}

	metrics := kit.NewMetrics(deps.Registry)
	r.Use(metrics.Middleware(deps.Service, kit.ChiRoutePatternOrPath))

	if !deps.MetricsEnabled {
		return
	}

	r.With(kit.MetricsAuth(deps.MetricsToken)).
		Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
}

func readyz(d Deps, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		for _, ping := range d.Pings {
			if err := ping(ctx); err != nil {
				if log != nil {
					log.Warn("readyz failed", zap.Error(err))
				}
				kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
