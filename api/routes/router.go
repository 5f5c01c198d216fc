package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cartcontrollers "github.com/aureliajewels/storefront/api/controllers/cart"
	checkoutcontrollers "github.com/aureliajewels/storefront/api/controllers/checkout"
	profilecontrollers "github.com/aureliajewels/storefront/api/controllers/profile"
	"github.com/aureliajewels/storefront/api/middleware"
	"github.com/aureliajewels/storefront/api/responses"
	cartsvc "github.com/aureliajewels/storefront/internal/cart"
	checkoutsvc "github.com/aureliajewels/storefront/internal/checkout"
	"github.com/aureliajewels/storefront/internal/session"
	"github.com/aureliajewels/storefront/pkg/config"
	"github.com/aureliajewels/storefront/pkg/logger"
	"github.com/aureliajewels/storefront/pkg/redis"
)

// RouterParams bundles everything the HTTP surface needs.
type RouterParams struct {
	Config       *config.Config
	Logger       *logger.Logger
	Carts        *cartsvc.Registry
	Checkout     checkoutsvc.Service
	Profiles     *session.Registry
	PromGatherer prometheus.Gatherer
	// Redis is optional; when set, /healthz pings it.
	Redis redis.Pinger
}

// NewRouter assembles the storefront API.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		middleware.Session(logg),
	)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]string{"status": "ok", "env": cfg.App.Env}
		if params.Redis != nil {
			if err := params.Redis.Ping(r.Context()); err != nil {
				health["status"] = "degraded"
				health["redis"] = "unreachable"
				responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, health)
				return
			}
			health["redis"] = "ok"
		}
		responses.WriteSuccess(w, health)
	})

	if params.PromGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.PromGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			// The badge count deliberately skips RequireSession.
			r.Get("/count", cartcontrollers.Count(params.Carts, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSession(logg))
				r.Get("/", cartcontrollers.Fetch(params.Carts, logg))
				r.Post("/items", cartcontrollers.Add(params.Carts, logg))
				r.Patch("/items/{productID}", cartcontrollers.UpdateQuantity(params.Carts, logg))
				r.Delete("/items/{productID}", cartcontrollers.Remove(params.Carts, logg))
			})
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Use(middleware.RequireSession(logg))
			r.Post("/", checkoutcontrollers.Begin(params.Checkout, logg))
			r.Get("/", checkoutcontrollers.Current(params.Checkout, logg))
			r.Put("/destination", checkoutcontrollers.SetDestination(params.Checkout, logg))
			r.Put("/currency", checkoutcontrollers.SetCurrency(params.Checkout, logg))
			r.Post("/submit", checkoutcontrollers.Submit(params.Checkout, logg))
		})

		r.Route("/profile", func(r chi.Router) {
			r.Use(middleware.RequireSession(logg))
			r.Post("/refresh", profilecontrollers.Refresh(params.Profiles, logg))
			r.Put("/address", profilecontrollers.UpdateAddress(params.Profiles, logg))
		})
	})

	return r
}
