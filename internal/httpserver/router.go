package httpserver

import (
	"context"
	"net/http"
	"net/netip"
	"time"

	"log/slog"

	"golang.org/x/time/rate"

	"rentalcore/internal/auth"
	"rentalcore/internal/fleet"
	"rentalcore/internal/httpx"
	"rentalcore/internal/metrics"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger  *slog.Logger
	Auth    *auth.Service
	Fleet   *fleet.Handler
	Metrics *metrics.Metrics
	DB      Pinger

	CORSOrigin     string
	LoginRate      float64
	LoginBurst     int
	TrustedProxies []netip.Prefix
}

var publicRoutes = []map[string]string{
	{"name": "Home", "url": "/"},
	{"name": "View Vehicles", "url": "/vehicles"},
	{"name": "View Locations", "url": "/locations"},
	{"name": "Login", "url": "/login"},
	{"name": "Register", "url": "/register"},
}

func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"name":          "VEHICLE RENTAL SYSTEM MANAGEMENT",
			"public_routes": publicRoutes,
		})
	})

	// Health check
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := d.DB.Ping(ctx); err != nil {
			d.Logger.Error("health check", "err", err)
			httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", d.Metrics.Handler())

	// Auth
	limiter := newClientLimiter(rate.Limit(d.LoginRate), d.LoginBurst, 10*time.Minute, d.TrustedProxies)
	mux.Handle("POST /login", limiter.middleware(auth.LoginHandler(d.Auth, d.Logger)))
	mux.Handle("POST /register", limiter.middleware(auth.RegisterHandler(d.Auth, d.Logger)))

	guard := auth.NewGuard(d.Auth, d.Auth, d.Metrics, d.Logger)
	staffOrAdmin := func(h http.Handler) http.Handler {
		return guard.RequireRoles(h, auth.RoleStaff, auth.RoleAdmin)
	}
	adminOnly := func(h http.Handler) http.Handler {
		return guard.RequireRoles(h, auth.RoleAdmin)
	}

	customers := d.Fleet.Customers()
	mux.Handle("GET /customers", guard.Authenticated(customers.List))
	mux.Handle("POST /customers", staffOrAdmin(customers.Create))
	mux.Handle("PUT /customers/{id}", staffOrAdmin(customers.Update))
	mux.Handle("DELETE /customers/{id}", staffOrAdmin(customers.Delete))

	vehicles := d.Fleet.Vehicles()
	mux.Handle("GET /vehicles", vehicles.List)
	mux.Handle("POST /vehicles", staffOrAdmin(vehicles.Create))
	mux.Handle("PUT /vehicles/{id}", staffOrAdmin(vehicles.Update))
	mux.Handle("DELETE /vehicles/{id}", adminOnly(vehicles.Delete))

	locations := d.Fleet.Locations()
	mux.Handle("GET /locations", locations.List)
	mux.Handle("POST /locations", staffOrAdmin(locations.Create))
	mux.Handle("PUT /locations/{id}", staffOrAdmin(locations.Update))
	mux.Handle("DELETE /locations/{id}", adminOnly(locations.Delete))

	rentals := d.Fleet.Rentals()
	mux.Handle("GET /rentals", guard.RequireRoles(rentals.List, auth.RoleStaff))
	mux.Handle("POST /rentals", staffOrAdmin(rentals.Create))
	mux.Handle("PUT /rentals/{id}", staffOrAdmin(rentals.Update))
	mux.Handle("DELETE /rentals/{id}", adminOnly(rentals.Delete))

	return withRequestLog(withCORS(mux, d.CORSOrigin), d.Logger, d.Metrics)
}
