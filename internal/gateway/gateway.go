// Package gateway serves the booking service as JSON over HTTP: REST
// routes, the live WebSocket feed, the grpc-web bridge and operational
// endpoints.
package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"booking-requests-api/internal/handler"
	"booking-requests-api/internal/middleware"
	"booking-requests-api/internal/rpc"
)

// HTTPRecorder receives one observation per request.
type HTTPRecorder interface {
	RecordHTTP(method, route, status string, d time.Duration)
}

type Options struct {
	Secret  string
	Origins []string
	Limiter *middleware.RateLimiter
	Log     *zap.Logger

	// optional
	Metrics        HTTPRecorder
	MetricsHandler http.Handler
	GRPCWeb        http.Handler
	Ready          func(ctx context.Context) error
}

type Gateway struct {
	h    *handler.Handler
	opts Options
	log  *zap.Logger
}

// New builds the HTTP handler.
func New(h *handler.Handler, opts Options) http.Handler {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	g := &Gateway{h: h, opts: opts, log: opts.Log}

	r := mux.NewRouter()
	r.Use(g.logging, g.metrics)

	r.HandleFunc("/healthz", g.health).Methods(http.MethodGet)
	if opts.MetricsHandler != nil {
		r.Handle("/metrics", opts.MetricsHandler).Methods(http.MethodGet)
	}
	if opts.GRPCWeb != nil {
		r.PathPrefix("/rpc/").Handler(http.StripPrefix("/rpc", opts.GRPCWeb))
	}

	api := r.PathPrefix("/api").Subrouter()

	open := api.PathPrefix("/auth").Subrouter()
	open.Use(g.rateLimit)
	open.HandleFunc("/register", serve(g, http.StatusCreated, body[rpc.RegisterRequest], h.Register)).Methods(http.MethodPost)
	open.HandleFunc("/login", serve(g, http.StatusOK, body[rpc.LoginRequest], h.Login)).Methods(http.MethodPost)
	open.HandleFunc("/refresh", serve(g, http.StatusOK, body[rpc.RefreshRequest], h.Refresh)).Methods(http.MethodPost)

	// the browser cannot set headers on a WebSocket handshake; live authenticates itself
	api.HandleFunc("/live", g.live).Methods(http.MethodGet)

	authed := api.NewRoute().Subrouter()
	authed.Use(g.authenticate)
	authed.HandleFunc("/auth/logout", serve(g, http.StatusNoContent, none, h.Logout)).Methods(http.MethodPost)
	authed.HandleFunc("/profile", serve(g, http.StatusOK, none, h.GetProfile)).Methods(http.MethodGet)
	authed.HandleFunc("/profile", serve(g, http.StatusOK, body[rpc.UpdateProfileRequest], h.UpdateProfile)).Methods(http.MethodPut)

	authed.HandleFunc("/appointments", serve(g, http.StatusOK, listQuery, h.ListAppointments)).Methods(http.MethodGet)
	authed.HandleFunc("/appointments", serve(g, http.StatusCreated, body[rpc.CreateAppointmentRequest], h.CreateAppointment)).Methods(http.MethodPost)
	authed.HandleFunc("/appointments/{id}", serve(g, http.StatusOK, pathID, h.GetAppointment)).Methods(http.MethodGet)

	authed.HandleFunc("/help-requests", serve(g, http.StatusOK, listQuery, h.ListHelpRequests)).Methods(http.MethodGet)
	authed.HandleFunc("/help-requests", serve(g, http.StatusCreated, body[rpc.CreateHelpRequestRequest], h.CreateHelpRequest)).Methods(http.MethodPost)
	authed.HandleFunc("/help-requests/{id}", serve(g, http.StatusOK, pathID, h.GetHelpRequest)).Methods(http.MethodGet)

	authed.HandleFunc("/stats", serve(g, http.StatusOK, none, h.GetStats)).Methods(http.MethodGet)

	authed.HandleFunc("/admin/appointments", serve(g, http.StatusOK, listQuery, h.AdminListAppointments)).Methods(http.MethodGet)
	authed.HandleFunc("/admin/appointments/{id}/status", serve(g, http.StatusOK, decision, h.SetAppointmentStatus)).Methods(http.MethodPost)
	authed.HandleFunc("/admin/help-requests", serve(g, http.StatusOK, listQuery, h.AdminListHelpRequests)).Methods(http.MethodGet)
	authed.HandleFunc("/admin/help-requests/{id}/status", serve(g, http.StatusOK, decision, h.SetHelpRequestStatus)).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})

	return g.cors(r)
}

func (g *Gateway) health(w http.ResponseWriter, r *http.Request) {
	if g.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := g.opts.Ready(ctx); err != nil {
			g.log.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
