package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"booking-requests-api/internal/auth"
	"booking-requests-api/internal/config"
	"booking-requests-api/internal/gateway"
	gweb "booking-requests-api/internal/grpcweb"
	"booking-requests-api/internal/handler"
	"booking-requests-api/internal/live"
	"booking-requests-api/internal/logging"
	"booking-requests-api/internal/metrics"
	"booking-requests-api/internal/middleware"
	"booking-requests-api/internal/model"
	"booking-requests-api/internal/notify"
	"booking-requests-api/internal/rpc"
	"booking-requests-api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.Env, cfg.LogDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	// database
	pool, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("connected to postgres")

	st := store.New(pool)
	applied, err := st.Migrate(ctx)
	if err != nil {
		return err
	}
	for _, f := range applied {
		log.Info("migration applied", zap.String("file", f))
	}
	if err := bootstrapAdmin(ctx, st, cfg.Admin, log); err != nil {
		return err
	}

	m := metrics.New()

	// live updates: in-process hub, shared through redis when configured
	hub := live.NewHub()
	var events live.Publisher = hub
	if cfg.RedisURL != "" {
		rdb, err := live.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		relay := live.NewRedisRelay(rdb, live.DefaultChannel, hub, log.Named("relay"))
		events = relay
		go func() {
			// Publish falls back to the local hub while the relay is down
			if err := relay.Run(ctx); err != nil {
				log.Error("redis relay stopped, live updates stay on this instance", zap.Error(err))
			}
		}()
	}

	notifier := newNotifier(cfg, log.Named("notify"), m)
	defer notifier.Wait()

	h := handler.New(st, cfg.JWTSecret,
		handler.WithLogger(log.Named("handler")),
		handler.WithLive(hub, events),
		handler.WithNotifier(notifier),
		handler.WithMetrics(m),
	)

	// grpc server
	rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	bridgeKey := uuid.New().String()
	rl.TrustBridge(bridgeKey)
	go rl.Run(ctx)

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.Logging(log.Named("grpc"), m),
			middleware.RateLimit(rl),
			middleware.Auth(cfg.JWTSecret),
		),
		grpc.ChainStreamInterceptor(
			middleware.StreamLogging(log.Named("grpc"), m),
			middleware.StreamAuth(cfg.JWTSecret),
		),
	)
	rpc.RegisterBookingServiceServer(srv, h)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	errc := make(chan error, 2)
	go func() {
		log.Info("grpc listening", zap.String("addr", lis.Addr().String()))
		errc <- srv.Serve(lis)
	}()

	// grpc-web bridge -> forwards browser requests to grpc on localhost
	bridge, err := gweb.New("localhost:"+cfg.GRPCPort, cfg.AllowedOrigins, log.Named("grpcweb"))
	if err != nil {
		return err
	}
	defer bridge.Close()
	bridge.SetForwardKey(bridgeKey)

	httpSrv := &http.Server{
		Addr: ":" + cfg.WebPort,
		Handler: gateway.New(h, gateway.Options{
			Secret:         cfg.JWTSecret,
			Origins:        cfg.AllowedOrigins,
			Limiter:        rl,
			Log:            log.Named("http"),
			Metrics:        m,
			MetricsHandler: m.Handler(),
			GRPCWeb:        bridge.Handler(),
			Ready:          st.Ping,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		// live feeds end when the server context does
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	go func() {
		log.Info("http listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	serveErr := waitForStop(ctx, errc, log)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		httpSrv.Close()
	}
	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		// open Watch streams keep GracefulStop waiting
		srv.Stop()
	}
	return serveErr
}

// waitForStop blocks until a signal or the first server failure. A failure
// is returned so the process exits non-zero.
func waitForStop(ctx context.Context, errc <-chan error, log *zap.Logger) error {
	select {
	case <-ctx.Done():
		log.Info("shutting down")
		return nil
	case err := <-errc:
		log.Error("server stopped", zap.Error(err))
		return err
	}
}

func bootstrapAdmin(ctx context.Context, st *store.Store, a config.Admin, log *zap.Logger) error {
	if a.Email == "" || a.Password == "" {
		return nil
	}
	hash, err := auth.HashPassword(a.Password)
	if err != nil {
		return err
	}
	u, err := st.EnsureAdmin(ctx, strings.ToLower(strings.TrimSpace(a.Email)), hash, a.Name)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if u.Role != model.RoleAdmin {
		return fmt.Errorf("bootstrap admin: %s was not promoted", a.Email)
	}
	log.Info("admin ready", zap.String("user_id", u.ID))
	return nil
}

func newNotifier(cfg *config.Config, log *zap.Logger, m *metrics.Metrics) *notify.Dispatcher {
	d := notify.NewDispatcher(log, m)
	if cfg.SMTP.Enabled() {
		d.Email = notify.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From)
		log.Info("email notifications enabled", zap.String("host", cfg.SMTP.Host))
	}
	if cfg.Twilio.Enabled() {
		d.SMS = notify.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, false)
		d.WhatsApp = notify.NewTwilioSender(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.FromNumber, true)
		log.Info("sms and whatsapp notifications enabled")
	}
	return d
}
