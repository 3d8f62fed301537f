package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/scheduling-service/internal/config"
	"github.com/jwalitptl/scheduling-service/internal/handler/appointment"
	"github.com/jwalitptl/scheduling-service/internal/handler/clinic"
	"github.com/jwalitptl/scheduling-service/internal/handler/dentist"
	"github.com/jwalitptl/scheduling-service/internal/handler/health"
	promhandler "github.com/jwalitptl/scheduling-service/internal/handler/prometheus"
	"github.com/jwalitptl/scheduling-service/internal/handler/timeslot"
	"github.com/jwalitptl/scheduling-service/internal/handler/user"
	"github.com/jwalitptl/scheduling-service/internal/middleware"
	"github.com/jwalitptl/scheduling-service/internal/repository/postgres"
	"github.com/jwalitptl/scheduling-service/internal/router"
	"github.com/jwalitptl/scheduling-service/pkg/logger"
	"github.com/jwalitptl/scheduling-service/pkg/messaging"
	"github.com/jwalitptl/scheduling-service/pkg/messaging/transport"
	"github.com/jwalitptl/scheduling-service/pkg/metrics"
	"github.com/jwalitptl/scheduling-service/pkg/security"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	l := logger.NewLogger(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
	})
	log := l.Zerolog()

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("scheduler stopped")
	}
	log.Info().Msg("scheduler exited properly")
}

func run(cfg *config.Config, log *zerolog.Logger) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.NewMetrics("scheduler", prometheus.DefaultRegisterer)

	// Initialize database
	db, err := postgres.NewDB(sigCtx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	gw := postgres.NewGateway(db, m)

	// Initialize repositories
	clinicRepo := postgres.NewClinicRepository(gw)
	userRepo := postgres.NewUserRepository(gw)
	notificationRepo := postgres.NewNotificationRepository(gw)
	appointmentRepo := postgres.NewAppointmentRepository(gw)
	timeslotRepo := postgres.NewTimeslotRepository(gw)
	ratingRepo := postgres.NewRatingRepository(gw)

	// Setup router
	r := router.New()
	r.Use(
		middleware.RequestID(*log),
		middleware.Logger(),
		middleware.Metrics(m),
		middleware.Recovery(),
		middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			Burst: cfg.RateLimit.Burst,
		}, m).RateLimit(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: cfg.Broker.HandlerTimeout}),
	)

	err = r.Register(
		clinic.NewHandler(clinicRepo, userRepo),
		user.NewHandler(userRepo, notificationRepo, appointmentRepo, security.NewBcryptHasher(cfg.Security.SaltRounds)),
		dentist.NewHandler(userRepo, ratingRepo),
		timeslot.NewHandler(timeslotRepo, userRepo, appointmentRepo),
		appointment.NewHandler(appointmentRepo, timeslotRepo, notificationRepo),
	)
	if err != nil {
		return fmt.Errorf("failed to register topics: %w", err)
	}

	// Connect broker
	broker, err := transport.Open(messaging.Config{
		Driver:         cfg.Broker.Driver,
		URL:            cfg.Broker.URL,
		QueueGroup:     cfg.Broker.QueueGroup,
		Name:           cfg.Service.Name,
		RequestTimeout: cfg.Broker.RequestTimeout,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}

	// Handlers keep running on serveCtx until the broker has drained, so
	// in-flight requests still get their reply after a signal.
	serveCtx, cancelServe := context.WithCancel(context.Background())
	defer cancelServe()
	if err := r.Serve(serveCtx, broker); err != nil {
		_ = broker.Close()
		return err
	}
	log.Info().
		Str("driver", cfg.Broker.Driver).
		Int("topics", len(r.Topics())).
		Msg("serving topics")

	srv := opsServer(cfg.Server, gw, log)
	if srv != nil {
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("ops server failed")
				stop()
			}
		}()
	}

	<-sigCtx.Done()
	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("ops server forced to shutdown")
		}
	}

	closed := make(chan error, 1)
	go func() { closed <- broker.Close() }()
	select {
	case err := <-closed:
		if err != nil {
			log.Error().Err(err).Msg("failed to close broker")
		}
	case <-shutdownCtx.Done():
		log.Warn().Msg("broker drain timed out")
	}
	return nil
}

// opsServer serves health and metrics. It returns nil when port is 0.
func opsServer(cfg config.ServerConfig, db health.Pinger, log *zerolog.Logger) *http.Server {
	if cfg.Port == 0 {
		return nil
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	health.NewHandler(db).RegisterRoutes(engine)
	promhandler.New(prometheus.DefaultGatherer).RegisterRoutes(engine)

	log.Info().Int("port", cfg.Port).Msg("ops server listening")
	return &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}
}
