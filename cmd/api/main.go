package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-api/config"
	"github.com/jwalitptl/clinic-api/internal/authz"
	"github.com/jwalitptl/clinic-api/internal/email"
	appointmenthandler "github.com/jwalitptl/clinic-api/internal/handler/appointment"
	availabilityhandler "github.com/jwalitptl/clinic-api/internal/handler/availability"
	devicehandler "github.com/jwalitptl/clinic-api/internal/handler/device"
	healthhandler "github.com/jwalitptl/clinic-api/internal/handler/health"
	patienthandler "github.com/jwalitptl/clinic-api/internal/handler/patient"
	slothandler "github.com/jwalitptl/clinic-api/internal/handler/slot"
	therapisthandler "github.com/jwalitptl/clinic-api/internal/handler/therapist"
	treatmenthandler "github.com/jwalitptl/clinic-api/internal/handler/treatment"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/router"
	appointmentsvc "github.com/jwalitptl/clinic-api/internal/service/appointment"
	availabilitysvc "github.com/jwalitptl/clinic-api/internal/service/availability"
	devicesvc "github.com/jwalitptl/clinic-api/internal/service/device"
	notificationsvc "github.com/jwalitptl/clinic-api/internal/service/notification"
	patientsvc "github.com/jwalitptl/clinic-api/internal/service/patient"
	slotsvc "github.com/jwalitptl/clinic-api/internal/service/slot"
	therapistsvc "github.com/jwalitptl/clinic-api/internal/service/therapist"
	treatmentsvc "github.com/jwalitptl/clinic-api/internal/service/treatment"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Setup(cfg.Log.Level, cfg.Log.Pretty)

	if err := validator.RegisterCustom(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer broker.Close()

	// Repositories
	appointmentRepo := postgres.NewAppointmentRepository(db)
	availabilityRepo := postgres.NewAvailabilityRepository(db)
	treatmentRepo := postgres.NewTreatmentRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	therapistRepo := postgres.NewTherapistRepository(db)
	deviceRepo := postgres.NewDeviceRepository(db)
	txManager := postgres.NewTxManager(db)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	engineMetrics := metrics.New("clinic")
	engineMetrics.Register(registry)

	// Services
	emailSvc := email.NewSMTPService(cfg.SMTP)
	notifier := notificationsvc.NewService(patientRepo, therapistRepo, treatmentRepo, emailSvc, broker, engineMetrics)
	availabilitySvc := availabilitysvc.NewService(availabilityRepo, cfg.Availability.CacheTTL)
	appointmentSvc := appointmentsvc.NewService(appointmentRepo, treatmentRepo, availabilitySvc, txManager, notifier, engineMetrics)
	slotSvc := slotsvc.NewService(appointmentRepo, availabilityRepo, treatmentRepo, engineMetrics)
	treatmentSvc := treatmentsvc.NewService(treatmentRepo)
	patientSvc := patientsvc.NewService(patientRepo)
	therapistSvc := therapistsvc.NewService(therapistRepo)
	deviceSvc := devicesvc.NewService(deviceRepo)

	resolver := authz.NewResolver(patientSvc, therapistSvc)

	// Handlers
	handlers := router.Handlers{
		Health:       healthhandler.NewHandler(db),
		Appointment:  appointmenthandler.NewHandler(appointmentSvc, resolver),
		Availability: availabilityhandler.NewHandler(availabilitySvc, slotSvc, resolver),
		Slot:         slothandler.NewHandler(slotSvc),
		Device:       devicehandler.NewHandler(deviceSvc),
		Treatment:    treatmenthandler.NewHandler(treatmentSvc),
		Patient:      patienthandler.NewHandler(patientSvc),
		Therapist:    therapisthandler.NewHandler(therapistSvc),
	}

	authMiddleware := middleware.NewAuthMiddleware(auth.NewVerifier(cfg.JWT.Secret))

	r := router.New(authMiddleware, handlers, router.Config{
		RateLimit:       rate.Limit(cfg.RateLimit.RPS),
		RateBurst:       cfg.RateLimit.Burst,
		CORSConfig:      middleware.DefaultCORSConfig(),
		MetricsPrefix:   "clinic_http",
		RequestTimeout:  30 * time.Second,
		SlotCacheMaxAge: 30 * time.Second,
		MetricsEndpoint: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})
	if err := r.RegisterMetrics(registry); err != nil {
		log.Fatal().Err(err).Msg("failed to register metrics")
	}
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
