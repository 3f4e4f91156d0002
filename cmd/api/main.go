package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/smilecare/clinic-api/internal/config"
	appointmentHandler "github.com/smilecare/clinic-api/internal/handler/appointment"
	healthHandler "github.com/smilecare/clinic-api/internal/handler/health"
	referralHandler "github.com/smilecare/clinic-api/internal/handler/referral"
	reportHandler "github.com/smilecare/clinic-api/internal/handler/report"
	"github.com/smilecare/clinic-api/internal/middleware"
	"github.com/smilecare/clinic-api/internal/repository/postgres"
	"github.com/smilecare/clinic-api/internal/router"
	appointmentService "github.com/smilecare/clinic-api/internal/service/appointment"
	auditService "github.com/smilecare/clinic-api/internal/service/audit"
	eventService "github.com/smilecare/clinic-api/internal/service/event"
	referralService "github.com/smilecare/clinic-api/internal/service/referral"
	reportService "github.com/smilecare/clinic-api/internal/service/report"
	"github.com/smilecare/clinic-api/pkg/auth"
	"github.com/smilecare/clinic-api/pkg/logger"
	"github.com/smilecare/clinic-api/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Service: "clinic-api",
		Pretty:  cfg.Log.Pretty,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	m := metrics.New("clinic")

	appointmentRepo := postgres.NewAppointmentRepository(db)
	reportRepo := postgres.NewReportRepository(db)
	referralRepo := postgres.NewReferralRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	auditor := auditService.NewService(auditRepo)
	events := eventService.NewService(outboxRepo)
	reports := reportService.NewService(reportRepo, appointmentRepo, auditor)
	appointments := appointmentService.NewService(appointmentRepo, reports, auditor, events)
	referrals := referralService.NewService(referralRepo, appointments, auditor, events)

	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.TokenExpiry)
	authMW := middleware.NewAuthMiddleware(tokens)

	r := router.New(
		router.Config{
			RateLimit:      rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:      cfg.RateLimit.Burst,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		},
		authMW,
		m,
		healthHandler.NewHandler(db),
		appointmentHandler.NewHandler(appointments, m),
		reportHandler.NewHandler(reports),
		referralHandler.NewHandler(referrals),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "forced shutdown")
	}
	log.Info("server stopped")
}
