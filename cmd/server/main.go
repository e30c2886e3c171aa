// Command server runs the interview calendar HTTP API.
//
//	@title						Interview Calendar API
//	@version					1.0
//	@description				Employer availability, interview bookings and candidate scheduling links.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"interviewcalendar/config"
	_ "interviewcalendar/docs"
	"interviewcalendar/internal/adapters/auth"
	"interviewcalendar/internal/adapters/email"
	"interviewcalendar/internal/adapters/gcal"
	"interviewcalendar/internal/adapters/telegram"
	httpdelivery "interviewcalendar/internal/delivery/http"
	"interviewcalendar/internal/delivery/http/controllers"
	"interviewcalendar/internal/delivery/http/middleware"
	"interviewcalendar/internal/domain"
	"interviewcalendar/internal/repository/postgres"
	"interviewcalendar/internal/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DBDriver, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db, logger); err != nil {
		return err
	}

	store := postgres.NewStore(db)
	employers := postgres.NewEmployerRepository(db)
	notifications := postgres.NewNotificationRepository(db)

	sinks := []domain.NotificationSink{services.NewInboxSink(notifications)}
	if cfg.TelegramEnabled() {
		sink, err := telegram.NewSink(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			return err
		}
		sinks = append(sinks, sink)
		logger.Info("telegram notifications enabled", "chat_id", cfg.TelegramChatID)
	}
	var subscribers []domain.EventSubscriber
	if cfg.CalendarEnabled() {
		creds, err := os.ReadFile(cfg.GoogleCalendarCredentialsFile)
		if err != nil {
			return fmt.Errorf("read google calendar credentials: %w", err)
		}
		publisher, err := gcal.NewPublisher(ctx, creds, cfg.GoogleCalendarID)
		if err != nil {
			return err
		}
		subscribers = append(subscribers, publisher)
		logger.Info("google calendar sync enabled", "calendar_id", cfg.GoogleCalendarID)
	}
	dispatcher := services.NewDispatcher(logger, cfg.DispatchTimeout, sinks, subscribers)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.SESInsecureSkipVerify,
		},
	}, logger)
	if err != nil {
		return err
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	digester, err := auth.NewTokenDigester(cfg.InvitationTokenSecret)
	if err != nil {
		return err
	}
	verifier := auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)

	notice := domain.NoticePolicy{Window: cfg.CancellationNotice, EmployerExempt: cfg.EmployerNoticeExempt}
	slotService := services.NewSlotService(store, employers, cfg.RequestTimeout)
	availabilityService := services.NewAvailabilityService(store.Slots(), employers, cfg.RequestTimeout)
	bookingService := services.NewBookingService(store, dispatcher, notice, cfg.RequestTimeout)
	invitationService := services.NewInvitationService(store, employers, availabilityService, digester, emailService, dispatcher, logger,
		services.InvitationSettings{TTL: cfg.InvitationTTL, PublicBaseURL: cfg.PublicBaseURL}, cfg.RequestTimeout)
	notificationService := services.NewNotificationService(notifications, cfg.RequestTimeout)

	reminders := services.NewReminderScheduler(store.Bookings(), dispatcher, logger, cfg.ReminderInterval)
	reminders.Start(ctx)
	defer reminders.Stop()

	router := httpdelivery.NewRouter(httpdelivery.Controllers{
		Health:        controllers.NewHealthController(logger, db),
		Slots:         controllers.NewSlotController(logger, slotService),
		Availability:  controllers.NewAvailabilityController(logger, availabilityService),
		Bookings:      controllers.NewBookingController(logger, bookingService),
		Invitations:   controllers.NewInvitationController(logger, invitationService),
		Notifications: controllers.NewNotificationController(logger, notificationService),
	}, verifier, logger)
	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, router))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
