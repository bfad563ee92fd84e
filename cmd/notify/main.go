package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/pentacabs/booking-api/internal/mailer"
	"github.com/pentacabs/booking-api/internal/notify"
	"github.com/pentacabs/booking-api/pkg/config"
	"github.com/pentacabs/booking-api/pkg/events"
	"github.com/pentacabs/booking-api/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	m := selectMailer(cfg)

	worker := notify.NewWorker(eventBus, m)
	if err := worker.Start(); err != nil {
		logger.Error("Failed to start notification worker", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down notification worker...")
}

func selectMailer(cfg *config.Config) mailer.Mailer {
	switch {
	case cfg.Email.DevMode:
		logger.Info("Using dev mailer, emails go to logs")
		return mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		logger.Info("Using MailerSend mailer")
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom)
	default:
		logger.Info("Using SMTP mailer", "host", cfg.Email.SMTPHost, "port", cfg.Email.SMTPPort)
		return mailer.NewSMTPMailer(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPFrom,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPass,
			cfg.Email.SMTPUseTLS,
		)
	}
}
