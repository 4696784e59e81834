package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campuscore/campuscore/internal/config"
	"github.com/campuscore/campuscore/internal/events"
	"github.com/campuscore/campuscore/internal/httpserver"
	"github.com/campuscore/campuscore/internal/mailer"
	"github.com/campuscore/campuscore/internal/otp"
	"github.com/campuscore/campuscore/internal/ratelimit"
	"github.com/campuscore/campuscore/internal/repo"
	"github.com/campuscore/campuscore/internal/service"
	"github.com/campuscore/campuscore/pkg/logging"
)

const (
	otpTTL         = 5 * time.Minute
	otpIssueLimit  = 10
	otpIssueWindow = 5 * time.Minute
	tokenTTL       = 24 * time.Hour
)

func main() {
	cfg := config.Load()
	logger := logging.New("auth", cfg.LogLevel)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(httpserver.RequestLogger(logger))

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	store := repo.GormRepo{DB: db}

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
		defer producer.Close()
	}

	otpManager := otp.NewManager(
		store,
		ratelimit.New(otpIssueLimit, otpIssueWindow),
		&mailer.SMTPMailer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPFrom,
		},
		otpTTL,
	)

	loginSvc := &service.LoginService{
		Repo:      store,
		OTP:       otpManager,
		Events:    producer,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  tokenTTL,
	}

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: loginSvc},
		JWTSecret:   cfg.JWTSecret,
	})

	go func() {
		if err := e.Start(cfg.AuthAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}
}
