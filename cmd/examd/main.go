package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	api "github.com/mind-engage/mindengage-exams/internal/api/http"
	"github.com/mind-engage/mindengage-exams/internal/auth"
	authmw "github.com/mind-engage/mindengage-exams/internal/auth/middleware"
	"github.com/mind-engage/mindengage-exams/internal/config"
	"github.com/mind-engage/mindengage-exams/internal/db"
	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/logging"
)

func main() {
	cfg := config.FromEnv()
	pflag.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "listen address")
	pflag.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "sqlite or postgres")
	pflag.StringVar(&cfg.DBDSN, "db-dsn", cfg.DBDSN, "database DSN")
	pflag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug|info|warn|error")
	pflag.Parse()

	log := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)

	// --- DB ---
	driver, err := db.ParseDriver(cfg.DBDriver)
	if err != nil {
		log.Error("bad db driver", "err", err)
		os.Exit(2)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gw, err := db.Open(ctx, driver, cfg.DBDSN, log)
	cancel()
	if err != nil {
		log.Error("db open failed", "driver", driver, "err", err)
		os.Exit(1)
	}
	defer gw.Close()

	// --- Services ---
	exams := exam.NewService(gw,
		exam.WithLocation(cfg.Location()),
		exam.WithLimits(exam.Limits{MaxQuestions: cfg.ExamMaxQuestions, MaxDuration: cfg.ExamMaxDuration}),
		exam.WithLogger(log),
	)
	if cfg.AuthSecret == "dev-secret-change-me" && cfg.Mode == config.ModeOnline {
		log.Warn("AUTH_HMAC_SECRET is the development default")
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewRouter(api.Deps{
			Config:   cfg,
			Exams:    exams,
			Auth:     authmw.NewAuthService(cfg.AuthSecret, cfg.TokenTTL),
			Accounts: auth.NewAccounts(gw),
			Store:    gw,
			Logger:   log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", driver, "tz", cfg.Location().String())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "err", err)
			os.Exit(1)
		}
	case sig := <-stop:
		log.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("shutdown", "err", err)
		}
	}
}
