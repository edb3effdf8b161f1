package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/odontoforense/case-api/api/handlers"
	"github.com/odontoforense/case-api/api/scheduler"
	"github.com/odontoforense/case-api/config"
)

const shutdownTimeout = 15 * time.Second

func main() {
	a := handlers.App{}
	a.Config = *config.New()

	//initialize database and router
	if err := a.Initialize(); err != nil {
		log.Fatal(err)
	}

	s := scheduler.NewScheduler(a.Collab)
	if err := s.Start(a.Config.PresenceSchedule); err != nil {
		zap.S().Warnw("presence report disabled", "error", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%v", a.Config.Port),
		Handler: a.Router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()

	zap.S().Infow("case-api is up and running",
		"port", a.Config.Port,
		"url", a.Config.BaseURL,
		"collabStrict", a.Config.CollabStrict,
	)

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			s.Stop()
			_ = a.Close(context.Background())
			log.Fatal(err)
		}
	case <-ctx.Done():
		zap.S().Info("shutting down case-api")
	}

	s.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.S().Errorw("failed to shut down http server", "error", err)
	}
	_ = a.Close(shutdownCtx)
}
