package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Vovarama1992/language_buddy/internal/audio"
	"github.com/Vovarama1992/language_buddy/internal/delivery"
	"github.com/Vovarama1992/language_buddy/internal/speech"
	"github.com/Vovarama1992/language_buddy/internal/vocabulary"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API for the browser client",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	zl := logger.NewZapLogger(a.log.Sugar())

	// =========================================================================
	// DOMAIN SERVICES
	// =========================================================================

	notifier := a.notifier()
	collab, err := a.collaborators(notifier)
	if err != nil {
		return err
	}

	device := audio.NewPushDevice()
	capture := audio.NewCapture(device, audio.DefaultMIMEType, a.log)

	session, profiles := a.session(ctx, capture, collab.speech, collab.replies)
	defer session.Close()

	vocab := vocabulary.NewService(ctx, a.store, a.log)

	players := speech.NewPlayers(
		collab.speech,
		speech.NewFileOutput(a.cfg.AudioDir),
		a.cfg.CollaboratorTimeout,
		a.log,
	)
	defer players.Reset()

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	router := delivery.NewRouter(
		delivery.NewConversationHandler(session, device, players, zl),
		delivery.NewSpeechHandler(session, players, zl),
		delivery.NewProfileHandler(profiles, session, zl),
		delivery.NewVocabularyHandler(vocab, zl),
		delivery.RouteOptions{
			RateLimitPerMinute: a.cfg.RateLimitPerMinute,
			WaitTimeout:        2 * a.cfg.CollaboratorTimeout,
		},
	)

	// =========================================================================
	// START SERVER
	// =========================================================================

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Log(logger.LogEntry{
			Level:   "info",
			Message: "listening at " + srv.Addr,
			Service: "language_buddy",
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("shutdown", zap.Error(err))
	}
	return nil
}
