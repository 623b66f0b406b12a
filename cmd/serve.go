package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/cwlog/internal/repositories"
	"github.com/desertthunder/cwlog/internal/server"
	"github.com/desertthunder/cwlog/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the local HTTP log panel until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.reloadConfig(cmd); err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	repo := repositories.NewRunRepository(db)

	router := server.NewRouter()
	router.Use(server.LogRequests(r.logger))
	router.Handler(&server.PageHandler{})
	router.Handler(&server.StreamHandler{
		NewSource: r.backendSource,
		Options:   r.formatterOptions(false),
		Store:     repo,
		Logger:    r.logger,
	})
	router.Handler(&server.RunsHandler{Repo: repo})

	addr := r.config.Server.Addr()
	srv := &http.Server{Addr: addr, Handler: router}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	url := fmt.Sprintf("http://%s/", addr)
	r.logger.Info("serving log panel", "url", url)
	if cmd.Bool("open") {
		if err := shared.OpenBrowser(url); err != nil {
			r.logger.Warn("could not open browser", "err", err)
		}
	}

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
