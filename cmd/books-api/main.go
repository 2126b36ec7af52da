package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/deppfellow/go-books/internal/config"
	"github.com/deppfellow/go-books/internal/handler"
	"github.com/deppfellow/go-books/internal/logger"
	"github.com/deppfellow/go-books/internal/repository"
	"github.com/deppfellow/go-books/internal/router"
	"github.com/deppfellow/go-books/internal/server"
	"github.com/deppfellow/go-books/internal/service"
	"github.com/function61/gokit/dynversion"
	"github.com/function61/gokit/ossignal"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:     os.Args[0],
		Short:   "Books data-access API",
		Version: dynversion.Version,
	}

	rootCmd.AddCommand(serveEntrypoint())
	rootCmd.AddCommand(configEntrypoint())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveEntrypoint() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Starts the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func configEntrypoint() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Loads and validates the configuration from the environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration OK (env=%s, database=%s@%s)\n",
				cfg.Primary.Env, cfg.Database.Name, cfg.Database.Host)
			return nil
		},
	}
}

func serve() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	loggerService, err := logger.NewLoggerService(cfg.Observability)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer loggerService.Shutdown()

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize server")
		return err
	}

	repos := repository.NewRepositories(srv)

	services, err := service.NewService(srv, repos)
	if err != nil {
		log.Error().Err(err).Msg("could not create services")
		return err
	}

	handlers := handler.NewHandlers(srv, services)
	srv.SetupHTTPServer(router.NewRouter(srv, handlers))

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Start()
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("server stopped unexpectedly")
			_ = srv.DB.Close()
			return err
		}
		return nil
	case sig := <-ossignal.InterruptOrTerminate():
		log.Info().Str("signal", sig.String()).Msg("got signal; stopping")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return err
	}

	log.Info().Msg("server exited properly")
	return nil
}
