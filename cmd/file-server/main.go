package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"

	"github.com/ondrasimku/file-server-go/internal/config"
	httphandler "github.com/ondrasimku/file-server-go/internal/http"
	"github.com/ondrasimku/file-server-go/internal/log"
	"github.com/ondrasimku/file-server-go/internal/storage/local"
)

var Version = "dev"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Default()

	cmd := &cli.Command{
		Name:    "file-server",
		Usage:   "Serve, upload and delete files under a single storage root",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Sources:     cli.EnvVars("FILE_SERVER_ADDR"),
				Value:       cfg.HTTPAddr,
				Destination: &cfg.HTTPAddr,
				Usage:       "Address to listen on.",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Sources: cli.EnvVars("PORT"),
				Usage:   "Port to listen on, overrides the port of --addr.",
			},
			&cli.StringFlag{
				Name:        "storage-dir",
				Sources:     cli.EnvVars("FILE_SERVER_STORAGE_DIR"),
				Value:       cfg.StorageDir,
				Destination: &cfg.StorageDir,
				Usage:       "Directory uploaded files are stored under.",
				TakesFile:   true,
			},
			&cli.StringFlag{
				Name:        "reserved-dir",
				Sources:     cli.EnvVars("FILE_SERVER_RESERVED_DIR"),
				Value:       cfg.ReservedDir,
				Destination: &cfg.ReservedDir,
				Usage:       "Subdirectory of the storage directory created on startup.",
			},
			&cli.StringFlag{
				Name:        "static-dir",
				Sources:     cli.EnvVars("FILE_SERVER_STATIC_DIR"),
				Value:       cfg.StaticDir,
				Destination: &cfg.StaticDir,
				Usage:       "Directory of static assets served for unmatched paths.",
				TakesFile:   true,
			},
			&cli.StringFlag{
				Name:        "files-route",
				Sources:     cli.EnvVars("FILE_SERVER_FILES_ROUTE"),
				Value:       cfg.FilesRoute,
				Destination: &cfg.FilesRoute,
				Usage:       "Route prefix stored files are served from.",
			},
			&cli.StringFlag{
				Name:        "public-url",
				Sources:     cli.EnvVars("FILE_SERVER_PUBLIC_URL"),
				Value:       cfg.PublicBaseURL,
				Destination: &cfg.PublicBaseURL,
				Usage:       "Public URL prefix returned for uploaded files.",
			},
			&cli.Int64Flag{
				Name:        "max-file-size",
				Sources:     cli.EnvVars("FILE_SERVER_MAX_FILE_SIZE"),
				Value:       cfg.MaxFileSize,
				Destination: &cfg.MaxFileSize,
				Usage:       "Maximum accepted upload size in bytes.",
			},
			&cli.StringFlag{
				Name:        "auth-token",
				Sources:     cli.EnvVars("FILE_SERVER_AUTH_TOKEN"),
				Destination: &cfg.AuthToken,
				Usage:       "Bearer token required by upload and delete endpoints.",
			},
			&cli.StringFlag{
				Name:        "file-manager-template",
				Sources:     cli.EnvVars("FILE_SERVER_FILE_MANAGER_TEMPLATE"),
				Destination: &cfg.FileManager.Template,
				Usage:       "HTML page served on /file-server. Defaults to flmngr-example.html in the static directory.",
				TakesFile:   true,
			},
			&cli.StringFlag{
				Name:        "file-manager-upstream",
				Sources:     cli.EnvVars("FILE_SERVER_FILE_MANAGER_UPSTREAM"),
				Destination: &cfg.FileManager.Upstream,
				Usage:       "File manager backend proxied under /flmngr.",
			},
			&cli.StringSliceFlag{
				Name:        "cors-origin",
				Sources:     cli.EnvVars("FILE_SERVER_CORS_ORIGINS"),
				Value:       cfg.CORSOrigins,
				Destination: &cfg.CORSOrigins,
				Usage:       "Allowed CORS origins.",
			},
			&cli.StringFlag{
				Name:        "log-level",
				Sources:     cli.EnvVars("LOG_LEVEL"),
				Value:       cfg.LogLevel,
				Destination: &cfg.LogLevel,
				Usage:       "Logging level (debug, info, warn, error).",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.IsSet("port") {
				host, _, err := net.SplitHostPort(cfg.HTTPAddr)
				if err != nil {
					host = ""
				}
				cfg.HTTPAddr = net.JoinHostPort(host, strconv.Itoa(cmd.Int("port")))
			}
			return run(ctx, cfg)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "file-server: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := log.NewLogger(cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	storage, err := local.NewLocalStorage(cfg.StorageDir, cfg.PublicBaseURL, cfg.ReservedDir)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		return err
	}

	router, err := httphandler.NewRouter(storage, cfg, Version, logger)
	if err != nil {
		logger.Error("Failed to initialize router", "error", err)
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httphandler.NewHandler(router, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting file server", "addr", cfg.HTTPAddr, "storageDir", storage.BaseDir())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed to start", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	stop()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
		return err
	}

	logger.Info("Server exited")
	return nil
}
