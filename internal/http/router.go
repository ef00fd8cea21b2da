package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/ondrasimku/file-server-go/internal/auth"
	"github.com/ondrasimku/file-server-go/internal/config"
	"github.com/ondrasimku/file-server-go/internal/http/handler"
	"github.com/ondrasimku/file-server-go/internal/storage"
)

func NewRouter(storage storage.Storage, cfg *config.Config, version string, logger *slog.Logger) (*gin.Engine, error) {
	router := gin.New()
	router.Use(RequestLogger(logger), gin.Recovery())

	gate, err := auth.NewGate(cfg.AuthToken, logger)
	if err != nil {
		return nil, err
	}

	healthHandler, err := handler.NewHealthHandler(storage, version, router.Routes)
	if err != nil {
		return nil, err
	}
	fileManager, err := handler.NewFileManager(cfg.FileManagerTemplate(), cfg.FileManager.Upstream, logger)
	if err != nil {
		return nil, err
	}
	infoHandler := handler.NewInfoHandler(version)
	uploadHandler := handler.NewUploadHandler(storage, cfg.MaxFileSize, logger)
	deleteHandler := handler.NewDeleteHandler(storage, logger)
	static := handler.NewStatic(cfg.StaticDir)

	router.GET("/", infoHandler.Index)
	router.GET("/health", healthHandler.Health)
	router.GET("/file-server", fileManager.Page)
	if fileManager.Proxied() {
		router.Any("/flmngr", fileManager.Proxy)
		router.Any("/flmngr/*path", fileManager.Proxy)
	}

	// stored files are public
	router.GET(cfg.FilesRoute+"/*filepath", uploadHandler.GetFile)
	router.HEAD(cfg.FilesRoute+"/*filepath", uploadHandler.GetFile)

	authorized := router.Group("/")
	authorized.Use(gate.Middleware())
	{
		authorized.POST("/upload", uploadHandler.Upload)
		authorized.DELETE("/delete", deleteHandler.Delete)
		authorized.POST("/delete", deleteHandler.Delete)
		authorized.GET("/list", uploadHandler.List)
		authorized.GET("/test-auth", infoHandler.TestAuth)
	}

	router.NoRoute(static.Serve)

	return router, nil
}

// NewHandler wraps the router with CORS handling for the given origins.
func NewHandler(router http.Handler, allowedOrigins []string) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	})(router)
}
