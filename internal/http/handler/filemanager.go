package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"github.com/gin-gonic/gin"
)

// FileManager serves the bundled file manager page and, when an upstream
// is configured, forwards the widget's backend calls to it.
type FileManager struct {
	template string
	proxy    *httputil.ReverseProxy
	logger   *slog.Logger
}

func NewFileManager(template, upstream string, logger *slog.Logger) (*FileManager, error) {
	fm := &FileManager{template: template, logger: logger}
	if upstream == "" {
		return fm, nil
	}

	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid file manager upstream: %w", err)
	}
	fm.proxy = &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(target)
			r.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("File manager upstream failed", "path", r.URL.Path, "error", err)
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, `{"error":"File manager unavailable"}`)
		},
	}
	return fm, nil
}

func (fm *FileManager) Proxied() bool {
	return fm.proxy != nil
}

func (fm *FileManager) Page(c *gin.Context) {
	page, err := os.ReadFile(fm.template)
	if err != nil {
		fm.logger.Error("Failed to read file manager template", "template", fm.template, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "File manager unavailable"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (fm *FileManager) Proxy(c *gin.Context) {
	if fm.proxy == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}
	fm.proxy.ServeHTTP(c.Writer, c.Request)
}
