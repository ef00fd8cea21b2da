package handler

import (
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

// Static serves files from a directory for any request no route claimed.
type Static struct {
	root    http.FileSystem
	handler http.Handler
}

// NewStatic returns a Static for dir. An empty dir serves nothing.
func NewStatic(dir string) *Static {
	if dir == "" {
		return &Static{}
	}
	root := gin.Dir(dir, false)
	return &Static{
		root:    root,
		handler: http.FileServer(root),
	}
}

func (s *Static) Serve(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}

	name := path.Clean("/" + c.Request.URL.Path)
	if s.root == nil || strings.Contains(name, "/.") {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}
	f, err := s.root.Open(name)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}
	stat, err := f.Stat()
	f.Close()
	if err != nil || stat.IsDir() {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}

	// NoRoute handlers start with a 404 status; reset it before serving.
	c.Status(http.StatusOK)
	s.handler.ServeHTTP(c.Writer, c.Request)
}
