package handler

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hellofresh/health-go/v5"
	"github.com/ondrasimku/file-server-go/internal/storage"
)

const ServiceName = "file-server"

type HealthHandler struct {
	health *health.Health
	routes func() gin.RoutesInfo
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Endpoints []string          `json:"endpoints"`
	Failures  map[string]string `json:"failures,omitempty"`
}

// NewHealthHandler registers a storage check. routes lists the endpoints
// reported by /health; it is read on every request so routes registered
// after the handler show up too.
func NewHealthHandler(store storage.Storage, version string, routes func() gin.RoutesInfo) (*HealthHandler, error) {
	h, err := health.New(health.WithComponent(health.Component{
		Name:    ServiceName,
		Version: version,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create health checker: %w", err)
	}

	err = h.Register(health.Config{
		Name:    "storage",
		Timeout: 2 * time.Second,
		Check: func(ctx context.Context) error {
			return store.Check(ctx)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register storage check: %w", err)
	}

	return &HealthHandler{health: h, routes: routes}, nil
}

func (h *HealthHandler) Health(c *gin.Context) {
	check := h.health.Measure(c.Request.Context())

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Endpoints: h.endpoints(),
	}

	if check.Status != health.StatusOK {
		resp.Status = "unhealthy"
		resp.Failures = check.Failures
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) endpoints() []string {
	if h.routes == nil {
		return []string{}
	}
	routes := h.routes()
	endpoints := make([]string, 0, len(routes))
	for _, r := range routes {
		endpoints = append(endpoints, r.Method+" "+r.Path)
	}
	sort.Strings(endpoints)
	return endpoints
}
