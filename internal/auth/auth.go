package auth

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ondrasimku/file-server-go/internal/http/handler"
)

var ErrInvalidToken = errors.New("invalid token")

// Gate authorizes requests carrying the pre-shared bearer token.
type Gate struct {
	token  []byte
	logger *slog.Logger
}

func NewGate(token string, logger *slog.Logger) (*Gate, error) {
	if token == "" {
		return nil, errors.New("auth token must not be empty")
	}
	return &Gate{token: []byte(token), logger: logger}, nil
}

// Authorize checks an Authorization header value of the form
// "Bearer <token>".
func (g *Gate) Authorize(header string) error {
	token, ok := bearerToken(header)
	if !ok {
		return ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(token), g.token) != 1 {
		return ErrInvalidToken
	}
	return nil
}

func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := g.Authorize(c.GetHeader("Authorization")); err != nil {
			g.logger.Warn("Rejected request", "path", c.Request.URL.Path, "clientIP", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusForbidden, handler.ErrorResponse{Error: "Invalid token"})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
