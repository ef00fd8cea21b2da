package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type InfoHandler struct {
	version string
}

func NewInfoHandler(version string) *InfoHandler {
	return &InfoHandler{version: version}
}

func (h *InfoHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": ServiceName,
		"message": "Hello World !",
		"version": h.version,
	})
}

// TestAuth only runs behind the auth gate, so reaching it means the token
// was accepted.
func (h *InfoHandler) TestAuth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Authentication successful"})
}
