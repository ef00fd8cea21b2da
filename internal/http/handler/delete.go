package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ondrasimku/file-server-go/internal/storage"
)

const deleteAction = "delete"

type DeleteHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewDeleteHandler(storage storage.Storage, logger *slog.Logger) *DeleteHandler {
	return &DeleteHandler{
		storage: storage,
		logger:  logger,
	}
}

type DeleteRequest struct {
	Filename string `json:"filename"`
	Action   string `json:"action"`
}

type DeleteResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

// Delete removes a single stored file. DELETE takes the name from the JSON
// body or the "filename" query parameter; POST additionally requires
// action "delete".
func (h *DeleteHandler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	if c.Request.Method == http.MethodPost && req.Action != deleteAction {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid action"})
		return
	}

	filename := strings.TrimSpace(req.Filename)
	if filename == "" && c.Request.Method == http.MethodDelete {
		filename = strings.TrimSpace(c.Query("filename"))
	}
	if filename == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Filename is required"})
		return
	}

	if err := h.storage.Delete(c.Request.Context(), filename); err != nil {
		h.logger.Warn("Failed to delete file", "filename", filename, "error", err)
		abortWithStorageError(c, err, "Failed to delete file")
		return
	}

	h.logger.Info("File deleted", "filename", filename)
	c.JSON(http.StatusOK, DeleteResponse{
		Success:  true,
		Message:  "File deleted successfully",
		Filename: filename,
	})
}
