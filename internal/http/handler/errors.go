package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ondrasimku/file-server-go/internal/storage"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.Is(err, storage.ErrTooLarge) || errors.As(err, &maxErr)
}

// abortWithStorageError maps storage errors onto HTTP responses. Anything
// unrecognised is a server error described by fallback, with the
// underlying message passed through.
func abortWithStorageError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, storage.ErrPathTraversal):
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "Invalid file path"})
	case errors.Is(err, storage.ErrMissingFilename):
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid filename"})
	case errors.Is(err, storage.ErrNotFile):
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "Target is not a file"})
	case errors.Is(err, storage.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: "File not found"})
	case isTooLarge(err):
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "File too large"})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Error:   fallback,
			Message: err.Error(),
		})
	}
}
