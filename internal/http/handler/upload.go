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

const (
	// room for multipart boundaries, headers and small form fields
	multipartOverhead = 1 << 20
	maxFilenameLength = 1024
)

type UploadHandler struct {
	storage storage.Storage
	maxSize int64
	logger  *slog.Logger
}

func NewUploadHandler(storage storage.Storage, maxSize int64, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		storage: storage,
		maxSize: maxSize,
		logger:  logger,
	}
}

type UploadResponse struct {
	Success  bool   `json:"success"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

type ListResponse struct {
	Files []storage.FileInfo `json:"files"`
}

// Upload streams the "file" part of a multipart body into storage. The
// optional "filename" field overrides the client file name and may contain
// subdirectories. Parts are accepted in any order.
func (h *UploadHandler) Upload(c *gin.Context) {
	limit := h.maxSize + multipartOverhead
	if c.Request.ContentLength > limit {
		h.logger.Warn("Upload too large", "contentLength", c.Request.ContentLength, "max", h.maxSize)
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "File too large"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	reader, err := c.Request.MultipartReader()
	if err != nil {
		h.logger.Warn("Failed to read multipart body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No file uploaded"})
		return
	}

	ctx := c.Request.Context()

	var (
		staged    *storage.StagedFile
		target    string
		committed bool
	)
	defer func() {
		if staged != nil && !committed {
			if err := h.storage.Discard(ctx, *staged); err != nil {
				h.logger.Error("Failed to discard staged upload", "id", staged.ID, "error", err)
			}
		}
	}()

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.logger.Warn("Malformed multipart body", "error", err)
			if isTooLarge(err) {
				c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "File too large"})
				return
			}
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid multipart body"})
			return
		}

		switch {
		case part.FormName() == "file" && part.FileName() != "" && staged == nil:
			sf, err := h.storage.Stage(ctx, part, part.FileName(), h.maxSize)
			part.Close()
			if err != nil {
				h.logger.Error("Failed to stage upload", "originalName", part.FileName(), "error", err)
				abortWithStorageError(c, err, "Failed to save file")
				return
			}
			staged = &sf

		case part.FormName() == "filename":
			b, err := io.ReadAll(io.LimitReader(part, maxFilenameLength+1))
			part.Close()
			if err != nil || len(b) > maxFilenameLength {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid filename"})
				return
			}
			target = strings.TrimSpace(string(b))

		default:
			_, err := io.Copy(io.Discard, part)
			part.Close()
			if err != nil {
				abortWithStorageError(c, err, "Failed to read request")
				return
			}
		}
	}

	if staged == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No file uploaded"})
		return
	}

	if target == "" {
		target = staged.OriginalName
	}

	fileInfo, err := h.storage.Commit(ctx, *staged, target)
	if err != nil {
		h.logger.Warn("Failed to store file", "filename", target, "error", err)
		abortWithStorageError(c, err, "Failed to save file")
		return
	}
	committed = true

	h.logger.Info("File uploaded successfully", "name", fileInfo.Name, "size", fileInfo.Size)
	c.JSON(http.StatusOK, UploadResponse{
		Success:  true,
		URL:      fileInfo.URL,
		Filename: fileInfo.Filename,
		Size:     fileInfo.Size,
	})
}

// GetFile serves a stored file by its path relative to the storage root.
func (h *UploadHandler) GetFile(c *gin.Context) {
	name := strings.TrimPrefix(c.Param("filepath"), "/")
	if name == "" {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "File not found"})
		return
	}

	file, fileInfo, err := h.storage.Open(c.Request.Context(), name)
	if err != nil {
		h.logger.Warn("File not served", "filename", name, "error", err)
		abortWithStorageError(c, err, "Failed to read file")
		return
	}
	defer file.Close()

	http.ServeContent(c.Writer, c.Request, fileInfo.Filename, fileInfo.ModTime, file)
}

func (h *UploadHandler) List(c *gin.Context) {
	files, err := h.storage.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list files", "error", err)
		abortWithStorageError(c, err, "Failed to list files")
		return
	}
	c.JSON(http.StatusOK, ListResponse{Files: files})
}
