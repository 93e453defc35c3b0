package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/friendsbook/backend/pkg/storage"
	"github.com/labstack/echo/v4"
)

var (
	allowedUploadTypes = map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}
	allowedUploadFolders = map[string]bool{"profiles": true, "covers": true, "posts": true}
)

const defaultUploadFolder = "posts"

// UploadSigner hands out presigned upload URLs
type UploadSigner interface {
	PresignUpload(ctx context.Context, folder, contentType string) (*storage.Upload, error)
}

// UploadHandler issues presigned URLs so clients upload images straight to object storage
type UploadHandler struct {
	signer UploadSigner
}

// NewUploadHandler creates an UploadHandler. A nil signer makes every upload request return 503.
func NewUploadHandler(signer UploadSigner) *UploadHandler {
	return &UploadHandler{signer: signer}
}

func (h *UploadHandler) RegisterUploadRoutes(g *echo.Group) {
	g.POST("/upload", h.CreateUpload)
}

type uploadRequest struct {
	ContentType string `json:"contentType"`
	Folder      string `json:"folder"`
}

func (h *UploadHandler) CreateUpload(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return err
	}
	if h.signer == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Uploads are not configured")
	}

	var req uploadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if !allowedUploadTypes[req.ContentType] {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid content type")
	}
	folder := req.Folder
	if !allowedUploadFolders[folder] {
		folder = defaultUploadFolder
	}

	upload, err := h.signer.PresignUpload(c.Request().Context(), folder, req.ContentType)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, upload)
}
